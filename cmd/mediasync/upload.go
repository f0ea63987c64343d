package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cartlab/go-media/cdn"
	"github.com/cartlab/go-media/compress"
	"github.com/cartlab/go-media/config"
	"github.com/cartlab/go-media/images"
	"github.com/cartlab/go-media/store"
)

var (
	uploadFolder        string
	uploadCreateProduct bool
	uploadProductName   string
	uploadProductPrice  float64
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file-or-directory>",
	Short: "Compress images and upload them to the CDN",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadFolder, "folder", "", "CDN folder (defaults to the configured upload folder)")
	uploadCmd.Flags().BoolVar(&uploadCreateProduct, "create-product", false, "create a product record per uploaded image")
	uploadCmd.Flags().StringVar(&uploadProductName, "name", "", "product name (single-file upload only)")
	uploadCmd.Flags().Float64Var(&uploadProductPrice, "price", 0, "product price (single-file upload only)")

	uploadCmd.Flags().IntVar(&compressCeilingKB, "ceiling-kb", 300, "target maximum upload size in KB")
	uploadCmd.Flags().IntVar(&compressAttempts, "max-attempts", compress.DefaultMaxAttempts, "encode attempt budget")
}

// mergeCompressConfig layers the compress section of the config file over
// the flag defaults. A flag the user changed wins over the file; a file
// value wins over a flag default.
func mergeCompressConfig(opts compress.Options, cc config.CompressConfig, changed func(string) bool) compress.Options {
	if cc.CeilingKB > 0 && !changed("ceiling-kb") {
		opts.CeilingBytes = cc.CeilingKB * 1024
	}
	if cc.MaxAttempts > 0 && !changed("max-attempts") {
		opts.MaxAttempts = cc.MaxAttempts
	}
	if cc.MaxWidth > 0 && !changed("max-width") {
		opts.MaxWidth = cc.MaxWidth
	}
	if cc.MaxHeight > 0 && !changed("max-height") {
		opts.MaxHeight = cc.MaxHeight
	}
	if cc.Quality > 0 {
		opts.StartQuality = cc.Quality
	}
	if cc.Format != "" && !changed("format") {
		opts.Format = images.Format(strings.ToLower(cc.Format))
	}
	return opts
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cdnClient, err := cdn.NewClient(cdn.Config{
		CloudName:    cfg.CDN.CloudName,
		APIKey:       cfg.CDN.APIKey,
		APISecret:    cfg.CDN.APISecret,
		BaseURL:      cfg.CDN.BaseURL,
		DeliveryHost: cfg.CDN.DeliveryHost,
		UploadFolder: cfg.CDN.UploadFolder,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	var docs *store.Client
	if uploadCreateProduct {
		docs, err = store.NewClient(store.Config{
			Endpoint:   cfg.Store.Endpoint,
			ProjectID:  cfg.Store.ProjectID,
			APIKey:     cfg.Store.APIKey,
			DatabaseID: cfg.Store.DatabaseID,
			Logger:     logger,
		})
		if err != nil {
			return err
		}
	}

	inputs, err := collectInputs(args[0])
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no image files found at %s", args[0])
	}
	if uploadProductName != "" && len(inputs) > 1 {
		return fmt.Errorf("--name applies to single-file uploads, got %d files", len(inputs))
	}

	opts := mergeCompressConfig(compressOptions(), cfg.Compress, cmd.Flags().Changed)

	ctx := cmd.Context()
	failed := 0
	for _, input := range inputs {
		res, err := compress.Reencode(input.Data, opts)
		if err != nil {
			failed++
			logger.Warn("compression failed", zap.String("file", input.Path), zap.Error(err))
			continue
		}
		if !res.WithinCeiling {
			logger.Warn("uploading best-effort result above the ceiling",
				zap.String("file", input.Path),
				zap.Int("bytes", res.Output.Size()))
		}

		asset, err := cdnClient.Upload(ctx, res.Output.Data, uploadFolder)
		if err != nil {
			failed++
			logger.Warn("upload failed", zap.String("file", input.Path), zap.Error(err))
			continue
		}
		fmt.Printf("%s -> %s\n", input.Path, asset.URL)

		if docs != nil {
			name := uploadProductName
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(input.Path), filepath.Ext(input.Path))
			}
			product := store.Product{Name: name, Price: uploadProductPrice, ImageURL: asset.URL}
			doc, err := docs.CreateDocument(ctx, cfg.Store.Collection, uuid.NewString(), product.Fields())
			if err != nil {
				failed++
				logger.Warn("product create failed", zap.String("file", input.Path), zap.Error(err))
				continue
			}
			fmt.Printf("  created product %s (%s)\n", doc.ID, name)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(inputs))
	}
	return nil
}

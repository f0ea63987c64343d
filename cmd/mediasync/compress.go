package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cartlab/go-media/compress"
	"github.com/cartlab/go-media/images"
	"github.com/cartlab/go-media/util"
)

var (
	compressOut       string
	compressCeilingKB int
	compressAttempts  int
	compressMaxWidth  int
	compressMaxHeight int
	compressFormat    string
)

var compressCmd = &cobra.Command{
	Use:   "compress <file-or-directory>",
	Short: "Re-encode images to fit a byte-size ceiling",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompress,
}

func init() {
	compressCmd.Flags().StringVarP(&compressOut, "out", "o", "compressed", "output directory")
	compressCmd.Flags().IntVar(&compressCeilingKB, "ceiling-kb", 300, "target maximum output size in KB")
	compressCmd.Flags().IntVar(&compressAttempts, "max-attempts", compress.DefaultMaxAttempts, "encode attempt budget")
	compressCmd.Flags().IntVar(&compressMaxWidth, "max-width", compress.DefaultMaxWidth, "maximum output width")
	compressCmd.Flags().IntVar(&compressMaxHeight, "max-height", compress.DefaultMaxHeight, "maximum output height")
	compressCmd.Flags().StringVar(&compressFormat, "format", string(images.FormatJPEG), "output format (jpeg or webp)")
}

func compressOptions() compress.Options {
	return compress.Options{
		CeilingBytes: compressCeilingKB * 1024,
		MaxAttempts:  compressAttempts,
		MaxWidth:     compressMaxWidth,
		MaxHeight:    compressMaxHeight,
		Format:       images.Format(strings.ToLower(compressFormat)),
	}
}

// collectInputs expands a file or directory argument into the image files to
// process.
func collectInputs(path string) ([]util.ImageFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return util.LoadDirectoryImageFiles(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	format, _ := images.FormatForExtension(filepath.Ext(path))
	return []util.ImageFile{{Path: path, Data: data, Format: format}}, nil
}

func runCompress(cmd *cobra.Command, args []string) error {
	inputs, err := collectInputs(args[0])
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no image files found at %s", args[0])
	}
	if err := os.MkdirAll(compressOut, 0o755); err != nil {
		return err
	}

	opts := compressOptions()
	failed := 0
	for _, input := range inputs {
		res, err := compress.Reencode(input.Data, opts)
		if err != nil {
			failed++
			logger.Warn("compression failed",
				zap.String("file", input.Path),
				zap.Error(err))
			continue
		}

		name := strings.TrimSuffix(filepath.Base(input.Path), filepath.Ext(input.Path))
		outPath := filepath.Join(compressOut, name+res.Output.Format.Ext())
		if err := os.WriteFile(outPath, res.Output.Data, 0o644); err != nil {
			return err
		}

		logger.Info("compressed image",
			zap.String("file", input.Path),
			zap.String("out", outPath),
			zap.Int("original_bytes", res.OriginalBytes),
			zap.Int("compressed_bytes", res.Output.Size()),
			zap.Int("attempts", res.Attempts),
			zap.Bool("within_ceiling", res.WithinCeiling))
		fmt.Printf("%s -> %s (%d -> %d bytes, %d attempts)\n",
			input.Path, outPath, res.OriginalBytes, res.Output.Size(), res.Attempts)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d images failed to compress", failed, len(inputs))
	}
	return nil
}

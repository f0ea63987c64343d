package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cartlab/go-media/cdn"
	"github.com/cartlab/go-media/metrics"
	"github.com/cartlab/go-media/migrate"
	"github.com/cartlab/go-media/store"
)

var migrateDryRun bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Move product image URLs from legacy storage to the CDN",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "classify items without uploading or updating")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	docs, err := store.NewClient(store.Config{
		Endpoint:   cfg.Store.Endpoint,
		ProjectID:  cfg.Store.ProjectID,
		APIKey:     cfg.Store.APIKey,
		DatabaseID: cfg.Store.DatabaseID,
		Logger:     logger,
	})
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

	if migrateDryRun {
		return dryRunMigrate(cmd, cfg.Store.Collection, docs, cdnClient, cfg.Migrate.LegacyHosts)
	}

	tracker := metrics.NewTracker()
	migrator, err := migrate.New(docs, cdnClient, migrate.Options{
		Collection:  cfg.Store.Collection,
		LegacyHosts: cfg.Migrate.LegacyHosts,
		Folder:      cfg.Migrate.Folder,
		Delay:       cfg.Migrate.Delay.Std(),
	}, logger, tracker)
	if err != nil {
		return err
	}

	summary, err := migrator.Run(cmd.Context())
	if summary != nil {
		printSummary(summary, tracker)
	}
	return err
}

func printSummary(summary *migrate.Summary, tracker *metrics.Tracker) {
	fmt.Printf("migrated: %d  skipped: %d  failed: %d\n",
		summary.Migrated, summary.Skipped, summary.Failed)
	for _, item := range summary.Items {
		switch item.Action {
		case migrate.ActionFailed:
			fmt.Printf("  FAIL %s: %s\n", item.DocumentID, item.Err)
		case migrate.ActionMigrated:
			fmt.Printf("  ok   %s -> %s\n", item.DocumentID, item.ToURL)
		}
	}

	if stats, ok := tracker.Snapshot().Timings["migrate.item"]; ok && stats.Count > 0 {
		fmt.Printf("per-item time: mean %s, min %s, max %s\n", stats.Mean, stats.Min, stats.Max)
	}
}

// dryRunMigrate reports what a real run would do without touching either
// service beyond the initial list.
func dryRunMigrate(cmd *cobra.Command, collection string, docs *store.Client, cdnClient *cdn.Client, legacyHosts []string) error {
	documents, err := docs.ListDocuments(cmd.Context(), collection)
	if err != nil {
		return err
	}

	var toMigrate, skipped int
	for _, doc := range documents {
		rawURL, _ := doc.Fields[store.FieldImageURL].(string)
		switch {
		case rawURL == "", cdnClient.IsDeliveryURL(rawURL), !migrate.IsLegacyURL(rawURL, legacyHosts):
			skipped++
		default:
			toMigrate++
			fmt.Printf("  would migrate %s: %s\n", doc.ID, rawURL)
		}
	}
	fmt.Printf("dry run: %d to migrate, %d to skip\n", toMigrate, skipped)
	return nil
}

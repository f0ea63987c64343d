// Package main provides the mediasync CLI: compress product images, upload
// them to the image CDN, and migrate catalog records off legacy storage.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cartlab/go-media/config"
)

var (
	logger *zap.Logger

	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "mediasync",
	Short: "Catalog media toolkit: compress, upload, and migrate product images",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// loadConfig reads the configuration file for the commands that talk to the
// hosted services. The compress command works without one.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "mediasync.yaml", "path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(compressCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(productsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

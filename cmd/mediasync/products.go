package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cartlab/go-media/store"
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Inspect product records in the document store",
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products and their image URLs",
	RunE:  runProductsList,
}

func init() {
	productsCmd.AddCommand(productsListCmd)
}

func runProductsList(cmd *cobra.Command, args []string) error {
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

	documents, err := docs.ListDocuments(cmd.Context(), cfg.Store.Collection)
	if err != nil {
		return err
	}

	for _, doc := range documents {
		p := store.ProductFromDocument(doc)
		fmt.Printf("%s\t%s\t%.2f\t%s\n", p.ID, p.Name, p.Price, p.ImageURL)
	}
	fmt.Printf("%d products\n", len(documents))
	return nil
}

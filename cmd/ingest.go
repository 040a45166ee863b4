/*
Copyright © 2025 caovinh
*/
package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/caovinh/manual-rag-be/config"
	"github.com/caovinh/manual-rag-be/database"
)

var ingestFilePath string

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a single PDF manual",
	Long:  `Extracts, chunks, and stores one PDF manual. Re-ingesting a file replaces its previous chunks.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		store, err := database.NewStore(cfg.DataDir)
		if err != nil {
			log.Fatalf("Failed to open chunk store: %v", err)
		}
		defer store.Close()

		manualService := buildManualService(cfg, store)

		doc, err := manualService.IngestDocument(context.Background(), ingestFilePath)
		if err != nil {
			log.Fatalf("Failed to ingest %s: %v", ingestFilePath, err)
		}
		log.Printf("Done: %s (%d pages)", doc.Filename, doc.PageCount)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVarP(&ingestFilePath, "file", "f", "", "path to the PDF file to ingest")
	ingestCmd.MarkFlagRequired("file")
}

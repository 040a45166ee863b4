/*
Copyright © 2025 caovinh
*/
package cmd

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/caovinh/manual-rag-be/config"
	"github.com/caovinh/manual-rag-be/database"
)

var batchIngestDir string

// batchIngestCmd represents the batch-ingest command
var batchIngestCmd = &cobra.Command{
	Use:   "batch-ingest",
	Short: "Ingest every PDF manual in a directory",
	Long: `Scans a directory for PDF files and ingests each one. A document that
fails to ingest is reported and skipped; the rest of the batch continues.
Exits non-zero when any document failed.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		paths, err := collectPDFs(batchIngestDir)
		if err != nil {
			log.Fatalf("Failed to scan %s: %v", batchIngestDir, err)
		}
		if len(paths) == 0 {
			log.Printf("No PDF files found in %s", batchIngestDir)
			return
		}

		store, err := database.NewStore(cfg.DataDir)
		if err != nil {
			log.Fatalf("Failed to open chunk store: %v", err)
		}
		defer store.Close()

		manualService := buildManualService(cfg, store)

		report := manualService.IngestBatch(context.Background(), paths)

		log.Printf("Ingested %d of %d documents", len(report.Succeeded), len(paths))
		for _, failure := range report.Failed {
			log.Printf("  failed: %s: %s", failure.File, failure.Reason)
		}
		if !report.OK() {
			store.Close()
			os.Exit(1)
		}
	},
}

// collectPDFs lists the .pdf files directly inside dir, sorted by name.
func collectPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}

func init() {
	rootCmd.AddCommand(batchIngestCmd)

	batchIngestCmd.Flags().StringVarP(&batchIngestDir, "directory", "d", "", "directory containing the PDF files to ingest")
	batchIngestCmd.MarkFlagRequired("directory")
}

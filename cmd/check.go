/*
Copyright © 2025 caovinh
*/
package cmd

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/caovinh/manual-rag-be/config"
	"github.com/caovinh/manual-rag-be/database"
	"github.com/caovinh/manual-rag-be/service"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify chunk store integrity",
	Long: `Scans the chunk store for orphaned chunks, ordinal gaps or duplicates,
empty chunk text, and documents without chunks. Never repairs anything.
Exits non-zero when violations are found.`,
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

		violations, err := service.NewIntegrityService(store).Check(context.Background())
		if err != nil {
			log.Fatalf("Integrity check failed: %v", err)
		}

		if len(violations) == 0 {
			log.Println("Chunk store is consistent")
			return
		}

		for _, v := range violations {
			log.Printf("%s: %s", v.Kind, v.Detail)
		}
		log.Printf("Found %d violations", len(violations))
		store.Close()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

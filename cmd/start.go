/*
Copyright © 2025 caovinh
*/
package cmd

import (
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/caovinh/manual-rag-be/config"
	"github.com/caovinh/manual-rag-be/database"
	"github.com/caovinh/manual-rag-be/handler"
	"github.com/caovinh/manual-rag-be/service"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the query server",
	Long:  `Starts the HTTP server that answers questions against the ingested manuals.`,
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

		aiService, err := buildAIService(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize AI backend: %v", err)
		}

		queryService := service.NewQueryService(
			buildSearcher(cfg, store),
			aiService,
			cfg.TopK,
			queryTimeout(cfg),
		)

		// Initialize handlers
		corsHandler := handler.NewCorsHandler()
		queryHandler := handler.NewQueryHandler(queryService)
		documentHandler := handler.NewDocumentHandler(store, cfg.UploadDir)
		wsService := service.NewWebSocketService(queryService)

		// Setup routes
		mux := http.NewServeMux()
		mux.Handle("/api/v1/query", queryHandler.HandleQuery())
		mux.Handle("/api/v1/documents", documentHandler.ListDocuments())
		mux.Handle("/api/v1/pdf", documentHandler.ServeDocument())
		mux.HandleFunc("/api/v1/ws/query", wsService.HandleQuery)

		log.Printf("Starting server on port %s...\n", cfg.Port)
		if err := http.ListenAndServe(":"+cfg.Port, corsHandler.CorsMiddleware(mux)); err != nil {
			log.Fatal("Server error:", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}

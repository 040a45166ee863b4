package cmd

import (
	"fmt"
	"time"

	"github.com/caovinh/manual-rag-be/config"
	"github.com/caovinh/manual-rag-be/database"
	"github.com/caovinh/manual-rag-be/service"
	"github.com/caovinh/manual-rag-be/types"
)

// buildEmbedder returns the embedder for the configured search strategy, or
// nil when the keyword strategy needs none.
func buildEmbedder(cfg *config.Config) database.Embedder {
	if cfg.SearchStrategy != config.SearchStrategyVector {
		return nil
	}
	return service.NewOpenAIEmbedder(cfg.AIEndpoint, cfg.OpenAIAPIKey, cfg.EmbeddingModel)
}

// buildSearcher selects the search strategy once at startup.
func buildSearcher(cfg *config.Config, store *database.Store) database.Searcher {
	if cfg.SearchStrategy == config.SearchStrategyVector {
		return database.NewVectorSearcher(store, buildEmbedder(cfg))
	}
	return database.NewKeywordSearcher(store)
}

// buildAIService selects the chat backend once at startup.
func buildAIService(cfg *config.Config) (service.AIService, error) {
	switch cfg.AIBackend {
	case config.AIBackendGemini:
		return service.NewGeminiService(cfg.GeminiAPIKeys, cfg.Model)
	case config.AIBackendOpenAI:
		return service.NewOpenAIService(cfg.AIEndpoint, cfg.OpenAIAPIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown ai_backend %q", cfg.AIBackend)
	}
}

// buildManualService wires the ingestion pipeline from configuration.
func buildManualService(cfg *config.Config, store *database.Store) *service.ManualService {
	pdfService := service.NewPDFService(types.DocumentServiceConfig{
		ChunkSize:     cfg.ChunkSize,
		ChunkOverlap:  cfg.ChunkOverlap,
		IncludeImages: cfg.VisionEnabled,
	})

	var vision *service.VisionService
	if cfg.VisionEnabled {
		vision = service.NewVisionService(cfg.AIEndpoint, cfg.OpenAIAPIKey, cfg.VisionModel)
	}

	return service.NewManualService(store, pdfService, vision, buildEmbedder(cfg), cfg.UploadDir)
}

func queryTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.QueryTimeoutSeconds) * time.Second
}

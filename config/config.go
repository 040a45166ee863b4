package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Search strategies selectable at startup.
const (
	SearchStrategyKeyword = "keyword"
	SearchStrategyVector  = "vector"
)

// AI backends selectable at startup.
const (
	AIBackendOpenAI = "openai"
	AIBackendGemini = "gemini"
)

// Config carries every option the process reads at startup. It is built once
// in the command layer and passed to constructors; nothing reads viper after
// LoadConfig returns.
type Config struct {
	Port      string `mapstructure:"port"`
	DataDir   string `mapstructure:"data_dir"`
	UploadDir string `mapstructure:"upload_dir"`

	AIBackend     string   `mapstructure:"ai_backend"`
	AIEndpoint    string   `mapstructure:"ai_endpoint"`
	Model         string   `mapstructure:"model"`
	OpenAIAPIKey  string   `mapstructure:"OPENAI_API_KEY"`
	GeminiAPIKeys []string `mapstructure:"gemini_api_keys"`

	SearchStrategy string `mapstructure:"search_strategy"`
	EmbeddingModel string `mapstructure:"embedding_model"`
	TopK           int    `mapstructure:"top_k"`

	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`

	VisionEnabled bool   `mapstructure:"vision_enabled"`
	VisionModel   string `mapstructure:"vision_model"`

	QueryTimeoutSeconds int `mapstructure:"query_timeout_seconds"`
}

func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set up Viper to read from config file
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetDefault("port", "8080")
	v.SetDefault("data_dir", "data")
	v.SetDefault("upload_dir", "manual_storage")
	v.SetDefault("ai_backend", AIBackendOpenAI)
	v.SetDefault("ai_endpoint", "https://api.openai.com/v1")
	v.SetDefault("model", "gpt-4o-mini")
	v.SetDefault("search_strategy", SearchStrategyKeyword)
	v.SetDefault("embedding_model", "text-embedding-3-small")
	v.SetDefault("top_k", 5)
	v.SetDefault("chunk_size", 1024)
	v.SetDefault("chunk_overlap", 128)
	v.SetDefault("vision_enabled", false)
	v.SetDefault("vision_model", "gpt-4o-mini")
	v.SetDefault("query_timeout_seconds", 60)

	// Set up Viper to read from environment variables
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Bind environment variables
	v.BindEnv("OPENAI_API_KEY")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects option combinations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_size), got %d", c.ChunkOverlap)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	switch c.SearchStrategy {
	case SearchStrategyKeyword, SearchStrategyVector:
	default:
		return fmt.Errorf("unknown search_strategy %q", c.SearchStrategy)
	}
	switch c.AIBackend {
	case AIBackendOpenAI, AIBackendGemini:
	default:
		return fmt.Errorf("unknown ai_backend %q", c.AIBackend)
	}
	return nil
}

package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all configuration for WikiRAG
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Wikipedia  WikipediaConfig  `mapstructure:"wikipedia"`
	Embeddings EmbeddingsConfig `mapstructure:"embeddings"`
	LLM        LLMConfig        `mapstructure:"llm"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Vector     VectorConfig     `mapstructure:"vector"`
	Retrieval  RetrievalConfig  `mapstructure:"retrieval"`
	Ingest     IngestConfig     `mapstructure:"ingest"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig holds session store configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// WikipediaConfig holds content source configuration
type WikipediaConfig struct {
	Language       string `mapstructure:"language"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// EmbeddingsConfig holds embedding provider configuration
type EmbeddingsConfig struct {
	Provider    string `mapstructure:"provider"` // ollama, openai
	Model       string `mapstructure:"model"`
	Dimension   int    `mapstructure:"dimension"`
	QueryPrefix string `mapstructure:"query_prefix"`
}

// LLMConfig holds generation provider configuration
type LLMConfig struct {
	Provider   string `mapstructure:"provider"` // ollama, openai
	Model      string `mapstructure:"model"`
	OllamaHost string `mapstructure:"ollama_host"`
}

// OpenAIConfig holds credentials for OpenAI-compatible endpoints
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// VectorConfig holds vector index configuration
type VectorConfig struct {
	Provider   string `mapstructure:"provider"` // qdrant, memory
	URL        string `mapstructure:"url"`
	APIKey     string `mapstructure:"api_key"`
	Collection string `mapstructure:"collection"`
}

// RetrievalConfig holds search defaults for the chat flow
type RetrievalConfig struct {
	TopK           int     `mapstructure:"top_k"`
	ScoreThreshold float64 `mapstructure:"score_threshold"`
}

// IngestConfig holds ingestion pipeline defaults
type IngestConfig struct {
	Workers          int `mapstructure:"workers"`
	MaxPagesPerTopic int `mapstructure:"max_pages_per_topic"`
	ChunkSize        int `mapstructure:"chunk_size"`
	ChunkOverlap     int `mapstructure:"chunk_overlap"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("WIKIRAG")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("database.path", "./data/wikirag.db")

	v.SetDefault("wikipedia.language", "en")
	v.SetDefault("wikipedia.timeout_seconds", 15)

	v.SetDefault("embeddings.provider", "ollama")
	v.SetDefault("embeddings.model", "nomic-embed-text")
	v.SetDefault("embeddings.dimension", 768)
	v.SetDefault("embeddings.query_prefix", "")

	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.model", "llama3.2:3b")
	v.SetDefault("llm.ollama_host", "http://localhost:11434")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")

	v.SetDefault("vector.provider", "qdrant")
	v.SetDefault("vector.url", "http://localhost:6333")
	v.SetDefault("vector.api_key", "")
	v.SetDefault("vector.collection", "wiki_rag")

	v.SetDefault("retrieval.top_k", 5)
	v.SetDefault("retrieval.score_threshold", 0.35)

	v.SetDefault("ingest.workers", 4)
	v.SetDefault("ingest.max_pages_per_topic", 5)
	v.SetDefault("ingest.chunk_size", 400)
	v.SetDefault("ingest.chunk_overlap", 40)
}

// Address returns the server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

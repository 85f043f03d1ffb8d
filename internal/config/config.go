// Package config loads and validates the application configuration from
// flags, environment variables, and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/pr-warden/internal/logger"
)

const llmProviderGemini = "gemini"

// Config represents the top-level configuration structure.
type Config struct {
	GitHub   GitHubConfig   `mapstructure:"github"`
	AI       AIConfig       `mapstructure:"ai"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	History  HistoryConfig  `mapstructure:"history"`
	Logging  logger.Config  `mapstructure:"logging"`
}

// GitHubConfig configures how the Platform Client authenticates.
type GitHubConfig struct {
	Token          string `mapstructure:"token"` // PAT, also settable via PLATFORM_TOKEN / --token
	AppID          int64  `mapstructure:"app_id"`
	InstallationID int64  `mapstructure:"installation_id"`
	PrivateKeyPath string `mapstructure:"private_key_path"`
	EnterpriseURL  string `mapstructure:"enterprise_url"`
}

// AIConfig configures the LLM Reviewer and Embedding Client.
type AIConfig struct {
	LLMProvider       string        `mapstructure:"llm_provider"`
	EmbedderProvider  string        `mapstructure:"embedder_provider"`
	OllamaHost        string        `mapstructure:"ollama_host"`
	GeminiAPIKey      string        `mapstructure:"gemini_api_key"`
	GeneratorModel    string        `mapstructure:"generator_model"`
	EmbedderModel     string        `mapstructure:"embedder_model"`
	InterRequestDelay time.Duration `mapstructure:"inter_request_delay"`
	MaxRetryAttempts  int           `mapstructure:"max_retry_attempts"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
}

func (c *AIConfig) Validate() error {
	if c.LLMProvider == llmProviderGemini && c.GeminiAPIKey == "" {
		return errors.New("ai.gemini_api_key is required for gemini provider")
	}
	if c.EmbedderProvider == llmProviderGemini && c.GeminiAPIKey == "" {
		return errors.New("ai.gemini_api_key is required for gemini embedder provider")
	}
	return nil
}

// PipelineConfig configures orchestrator-wide knobs that the spec treats as
// tunable configuration rather than constants.
type PipelineConfig struct {
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	VectorStorePath     string  `mapstructure:"vector_store_path"`
	VectorStoreBackend  string  `mapstructure:"vector_store_backend"` // only "file" is implemented; any other value falls back to it
	QdrantHost          string  `mapstructure:"qdrant_host"`
	ReportPath          string  `mapstructure:"report_path"`
	MaxIndexConcurrency int     `mapstructure:"max_index_concurrency"`
	ArchRulesPath       string  `mapstructure:"arch_rules_path"`
}

// HistoryConfig configures the optional Postgres-backed run-history ledger.
type HistoryConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (h *HistoryConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		h.Host, h.Port, h.Username, h.Password, h.Database, h.SSLMode)
}

// LoadConfig loads the configuration using Viper with the hierarchy:
// Flags (handled by caller) > Env Vars > Config File > Defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.pr-warden")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		slog.Debug("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded configuration", "file", v.ConfigFileUsed())
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)
	if ms := os.Getenv("LLM_INTER_REQUEST_DELAY_MS"); ms != "" {
		if n, err := strconv.Atoi(ms); err == nil {
			v.Set("ai.inter_request_delay", time.Duration(n)*time.Millisecond)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return &cfg, nil
}

// bindEnv wires the spec's required bare environment variable names (§6) to
// their dotted config keys, since AutomaticEnv alone only maps e.g.
// PIPELINE_REPORT_PATH, not REPORT_PATH.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("github.token", "PLATFORM_TOKEN")
	_ = v.BindEnv("ai.gemini_api_key", "LLM_API_KEY")
	_ = v.BindEnv("ai.inter_request_delay", "LLM_INTER_REQUEST_DELAY_MS")
	_ = v.BindEnv("pipeline.similarity_threshold", "SIMILARITY_THRESHOLD")
	_ = v.BindEnv("pipeline.vector_store_path", "VECTOR_STORE_PATH")
	_ = v.BindEnv("pipeline.vector_store_backend", "VECTOR_STORE_BACKEND")
	_ = v.BindEnv("pipeline.report_path", "REPORT_PATH")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("github.private_key_path", "keys/pr-warden.private-key.pem")

	v.SetDefault("ai.llm_provider", "ollama")
	v.SetDefault("ai.embedder_provider", "ollama")
	v.SetDefault("ai.ollama_host", "http://localhost:11434")
	v.SetDefault("ai.generator_model", "qwen2.5-coder")
	v.SetDefault("ai.embedder_model", "nomic-embed-text")
	v.SetDefault("ai.inter_request_delay", "35000ms")
	v.SetDefault("ai.max_retry_attempts", 5)
	v.SetDefault("ai.request_timeout", "2m")

	v.SetDefault("pipeline.similarity_threshold", 0.82)
	v.SetDefault("pipeline.vector_store_path", "./.code-embeddings.json")
	v.SetDefault("pipeline.vector_store_backend", "file")
	v.SetDefault("pipeline.qdrant_host", "localhost:6334")
	v.SetDefault("pipeline.report_path", "./report.json")
	v.SetDefault("pipeline.max_index_concurrency", 4)

	v.SetDefault("history.enabled", false)
	v.SetDefault("history.driver", "postgres")
	v.SetDefault("history.host", "localhost")
	v.SetDefault("history.port", 5432)
	v.SetDefault("history.database", "prwarden")
	v.SetDefault("history.username", "postgres")
	v.SetDefault("history.ssl_mode", "disable")
	v.SetDefault("history.max_open_conns", 10)
	v.SetDefault("history.max_idle_conns", 2)
	v.SetDefault("history.conn_max_lifetime", "5m")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
}

// ValidateForCLI checks the fields required to run any pipeline command.
func (c *Config) ValidateForCLI() error {
	if c.GitHub.Token == "" && c.GitHub.AppID == 0 {
		return errors.New("either github.token or github.app_id must be set")
	}
	if c.GitHub.AppID != 0 {
		if _, err := os.Stat(c.GitHub.PrivateKeyPath); os.IsNotExist(err) {
			return fmt.Errorf("github private key not found at path: %s", c.GitHub.PrivateKeyPath)
		}
	}
	if err := c.AI.Validate(); err != nil {
		return fmt.Errorf("ai config invalid: %w", err)
	}
	return nil
}

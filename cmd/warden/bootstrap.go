package main

import (
	"fmt"

	"github.com/sevigo/pr-warden/internal/config"
)

// loadConfig loads the layered configuration (flags > env > file > defaults)
// and applies the two flag overrides every data-fetching subcommand shares:
// --token and --llm-key take precedence over whatever the file/env layer
// resolved, since they're the explicit, most-specific source per §2.1.
func loadConfig(token, llmKey string) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if token != "" {
		cfg.GitHub.Token = token
	}
	if llmKey != "" {
		cfg.AI.GeminiAPIKey = llmKey
	}
	return cfg, nil
}

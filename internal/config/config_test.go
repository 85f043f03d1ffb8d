package config

import "testing"

func TestAIConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  AIConfig
		wantErr bool
	}{
		{
			name:    "ollama provider needs no key",
			config:  AIConfig{LLMProvider: "ollama", EmbedderProvider: "ollama"},
			wantErr: false,
		},
		{
			name:    "gemini generator without key",
			config:  AIConfig{LLMProvider: "gemini"},
			wantErr: true,
		},
		{
			name:    "gemini embedder without key",
			config:  AIConfig{EmbedderProvider: "gemini"},
			wantErr: true,
		},
		{
			name:    "gemini with key is valid",
			config:  AIConfig{LLMProvider: "gemini", GeminiAPIKey: "secret"},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("AIConfig.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateForCLI(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "no credentials at all",
			cfg:     Config{AI: AIConfig{LLMProvider: "ollama", EmbedderProvider: "ollama"}},
			wantErr: true,
		},
		{
			name: "PAT token is sufficient",
			cfg: Config{
				GitHub: GitHubConfig{Token: "ghp_x"},
				AI:     AIConfig{LLMProvider: "ollama", EmbedderProvider: "ollama"},
			},
			wantErr: false,
		},
		{
			name: "app id without private key on disk fails",
			cfg: Config{
				GitHub: GitHubConfig{AppID: 42, PrivateKeyPath: "/nonexistent/key.pem"},
				AI:     AIConfig{LLMProvider: "ollama", EmbedderProvider: "ollama"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.ValidateForCLI(); (err != nil) != tt.wantErr {
				t.Errorf("Config.ValidateForCLI() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

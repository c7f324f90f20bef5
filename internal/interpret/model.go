package interpret

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/mistral"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// ModelConfig identifies the natural-language collaborator.
type ModelConfig struct {
	Provider  string // openai, anthropic, ollama or mistral
	Model     string
	APIKey    string
	ServerURL string // ollama only
}

// NewModelFromConfig builds the llms.Model for the configured provider.
// An empty provider returns nil without error; the gateway treats a nil
// model as permanently degraded and serves fallbacks.
func NewModelFromConfig(cfg ModelConfig) (llms.Model, error) {
	switch strings.ToLower(cfg.Provider) {
	case "":
		return nil, nil
	case "openai":
		return openai.New(
			openai.WithModel(cfg.Model),
			openai.WithToken(cfg.APIKey),
		)
	case "anthropic":
		return anthropic.New(
			anthropic.WithModel(cfg.Model),
			anthropic.WithToken(cfg.APIKey),
		)
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.ServerURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.ServerURL))
		}
		return ollama.New(opts...)
	case "mistral":
		return mistral.New(
			mistral.WithModel(cfg.Model),
			mistral.WithAPIKey(cfg.APIKey),
		)
	default:
		return nil, fmt.Errorf("unsupported interpreter provider: %s", cfg.Provider)
	}
}

// Package llm adapts language model backends to tagstream.TextSource.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/justinpbarnett/devdeck/internal/config"
	"github.com/justinpbarnett/devdeck/internal/tagstream"
)

var ErrMissingAPIKey = errors.New("anthropic API key not set (settings anthropicApiKey or ANTHROPIC_API_KEY)")

// Request is one prompt. Dir is the working directory for backends that run
// locally and may read the project themselves. Model, when set, overrides the
// configured model.
type Request struct {
	System string
	Prompt string
	Dir    string
	Model  string
}

// Provider starts a streamed completion.
type Provider interface {
	Name() string
	Stream(ctx context.Context, req Request) (tagstream.TextSource, error)
}

// ResolveAPIKey prefers the key stored in settings over the environment.
func ResolveAPIKey(fromSettings string) string {
	if fromSettings != "" {
		return fromSettings
	}
	return os.Getenv("ANTHROPIC_API_KEY")
}

// New picks the backend named by cfg.Provider.
func New(cfg config.LLMConfig, apiKey string) (Provider, error) {
	switch cfg.Provider {
	case "anthropic", "":
		if apiKey == "" {
			return nil, ErrMissingAPIKey
		}
		return NewAnthropic(cfg, apiKey), nil
	case "claude":
		return NewClaude(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bdia-labs/gaia-bench/internal/config"
)

// NewRegistryFromConfig builds a provider registry from the configured
// provider credentials. Providers with no config entry stay
// unregistered, and ForModel reports them as unconfigured.
func NewRegistryFromConfig(cfg *config.Config) (*Registry, error) {
	if cfg == nil {
		return nil, errors.New("llm: nil config")
	}

	r := NewRegistry()
	for name, pc := range cfg.LLM.Providers {
		p, err := buildProvider(name, pc)
		if err != nil {
			return nil, err
		}
		if p != nil {
			r.Register(p)
		}
	}
	return r, nil
}

// buildProvider returns nil for a blank name so empty map keys from
// sloppy YAML are skipped rather than rejected.
func buildProvider(name string, pc config.ProviderConfig) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return nil, nil
	case "claude", "anthropic":
		return NewClaudeProvider(pc.APIKey, pc.BaseURL), nil
	case "openai":
		return NewOpenAIProvider(pc.APIKey, pc.BaseURL), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", name)
	}
}

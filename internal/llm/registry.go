package llm

import (
	"fmt"
	"sort"
	"strings"
)

// Registry holds the configured providers keyed by lowercased name.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: map[string]Provider{}}
}

// Register adds p under its lowercased name. Nil providers and blank
// names are dropped.
func (r *Registry) Register(p Provider) {
	if r == nil || p == nil {
		return
	}
	key := providerKey(p.Name())
	if key == "" {
		return
	}
	if r.providers == nil {
		r.providers = map[string]Provider{}
	}
	r.providers[key] = p
}

// Get looks up a provider by name, case-insensitively.
func (r *Registry) Get(name string) (Provider, bool) {
	if r == nil {
		return nil, false
	}
	p, ok := r.providers[providerKey(name)]
	if p == nil {
		return nil, false
	}
	return p, ok
}

func providerKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ForModel resolves the provider that serves a model name. Models route
// by family prefix: claude models to the claude provider, GPT-family
// models to openai.
func (r *Registry) ForModel(model string) (Provider, error) {
	name := ProviderNameForModel(model)
	if name == "" {
		return nil, fmt.Errorf("llm: no provider for model %q", strings.TrimSpace(model))
	}
	p, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("llm: provider %q not configured for model %q", name, strings.TrimSpace(model))
	}
	return p, nil
}

// Names lists the registered provider names, sorted.
func (r *Registry) Names() []string {
	if r == nil || len(r.providers) == 0 {
		return nil
	}
	out := make([]string, 0, len(r.providers))
	for k := range r.providers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ProviderNameForModel maps a model name to the provider family that
// serves it, or "" when the family is unknown.
func ProviderNameForModel(model string) string {
	m := strings.ToLower(strings.TrimSpace(model))
	switch {
	case m == "":
		return ""
	case strings.HasPrefix(m, "claude"):
		return "claude"
	case strings.HasPrefix(m, "gpt-"),
		strings.HasPrefix(m, "chatgpt"),
		strings.HasPrefix(m, "o1"),
		strings.HasPrefix(m, "o3"),
		strings.HasPrefix(m, "o4"),
		strings.HasPrefix(m, "whisper"):
		return "openai"
	default:
		return ""
	}
}

package llmclient

import (
	"fmt"

	"gamal/internal/errs"
)

// ProviderConfig carries the subset of configuration every provider
// factory needs to build a ChatClient, grounded on the teacher's
// pkg/llm/registry.go ProviderGroupConfig.
type ProviderConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Options map[string]any
}

// Factory builds a ChatClient from a ProviderConfig.
type Factory func(cfg ProviderConfig) (ChatClient, error)

var registry = map[string]Factory{}

// RegisterProvider registers a Factory under name. Alternate provider
// packages (openaisdk, geministream, ollamanative) call this from an
// init() func, the teacher's plugin-registry idiom: main wires them in
// by blank-importing the package for its side effect.
func RegisterProvider(name string, f Factory) {
	registry[name] = f
}

func init() {
	// The hand-rolled default is always available without an import,
	// since it is the one the core pipeline is specified against.
	RegisterProvider("openai-compat", func(cfg ProviderConfig) (ChatClient, error) {
		return New(Config{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
		}), nil
	})
}

// Resolve looks up a registered provider factory by name and builds a
// client from cfg. An unresolvable name is a ConfigError, the same
// severity class as a missing API key: both mean the process cannot
// start at all.
func Resolve(name string, cfg ProviderConfig) (ChatClient, error) {
	f, ok := registry[name]
	if !ok {
		return nil, errs.New(errs.KindConfig, fmt.Sprintf("unknown LLM_PROVIDER %q", name))
	}
	return f(cfg)
}

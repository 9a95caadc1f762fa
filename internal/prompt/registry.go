package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoAdapter is returned when neither the model name nor an explicit
// prompt format matches a registered adapter. There is no fallback
// adapter; a miss is a configuration error the caller must surface.
var ErrNoAdapter = errors.New("prompt: no adapter registered")

type registration struct {
	adapter Adapter
	aliases []string
}

var registry []registration

// Register adds an adapter to the lookup table. Aliases are matched as
// substrings of the lower-cased model name; registration order decides
// ties.
func Register(a Adapter, aliases ...string) {
	registry = append(registry, registration{adapter: a, aliases: aliases})
}

// Resolve returns the adapter for the given model name. When
// promptFormat is non-empty it must equal a registered adapter name
// exactly; otherwise the model name is matched by substring against the
// registered aliases. Resolution is deterministic and has no side
// effects, so the same inputs always yield the same adapter instance.
func Resolve(modelName, promptFormat string) (Adapter, error) {
	model := strings.ToLower(modelName)
	format := strings.ToLower(promptFormat)

	if format != "" {
		for _, reg := range registry {
			if reg.adapter.Name() == format {
				return reg.adapter, nil
			}
		}
		return nil, fmt.Errorf("%w for prompt format %q", ErrNoAdapter, promptFormat)
	}

	for _, reg := range registry {
		for _, alias := range reg.aliases {
			if strings.Contains(model, alias) {
				return reg.adapter, nil
			}
		}
	}
	return nil, fmt.Errorf("%w for model %q", ErrNoAdapter, modelName)
}

func init() {
	Register(NewLlama2Adapter(), "llama-2", "llama2", "codellama")
	Register(NewChatMLAdapter(), "qwen", "chatml", "yi")
	Register(NewVicunaAdapter(), "vicuna", "xwin")
}

// Package prompt selects and applies model-specific chat templates.
package prompt

import "github.com/openllm/llamagate/internal/models"

// Adapter renders a message list into a model-specific prompt string.
// Implementations hold no mutable state after construction and are safe
// to share across concurrent requests.
type Adapter interface {
	// Name reports the canonical prompt format name used for explicit
	// lookup via the prompt_format configuration key.
	Name() string

	// ApplyChatTemplate renders the messages into the final prompt string
	// handed to the generation backend.
	ApplyChatTemplate(messages []models.ChatCompletionMessage) string

	// FunctionCallSupported reports whether the adapter knows how to
	// inline function and tool definitions into the message list.
	FunctionCallSupported() bool

	// PostprocessMessages rewrites the message list to inline function
	// and tool schemas. Only invoked when FunctionCallSupported is true
	// and at least one definition was supplied. Must not mutate the
	// input slice.
	PostprocessMessages(messages []models.ChatCompletionMessage, functions []models.Function, tools []models.Tool) []models.ChatCompletionMessage
}

// StopProvider is an optional capability for adapters whose template
// markers double as stop sequences.
type StopProvider interface {
	StopSequences() []string
}

// StopSequences returns the adapter's stop strings. ok is false when the
// adapter does not configure any; this is never an error.
func StopSequences(a Adapter) (stop []string, ok bool) {
	sp, ok := a.(StopProvider)
	if !ok {
		return nil, false
	}
	return sp.StopSequences(), true
}

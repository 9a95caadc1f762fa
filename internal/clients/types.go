package clients

import (
	"context"

	"github.com/openllm/llamagate/internal/models"
)

// GenerationOptions is the open-ended parameter bag forwarded to the
// generation backend. Only Stream and Stop are inspected by the layers
// above; everything else passes through opaquely.
type GenerationOptions struct {
	Stream      bool
	Stop        []string
	Temperature float32
	TopP        float32
	MaxTokens   int
	Extra       map[string]interface{}
}

// EventStream is a pull iterator over raw completion events. Recv
// returns io.EOF once the backend has no more events. Close releases
// the underlying connection and must be called when consumption stops
// early, so the backend can reclaim its generation context.
type EventStream interface {
	Recv() (*models.CompletionEvent, error)
	Close() error
}

// CompletionClient defines the interface for generation backend clients
type CompletionClient interface {
	// Complete runs a full generation and returns the single final event.
	Complete(ctx context.Context, prompt string, opts GenerationOptions) (*models.CompletionEvent, error)

	// CompleteStream starts a generation and returns its event stream.
	CompleteStream(ctx context.Context, prompt string, opts GenerationOptions) (EventStream, error)
}

// CompletionClientConfig contains configuration for backend clients
type CompletionClientConfig struct {
	APIBase       string
	Model         string
	DefaultParams map[string]interface{}
}

func floatParam(params map[string]interface{}, key string) (float32, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return float32(n), true
	case float32:
		return n, true
	case int:
		return float32(n), true
	}
	return 0, false
}

func intParam(params map[string]interface{}, key string) (int, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}

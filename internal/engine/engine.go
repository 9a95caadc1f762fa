// Package engine reshapes raw generation output from a backend into the
// public chat-completion schema, both aggregate and streaming.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openllm/llamagate/internal/clients"
	"github.com/openllm/llamagate/internal/logger"
	"github.com/openllm/llamagate/internal/models"
	"github.com/openllm/llamagate/internal/prompt"
)

// ErrMalformedEvent is returned when the generation backend emits an
// event without choices, violating its contract. The failure surfaces
// immediately; retrying is the caller's business.
var ErrMalformedEvent = errors.New("engine: completion event has no choices")

// Engine wraps a generation backend client and a resolved prompt
// adapter. It owns no mutable state beyond construction and is safe to
// share across concurrent requests.
type Engine struct {
	Client    clients.CompletionClient
	Adapter   prompt.Adapter
	ModelName string
	Logger    *logger.Logger
}

// New resolves the prompt adapter for modelName (with an optional
// explicit promptFormat) and returns a ready engine. A resolution miss
// is a configuration error and surfaces unchanged.
func New(client clients.CompletionClient, modelName, promptFormat string) (*Engine, error) {
	modelName = strings.ToLower(modelName)
	adapter, err := prompt.Resolve(modelName, promptFormat)
	if err != nil {
		return nil, err
	}

	log := logger.GetLogger().WithComponent("engine")
	log.Info("Resolved prompt adapter %q for model %q", adapter.Name(), modelName)

	return &Engine{
		Client:    client,
		Adapter:   adapter,
		ModelName: modelName,
		Logger:    log,
	}, nil
}

// ApplyChatTemplate renders messages into the backend prompt string.
// When the adapter supports function calling and definitions were
// supplied, the messages are postprocessed first to inline the schemas;
// otherwise the original list is rendered untouched.
func (e *Engine) ApplyChatTemplate(messages []models.ChatCompletionMessage, functions []models.Function, tools []models.Tool) string {
	if e.Adapter.FunctionCallSupported() && (len(functions) > 0 || len(tools) > 0) {
		messages = e.Adapter.PostprocessMessages(messages, functions, tools)
	}
	return e.Adapter.ApplyChatTemplate(messages)
}

// StopSequences returns the adapter's configured stop strings, or nil
// when the adapter does not expose any.
func (e *Engine) StopSequences() []string {
	stop, ok := prompt.StopSequences(e.Adapter)
	if !ok {
		return nil
	}
	return stop
}

// CreateChatCompletion runs a full generation and builds the aggregate
// response. The reported finish reason is always "stop" regardless of
// why the backend actually stopped; only the streaming path preserves
// the raw reason.
func (e *Engine) CreateChatCompletion(ctx context.Context, promptText string, opts clients.GenerationOptions) (*models.ChatCompletion, error) {
	opts.Stream = false

	event, err := e.Client.Complete(ctx, promptText, opts)
	if err != nil {
		e.Logger.WithError(err).Error("Backend completion failed")
		return nil, fmt.Errorf("complete: %w", err)
	}
	return buildChatCompletion(event)
}

func buildChatCompletion(event *models.CompletionEvent) (*models.ChatCompletion, error) {
	if len(event.Choices) == 0 {
		return nil, ErrMalformedEvent
	}
	return &models.ChatCompletion{
		ID:      "chat" + event.ID,
		Object:  models.ObjectChatCompletion,
		Created: event.Created,
		Model:   event.Model,
		Choices: []models.ChatCompletionChoice{
			{
				Index: 0,
				Message: models.ChatCompletionMessage{
					Role:    models.RoleAssistant,
					Content: strings.TrimSpace(event.Choices[0].Text),
				},
				FinishReason: "stop",
			},
		},
		Usage: event.Usage,
	}, nil
}

// CreateChatCompletionStream starts a streaming generation and returns
// the chunk stream. The caller must Close the stream once it stops
// consuming, exhausted or not.
func (e *Engine) CreateChatCompletionStream(ctx context.Context, promptText string, opts clients.GenerationOptions) (*ChunkStream, error) {
	opts.Stream = true

	events, err := e.Client.CompleteStream(ctx, promptText, opts)
	if err != nil {
		e.Logger.WithError(err).Error("Backend stream failed to start")
		return nil, fmt.Errorf("start stream: %w", err)
	}
	return &ChunkStream{events: events}, nil
}

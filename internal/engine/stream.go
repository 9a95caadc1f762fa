package engine

import (
	"io"

	"github.com/openllm/llamagate/internal/clients"
	"github.com/openllm/llamagate/internal/models"
)

// ChunkStream converts raw completion events into chat.completion.chunk
// objects on demand. Each Recv pulls at most one event from the
// backend, so backpressure falls out of the pull model and at most one
// raw event is in flight. The persistent state is whether the leading
// role-announcement chunk has been emitted and whether the terminal
// event has been seen.
type ChunkStream struct {
	events     clients.EventStream
	headerSent bool
	done       bool
	pending    *models.ChatCompletionChunk
}

// Recv returns the next chunk. The first chunk of a non-empty stream
// always announces role "assistant" with empty content; the chunk built
// from the terminal event carries an empty delta and the backend's
// finish reason verbatim. After that chunk Recv returns io.EOF without
// touching the backend again. An upstream sequence with no events
// yields io.EOF immediately and never emits the role announcement.
func (s *ChunkStream) Recv() (*models.ChatCompletionChunk, error) {
	if s.pending != nil {
		chunk := s.pending
		s.pending = nil
		return chunk, nil
	}
	if s.done {
		return nil, io.EOF
	}

	event, err := s.events.Recv()
	if err != nil {
		s.done = true
		return nil, err
	}
	if len(event.Choices) == 0 {
		s.done = true
		return nil, ErrMalformedEvent
	}

	chunk := chunkFromEvent(event)
	if event.Choices[0].FinishReason != nil {
		s.done = true
	}
	if !s.headerSent {
		s.headerSent = true
		s.pending = chunk
		return headerChunk(event), nil
	}
	return chunk, nil
}

// Close releases the underlying backend stream. Required when
// consumption stops early, harmless after exhaustion.
func (s *ChunkStream) Close() error {
	return s.events.Close()
}

func chunkFromEvent(event *models.CompletionEvent) *models.ChatCompletionChunk {
	choice := event.Choices[0]

	// fragments are emitted verbatim; trimming would corrupt client-side
	// reassembly
	var delta models.ChunkDelta
	if choice.FinishReason == nil {
		content := choice.Text
		delta.Content = &content
	}

	return &models.ChatCompletionChunk{
		ID:      "chat" + event.ID,
		Object:  models.ObjectChatCompletionChunk,
		Created: event.Created,
		Model:   event.Model,
		Choices: []models.ChatCompletionChunkChoice{
			{Index: 0, Delta: delta, FinishReason: choice.FinishReason},
		},
	}
}

func headerChunk(event *models.CompletionEvent) *models.ChatCompletionChunk {
	empty := ""
	return &models.ChatCompletionChunk{
		ID:      "chat" + event.ID,
		Object:  models.ObjectChatCompletionChunk,
		Created: event.Created,
		Model:   event.Model,
		Choices: []models.ChatCompletionChunkChoice{
			{Index: 0, Delta: models.ChunkDelta{Role: models.RoleAssistant, Content: &empty}},
		},
	}
}

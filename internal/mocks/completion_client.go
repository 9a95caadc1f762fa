package mocks

import (
	"context"
	"io"

	"github.com/openllm/llamagate/internal/clients"
	"github.com/openllm/llamagate/internal/models"
)

// MockCompletionClient implements CompletionClient for testing
type MockCompletionClient struct {
	CompleteFunc       func(ctx context.Context, prompt string, opts clients.GenerationOptions) (*models.CompletionEvent, error)
	CompleteStreamFunc func(ctx context.Context, prompt string, opts clients.GenerationOptions) (clients.EventStream, error)
}

func (m *MockCompletionClient) Complete(ctx context.Context, prompt string, opts clients.GenerationOptions) (*models.CompletionEvent, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt, opts)
	}
	return &models.CompletionEvent{}, nil
}

func (m *MockCompletionClient) CompleteStream(ctx context.Context, prompt string, opts clients.GenerationOptions) (clients.EventStream, error) {
	if m.CompleteStreamFunc != nil {
		return m.CompleteStreamFunc(ctx, prompt, opts)
	}
	return &MockEventStream{}, nil
}

// MockEventStream replays a fixed slice of events and records whether
// Close was called.
type MockEventStream struct {
	Events []*models.CompletionEvent
	Closed bool

	next int
}

func (s *MockEventStream) Recv() (*models.CompletionEvent, error) {
	if s.next >= len(s.Events) {
		return nil, io.EOF
	}
	event := s.Events[s.next]
	s.next++
	return event, nil
}

func (s *MockEventStream) Close() error {
	s.Closed = true
	return nil
}

// Remaining reports how many events have not been pulled yet.
func (s *MockEventStream) Remaining() int {
	return len(s.Events) - s.next
}

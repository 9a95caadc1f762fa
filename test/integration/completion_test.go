package integration

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/openllm/llamagate/internal/clients"
	"github.com/openllm/llamagate/internal/engine"
	"github.com/openllm/llamagate/internal/logger"
	"github.com/openllm/llamagate/internal/mocks"
	"github.com/openllm/llamagate/internal/models"
)

func init() {
	logger.InitLogger(logger.INFO, "integration_test")
}

func strPtr(s string) *string {
	return &s
}

// Exercises the full non-streaming flow: template rendering, backend
// call and response reassembly.
func TestCompletionIntegration(t *testing.T) {
	mockClient := &mocks.MockCompletionClient{
		CompleteFunc: func(ctx context.Context, promptText string, opts clients.GenerationOptions) (*models.CompletionEvent, error) {
			assert.Contains(t, promptText, "<|im_start|>user\nWhat is 2+2?<|im_end|>")
			assert.True(t, strings.HasSuffix(promptText, "<|im_start|>assistant\n"))
			return &models.CompletionEvent{
				ID:      "cmpl-int-1",
				Created: time.Now().Unix(),
				Model:   "qwen-7b-chat",
				Choices: []models.CompletionEventChoice{{Text: "4", FinishReason: strPtr("stop")}},
				Usage:   &models.CompletionUsage{PromptTokens: 12, CompletionTokens: 1, TotalTokens: 13},
			}, nil
		},
	}

	eng, err := engine.New(mockClient, "Qwen-7B-Chat", "")
	assert.NoError(t, err)

	promptText := eng.ApplyChatTemplate([]models.ChatCompletionMessage{
		{Role: models.RoleUser, Content: "What is 2+2?"},
	}, nil, nil)

	opts := clients.GenerationOptions{Stop: eng.StopSequences()}
	resp, err := eng.CreateChatCompletion(context.Background(), promptText, opts)

	assert.NoError(t, err)
	assert.Equal(t, "chatcmpl-int-1", resp.ID)
	assert.Equal(t, "4", resp.Choices[0].Message.Content)
	assert.Equal(t, 13, resp.Usage.TotalTokens)
}

// Exercises the full streaming flow, including early abandonment.
func TestStreamingIntegration(t *testing.T) {
	newEvents := func() []*models.CompletionEvent {
		return []*models.CompletionEvent{
			{ID: "cmpl-int-2", Model: "qwen-7b-chat", Choices: []models.CompletionEventChoice{{Text: "The answer"}}},
			{ID: "cmpl-int-2", Model: "qwen-7b-chat", Choices: []models.CompletionEventChoice{{Text: " is 4."}}},
			{ID: "cmpl-int-2", Model: "qwen-7b-chat", Choices: []models.CompletionEventChoice{{FinishReason: strPtr("stop")}}},
		}
	}

	t.Run("FullConsumption", func(t *testing.T) {
		mockClient := &mocks.MockCompletionClient{
			CompleteStreamFunc: func(ctx context.Context, promptText string, opts clients.GenerationOptions) (clients.EventStream, error) {
				return &mocks.MockEventStream{Events: newEvents()}, nil
			},
		}
		eng, err := engine.New(mockClient, "qwen-7b-chat", "")
		assert.NoError(t, err)

		stream, err := eng.CreateChatCompletionStream(context.Background(), "prompt", clients.GenerationOptions{})
		assert.NoError(t, err)
		defer stream.Close()

		var content strings.Builder
		var count int
		for {
			chunk, err := stream.Recv()
			if err == io.EOF {
				break
			}
			assert.NoError(t, err)
			count++
			if c := chunk.Choices[0].Delta.Content; c != nil {
				content.WriteString(*c)
			}
		}

		assert.Equal(t, 4, count)
		assert.Equal(t, "The answer is 4.", content.String())
	})

	t.Run("EarlyAbandonment", func(t *testing.T) {
		es := &mocks.MockEventStream{Events: newEvents()}
		mockClient := &mocks.MockCompletionClient{
			CompleteStreamFunc: func(ctx context.Context, promptText string, opts clients.GenerationOptions) (clients.EventStream, error) {
				return es, nil
			},
		}
		eng, err := engine.New(mockClient, "qwen-7b-chat", "")
		assert.NoError(t, err)

		stream, err := eng.CreateChatCompletionStream(context.Background(), "prompt", clients.GenerationOptions{})
		assert.NoError(t, err)

		_, err = stream.Recv()
		assert.NoError(t, err)

		// dropping the stream mid-generation must release the backend
		assert.NoError(t, stream.Close())
		assert.True(t, es.Closed)
		assert.Greater(t, es.Remaining(), 0)
	})
}

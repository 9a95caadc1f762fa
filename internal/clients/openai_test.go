package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenAIClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/v1/completions", r.URL.Path)

		var req map[string]interface{}
		err := json.NewDecoder(r.Body).Decode(&req)
		assert.NoError(t, err)
		assert.Equal(t, "test prompt", req["prompt"])
		assert.Equal(t, "test-model", req["model"])
		// unset sampling params fall back to configured defaults
		assert.InDelta(t, 0.7, req["temperature"], 0.001)

		fmt.Fprint(w, `{
			"id": "cmpl-42",
			"object": "text_completion",
			"created": 1700000000,
			"model": "test-model",
			"choices": [{"index": 0, "text": "generated text", "finish_reason": "length"}],
			"usage": {"prompt_tokens": 5, "completion_tokens": 7, "total_tokens": 12}
		}`)
	}))
	defer server.Close()

	client := NewOpenAIClient(CompletionClientConfig{
		APIBase: server.URL + "/v1",
		Model:   "test-model",
		DefaultParams: map[string]interface{}{
			"temperature": 0.7,
		},
	})

	event, err := client.Complete(context.Background(), "test prompt", GenerationOptions{})

	assert.NoError(t, err)
	assert.Equal(t, "cmpl-42", event.ID)
	assert.Equal(t, int64(1700000000), event.Created)
	assert.Equal(t, "test-model", event.Model)
	assert.Len(t, event.Choices, 1)
	assert.Equal(t, "generated text", event.Choices[0].Text)
	if assert.NotNil(t, event.Choices[0].FinishReason) {
		assert.Equal(t, "length", *event.Choices[0].FinishReason)
	}
	if assert.NotNil(t, event.Usage) {
		assert.Equal(t, 12, event.Usage.TotalTokens)
	}
}

func TestOpenAIClient_CompleteStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		lines := []string{
			`{"id":"cmpl-7","object":"text_completion","created":1,"model":"m","choices":[{"index":0,"text":"Hel","finish_reason":null}]}`,
			`{"id":"cmpl-7","object":"text_completion","created":1,"model":"m","choices":[{"index":0,"text":"lo","finish_reason":null}]}`,
			`{"id":"cmpl-7","object":"text_completion","created":1,"model":"m","choices":[{"index":0,"text":"","finish_reason":"stop"}]}`,
		}
		for _, line := range lines {
			fmt.Fprintf(w, "data: %s\n\n", line)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
	defer server.Close()

	client := NewOpenAIClient(CompletionClientConfig{
		APIBase: server.URL + "/v1",
		Model:   "m",
	})

	stream, err := client.CompleteStream(context.Background(), "prompt", GenerationOptions{Stream: true})
	assert.NoError(t, err)
	defer stream.Close()

	first, err := stream.Recv()
	assert.NoError(t, err)
	assert.Equal(t, "Hel", first.Choices[0].Text)
	assert.Nil(t, first.Choices[0].FinishReason)

	second, err := stream.Recv()
	assert.NoError(t, err)
	assert.Equal(t, "lo", second.Choices[0].Text)

	last, err := stream.Recv()
	assert.NoError(t, err)
	if assert.NotNil(t, last.Choices[0].FinishReason) {
		assert.Equal(t, "stop", *last.Choices[0].FinishReason)
	}

	_, err = stream.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpenAIClient_APIBaseScheme(t *testing.T) {
	client := NewOpenAIClient(CompletionClientConfig{APIBase: "localhost:8001/v1"})
	assert.NotNil(t, client)
}

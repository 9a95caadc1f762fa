package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/openllm/llamagate/internal/models"
)

// OpenAIClient implements CompletionClient against a backend exposing
// the OpenAI-compatible /v1/completions endpoint (llama.cpp server
// mode, vLLM and friends).
type OpenAIClient struct {
	config CompletionClientConfig
	client *openai.Client
}

// NewOpenAIClient creates a new OpenAI-compatible backend client
func NewOpenAIClient(config CompletionClientConfig) *OpenAIClient {
	clientConfig := openai.DefaultConfig("")
	clientConfig.BaseURL = config.APIBase
	if !strings.HasPrefix(clientConfig.BaseURL, "http://") && !strings.HasPrefix(clientConfig.BaseURL, "https://") {
		clientConfig.BaseURL = "http://" + clientConfig.BaseURL
	}

	return &OpenAIClient{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

// buildRequest converts the option bag into the wire request, filling
// sampling parameters from the configured defaults when unset.
func (c *OpenAIClient) buildRequest(prompt string, opts GenerationOptions) openai.CompletionRequest {
	req := openai.CompletionRequest{
		Model:       c.config.Model,
		Prompt:      prompt,
		Stream:      opts.Stream,
		Stop:        opts.Stop,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		MaxTokens:   opts.MaxTokens,
	}
	if req.Temperature == 0 {
		if v, ok := floatParam(c.config.DefaultParams, "temperature"); ok {
			req.Temperature = v
		}
	}
	if req.TopP == 0 {
		if v, ok := floatParam(c.config.DefaultParams, "top_p"); ok {
			req.TopP = v
		}
	}
	if req.MaxTokens == 0 {
		if v, ok := intParam(c.config.DefaultParams, "max_tokens"); ok {
			req.MaxTokens = v
		}
	}
	return req
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string, opts GenerationOptions) (*models.CompletionEvent, error) {
	req := c.buildRequest(prompt, opts)
	req.Stream = false

	resp, err := c.client.CreateCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}
	return eventFromResponse(resp), nil
}

func (c *OpenAIClient) CompleteStream(ctx context.Context, prompt string, opts GenerationOptions) (EventStream, error) {
	req := c.buildRequest(prompt, opts)
	req.Stream = true

	stream, err := c.client.CreateCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create completion stream: %w", err)
	}
	return &openaiEventStream{stream: stream}, nil
}

type openaiEventStream struct {
	stream *openai.CompletionStream
}

func (s *openaiEventStream) Recv() (*models.CompletionEvent, error) {
	resp, err := s.stream.Recv()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("recv completion event: %w", err)
	}
	return eventFromResponse(resp), nil
}

func (s *openaiEventStream) Close() error {
	return s.stream.Close()
}

// eventFromResponse maps the wire response onto the raw event shape.
// An empty finish_reason on a streamed chunk means the generation is
// still running and becomes a nil pointer.
func eventFromResponse(resp openai.CompletionResponse) *models.CompletionEvent {
	event := &models.CompletionEvent{
		ID:      resp.ID,
		Created: resp.Created,
		Model:   resp.Model,
	}
	if event.ID == "" {
		event.ID = "cmpl-" + uuid.NewString()
	}
	for _, choice := range resp.Choices {
		var finish *string
		if choice.FinishReason != "" {
			reason := choice.FinishReason
			finish = &reason
		}
		event.Choices = append(event.Choices, models.CompletionEventChoice{
			Index:        choice.Index,
			Text:         choice.Text,
			FinishReason: finish,
		})
	}
	if resp.Usage.TotalTokens > 0 {
		event.Usage = &models.CompletionUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return event
}

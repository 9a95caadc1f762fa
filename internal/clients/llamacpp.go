package clients

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openllm/llamagate/internal/models"
)

// LlamaCppClient implements CompletionClient against the native
// /completion endpoint of a llama.cpp server. The native API carries no
// response identifiers, so one is minted per request and shared by all
// events of a stream.
type LlamaCppClient struct {
	config CompletionClientConfig
	client *http.Client
}

// NewLlamaCppClient creates a new native llama.cpp backend client
func NewLlamaCppClient(config CompletionClientConfig) *LlamaCppClient {
	return &LlamaCppClient{
		config: config,
		client: &http.Client{},
	}
}

type llamacppResponse struct {
	Content         string `json:"content"`
	Stop            bool   `json:"stop"`
	Model           string `json:"model"`
	StoppedLimit    bool   `json:"stopped_limit"`
	TokensEvaluated int    `json:"tokens_evaluated"`
	TokensPredicted int    `json:"tokens_predicted"`
}

// buildBody assembles the wire request. Configured defaults go in
// first so explicit options win.
func (c *LlamaCppClient) buildBody(prompt string, opts GenerationOptions) map[string]interface{} {
	body := make(map[string]interface{})
	for k, v := range c.config.DefaultParams {
		body[k] = v
	}
	for k, v := range opts.Extra {
		body[k] = v
	}
	body["prompt"] = prompt
	body["stream"] = opts.Stream
	if len(opts.Stop) > 0 {
		body["stop"] = opts.Stop
	}
	if opts.Temperature != 0 {
		body["temperature"] = opts.Temperature
	}
	if opts.TopP != 0 {
		body["top_p"] = opts.TopP
	}
	if opts.MaxTokens != 0 {
		body["n_predict"] = opts.MaxTokens
	}
	return body
}

func (c *LlamaCppClient) post(ctx context.Context, body map[string]interface{}, stream bool) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", strings.TrimSuffix(c.config.APIBase, "/")+"/completion", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp, nil
}

func (c *LlamaCppClient) Complete(ctx context.Context, prompt string, opts GenerationOptions) (*models.CompletionEvent, error) {
	body := c.buildBody(prompt, opts)
	body["stream"] = false

	resp, err := c.post(ctx, body, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result llamacppResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return c.eventFromResponse("cmpl-"+uuid.NewString(), &result), nil
}

func (c *LlamaCppClient) CompleteStream(ctx context.Context, prompt string, opts GenerationOptions) (EventStream, error) {
	body := c.buildBody(prompt, opts)
	body["stream"] = true

	resp, err := c.post(ctx, body, true)
	if err != nil {
		return nil, err
	}

	return &llamacppEventStream{
		client:  c,
		body:    resp.Body,
		scanner: bufio.NewScanner(resp.Body),
		id:      "cmpl-" + uuid.NewString(),
	}, nil
}

// eventFromResponse maps one native response object onto the raw event
// shape. Intermediate stream objects (stop=false) become events with a
// nil finish reason and no usage.
func (c *LlamaCppClient) eventFromResponse(id string, r *llamacppResponse) *models.CompletionEvent {
	model := r.Model
	if model == "" {
		model = c.config.Model
	}
	event := &models.CompletionEvent{
		ID:      id,
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []models.CompletionEventChoice{
			{Index: 0, Text: r.Content},
		},
	}
	if r.Stop {
		reason := "stop"
		if r.StoppedLimit {
			reason = "length"
		}
		event.Choices[0].FinishReason = &reason
		event.Usage = &models.CompletionUsage{
			PromptTokens:     r.TokensEvaluated,
			CompletionTokens: r.TokensPredicted,
			TotalTokens:      r.TokensEvaluated + r.TokensPredicted,
		}
	}
	return event
}

type llamacppEventStream struct {
	client  *LlamaCppClient
	body    io.ReadCloser
	scanner *bufio.Scanner
	id      string
	done    bool
}

func (s *llamacppEventStream) Recv() (*models.CompletionEvent, error) {
	if s.done {
		return nil, io.EOF
	}
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var result llamacppResponse
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &result); err != nil {
			return nil, fmt.Errorf("decode stream event: %w", err)
		}
		if result.Stop {
			s.done = true
		}
		return s.client.eventFromResponse(s.id, &result), nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}
	s.done = true
	return nil, io.EOF
}

func (s *llamacppEventStream) Close() error {
	return s.body.Close()
}

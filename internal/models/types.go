package models

// Chat message roles accepted by the completions API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
	RoleFunction  = "function"
)

// Object type tags carried by the public response shapes.
const (
	ObjectChatCompletion      = "chat.completion"
	ObjectChatCompletionChunk = "chat.completion.chunk"
)

// ChatCompletionMessage represents a message in the chat
type ChatCompletionMessage struct {
	Role         string        `json:"role"`
	Content      string        `json:"content,omitempty"`
	Name         string        `json:"name,omitempty"`
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
	ToolCalls    []ToolCall    `json:"tool_calls,omitempty"`
}

// FunctionCall carries a structured function invocation emitted by a model
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall wraps a function call in the tools format
type ToolCall struct {
	ID       string       `json:"id,omitempty"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// Function describes a callable function exposed to the model
type Function struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// Tool wraps a function definition in the tools format
type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// ChatCompletionRequest represents an incoming chat completion request
type ChatCompletionRequest struct {
	Model       string                  `json:"model"`
	Messages    []ChatCompletionMessage `json:"messages"`
	Stream      bool                    `json:"stream,omitempty"`
	Temperature float32                 `json:"temperature,omitempty"`
	TopP        float32                 `json:"top_p,omitempty"`
	MaxTokens   int                     `json:"max_tokens,omitempty"`
	Stop        []string                `json:"stop,omitempty"`
	Functions   []Function              `json:"functions,omitempty"`
	Tools       []Tool                  `json:"tools,omitempty"`
}

// CompletionUsage records token accounting reported by the backend
type CompletionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionEventChoice is one sequence within a raw backend event.
// FinishReason stays nil while generation is running.
type CompletionEventChoice struct {
	Index        int     `json:"index"`
	Text         string  `json:"text"`
	FinishReason *string `json:"finish_reason"`
}

// CompletionEvent is one unit of raw output from the generation backend.
// A non-streaming call produces exactly one event carrying the full text
// and usage counters; a streaming call produces an ordered sequence whose
// last event carries a non-nil finish reason.
type CompletionEvent struct {
	ID      string                  `json:"id"`
	Created int64                   `json:"created"`
	Model   string                  `json:"model"`
	Choices []CompletionEventChoice `json:"choices"`
	Usage   *CompletionUsage        `json:"usage,omitempty"`
}

// ChatCompletionChoice represents a completion choice
type ChatCompletionChoice struct {
	Index        int                   `json:"index"`
	Message      ChatCompletionMessage `json:"message"`
	FinishReason string                `json:"finish_reason"`
}

// ChatCompletion represents the aggregate response from the chat
// completion API
type ChatCompletion struct {
	ID      string                 `json:"id"`
	Object  string                 `json:"object"`
	Created int64                  `json:"created"`
	Model   string                 `json:"model"`
	Choices []ChatCompletionChoice `json:"choices"`
	Usage   *CompletionUsage       `json:"usage,omitempty"`
}

// ChunkDelta is the incremental portion of assistant output carried by
// one streaming chunk. Content is a pointer so the terminal chunk omits
// the field entirely while the leading role announcement carries an
// explicit empty string.
type ChunkDelta struct {
	Role    string  `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`
}

// ChatCompletionChunkChoice represents an incremental completion choice
type ChatCompletionChunkChoice struct {
	Index        int        `json:"index"`
	Delta        ChunkDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason"`
}

// ChatCompletionChunk represents one unit of a streaming response
type ChatCompletionChunk struct {
	ID      string                      `json:"id"`
	Object  string                      `json:"object"`
	Created int64                       `json:"created"`
	Model   string                      `json:"model"`
	Choices []ChatCompletionChunkChoice `json:"choices"`
}

// ModelInfo describes a model served by this instance
type ModelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// ModelList is the response of the model listing endpoint
type ModelList struct {
	Object string      `json:"object"`
	Data   []ModelInfo `json:"data"`
}

package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openllm/llamagate/internal/models"
)

const chatmlDefaultSystem = "You are a helpful assistant."

const chatmlToolTemplate = `Answer the following questions as best you can. You have access to the following tools:

%s

Use the following format:

Question: the input question you must answer
Thought: you should always think about what to do
Action: the action to take, should be one of [%s]
Action Input: the input to the action
Observation: the result of the action
... (this Thought/Action/Action Input/Observation can be repeated zero or more times)
Thought: I now know the final answer
Final Answer: the final answer to the original input question

Begin!

Question: %s`

// ChatMLAdapter renders the <|im_start|> template shared by Qwen, Yi and
// other ChatML models. Function and tool definitions are inlined into
// the last user turn in the ReAct format Qwen was instruction-tuned on.
type ChatMLAdapter struct{}

// NewChatMLAdapter creates a new ChatML prompt adapter
func NewChatMLAdapter() *ChatMLAdapter {
	return &ChatMLAdapter{}
}

func (a *ChatMLAdapter) Name() string {
	return "chatml"
}

func (a *ChatMLAdapter) FunctionCallSupported() bool {
	return true
}

// StopSequences returns the ChatML turn markers; generation must halt
// before the model starts speaking for the next role.
func (a *ChatMLAdapter) StopSequences() []string {
	return []string{"<|im_end|>", "<|im_start|>"}
}

func (a *ChatMLAdapter) ApplyChatTemplate(messages []models.ChatCompletionMessage) string {
	var sb strings.Builder
	hasSystem := false
	for _, msg := range messages {
		if msg.Role == models.RoleSystem {
			hasSystem = true
			break
		}
	}
	if !hasSystem {
		fmt.Fprintf(&sb, "<|im_start|>%s\n%s<|im_end|>\n", models.RoleSystem, chatmlDefaultSystem)
	}
	for _, msg := range messages {
		fmt.Fprintf(&sb, "<|im_start|>%s\n%s<|im_end|>\n", msg.Role, msg.Content)
	}
	fmt.Fprintf(&sb, "<|im_start|>%s\n", models.RoleAssistant)
	return sb.String()
}

// PostprocessMessages rewrites the last user turn to carry the tool
// descriptions and the ReAct instruction block. The input slice is left
// untouched.
func (a *ChatMLAdapter) PostprocessMessages(messages []models.ChatCompletionMessage, functions []models.Function, tools []models.Tool) []models.ChatCompletionMessage {
	defs := make([]models.Function, 0, len(functions)+len(tools))
	defs = append(defs, functions...)
	for _, tool := range tools {
		defs = append(defs, tool.Function)
	}
	if len(defs) == 0 {
		return messages
	}

	names := make([]string, 0, len(defs))
	descs := make([]string, 0, len(defs))
	for _, fn := range defs {
		params, err := json.Marshal(fn.Parameters)
		if err != nil {
			params = []byte("{}")
		}
		descs = append(descs, fmt.Sprintf("%s: %s Parameters: %s", fn.Name, fn.Description, params))
		names = append(names, fn.Name)
	}

	out := make([]models.ChatCompletionMessage, len(messages))
	copy(out, messages)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Role == models.RoleUser {
			out[i].Content = fmt.Sprintf(chatmlToolTemplate,
				strings.Join(descs, "\n\n"), strings.Join(names, ", "), out[i].Content)
			break
		}
	}
	return out
}

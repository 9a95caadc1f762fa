package prompt

import (
	"fmt"
	"strings"

	"github.com/openllm/llamagate/internal/models"
)

const llama2DefaultSystem = "You are a helpful, respectful and honest assistant. " +
	"Always answer as helpfully as possible, while being safe."

// Llama2Adapter renders the [INST] template used by the Llama-2 chat
// family. The system prompt is folded into the first user turn.
type Llama2Adapter struct{}

// NewLlama2Adapter creates a new Llama-2 prompt adapter
func NewLlama2Adapter() *Llama2Adapter {
	return &Llama2Adapter{}
}

func (a *Llama2Adapter) Name() string {
	return "llama-2"
}

func (a *Llama2Adapter) FunctionCallSupported() bool {
	return false
}

func (a *Llama2Adapter) PostprocessMessages(messages []models.ChatCompletionMessage, _ []models.Function, _ []models.Tool) []models.ChatCompletionMessage {
	return messages
}

func (a *Llama2Adapter) ApplyChatTemplate(messages []models.ChatCompletionMessage) string {
	system := llama2DefaultSystem
	var turns []models.ChatCompletionMessage
	for _, msg := range messages {
		if msg.Role == models.RoleSystem {
			system = msg.Content
			continue
		}
		turns = append(turns, msg)
	}

	var sb strings.Builder
	first := true
	for _, msg := range turns {
		switch msg.Role {
		case models.RoleUser:
			if first {
				fmt.Fprintf(&sb, "[INST] <<SYS>>\n%s\n<</SYS>>\n\n%s [/INST]", system, msg.Content)
				first = false
			} else {
				fmt.Fprintf(&sb, "[INST] %s [/INST]", msg.Content)
			}
		case models.RoleAssistant:
			fmt.Fprintf(&sb, " %s </s><s>", msg.Content)
		}
	}
	return sb.String()
}

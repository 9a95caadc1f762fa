package prompt

import (
	"fmt"
	"strings"

	"github.com/openllm/llamagate/internal/models"
)

const vicunaDefaultSystem = "A chat between a curious user and an artificial intelligence assistant. " +
	"The assistant gives helpful, detailed, and polite answers to the user's questions."

// VicunaAdapter renders the USER/ASSISTANT template used by Vicuna and
// Xwin models.
type VicunaAdapter struct{}

// NewVicunaAdapter creates a new Vicuna prompt adapter
func NewVicunaAdapter() *VicunaAdapter {
	return &VicunaAdapter{}
}

func (a *VicunaAdapter) Name() string {
	return "vicuna"
}

func (a *VicunaAdapter) FunctionCallSupported() bool {
	return false
}

func (a *VicunaAdapter) PostprocessMessages(messages []models.ChatCompletionMessage, _ []models.Function, _ []models.Tool) []models.ChatCompletionMessage {
	return messages
}

func (a *VicunaAdapter) ApplyChatTemplate(messages []models.ChatCompletionMessage) string {
	system := vicunaDefaultSystem
	for _, msg := range messages {
		if msg.Role == models.RoleSystem {
			system = msg.Content
		}
	}

	var sb strings.Builder
	sb.WriteString(system)
	for _, msg := range messages {
		switch msg.Role {
		case models.RoleUser:
			fmt.Fprintf(&sb, " USER: %s", msg.Content)
		case models.RoleAssistant:
			fmt.Fprintf(&sb, " ASSISTANT: %s</s>", msg.Content)
		}
	}
	sb.WriteString(" ASSISTANT:")
	return sb.String()
}

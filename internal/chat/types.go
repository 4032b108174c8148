package chat

import (
	"encoding/json"

	"github.com/memohai/docchat/internal/attachment"
)

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message represents a chat message
type Message struct {
	Role        Role                    `json:"role" validate:"required,oneof=user assistant system"`
	Content     string                  `json:"content"`
	Attachments []attachment.Attachment `json:"attachments,omitempty" validate:"omitempty,dive"`
}

// UnmarshalJSON accepts experimental_attachments as an alias for attachments.
func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	var raw struct {
		plain
		Experimental []attachment.Attachment `json:"experimental_attachments"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Message(raw.plain)
	if len(m.Attachments) == 0 && len(raw.Experimental) > 0 {
		m.Attachments = raw.Experimental
	}
	return nil
}

// ChatRequest represents an incoming chat request
type ChatRequest struct {
	Messages []Message `json:"messages" validate:"required,min=1,dive"`
}

// ChatResponse represents a chat response
type ChatResponse struct {
	Message      Message `json:"message"`
	Model        string  `json:"model"`
	Provider     string  `json:"provider"`
	FinishReason string  `json:"finish_reason,omitempty"`
	Usage        Usage   `json:"usage,omitempty"`
}

// StreamChunk represents a chunk in streaming response
type StreamChunk struct {
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
	Model        string `json:"model,omitempty"`
	Provider     string `json:"provider,omitempty"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// Usage represents token usage information
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Request is the provider-facing request. Messages must already have their
// PDF attachments converted.
type Request struct {
	Messages []Message
	Model    string
	System   string
}

// Result is the internal result structure
type Result struct {
	Message      Message
	Model        string
	Provider     string
	FinishReason string
	Usage        Usage
}

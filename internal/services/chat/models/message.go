package models

import (
	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in the append-only transcript. Messages are never
// mutated after creation; insertion order is display order.
type Message struct {
	ID       string              `json:"id"`
	Role     string              `json:"role"`
	Content  string              `json:"content"`
	Response *StructuredResponse `json:"response,omitempty"`
}

// NewMessage creates a plain transcript entry.
func NewMessage(role, content string) Message {
	return Message{
		ID:      uuid.New().String(),
		Role:    role,
		Content: content,
	}
}

// NewAssistantResponse creates an assistant entry carrying the structured
// payload for rendering.
func NewAssistantResponse(content string, response *StructuredResponse) Message {
	return Message{
		ID:       uuid.New().String(),
		Role:     RoleAssistant,
		Content:  content,
		Response: response,
	}
}

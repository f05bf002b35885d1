package models

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// AssistantName labels outbound turns in the rendered context narrative.
const AssistantName = "Assistant"

// Message captures an individual conversation turn stored in the history.
type Message struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	Author    string    `json:"author"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// IsUser reports whether the turn came from the user rather than the assistant.
func (m *Message) IsUser() bool {
	return m.Role == RoleUser
}

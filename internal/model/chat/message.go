package chat

import "time"

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation. Messages are never edited after
// they are appended.
type Message struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"sessionId,omitempty"`
	Content     string    `json:"content"`
	Role        Role      `json:"role"`
	Timestamp   time.Time `json:"timestamp"`
	CharacterID string    `json:"characterId,omitempty"`
	Emotion     string    `json:"emotion,omitempty"`
}

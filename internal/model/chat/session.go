package chat

import "time"

// Session captures a transient anonymous conversation with one character.
type Session struct {
	ID          string    `json:"id"`
	CharacterID string    `json:"characterId"`
	CreatedAt   time.Time `json:"createdAt"`
}

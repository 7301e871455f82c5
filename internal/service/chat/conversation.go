package chat

import (
	"sync"

	"github.com/zhouzirui/chara-chat/backend/internal/model/chat"
)

// Conversation is an ordered, append-only message log.
type Conversation struct {
	mu       sync.RWMutex
	messages []chat.Message
}

// NewConversation returns an empty log.
func NewConversation() *Conversation {
	return &Conversation{messages: make([]chat.Message, 0, 16)}
}

// Append adds m to the end of the log.
func (c *Conversation) Append(m chat.Message) {
	c.mu.Lock()
	c.messages = append(c.messages, m)
	c.mu.Unlock()
}

// Messages returns a copy of the log in append order.
func (c *Conversation) Messages() []chat.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]chat.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Clear drops every message.
func (c *Conversation) Clear() {
	c.mu.Lock()
	c.messages = make([]chat.Message, 0, 16)
	c.mu.Unlock()
}

// Remove deletes the message with id and reports whether it existed.
func (c *Conversation) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, m := range c.messages {
		if m.ID == id {
			c.messages = append(c.messages[:i:i], c.messages[i+1:]...)
			return true
		}
	}
	return false
}

// LastUserMessage returns the most recent user turn.
func (c *Conversation) LastUserMessage() (chat.Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == chat.RoleUser {
			return c.messages[i], true
		}
	}
	return chat.Message{}, false
}

package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/chara-chat/backend/internal/model/chat"
)

var (
	ErrCharacterRequired = errors.New("character id is required")
	ErrSessionNotFound   = errors.New("session not found")
	ErrMessageNotFound   = errors.New("message not found")
	ErrEmptyMessage      = errors.New("message content is required")
	ErrNoUserMessage     = errors.New("no user message to retry")
	ErrSendInFlight      = errors.New("a message is already being sent")
)

type sessionState struct {
	session      chat.Session
	conversation *Conversation
	inFlight     bool
}

// Service keeps sessions and their conversations in memory.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
	now      func() time.Time
}

// NewService bootstraps the in-memory chat service.
func NewService() *Service {
	return &Service{
		sessions: make(map[string]*sessionState),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateSession provisions an anonymous session bound to a character.
func (s *Service) CreateSession(_ context.Context, characterID string) (chat.Session, error) {
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return chat.Session{}, ErrCharacterRequired
	}

	session := chat.Session{
		ID:          uuid.NewString(),
		CharacterID: characterID,
		CreatedAt:   s.now(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = &sessionState{session: session, conversation: NewConversation()}
	s.mu.Unlock()

	return session, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	state, err := s.state(sessionID)
	if err != nil {
		return chat.Session{}, err
	}
	return state.session, nil
}

// DeleteSession forgets a session and its history.
func (s *Service) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// AppendMessage stores a new message authored by role.
func (s *Service) AppendMessage(_ context.Context, sessionID string, role chat.Role, content string) (chat.Message, error) {
	return s.appendMessage(sessionID, role, content, "")
}

func (s *Service) appendMessage(sessionID string, role chat.Role, content, emotion string) (chat.Message, error) {
	state, err := s.state(sessionID)
	if err != nil {
		return chat.Message{}, err
	}

	message := chat.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Content:   content,
		Role:      role,
		Timestamp: s.now(),
		Emotion:   emotion,
	}
	if role == chat.RoleAssistant {
		message.CharacterID = state.session.CharacterID
	}

	state.conversation.Append(message)
	return message, nil
}

// LoadTranscript returns stored messages for the provided session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	state, err := s.state(sessionID)
	if err != nil {
		return nil, err
	}
	return state.conversation.Messages(), nil
}

// ClearTranscript drops every message of the session.
func (s *Service) ClearTranscript(_ context.Context, sessionID string) error {
	state, err := s.state(sessionID)
	if err != nil {
		return err
	}
	state.conversation.Clear()
	return nil
}

// RemoveMessage deletes one message from the session history.
func (s *Service) RemoveMessage(_ context.Context, sessionID, messageID string) error {
	state, err := s.state(sessionID)
	if err != nil {
		return err
	}
	if !state.conversation.Remove(messageID) {
		return ErrMessageNotFound
	}
	return nil
}

// LastUserMessage returns the latest user turn of the session.
func (s *Service) LastUserMessage(_ context.Context, sessionID string) (chat.Message, error) {
	state, err := s.state(sessionID)
	if err != nil {
		return chat.Message{}, err
	}
	m, ok := state.conversation.LastUserMessage()
	if !ok {
		return chat.Message{}, ErrNoUserMessage
	}
	return m, nil
}

// Acquire claims the session's single send slot. The returned release must be
// called once the send completes.
func (s *Service) Acquire(sessionID string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if state.inFlight {
		return nil, ErrSendInFlight
	}
	state.inFlight = true

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			state.inFlight = false
			s.mu.Unlock()
		})
	}, nil
}

func (s *Service) state(sessionID string) (*sessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return state, nil
}

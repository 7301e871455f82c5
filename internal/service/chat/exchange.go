package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/zhouzirui/chara-chat/backend/internal/analysis/emotion"
	"github.com/zhouzirui/chara-chat/backend/internal/apperror"
	"github.com/zhouzirui/chara-chat/backend/internal/model/character"
	"github.com/zhouzirui/chara-chat/backend/internal/model/chat"
)

// Fixed user-facing failure texts.
const (
	MessageCharacterNotFound = "指定されたキャラクターが見つかりません"
	MessageAPIKeyMissing     = "APIキーが設定されていません"
	MessageReplyFailed       = "AIからの応答生成に失敗しました"

	errorPrefix = "エラー: "
)

// Reply is a generated character answer.
type Reply struct {
	Text    string
	Emotion character.Emotion
}

// Responder produces a character's reply to one user turn.
type Responder interface {
	Respond(ctx context.Context, characterID, userMessage string) (Reply, error)
}

// Replier generates a reply for an already loaded profile.
type Replier interface {
	Reply(ctx context.Context, profile character.Profile, userMessage string) (string, error)
}

// CharacterResponder resolves the character document before asking the
// replier. Failures are *apperror.Error.
type CharacterResponder struct {
	characters character.Store
	replier    Replier
}

// NewCharacterResponder wires a store and a replier into a Responder.
func NewCharacterResponder(characters character.Store, replier Replier) *CharacterResponder {
	return &CharacterResponder{characters: characters, replier: replier}
}

// Respond implements Responder.
func (r *CharacterResponder) Respond(ctx context.Context, characterID, userMessage string) (Reply, error) {
	profile, err := r.characters.FindProfile(characterID)
	if errors.Is(err, character.ErrNotFound) {
		return Reply{}, apperror.New(apperror.CharacterNotFound, MessageCharacterNotFound, apperror.SeverityMedium, map[string]any{
			"characterId": characterID,
		})
	}
	if err != nil {
		return Reply{}, apperror.New(apperror.CharacterLoadFailed, "", apperror.SeverityHigh, map[string]any{
			"characterId": characterID,
		}).WithCause(err)
	}

	text, err := r.replier.Reply(ctx, profile, userMessage)
	if err != nil {
		return Reply{}, err
	}

	decision := emotion.Analyze(profile, userMessage, text)
	return Reply{Text: text, Emotion: decision.Emotion}, nil
}

// FailureMessage maps a reply failure to the text shown to the user.
func FailureMessage(err error) string {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case apperror.APIKeyMissing:
			return MessageAPIKeyMissing
		case apperror.CharacterNotFound:
			return MessageCharacterNotFound
		}
	}
	return MessageReplyFailed
}

// Exchange is one user turn together with the assistant entry it produced.
type Exchange struct {
	UserMessage      chat.Message `json:"userMessage"`
	AssistantMessage chat.Message `json:"assistantMessage"`
}

// Send appends content as a user turn, asks r for the reply and appends it.
// When the reply fails an "エラー: …" assistant entry is appended instead and
// the classified error is returned together with the exchange.
func (s *Service) Send(ctx context.Context, sessionID, content string, r Responder) (Exchange, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Exchange{}, ErrEmptyMessage
	}

	release, err := s.Acquire(sessionID)
	if err != nil {
		return Exchange{}, err
	}
	defer release()

	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return Exchange{}, err
	}

	userMessage, err := s.AppendMessage(ctx, sessionID, chat.RoleUser, content)
	if err != nil {
		return Exchange{}, err
	}

	reply, replyErr := r.Respond(ctx, session.CharacterID, content)
	if replyErr != nil {
		appErr := apperror.Classify(replyErr)
		apperror.Log(appErr, fmt.Sprintf("chat session=%s", sessionID))

		assistant, err := s.AppendMessage(ctx, sessionID, chat.RoleAssistant, errorPrefix+FailureMessage(appErr))
		if err != nil {
			return Exchange{UserMessage: userMessage}, err
		}
		return Exchange{UserMessage: userMessage, AssistantMessage: assistant}, appErr
	}

	assistant, err := s.appendMessage(sessionID, chat.RoleAssistant, reply.Text, string(reply.Emotion))
	if err != nil {
		return Exchange{UserMessage: userMessage}, err
	}

	log.Printf("[chat] session=%s character=%s exchanged reply length=%d emotion=%s", sessionID, session.CharacterID, len(reply.Text), reply.Emotion)
	return Exchange{UserMessage: userMessage, AssistantMessage: assistant}, nil
}

// Retry resends the session's last user message to its bound character.
func (s *Service) Retry(ctx context.Context, sessionID string, r Responder) (Exchange, error) {
	last, err := s.LastUserMessage(ctx, sessionID)
	if err != nil {
		return Exchange{}, err
	}
	return s.Send(ctx, sessionID, last.Content, r)
}

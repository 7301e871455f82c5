package ai

import (
	"context"
	"log"

	"github.com/zhouzirui/chara-chat/backend/internal/apperror"
	"github.com/zhouzirui/chara-chat/backend/internal/model/character"
)

// Sender delivers a prompt to the generation backend.
type Sender interface {
	Send(ctx context.Context, prompt string) (string, error)
}

// Service turns user turns into character replies.
type Service struct {
	sender  Sender
	initErr error
}

// NewService wraps sender. A nil sender means no credential was configured;
// every Reply then fails with API_KEY_MISSING.
func NewService(sender Sender) *Service {
	return &Service{sender: sender}
}

// unavailable is a Service whose backend could not be built although a
// credential was configured.
func unavailable(err error) *Service {
	return &Service{initErr: err}
}

// Available reports whether a generation backend is configured.
func (s *Service) Available() bool {
	return s != nil && s.sender != nil
}

// Reply builds the prompt for profile and returns the character's answer.
func (s *Service) Reply(ctx context.Context, profile character.Profile, userMessage string) (string, error) {
	if !s.Available() {
		if s != nil && s.initErr != nil {
			return "", apperror.New(apperror.Internal, "", apperror.SeverityCritical, map[string]any{
				"reason": "model initialization failed",
			}).WithCause(s.initErr)
		}
		return "", apperror.New(apperror.APIKeyMissing, "", apperror.SeverityCritical, nil)
	}

	text, err := s.sender.Send(ctx, BuildPrompt(profile, userMessage))
	if err != nil {
		appErr := apperror.Classify(err)
		appErr.Context = mergeContext(appErr.Context, map[string]any{"character": profile.Name})
		return "", appErr
	}

	log.Printf("[ai] reply ready character=%s length=%d", profile.Name, len(text))
	return text, nil
}

func mergeContext(base, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

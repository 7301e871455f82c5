package ai

import (
	"context"
	"log"

	"github.com/zhouzirui/chara-chat/backend/internal/config"
)

// NewServiceFromConfig builds the chat model and gateway described by cfg.
// It never fails. Without a credential every reply is reported per request as
// API_KEY_MISSING; when the model or gateway cannot be built despite a
// credential, replies fail with INTERNAL_ERROR.
func NewServiceFromConfig(ctx context.Context, cfg config.AIConfig) *Service {
	if !cfg.Enabled() {
		log.Printf("[ai] %s 凭证未配置，聊天请求将返回 API_KEY_MISSING", cfg.Provider)
		return NewService(nil)
	}

	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		log.Printf("[ai] failed to initialize chat model: %v", err)
		return unavailable(err)
	}

	gateway, err := NewGateway(ctx, chatModel, GatewayConfig{
		Timeout: cfg.Timeout,
		Policy: Policy{
			MaxAttempts: cfg.RetryAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			MaxDelay:    DefaultPolicy().MaxDelay,
		},
	})
	if err != nil {
		log.Printf("[ai] failed to initialize model gateway: %v", err)
		return unavailable(err)
	}

	log.Printf("[ai] service initialized provider=%s", cfg.Provider)
	return NewService(gateway)
}

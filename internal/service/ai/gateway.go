package ai

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/chara-chat/backend/internal/apperror"
)

// DefaultTimeout is the per-attempt budget for one model call.
const DefaultTimeout = 30 * time.Second

const gatewayEndpoint = "/api/chat"

// GatewayConfig tunes the Gateway. Zero values fall back to defaults.
type GatewayConfig struct {
	Timeout time.Duration
	Policy  Policy
	OnRetry Observer
	Sleep   SleepFunc
}

// Gateway sends synthesized prompts to the chat model with a timeout, error
// classification and bounded retry.
type Gateway struct {
	chain   compose.Runnable[map[string]any, *schema.Message]
	timeout time.Duration
	policy  Policy
	onRetry Observer
	sleep   SleepFunc
}

// NewGateway compiles the prompt chain around chatModel.
func NewGateway(ctx context.Context, chatModel model.BaseChatModel, cfg GatewayConfig) (*Gateway, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.UserMessage("{prompt}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	g := &Gateway{
		chain:   runnable,
		timeout: cfg.Timeout,
		policy:  cfg.Policy,
		onRetry: cfg.OnRetry,
		sleep:   cfg.Sleep,
	}
	if g.timeout <= 0 {
		g.timeout = DefaultTimeout
	}
	if g.policy.MaxAttempts <= 0 {
		g.policy = DefaultPolicy()
	}
	return g, nil
}

// Send returns the model's reply to prompt. Failures are *apperror.Error.
func (g *Gateway) Send(ctx context.Context, prompt string) (string, error) {
	started := time.Now()
	text, err := Retry(ctx, g.policy, g.sleep, func(ctx context.Context) (string, error) {
		return g.attempt(ctx, prompt)
	}, g.observe)
	if err != nil {
		return "", err
	}

	log.Printf("[ai] generated response length=%d elapsed=%s", len(text), time.Since(started).Round(time.Millisecond))
	return text, nil
}

func (g *Gateway) observe(attempt int, err *apperror.Error) {
	log.Printf("[ai] retrying model call attempt=%d/%d code=%s", attempt, g.policy.MaxAttempts, err.Code)
	if g.onRetry != nil {
		g.onRetry(attempt, err)
	}
}

type invokeResult struct {
	msg *schema.Message
	err error
}

// attempt races one chain invocation against the timeout.
func (g *Gateway) attempt(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	done := make(chan invokeResult, 1)
	go func() {
		msg, err := g.chain.Invoke(callCtx, map[string]any{"prompt": prompt})
		done <- invokeResult{msg: msg, err: err}
	}()

	select {
	case <-callCtx.Done():
		return "", apperror.NewNetwork("リクエストがタイムアウトしました", true, map[string]any{
			"timeout": g.timeout.String(),
		}).WithCause(callCtx.Err())
	case res := <-done:
		if res.err != nil && callCtx.Err() != nil {
			return "", apperror.NewNetwork("リクエストがタイムアウトしました", true, map[string]any{
				"timeout": g.timeout.String(),
			}).WithCause(res.err)
		}
		if res.err != nil {
			return "", apperror.FromProvider(res.err, nil)
		}

		var text string
		if res.msg != nil {
			text = strings.TrimSpace(res.msg.Content)
		}
		if text == "" {
			return "", apperror.NewAPI(apperror.APIInternal, http.StatusBadGateway, gatewayEndpoint, "AIからの応答が空でした", nil)
		}
		return text, nil
	}
}

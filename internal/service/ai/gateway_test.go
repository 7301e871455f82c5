package ai

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/chara-chat/backend/internal/apperror"
	"github.com/zhouzirui/chara-chat/backend/internal/model/character"
)

// fakeChatModel answers Generate calls from a scripted function.
type fakeChatModel struct {
	mu      sync.Mutex
	prompts []string
	reply   func(ctx context.Context, call int) (*schema.Message, error)
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	call := len(f.prompts)
	if len(input) > 0 {
		f.prompts = append(f.prompts, input[len(input)-1].Content)
	} else {
		f.prompts = append(f.prompts, "")
	}
	f.mu.Unlock()

	return f.reply(ctx, call)
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func (f *fakeChatModel) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func newTestGateway(t *testing.T, m *fakeChatModel, cfg GatewayConfig) (*Gateway, *recordedSleeps) {
	t.Helper()
	sleeps := &recordedSleeps{}
	if cfg.Sleep == nil {
		cfg.Sleep = sleeps.sleep
	}
	g, err := NewGateway(context.Background(), m, cfg)
	require.NoError(t, err)
	return g, sleeps
}

func TestGatewaySendReturnsTrimmedReply(t *testing.T) {
	m := &fakeChatModel{reply: func(context.Context, int) (*schema.Message, error) {
		return schema.AssistantMessage("  こんにちにゃ！ \n", nil), nil
	}}
	g, _ := newTestGateway(t, m, GatewayConfig{})

	got, err := g.Send(context.Background(), "プロンプト {そのまま}")
	require.NoError(t, err)
	assert.Equal(t, "こんにちにゃ！", got)
	assert.Equal(t, []string{"プロンプト {そのまま}"}, m.prompts)
}

func TestGatewayRetriesRetryableFailures(t *testing.T) {
	m := &fakeChatModel{reply: func(context.Context, int) (*schema.Message, error) {
		return nil, errors.New("model overloaded")
	}}
	var observed []int
	g, sleeps := newTestGateway(t, m, GatewayConfig{
		OnRetry: func(attempt int, err *apperror.Error) {
			observed = append(observed, attempt)
		},
	})

	_, err := g.Send(context.Background(), "p")

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.APIInternal, appErr.Code)
	assert.Equal(t, 3, m.calls())
	assert.Equal(t, []int{2, 3}, observed)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleeps.delays)
}

func TestGatewayStopsOnCredentialError(t *testing.T) {
	m := &fakeChatModel{reply: func(context.Context, int) (*schema.Message, error) {
		return nil, errors.New("API_KEY_INVALID: API key not valid")
	}}
	observed := 0
	g, sleeps := newTestGateway(t, m, GatewayConfig{
		OnRetry: func(int, *apperror.Error) { observed++ },
	})

	_, err := g.Send(context.Background(), "p")

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.APIKeyInvalid, appErr.Code)
	assert.Equal(t, 1, m.calls())
	assert.Zero(t, observed)
	assert.Empty(t, sleeps.delays)
}

func TestGatewayTreatsEmptyReplyAsRetryable(t *testing.T) {
	m := &fakeChatModel{reply: func(_ context.Context, call int) (*schema.Message, error) {
		if call == 0 {
			return schema.AssistantMessage("   ", nil), nil
		}
		return schema.AssistantMessage("二回目", nil), nil
	}}
	g, sleeps := newTestGateway(t, m, GatewayConfig{})

	got, err := g.Send(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "二回目", got)
	assert.Equal(t, 2, m.calls())
	assert.Len(t, sleeps.delays, 1)
}

func TestGatewayEmptyReplyExhaustsAttempts(t *testing.T) {
	m := &fakeChatModel{reply: func(context.Context, int) (*schema.Message, error) {
		return schema.AssistantMessage("", nil), nil
	}}
	g, _ := newTestGateway(t, m, GatewayConfig{})

	_, err := g.Send(context.Background(), "p")

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.APIInternal, appErr.Code)
	assert.True(t, appErr.Retryable())
	assert.Equal(t, 3, m.calls())
}

func TestGatewayTimeout(t *testing.T) {
	m := &fakeChatModel{reply: func(ctx context.Context, _ int) (*schema.Message, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	g, _ := newTestGateway(t, m, GatewayConfig{
		Timeout: 20 * time.Millisecond,
		Policy:  Policy{MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
	})

	_, err := g.Send(context.Background(), "p")

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.NetworkTimeout, appErr.Code)
	assert.True(t, appErr.IsTimeout)
}

func TestNewGatewayRequiresModel(t *testing.T) {
	_, err := NewGateway(context.Background(), nil, GatewayConfig{})
	assert.Error(t, err)
}

type stubSender struct {
	prompt string
	reply  string
	err    error
}

func (s *stubSender) Send(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.reply, s.err
}

func TestServiceReply(t *testing.T) {
	sender := &stubSender{reply: "にゃ"}
	svc := NewService(sender)

	got, err := svc.Reply(context.Background(), sampleProfile(), "こんにちは")
	require.NoError(t, err)
	assert.Equal(t, "にゃ", got)
	assert.Equal(t, BuildPrompt(sampleProfile(), "こんにちは"), sender.prompt)
}

func TestServiceReplyWithoutSender(t *testing.T) {
	svc := NewService(nil)
	assert.False(t, svc.Available())

	_, err := svc.Reply(context.Background(), character.NewProfile(), "x")

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.APIKeyMissing, appErr.Code)
	assert.Equal(t, apperror.SeverityCritical, appErr.Severity)
	assert.False(t, appErr.Retryable())
}

func TestServiceReplyClassifiesFailures(t *testing.T) {
	svc := NewService(&stubSender{err: errors.New("plain failure")})

	_, err := svc.Reply(context.Background(), sampleProfile(), "x")

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.Internal, appErr.Code)
	assert.Equal(t, "ねこみみ", appErr.Context["character"])
}

func TestServiceReplyAfterFailedInitialization(t *testing.T) {
	cause := errors.New("genai: invalid base url")
	svc := unavailable(cause)
	assert.False(t, svc.Available())

	_, err := svc.Reply(context.Background(), character.NewProfile(), "x")

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.Internal, appErr.Code)
	assert.Equal(t, apperror.SeverityCritical, appErr.Severity)
	assert.ErrorIs(t, err, cause)
}

package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "STATIC_DIR", "CORS_ORIGINS", "CHARACTERS_DIR", "CHARACTERS_WATCH",
	"LLM_PROVIDER", "GEMINI_API_KEY", "GEMINI_MODEL",
	"ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY", "Model", "ARK_BASE_URL", "ARK_REGION",
	"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL",
	"LLM_TEMPERATURE", "LLM_TOP_P", "LLM_MAX_TOKENS",
	"LLM_TIMEOUT_SECONDS", "LLM_RETRY_ATTEMPTS", "LLM_RETRY_BASE_DELAY_MS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Empty(t, cfg.Server.CORSOrigins)
	assert.Equal(t, "docs/characters", cfg.Characters.Dir)
	assert.True(t, cfg.Characters.Watch)

	assert.Equal(t, ProviderGemini, cfg.AI.Provider)
	assert.Equal(t, "gemini-1.5-flash", cfg.AI.Gemini.Model)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 3, cfg.AI.RetryAttempts)
	assert.Equal(t, 2*time.Second, cfg.AI.RetryBaseDelay)
	assert.Nil(t, cfg.AI.Temperature)
	assert.False(t, cfg.AI.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, http://example.com")
	t.Setenv("CHARACTERS_DIR", "/srv/characters")
	t.Setenv("CHARACTERS_WATCH", "false")
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_TEMPERATURE", "0.7")
	t.Setenv("LLM_MAX_TOKENS", "256")
	t.Setenv("LLM_TIMEOUT_SECONDS", "5")
	t.Setenv("LLM_RETRY_ATTEMPTS", "0")
	t.Setenv("LLM_RETRY_BASE_DELAY_MS", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:3000", "http://example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "/srv/characters", cfg.Characters.Dir)
	assert.False(t, cfg.Characters.Watch)
	assert.Equal(t, ProviderOpenAI, cfg.AI.Provider)
	assert.True(t, cfg.AI.Enabled())
	require.NotNil(t, cfg.AI.Temperature)
	assert.InDelta(t, 0.7, *cfg.AI.Temperature, 1e-9)
	require.NotNil(t, cfg.AI.MaxTokens)
	assert.Equal(t, 256, *cfg.AI.MaxTokens)
	assert.Equal(t, 5*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 1, cfg.AI.RetryAttempts)
	assert.Equal(t, 10*time.Millisecond, cfg.AI.RetryBaseDelay)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"port with space":  {"PORT", "80 80"},
		"unknown provider": {"LLM_PROVIDER", "llama"},
		"bad float":        {"LLM_TOP_P", "high"},
		"bad bool":         {"CHARACTERS_WATCH", "maybe"},
		"zero timeout":     {"LLM_TIMEOUT_SECONDS", "0"},
		"negative delay":   {"LLM_RETRY_BASE_DELAY_MS", "-1"},
	}

	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestEnabledPerProvider(t *testing.T) {
	assert.True(t, AIConfig{Provider: ProviderGemini, Gemini: GeminiConfig{APIKey: "k", Model: "m"}}.Enabled())
	assert.False(t, AIConfig{Provider: ProviderGemini, Gemini: GeminiConfig{Model: "m"}}.Enabled())
	assert.True(t, AIConfig{Provider: ProviderArk, Ark: ArkConfig{AccessKey: "a", SecretKey: "s", Model: "m"}}.Enabled())
	assert.False(t, AIConfig{Provider: ProviderArk, Ark: ArkConfig{APIKey: "k"}}.Enabled())
	assert.False(t, AIConfig{Provider: ProviderOpenAI, OpenAI: OpenAIConfig{Model: "m"}}.Enabled())
}

func TestNewChatModelWithoutCredential(t *testing.T) {
	_, err := AIConfig{Provider: ProviderGemini, Gemini: GeminiConfig{Model: "gemini-1.5-flash"}}.NewChatModel(context.Background())
	assert.Error(t, err)
}

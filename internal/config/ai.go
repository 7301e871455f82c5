package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"
)

// Provider 标识大模型供应商。
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderArk    Provider = "ark"
	ProviderOpenAI Provider = "openai"
)

// ParseProvider 校验供应商名称。
func ParseProvider(raw string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(raw))); p {
	case ProviderGemini, ProviderArk, ProviderOpenAI:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported LLM_PROVIDER %q (supported: gemini, ark, openai)", raw)
	}
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider       Provider
	Gemini         GeminiConfig
	Ark            ArkConfig
	OpenAI         OpenAIConfig
	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	Timeout        time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
}

// GeminiConfig Gemini API 配置
type GeminiConfig struct {
	APIKey string
	Model  string
}

// ArkConfig 火山方舟配置
type ArkConfig struct {
	APIKey    string
	AccessKey string
	SecretKey string
	Model     string
	BaseURL   string
	Region    string
}

// OpenAIConfig OpenAI 兼容接口配置
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Enabled 表示当前供应商是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderGemini:
		return c.Gemini.APIKey != "" && c.Gemini.Model != ""
	case ProviderArk:
		return c.Ark.Model != "" && (c.Ark.APIKey != "" || (c.Ark.AccessKey != "" && c.Ark.SecretKey != ""))
	case ProviderOpenAI:
		return c.OpenAI.APIKey != "" && c.OpenAI.Model != ""
	default:
		return false
	}
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%s 凭证或模型配置缺失", c.Provider)
	}

	temperature := toFloat32(c.Temperature)
	topP := toFloat32(c.TopP)
	maxTokens := copyInt(c.MaxTokens)

	switch c.Provider {
	case ProviderGemini:
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  c.Gemini.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		return gemini.NewChatModel(ctx, &gemini.Config{
			Client:      client,
			Model:       c.Gemini.Model,
			MaxTokens:   maxTokens,
			Temperature: temperature,
			TopP:        topP,
		})

	case ProviderArk:
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     c.Ark.BaseURL,
			Region:      c.Ark.Region,
			APIKey:      c.Ark.APIKey,
			AccessKey:   c.Ark.AccessKey,
			SecretKey:   c.Ark.SecretKey,
			Model:       c.Ark.Model,
			MaxTokens:   maxTokens,
			Temperature: temperature,
			TopP:        topP,
		})

	case ProviderOpenAI:
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      c.OpenAI.APIKey,
			Model:       c.OpenAI.Model,
			BaseURL:     c.OpenAI.BaseURL,
			MaxTokens:   maxTokens,
			Temperature: temperature,
			TopP:        topP,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", c.Provider)
	}
}

func toFloat32(v *float64) *float32 {
	if v == nil {
		return nil
	}
	val := float32(*v)
	return &val
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	val := *v
	return &val
}

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/user/kam-assistant-api/internal/config"
	"github.com/user/kam-assistant-api/internal/models"
)

const (
	// RequestTimeout - фиксированный таймаут запроса к chat-completion API
	RequestTimeout = 60 * time.Second
	// MaxTokens - лимит токенов ответа
	MaxTokens = 700
	// Temperature - низкая температура для стабильного JSON
	Temperature = 0.2
)

// Client - клиент OpenAI-совместимого chat-completion API
type Client struct {
	api     openai.Client
	model   string
	enabled bool
}

// Completion - сырой ответ API и учёт токенов
type Completion struct {
	Raw              json.RawMessage
	PromptTokens     int64
	CompletionTokens int64
}

// NewClient создаёт клиент. Без ключа клиент отключён и в сеть не ходит.
// Повторы отключены: делается ровно одна попытка.
func NewClient(cfg config.AnalysisConfig) *Client {
	if cfg.APIKey == "" {
		log.Println("[AI] API ключ не указан, анализ отключён")
		return &Client{model: cfg.Model}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(RequestTimeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	log.Printf("[AI] Клиент инициализирован, модель: %s", cfg.Model)
	return &Client{
		api:     openai.NewClient(opts...),
		model:   cfg.Model,
		enabled: true,
	}
}

// IsEnabled возвращает true если ключ задан
func (c *Client) IsEnabled() bool {
	return c.enabled
}

// Complete отправляет system+user сообщения и возвращает тело ответа без изменений
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (*Completion, error) {
	if !c.IsEnabled() {
		return nil, fmt.Errorf("%w: credential not set", models.ErrExternalService)
	}

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		MaxTokens:   openai.Int(MaxTokens),
		Temperature: openai.Float(Temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrExternalService, err)
	}

	return &Completion{
		Raw:              json.RawMessage(resp.RawJSON()),
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

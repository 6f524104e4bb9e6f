package ai

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/user/kam-assistant-api/internal/models"
	"github.com/user/kam-assistant-api/internal/observability"
	"golang.org/x/time/rate"
)

// AnalysisWindow - сколько последних строк уходит в анализ
const AnalysisWindow = 500

// Фиксированные сообщения ответа /analyze
const (
	MessageNoData          = "no data for user"
	ErrorCredentialNotSet  = "credential not set"
	ErrorCallFailed        = "analysis call failed"
	ErrorStorage           = "storage unavailable"
	ErrorRateLimitExceeded = "rate limit exceeded"
)

// Store - чтение последних активностей
type Store interface {
	GetRecentActivities(ctx context.Context, user string, limit int) ([]models.Activity, error)
}

// Completer - внешний chat-completion API
type Completer interface {
	IsEnabled() bool
	Complete(ctx context.Context, systemPrompt, userPrompt string) (*Completion, error)
}

// AnalysisResult - тело ответа /analyze, заполнено ровно одно из полей
type AnalysisResult struct {
	AnalysisResponse json.RawMessage `json:"analysis_response,omitempty"`
	Message          string          `json:"message,omitempty"`
	Error            string          `json:"error,omitempty"`
	Details          string          `json:"details,omitempty"`
}

// Service - сервис AI-анализа активностей
type Service struct {
	store       Store
	client      Completer
	rateLimiter *rate.Limiter
}

// NewService создаёт сервис. requestsPerHour <= 0 - без ограничения.
func NewService(store Store, client Completer, requestsPerHour int) *Service {
	return &Service{
		store:       store,
		client:      client,
		rateLimiter: newRateLimiter(requestsPerHour),
	}
}

// newRateLimiter: burst = requestsPerHour, чтобы сразу можно было делать запросы
func newRateLimiter(requestsPerHour int) *rate.Limiter {
	if requestsPerHour <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	interval := time.Hour / time.Duration(requestsPerHour)
	log.Printf("[AI] Rate limiter: %d запросов/час", requestsPerHour)
	return rate.NewLimiter(rate.Every(interval), requestsPerHour)
}

// IsEnabled сообщает, настроен ли ключ внешнего API
func (s *Service) IsEnabled() bool {
	return s.client != nil && s.client.IsEnabled()
}

// Analyze отправляет снимок данных пользователя на анализ.
// Никогда не возвращает ошибку: сбои сворачиваются в поля error/details.
func (s *Service) Analyze(ctx context.Context, user string, now time.Time) AnalysisResult {
	rows, err := s.store.GetRecentActivities(ctx, user, AnalysisWindow)
	if err != nil {
		log.Printf("[AI] Ошибка чтения строк для %s: %v", user, err)
		observability.RecordAnalysis("storage_error")
		return AnalysisResult{Error: ErrorStorage, Details: err.Error()}
	}
	if len(rows) == 0 {
		observability.RecordAnalysis("no_data")
		return AnalysisResult{Message: MessageNoData}
	}

	if !s.IsEnabled() {
		observability.RecordAnalysis("no_credential")
		return AnalysisResult{Error: ErrorCredentialNotSet}
	}

	// Проверяем rate limit до сетевого вызова
	if !s.rateLimiter.Allow() {
		observability.RecordAnalysis("rate_limited")
		return AnalysisResult{Error: ErrorCallFailed, Details: ErrorRateLimitExceeded}
	}

	systemPrompt, userPrompt, err := BuildPrompt(rows, now)
	if err != nil {
		observability.RecordAnalysis("failed")
		return AnalysisResult{Error: ErrorCallFailed, Details: err.Error()}
	}

	completion, err := s.client.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		log.Printf("[AI] Ошибка анализа для %s: %v", user, err)
		observability.RecordAnalysis("failed")
		return AnalysisResult{Error: ErrorCallFailed, Details: detailsOf(err)}
	}

	observability.RecordAnalysis("ok")
	observability.RecordAnalysisTokens(completion.PromptTokens, completion.CompletionTokens)
	log.Printf("[AI] Анализ для %s готов (%d строк, токены %d/%d)",
		user, len(rows), completion.PromptTokens, completion.CompletionTokens)
	return AnalysisResult{AnalysisResponse: completion.Raw}
}

// detailsOf убирает префикс таксономии из сообщения об ошибке
func detailsOf(err error) string {
	return strings.TrimPrefix(err.Error(), models.ErrExternalService.Error()+": ")
}

package ai

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/user/kam-assistant-api/internal/models"
	"github.com/user/kam-assistant-api/internal/services/report"
)

const (
	// PromptSampleLimit - сколько последних строк попадает в выборку промпта
	PromptSampleLimit = 60
	// StuckAfterDays - follow-up старше этого числа дней считается зависшим
	StuckAfterDays = 14
)

// AnalysisSystemPrompt - контракт с моделью: только JSON с фиксированными ключами
const AnalysisSystemPrompt = "You are an expert sales analyst. Output JSON only with keys: morning_priorities (list), kpis (dict), warnings (list), recommended_actions (list). Use short plain sentences."

// AnalysisUserPromptTemplate - сводка, выборка строк и правила
const AnalysisUserPromptTemplate = `Data snapshot summary: %s.
Latest activities sample (JSON): %s
Rules: today is %s. Stage names Prospect,Demo,Proposal,Negotiation,Closed Won,Closed Lost. Flag deals stuck if followup_date older than %d days (before %s). Output JSON only.`

// snapshotSummary - сводка по всем переданным строкам
type snapshotSummary struct {
	Rows       int     `json:"rows"`
	MTDRevenue float64 `json:"mtd_revenue"`
}

// BuildPrompt собирает пару (system, user) для анализа.
// Результат детерминирован при одинаковых rows и now.
func BuildPrompt(rows []models.Activity, now time.Time) (string, string, error) {
	summary, err := json.Marshal(snapshotSummary{
		Rows:       len(rows),
		MTDRevenue: report.MTDRevenue(rows, now),
	})
	if err != nil {
		return "", "", fmt.Errorf("ошибка сериализации сводки: %w", err)
	}

	sample := rows
	if len(sample) > PromptSampleLimit {
		sample = sample[:PromptSampleLimit]
	}
	if sample == nil {
		sample = []models.Activity{}
	}
	sampleJSON, err := json.Marshal(sample)
	if err != nil {
		return "", "", fmt.Errorf("ошибка сериализации выборки: %w", err)
	}

	today := models.DateOf(now)
	userPrompt := fmt.Sprintf(AnalysisUserPromptTemplate,
		summary,
		sampleJSON,
		today,
		StuckAfterDays,
		today.AddDays(-StuckAfterDays),
	)
	return AnalysisSystemPrompt, userPrompt, nil
}

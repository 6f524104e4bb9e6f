package report

import (
	"context"
	"log"
	"time"

	"github.com/user/kam-assistant-api/internal/models"
)

const (
	// DashboardWindow - сколько последних строк участвует в расчёте KPI
	DashboardWindow = 1000
	// LastRowsLimit - сколько строк отдаётся в last_rows
	LastRowsLimit = 20
)

// Стадии, исключаемые из воронки (в нижнем регистре)
var closedStages = map[string]bool{
	"closed won":  true,
	"closed lost": true,
	"lost":        true,
}

// Store - чтение последних активностей
type Store interface {
	GetRecentActivities(ctx context.Context, user string, limit int) ([]models.Activity, error)
}

// DashboardResult - KPI пользователя по последним строкам
type DashboardResult struct {
	MTDRevenue    float64           `json:"mtd_revenue"`
	DealsClosed   int               `json:"deals_closed"`
	AvgDeal       float64           `json:"avg_deal"`
	PipelineValue float64           `json:"pipeline_value"`
	LastRows      []models.Activity `json:"last_rows"`
}

// Service - сервис отчётности
type Service struct {
	store Store
}

// NewService создаёт сервис отчётности
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Dashboard считает KPI по не более чем 1000 последним строкам пользователя.
// now задаёт текущую дату для month-to-date.
func (s *Service) Dashboard(ctx context.Context, user string, now time.Time) (*DashboardResult, error) {
	rows, err := s.store.GetRecentActivities(ctx, user, DashboardWindow)
	if err != nil {
		log.Printf("[Dashboard] Ошибка чтения строк для %s: %v", user, err)
		return nil, err
	}
	return ComputeDashboard(rows, now), nil
}

// MonthStart возвращает первое число месяца, в котором лежит now
func MonthStart(now time.Time) models.Date {
	return models.NewDate(now.Year(), now.Month(), 1)
}

// MTDRevenue - сумма deal_value по строкам с датой не раньше начала месяца
func MTDRevenue(rows []models.Activity, now time.Time) float64 {
	start := MonthStart(now)
	var sum float64
	for _, r := range rows {
		if r.Date.OnOrAfter(start) {
			sum += r.DealValue
		}
	}
	return sum
}

// ComputeDashboard считает KPI по уже выбранным строкам (отсортированным по дате по убыванию)
func ComputeDashboard(rows []models.Activity, now time.Time) *DashboardResult {
	result := &DashboardResult{LastRows: make([]models.Activity, 0)}
	if len(rows) == 0 {
		return result
	}

	result.MTDRevenue = MTDRevenue(rows, now)
	for _, r := range rows {
		stage := r.StageLower()
		if stage == "closed won" {
			result.DealsClosed++
		}
		if !closedStages[stage] {
			result.PipelineValue += r.DealValue
		}
	}

	if result.DealsClosed > 0 {
		result.AvgDeal = result.MTDRevenue / float64(result.DealsClosed)
	}

	n := len(rows)
	if n > LastRowsLimit {
		n = LastRowsLimit
	}
	result.LastRows = append(result.LastRows, rows[:n]...)
	return result
}

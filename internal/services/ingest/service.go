package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/user/kam-assistant-api/internal/models"
	"github.com/user/kam-assistant-api/internal/observability"
)

// Store - запись активностей в хранилище
type Store interface {
	InsertActivities(ctx context.Context, rows []models.Activity) (int, error)
}

// Service - приём пачек активностей
type Service struct {
	store Store
}

// NewService создаёт сервис приёма
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Ingest проверяет пачку и сохраняет её одной транзакцией.
// Пустая пачка или строка без user/date отклоняют всю пачку с ErrValidation.
func (s *Service) Ingest(ctx context.Context, inputs []models.ActivityInput) (int, error) {
	if len(inputs) == 0 {
		return 0, fmt.Errorf("%w: No rows provided", models.ErrValidation)
	}

	rows := make([]models.Activity, 0, len(inputs))
	for i, in := range inputs {
		if err := validate(in); err != nil {
			return 0, fmt.Errorf("%w: row %d: %v", models.ErrValidation, i, err)
		}
		rows = append(rows, in.ToActivity())
	}

	inserted, err := s.store.InsertActivities(ctx, rows)
	if err != nil {
		log.Printf("[Ingest] Ошибка сохранения пачки из %d строк: %v", len(rows), err)
		return 0, err
	}

	observability.AddIngestedRows(inserted)
	log.Printf("[Ingest] Сохранено %d строк", inserted)
	return inserted, nil
}

func validate(in models.ActivityInput) error {
	if strings.TrimSpace(in.User) == "" {
		return fmt.Errorf("user is required")
	}
	if in.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	return nil
}

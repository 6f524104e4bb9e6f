package repository

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/user/kam-assistant-api/internal/config"
	"github.com/user/kam-assistant-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Repository - хранилище активностей
type Repository struct {
	db *gorm.DB
}

// NewDB открывает БД по строке подключения и выполняет автомиграцию.
// postgres://, postgresql:// и DSN вида "host=..." уходят в PostgreSQL,
// всё остальное (sqlite://path, путь к файлу, :memory:) - в SQLite.
func NewDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg.URL)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{}
	if !cfg.LogSQL {
		gormCfg.Logger = logger.Default.LogMode(logger.Silent)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: подключение к БД: %v", models.ErrStorage, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStorage, err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	// Автомиграция единственной таблицы
	if err := db.AutoMigrate(&models.Activity{}); err != nil {
		return nil, fmt.Errorf("%w: миграция: %v", models.ErrStorage, err)
	}

	log.Printf("[DB] Подключение установлено (%s)", dialector.Name())
	return db, nil
}

// dialectorFor выбирает драйвер по строке подключения
func dialectorFor(url string) (gorm.Dialector, error) {
	url = strings.TrimSpace(url)
	switch {
	case url == "":
		return nil, fmt.Errorf("%w: пустая строка подключения", models.ErrStorage)
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"), strings.HasPrefix(url, "host="):
		return postgres.Open(url), nil
	case strings.HasPrefix(url, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(url, "sqlite://")), nil
	default:
		return sqlite.Open(url), nil
	}
}

// Close закрывает пул соединений
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewRepository создаёт новый репозиторий
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Ping проверяет доступность БД
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrStorage, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStorage, err)
	}
	return nil
}

// === Activities ===

// InsertActivities добавляет пачку записей одной транзакцией: либо все, либо ни одной
func (r *Repository) InsertActivities(ctx context.Context, rows []models.Activity) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			if rows[i].User == "" {
				return fmt.Errorf("строка %d: пустой user", i)
			}
			if rows[i].Date.IsZero() {
				return fmt.Errorf("строка %d: пустая date", i)
			}
		}
		return tx.CreateInBatches(&rows, 200).Error
	})
	if err != nil {
		return 0, fmt.Errorf("%w: вставка активностей: %v", models.ErrStorage, err)
	}
	return len(rows), nil
}

// GetRecentActivities возвращает до limit последних записей пользователя.
// Порядок: date по убыванию, при равной дате - по id по возрастанию (порядок вставки).
func (r *Repository) GetRecentActivities(ctx context.Context, user string, limit int) ([]models.Activity, error) {
	activities := make([]models.Activity, 0)
	if limit <= 0 {
		return activities, nil
	}

	err := r.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: "user"}, Value: user}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
		Limit(limit).
		Find(&activities).Error
	if err != nil {
		return nil, fmt.Errorf("%w: чтение активностей: %v", models.ErrStorage, err)
	}
	return activities, nil
}

package models

import (
	"strings"
	"time"
)

// Activity - запись об активности менеджера (звонок, встреча, сделка)
// Таблица только на добавление: строки не обновляются и не удаляются
type Activity struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	User         string    `gorm:"column:user;size:100;not null;index" json:"user"`
	Date         Date      `gorm:"type:date;not null" json:"date"`
	Client       *string   `gorm:"size:200" json:"client"`
	ActivityType *string   `gorm:"size:50" json:"activity_type"`
	DurationMin  int       `gorm:"default:0" json:"duration_min"`
	Outcome      *string   `gorm:"size:200" json:"outcome"`
	DealValue    float64   `gorm:"default:0" json:"deal_value"`
	Stage        *string   `gorm:"size:50" json:"stage"`
	FollowupDate *Date     `gorm:"type:date" json:"followup_date"`
	Notes        *string   `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName фиксирует имя таблицы
func (Activity) TableName() string {
	return "activities"
}

// StageLower возвращает стадию в нижнем регистре ("" если не задана)
func (a Activity) StageLower() string {
	if a.Stage == nil {
		return ""
	}
	return strings.ToLower(*a.Stage)
}

// ActivityInput - входящая запись для /ingest
type ActivityInput struct {
	User         string   `json:"user"`
	Date         Date     `json:"date"`
	Client       *string  `json:"client"`
	ActivityType *string  `json:"activity_type"`
	DurationMin  *int     `json:"duration_min"`
	Outcome      *string  `json:"outcome"`
	DealValue    *float64 `json:"deal_value"`
	Stage        *string  `json:"stage"`
	FollowupDate *Date    `json:"followup_date"`
	Notes        *string  `json:"notes"`
}

// ToActivity преобразует вход в запись хранилища с подстановкой значений по умолчанию
func (in ActivityInput) ToActivity() Activity {
	a := Activity{
		User:         in.User,
		Date:         in.Date,
		Client:       in.Client,
		ActivityType: in.ActivityType,
		Outcome:      in.Outcome,
		Stage:        in.Stage,
		FollowupDate: in.FollowupDate,
		Notes:        in.Notes,
	}
	if in.DurationMin != nil {
		a.DurationMin = *in.DurationMin
	}
	if in.DealValue != nil {
		a.DealValue = *in.DealValue
	}
	return a
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout - формат даты на проводе и в промптах
const DateLayout = "2006-01-02"

// Date - календарная дата без времени суток.
// Хранится как полночь UTC, сравнивается по году, месяцу и дню.
type Date struct {
	time.Time
}

// NewDate создаёт дату из компонент
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf отбрасывает время суток, сохраняя календарную дату в зоне t
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate разбирает дату в формате YYYY-MM-DD
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("неверная дата %q, ожидается YYYY-MM-DD", s)
	}
	return Date{Time: t}, nil
}

// String возвращает дату в формате YYYY-MM-DD
func (d Date) String() string {
	return d.Time.Format(DateLayout)
}

// Before сообщает, что d раньше other
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// OnOrAfter сообщает, что d не раньше other
func (d Date) OnOrAfter(other Date) bool {
	return !d.Time.Before(other.Time)
}

// AddDays сдвигает дату на n дней
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// MarshalJSON пишет "YYYY-MM-DD"
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON принимает "YYYY-MM-DD" и null
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("дата должна быть строкой: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value реализует driver.Valuer
func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

// Scan реализует sql.Scanner: драйверы отдают дату как time.Time или строку
func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = NewDate(v.Year(), v.Month(), v.Day())
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("неподдерживаемый тип даты %T", value)
	}
}

func (d *Date) scanString(s string) error {
	// SQLite может вернуть полную метку времени, берём только дату
	if len(s) >= len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

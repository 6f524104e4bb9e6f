package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/user/kam-assistant-api/internal/config"
	"github.com/user/kam-assistant-api/internal/models"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := NewDB(config.DatabaseConfig{
		URL:          "sqlite://" + filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return NewRepository(db)
}

func strPtr(s string) *string { return &s }

func TestInsertAndQueryRecent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	followup := models.NewDate(2024, time.June, 1)
	rows := []models.Activity{
		{User: "ketan", Date: models.NewDate(2024, time.June, 1), DealValue: 100, Stage: strPtr("Closed Won")},
		{User: "ketan", Date: models.NewDate(2024, time.June, 15), DealValue: 50, Stage: strPtr("Prospect"), FollowupDate: &followup, Client: strPtr("Acme")},
		{User: "ketan", Date: models.NewDate(2024, time.June, 15), DealValue: 75},
		{User: "other", Date: models.NewDate(2024, time.June, 30), DealValue: 999},
	}

	n, err := repo.InsertActivities(ctx, rows)
	require.NoError(t, err)
	require.Equal(t, 4, n)

	got, err := repo.GetRecentActivities(ctx, "ketan", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// date по убыванию, при равенстве - порядок вставки
	require.Equal(t, "2024-06-15", got[0].Date.String())
	require.Equal(t, 50.0, got[0].DealValue)
	require.Equal(t, "2024-06-15", got[1].Date.String())
	require.Equal(t, 75.0, got[1].DealValue)
	require.Equal(t, "2024-06-01", got[2].Date.String())
	require.Less(t, got[0].ID, got[1].ID)

	require.NotNil(t, got[0].FollowupDate)
	require.Equal(t, "2024-06-01", got[0].FollowupDate.String())
	require.Equal(t, "Acme", *got[0].Client)
	require.Nil(t, got[1].Stage)
	require.False(t, got[0].CreatedAt.IsZero())
}

func TestQueryRecentRespectsLimit(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	rows := make([]models.Activity, 0, 30)
	start := models.NewDate(2024, time.January, 1)
	for i := 0; i < 30; i++ {
		rows = append(rows, models.Activity{User: "ketan", Date: start.AddDays(i)})
	}
	_, err := repo.InsertActivities(ctx, rows)
	require.NoError(t, err)

	got, err := repo.GetRecentActivities(ctx, "ketan", 7)
	require.NoError(t, err)
	require.Len(t, got, 7)
	for i := 1; i < len(got); i++ {
		require.False(t, got[i-1].Date.Before(got[i].Date))
	}
	require.Equal(t, start.AddDays(29), got[0].Date)
}

func TestQueryRecentUnknownUser(t *testing.T) {
	repo := newTestRepository(t)

	got, err := repo.GetRecentActivities(context.Background(), "nobody", 100)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestInsertIsAllOrNothing(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.InsertActivities(ctx, []models.Activity{
		{ID: 1, User: "ketan", Date: models.NewDate(2024, time.June, 1)},
	})
	require.NoError(t, err)

	// Вторая строка нарушает первичный ключ - пачка откатывается целиком
	_, err = repo.InsertActivities(ctx, []models.Activity{
		{ID: 2, User: "ketan", Date: models.NewDate(2024, time.June, 2)},
		{ID: 1, User: "ketan", Date: models.NewDate(2024, time.June, 3)},
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, models.ErrStorage))

	got, err := repo.GetRecentActivities(ctx, "ketan", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, uint(1), got[0].ID)
}

func TestInsertRejectsMissingRequiredFields(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.InsertActivities(ctx, []models.Activity{
		{User: "ketan", Date: models.NewDate(2024, time.June, 1)},
		{User: "", Date: models.NewDate(2024, time.June, 2)},
	})
	require.ErrorIs(t, err, models.ErrStorage)

	got, err := repo.GetRecentActivities(ctx, "ketan", 10)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestPing(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.Ping(context.Background()))
}

func TestDialectorFor(t *testing.T) {
	_, err := dialectorFor("")
	require.ErrorIs(t, err, models.ErrStorage)

	d, err := dialectorFor("postgres://u:p@localhost:5432/kam?sslmode=disable")
	require.NoError(t, err)
	require.Equal(t, "postgres", d.Name())

	d, err = dialectorFor("sqlite://kam.db")
	require.NoError(t, err)
	require.Equal(t, "sqlite", d.Name())
}

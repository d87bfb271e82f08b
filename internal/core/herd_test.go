package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/haas/internal/api/request"
	"github.com/edvin/haas/internal/model"
)

func TestHerdService_Create_DefaultsPort(t *testing.T) {
	db := &mockDB{}
	svc := NewHerdService(db)
	ctx := context.Background()

	herd := &model.Herd{ID: "h1", Name: "analytics", PGData: "/var/lib/postgresql/analytics"}
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	require.NoError(t, svc.Create(ctx, herd))
	assert.Equal(t, 5432, herd.Port)

	args := db.Calls[0].Arguments.Get(2).([]any)
	assert.Equal(t, 5432, args[4])
}

func TestHerdService_Create_DBError(t *testing.T) {
	db := &mockDB{}
	svc := NewHerdService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, errors.New("unique violation"))

	err := svc.Create(ctx, &model.Herd{ID: "h1", Name: "analytics", Port: 6432})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert herd")
}

func TestHerdService_GetByID(t *testing.T) {
	db := &mockDB{}
	svc := NewHerdService(db)
	ctx := context.Background()
	now := time.Now().Truncate(time.Microsecond)

	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "h1"
		*(dest[1].(**string)) = ptr("env-1")
		*(dest[2].(*string)) = "analytics"
		*(dest[3].(*string)) = "reporting cluster"
		*(dest[4].(*int)) = 5433
		*(dest[5].(*string)) = "/data/analytics"
		*(dest[6].(*string)) = "analytics.db.internal"
		*(dest[7].(*time.Time)) = now
		*(dest[8].(*time.Time)) = now
		*(dest[9].(**string)) = ptr("prod")
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{"h1"}).Return(row)

	h, err := svc.GetByID(ctx, "h1")

	require.NoError(t, err)
	assert.Equal(t, "analytics", h.Name)
	assert.Equal(t, 5433, h.Port)
	assert.Equal(t, "prod", *h.EnvironmentName)
}

func TestHerdService_GetByID_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewHerdService(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{"nope"}).
		Return(&mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }})

	_, err := svc.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHerdService_List_ByEnvironment(t *testing.T) {
	db := &mockDB{}
	svc := NewHerdService(db)
	ctx := context.Background()

	db.On("Query", ctx, mock.MatchedBy(func(q string) bool {
		return containsAll(q, "h.environment_id = $1", "LIMIT $2")
	}), []any{"env-1", 26}).Return(newEmptyMockRows(), nil)

	herds, hasMore, err := svc.List(ctx, "env-1", request.ListParams{Limit: 25})

	require.NoError(t, err)
	assert.False(t, hasMore)
	assert.Empty(t, herds)
	db.AssertExpectations(t)
}

func TestHerdService_Delete(t *testing.T) {
	db := &mockDB{}
	svc := NewHerdService(db)
	ctx := context.Background()

	db.On("Exec", ctx, "DELETE FROM herds WHERE id = $1", []any{"h1"}).Return(pgconn.CommandTag{}, nil)

	require.NoError(t, svc.Delete(ctx, "h1"))
	db.AssertExpectations(t)
}

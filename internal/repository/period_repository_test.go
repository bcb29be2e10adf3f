package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentPeriodPicksLatestStart(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "start_date", "end_date", "created_at"}).
		AddRow("p2", "2026-I", now, now.AddDate(0, 5, 0), now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, start_date, end_date, created_at FROM academic_periods ORDER BY start_date DESC LIMIT 1")).
		WillReturnRows(rows)

	period, err := repo.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "p2", period.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrentPeriodEmptyCalendar(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	mock.ExpectQuery("SELECT id, name, start_date").WillReturnError(sql.ErrNoRows)

	_, err := repo.Current(context.Background())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

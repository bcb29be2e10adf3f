package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colegio-altavista/portal-api/internal/models"
)

func TestBulkUpsertRunsInTransaction(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attendance_records").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO attendance_records").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	records := []models.AttendanceRecord{
		{ClassID: "c1", StudentID: "s1", Date: date, Status: models.AttendanceStatusPresent},
		{ClassID: "c1", StudentID: "s2", Date: date, Status: models.AttendanceStatusLate},
	}
	err := repo.BulkUpsert(context.Background(), records)
	require.NoError(t, err)
	assert.NotEmpty(t, records[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsertEmptyIsNoop(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	err := repo.BulkUpsert(context.Background(), nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterByClassRange(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"student_id", "student_number", "student_name", "date", "status"}).
		AddRow("s1", "2026-001", "Ana Lopez", from, string(models.AttendanceStatusPresent))
	mock.ExpectQuery("SELECT ar.student_id").
		WithArgs("c1", from, to).
		WillReturnRows(rows)

	result, err := repo.RegisterByClassRange(context.Background(), "c1", from, to)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, models.AttendanceStatusPresent, result[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

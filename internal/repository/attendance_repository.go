package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/colegio-altavista/portal-api/internal/models"
)

// AttendanceRepository provides database access for attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new instance of AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListByClassAndDate returns the records stored for a class on one date.
func (r *AttendanceRepository) ListByClassAndDate(ctx context.Context, classID string, date time.Time) ([]models.AttendanceRecord, error) {
	const query = `SELECT id, class_id, student_id, date, status, created_at, updated_at
FROM attendance_records WHERE class_id = $1 AND date = $2`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, classID, date); err != nil {
		return nil, fmt.Errorf("list attendance by date: %w", err)
	}
	return records, nil
}

// BulkUpsert writes a full sheet of records in one transaction. Each
// (class, student, date) row is inserted or overwritten; the batch is
// all-or-nothing.
func (r *AttendanceRepository) BulkUpsert(ctx context.Context, records []models.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance upsert: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	const query = `INSERT INTO attendance_records (id, class_id, student_id, date, status, created_at, updated_at)
VALUES (:id, :class_id, :student_id, :date, :status, :created_at, :updated_at)
ON CONFLICT (class_id, student_id, date) DO UPDATE SET
	status = EXCLUDED.status,
	updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		records[i].CreatedAt = now
		records[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, records[i]); err != nil {
			return fmt.Errorf("upsert attendance record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance upsert: %w", err)
	}
	committed = true
	return nil
}

// RegisterByClassRange returns the stored records for a class over a
// date range joined with student identity, ordered for the register
// report.
func (r *AttendanceRepository) RegisterByClassRange(ctx context.Context, classID string, from, to time.Time) ([]models.AttendanceRegisterRow, error) {
	const query = `SELECT ar.student_id, sp.student_number, u.full_name AS student_name, ar.date, ar.status
FROM attendance_records ar
JOIN users u ON u.id = ar.student_id
JOIN student_profiles sp ON sp.user_id = ar.student_id
WHERE ar.class_id = $1 AND ar.date BETWEEN $2 AND $3
ORDER BY u.full_name ASC, ar.date ASC`
	var rows []models.AttendanceRegisterRow
	if err := r.db.SelectContext(ctx, &rows, query, classID, from, to); err != nil {
		return nil, fmt.Errorf("attendance register: %w", err)
	}
	return rows, nil
}

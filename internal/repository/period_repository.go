package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/colegio-altavista/portal-api/internal/models"
)

// PeriodRepository provides database access for academic periods.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository creates a new instance of PeriodRepository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

const periodColumns = `id, name, start_date, end_date, created_at`

// Current returns the period with the latest start date. There is no
// active flag; the most recently started period is the current one.
func (r *PeriodRepository) Current(ctx context.Context) (*models.AcademicPeriod, error) {
	query := fmt.Sprintf(`SELECT %s FROM academic_periods ORDER BY start_date DESC LIMIT 1`, periodColumns)
	var period models.AcademicPeriod
	if err := r.db.GetContext(ctx, &period, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("current period: %w", err)
	}
	return &period, nil
}

// FindByID returns a period by identifier.
func (r *PeriodRepository) FindByID(ctx context.Context, id string) (*models.AcademicPeriod, error) {
	query := fmt.Sprintf(`SELECT %s FROM academic_periods WHERE id = $1 LIMIT 1`, periodColumns)
	var period models.AcademicPeriod
	if err := r.db.GetContext(ctx, &period, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find period by id: %w", err)
	}
	return &period, nil
}

// List returns all periods newest first.
func (r *PeriodRepository) List(ctx context.Context) ([]models.AcademicPeriod, error) {
	query := fmt.Sprintf(`SELECT %s FROM academic_periods ORDER BY start_date DESC`, periodColumns)
	var periods []models.AcademicPeriod
	if err := r.db.SelectContext(ctx, &periods, query); err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return periods, nil
}

// Create inserts a new academic period.
func (r *PeriodRepository) Create(ctx context.Context, period *models.AcademicPeriod) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	if period.CreatedAt.IsZero() {
		period.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO academic_periods (id, name, start_date, end_date, created_at)
VALUES (:id, :name, :start_date, :end_date, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("create period: %w", err)
	}
	return nil
}

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

// AssignmentRepository provides database access for assignments and
// student submissions.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new instance of AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = `id, class_id, title, description, due_at, resource_path, created_at, updated_at`

// Create inserts a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	const query = `INSERT INTO assignments (id, class_id, title, description, due_at, resource_path, created_at, updated_at)
VALUES (:id, :class_id, :title, :description, :due_at, :resource_path, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// FindByID returns an assignment by identifier.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assignments WHERE id = $1 LIMIT 1`, assignmentColumns)
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find assignment by id: %w", err)
	}
	return &assignment, nil
}

// Update modifies the editable assignment fields.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	assignment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assignments SET title = :title, description = :description, due_at = :due_at,
resource_path = :resource_path, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return nil
}

// Delete removes an assignment and cascades its submissions.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}

// ListByClass returns a class's assignments newest due date first.
func (r *AssignmentRepository) ListByClass(ctx context.Context, classID string) ([]models.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assignments WHERE class_id = $1 ORDER BY due_at DESC`, assignmentColumns)
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, classID); err != nil {
		return nil, fmt.Errorf("list assignments by class: %w", err)
	}
	return assignments, nil
}

// ListForStudentInPeriod returns every assignment across the student's
// enrolled classes in a period, annotated with the student's own
// submission state in the same query. One LEFT JOIN covers the whole
// page; callers never look up submissions per assignment.
func (r *AssignmentRepository) ListForStudentInPeriod(ctx context.Context, studentID, periodID string) ([]models.AssignmentStatusRow, error) {
	const query = `SELECT a.id, a.class_id, a.title, a.description, a.due_at, a.resource_path, a.created_at, a.updated_at,
co.name AS course_name,
s.id IS NOT NULL AS submitted,
s.grade AS grade
FROM assignments a
JOIN classes c ON c.id = a.class_id
JOIN courses co ON co.id = c.course_id
JOIN enrollments e ON e.class_id = c.id AND e.student_id = $1
LEFT JOIN submissions s ON s.assignment_id = a.id AND s.student_id = $1
WHERE c.period_id = $2
ORDER BY a.due_at ASC`
	var rows []models.AssignmentStatusRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID, periodID); err != nil {
		return nil, fmt.Errorf("list assignments for student: %w", err)
	}
	return rows, nil
}

// UpsertSubmission records or replaces a student's work for an
// assignment. Only the work fields are touched on conflict; an existing
// grade is never cleared by a resubmission.
func (r *AssignmentRepository) UpsertSubmission(ctx context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	submission.SubmittedAt = now
	submission.UpdatedAt = now
	const query = `INSERT INTO submissions (id, assignment_id, student_id, file_path, comments, submitted_at, updated_at)
VALUES (:id, :assignment_id, :student_id, :file_path, :comments, :submitted_at, :updated_at)
ON CONFLICT (assignment_id, student_id) DO UPDATE SET
	file_path = EXCLUDED.file_path,
	comments = EXCLUDED.comments,
	updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return fmt.Errorf("upsert submission: %w", err)
	}
	return nil
}

// UpdateGrade sets the evaluation fields on a submission. The student's
// uploaded work is left untouched.
func (r *AssignmentRepository) UpdateGrade(ctx context.Context, submissionID string, grade *float64, teacherComments *string) error {
	const query = `UPDATE submissions SET grade = $2, teacher_comments = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, submissionID, grade, teacherComments, time.Now().UTC()); err != nil {
		return fmt.Errorf("update grade: %w", err)
	}
	return nil
}

const submissionColumns = `s.id, s.assignment_id, s.student_id, s.file_path, s.comments, s.grade, s.teacher_comments, s.submitted_at, s.updated_at`

// FindSubmission returns the student's submission for an assignment, if any.
func (r *AssignmentRepository) FindSubmission(ctx context.Context, assignmentID, studentID string) (*models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions s WHERE s.assignment_id = $1 AND s.student_id = $2 LIMIT 1`, submissionColumns)
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, assignmentID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return &submission, nil
}

// FindSubmissionDetailByID returns one submission with student identity.
func (r *AssignmentRepository) FindSubmissionDetailByID(ctx context.Context, id string) (*models.SubmissionDetail, error) {
	query := fmt.Sprintf(`SELECT %s, sp.student_number, u.full_name AS student_name
FROM submissions s
JOIN users u ON u.id = s.student_id
JOIN student_profiles sp ON sp.user_id = s.student_id
WHERE s.id = $1 LIMIT 1`, submissionColumns)
	var detail models.SubmissionDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find submission detail: %w", err)
	}
	return &detail, nil
}

// ListSubmissionsByAssignment returns all submissions for an assignment
// with student identity, ordered by student name.
func (r *AssignmentRepository) ListSubmissionsByAssignment(ctx context.Context, assignmentID string) ([]models.SubmissionDetail, error) {
	query := fmt.Sprintf(`SELECT %s, sp.student_number, u.full_name AS student_name
FROM submissions s
JOIN users u ON u.id = s.student_id
JOIN student_profiles sp ON sp.user_id = s.student_id
WHERE s.assignment_id = $1
ORDER BY u.full_name ASC`, submissionColumns)
	var submissions []models.SubmissionDetail
	if err := r.db.SelectContext(ctx, &submissions, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}

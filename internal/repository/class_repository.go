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

// ClassRepository provides database access for courses, classes and
// enrollments.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository creates a new instance of ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

const classDetailColumns = `c.id, c.course_id, c.teacher_id, c.period_id, c.weekday, c.start_time, c.created_at,
co.name AS course_name, u.full_name AS teacher_name`

const classDetailJoins = `FROM classes c
JOIN courses co ON co.id = c.course_id
JOIN users u ON u.id = c.teacher_id`

// FindByID returns a class by identifier.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, course_id, teacher_id, period_id, weekday, start_time, created_at
FROM classes WHERE id = $1 LIMIT 1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find class by id: %w", err)
	}
	return &class, nil
}

// FindDetailByID returns a class with its course and teacher names.
func (r *ClassRepository) FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE c.id = $1 LIMIT 1`, classDetailColumns, classDetailJoins)
	var detail models.ClassDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find class detail: %w", err)
	}
	return &detail, nil
}

// ListByStudentAndPeriod returns the classes a student is enrolled in
// for a period, ordered by schedule slot.
func (r *ClassRepository) ListByStudentAndPeriod(ctx context.Context, studentID, periodID string) ([]models.ClassDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s
JOIN enrollments e ON e.class_id = c.id
WHERE e.student_id = $1 AND c.period_id = $2
ORDER BY c.weekday ASC, c.start_time ASC`, classDetailColumns, classDetailJoins)
	var classes []models.ClassDetail
	if err := r.db.SelectContext(ctx, &classes, query, studentID, periodID); err != nil {
		return nil, fmt.Errorf("list classes by student: %w", err)
	}
	return classes, nil
}

// ListByTeacherAndPeriod returns the classes a teacher runs in a period,
// ordered by schedule slot.
func (r *ClassRepository) ListByTeacherAndPeriod(ctx context.Context, teacherID, periodID string) ([]models.ClassDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s
WHERE c.teacher_id = $1 AND c.period_id = $2
ORDER BY c.weekday ASC, c.start_time ASC`, classDetailColumns, classDetailJoins)
	var classes []models.ClassDetail
	if err := r.db.SelectContext(ctx, &classes, query, teacherID, periodID); err != nil {
		return nil, fmt.Errorf("list classes by teacher: %w", err)
	}
	return classes, nil
}

// Roster returns the students enrolled in a class ordered by name.
func (r *ClassRepository) Roster(ctx context.Context, classID string) ([]models.ClassRosterEntry, error) {
	const query = `SELECT e.student_id, sp.student_number, u.full_name
FROM enrollments e
JOIN users u ON u.id = e.student_id
JOIN student_profiles sp ON sp.user_id = e.student_id
WHERE e.class_id = $1
ORDER BY u.full_name ASC`
	var roster []models.ClassRosterEntry
	if err := r.db.SelectContext(ctx, &roster, query, classID); err != nil {
		return nil, fmt.Errorf("class roster: %w", err)
	}
	return roster, nil
}

// IsEnrolled reports whether the student is enrolled in the class.
func (r *ClassRepository) IsEnrolled(ctx context.Context, classID, studentID string) (bool, error) {
	var enrolled bool
	const query = `SELECT EXISTS (SELECT 1 FROM enrollments WHERE class_id = $1 AND student_id = $2)`
	if err := r.db.GetContext(ctx, &enrolled, query, classID, studentID); err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return enrolled, nil
}

// IsTaughtBy reports whether the class belongs to the teacher.
func (r *ClassRepository) IsTaughtBy(ctx context.Context, classID, teacherID string) (bool, error) {
	var taught bool
	const query = `SELECT EXISTS (SELECT 1 FROM classes WHERE id = $1 AND teacher_id = $2)`
	if err := r.db.GetContext(ctx, &taught, query, classID, teacherID); err != nil {
		return false, fmt.Errorf("check class teacher: %w", err)
	}
	return taught, nil
}

// Enroll adds a student to a class. Duplicate enrollments are ignored.
func (r *ClassRepository) Enroll(ctx context.Context, classID, studentID string) error {
	const query = `INSERT INTO enrollments (id, class_id, student_id, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (class_id, student_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), classID, studentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("enroll student: %w", err)
	}
	return nil
}

// Unenroll removes a student from a class.
func (r *ClassRepository) Unenroll(ctx context.Context, classID, studentID string) error {
	const query = `DELETE FROM enrollments WHERE class_id = $1 AND student_id = $2`
	if _, err := r.db.ExecContext(ctx, query, classID, studentID); err != nil {
		return fmt.Errorf("unenroll student: %w", err)
	}
	return nil
}

// ListCourses returns the course catalog alphabetically.
func (r *ClassRepository) ListCourses(ctx context.Context) ([]models.Course, error) {
	const query = `SELECT id, name, description, created_at FROM courses ORDER BY name ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// CreateCourse inserts a catalog subject.
func (r *ClassRepository) CreateCourse(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO courses (id, name, description, created_at)
VALUES (:id, :name, :description, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// CreateClass inserts a scheduled class.
func (r *ClassRepository) CreateClass(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	if class.CreatedAt.IsZero() {
		class.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO classes (id, course_id, teacher_id, period_id, weekday, start_time, created_at)
VALUES (:id, :course_id, :teacher_id, :period_id, :weekday, :start_time, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/colegio-altavista/portal-api/internal/models"
)

// ProfileRepository persists the role-specific profile records attached
// 1:1 to user accounts. Account and profile are written in one
// transaction so onboarding never leaves a half-created identity.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs the repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// CreateStudent inserts the user account and its student profile atomically.
func (r *ProfileRepository) CreateStudent(ctx context.Context, user *models.User, profile *models.StudentProfile) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create student: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	profile.UserID = user.ID
	profile.CreatedAt = now
	profile.UpdatedAt = now

	const userQuery = `INSERT INTO users (id, username, email, password_hash, full_name, role, active, must_reset, created_at, updated_at)
VALUES (:id, :username, :email, :password_hash, :full_name, :role, :active, :must_reset, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, userQuery, user); err != nil {
		return fmt.Errorf("insert student user: %w", err)
	}

	const profileQuery = `INSERT INTO student_profiles (user_id, student_number, birth_date, guardian_name, guardian_phone, address, emergency_contact, medical_notes, created_at, updated_at)
VALUES (:user_id, :student_number, :birth_date, :guardian_name, :guardian_phone, :address, :emergency_contact, :medical_notes, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, profileQuery, profile); err != nil {
		return fmt.Errorf("insert student profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create student: %w", err)
	}
	committed = true
	return nil
}

// CreateTeacher inserts the user account and its teacher profile atomically.
func (r *ProfileRepository) CreateTeacher(ctx context.Context, user *models.User, profile *models.TeacherProfile) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create teacher: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	profile.UserID = user.ID
	profile.CreatedAt = now
	profile.UpdatedAt = now

	const userQuery = `INSERT INTO users (id, username, email, password_hash, full_name, role, active, must_reset, created_at, updated_at)
VALUES (:id, :username, :email, :password_hash, :full_name, :role, :active, :must_reset, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, userQuery, user); err != nil {
		return fmt.Errorf("insert teacher user: %w", err)
	}

	const profileQuery = `INSERT INTO teacher_profiles (user_id, employee_number, specialty, hire_date, phone, photo_path, academic_title, bio, status, emergency_name, emergency_phone, created_at, updated_at)
VALUES (:user_id, :employee_number, :specialty, :hire_date, :phone, :photo_path, :academic_title, :bio, :status, :emergency_name, :emergency_phone, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, profileQuery, profile); err != nil {
		return fmt.Errorf("insert teacher profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create teacher: %w", err)
	}
	committed = true
	return nil
}

// FindStudent returns the student profile for a user id.
func (r *ProfileRepository) FindStudent(ctx context.Context, userID string) (*models.StudentProfile, error) {
	const query = `SELECT user_id, student_number, birth_date, guardian_name, guardian_phone, address, emergency_contact, medical_notes, created_at, updated_at
FROM student_profiles WHERE user_id = $1 LIMIT 1`
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student profile: %w", err)
	}
	return &profile, nil
}

// FindTeacher returns the teacher profile for a user id.
func (r *ProfileRepository) FindTeacher(ctx context.Context, userID string) (*models.TeacherProfile, error) {
	const query = `SELECT user_id, employee_number, specialty, hire_date, phone, photo_path, academic_title, bio, status, emergency_name, emergency_phone, created_at, updated_at
FROM teacher_profiles WHERE user_id = $1 LIMIT 1`
	var profile models.TeacherProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher profile: %w", err)
	}
	return &profile, nil
}

// UpdateStudent modifies the mutable student profile fields together with
// the account display fields.
func (r *ProfileRepository) UpdateStudent(ctx context.Context, user *models.User, profile *models.StudentProfile) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update student: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	user.UpdatedAt = now
	profile.UpdatedAt = now

	const userQuery = `UPDATE users SET email = :email, full_name = :full_name, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, userQuery, user); err != nil {
		return fmt.Errorf("update student user: %w", err)
	}

	const profileQuery = `UPDATE student_profiles SET birth_date = :birth_date, guardian_name = :guardian_name, guardian_phone = :guardian_phone,
address = :address, emergency_contact = :emergency_contact, medical_notes = :medical_notes, updated_at = :updated_at
WHERE user_id = :user_id`
	if _, err := tx.NamedExecContext(ctx, profileQuery, profile); err != nil {
		return fmt.Errorf("update student profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update student: %w", err)
	}
	committed = true
	return nil
}

// UpdateTeacher modifies the mutable teacher profile fields together with
// the account display fields.
func (r *ProfileRepository) UpdateTeacher(ctx context.Context, user *models.User, profile *models.TeacherProfile) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update teacher: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	user.UpdatedAt = now
	profile.UpdatedAt = now

	const userQuery = `UPDATE users SET email = :email, full_name = :full_name, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, userQuery, user); err != nil {
		return fmt.Errorf("update teacher user: %w", err)
	}

	const profileQuery = `UPDATE teacher_profiles SET specialty = :specialty, phone = :phone, photo_path = :photo_path,
academic_title = :academic_title, bio = :bio, status = :status, emergency_name = :emergency_name, emergency_phone = :emergency_phone, updated_at = :updated_at
WHERE user_id = :user_id`
	if _, err := tx.NamedExecContext(ctx, profileQuery, profile); err != nil {
		return fmt.Errorf("update teacher profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update teacher: %w", err)
	}
	committed = true
	return nil
}

// DeleteUser removes the account; the profile row cascades with it.
func (r *ProfileRepository) DeleteUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// ListStudents returns student profiles joined with account fields.
func (r *ProfileRepository) ListStudents(ctx context.Context, filter models.ProfileFilter) ([]models.StudentProfileDetail, int, error) {
	base := `FROM student_profiles sp JOIN users u ON u.id = sp.user_id`
	where := []string{"1=1"}
	var args []interface{}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(LOWER(u.full_name) LIKE $%d OR sp.student_number LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Active != nil {
		where = append(where, fmt.Sprintf("u.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT sp.user_id, sp.student_number, sp.birth_date, sp.guardian_name, sp.guardian_phone, sp.address, sp.emergency_contact, sp.medical_notes, sp.created_at, sp.updated_at,
u.username, u.full_name, u.email, u.active
%s WHERE %s
ORDER BY u.full_name ASC
LIMIT %d OFFSET %d`, base, whereClause, size, offset)
	var rows []models.StudentProfileDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return rows, total, nil
}

// ListTeachers returns teacher profiles joined with account fields.
func (r *ProfileRepository) ListTeachers(ctx context.Context, filter models.ProfileFilter) ([]models.TeacherProfileDetail, int, error) {
	base := `FROM teacher_profiles tp JOIN users u ON u.id = tp.user_id`
	where := []string{"1=1"}
	var args []interface{}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(LOWER(u.full_name) LIKE $%d OR tp.employee_number LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Active != nil {
		where = append(where, fmt.Sprintf("u.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT tp.user_id, tp.employee_number, tp.specialty, tp.hire_date, tp.phone, tp.photo_path, tp.academic_title, tp.bio, tp.status, tp.emergency_name, tp.emergency_phone, tp.created_at, tp.updated_at,
u.username, u.full_name, u.email, u.active
%s WHERE %s
ORDER BY u.full_name ASC
LIMIT %d OFFSET %d`, base, whereClause, size, offset)
	var rows []models.TeacherProfileDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}
	return rows, total, nil
}

// ExistsByStudentNumber reports whether a student number is taken.
func (r *ProfileRepository) ExistsByStudentNumber(ctx context.Context, studentNumber string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM student_profiles WHERE student_number = $1)`, studentNumber); err != nil {
		return false, fmt.Errorf("check student number: %w", err)
	}
	return exists, nil
}

// ExistsByEmployeeNumber reports whether an employee number is taken.
func (r *ProfileRepository) ExistsByEmployeeNumber(ctx context.Context, employeeNumber string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM teacher_profiles WHERE employee_number = $1)`, employeeNumber); err != nil {
		return false, fmt.Errorf("check employee number: %w", err)
	}
	return exists, nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/colegio-altavista/portal-api/internal/models"
	appErrors "github.com/colegio-altavista/portal-api/pkg/errors"
)

type profileRepository interface {
	CreateStudent(ctx context.Context, user *models.User, profile *models.StudentProfile) error
	CreateTeacher(ctx context.Context, user *models.User, profile *models.TeacherProfile) error
	FindStudent(ctx context.Context, userID string) (*models.StudentProfile, error)
	FindTeacher(ctx context.Context, userID string) (*models.TeacherProfile, error)
	UpdateStudent(ctx context.Context, user *models.User, profile *models.StudentProfile) error
	UpdateTeacher(ctx context.Context, user *models.User, profile *models.TeacherProfile) error
	DeleteUser(ctx context.Context, userID string) error
	ListStudents(ctx context.Context, filter models.ProfileFilter) ([]models.StudentProfileDetail, int, error)
	ListTeachers(ctx context.Context, filter models.ProfileFilter) ([]models.TeacherProfileDetail, int, error)
	ExistsByStudentNumber(ctx context.Context, studentNumber string) (bool, error)
	ExistsByEmployeeNumber(ctx context.Context, employeeNumber string) (bool, error)
}

type userAccountRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateStudentRequest holds payload for onboarding a student.
type CreateStudentRequest struct {
	StudentNumber    string    `json:"student_number" validate:"required"`
	FullName         string    `json:"full_name" validate:"required"`
	Email            string    `json:"email" validate:"required,email"`
	BirthDate        time.Time `json:"birth_date" validate:"required"`
	GuardianName     string    `json:"guardian_name" validate:"required"`
	GuardianPhone    *string   `json:"guardian_phone"`
	Address          *string   `json:"address"`
	EmergencyContact string    `json:"emergency_contact" validate:"required"`
	MedicalNotes     *string   `json:"medical_notes"`
	Password         string    `json:"password" validate:"required,min=8"`
}

// UpdateStudentRequest holds payload for editing a student.
type UpdateStudentRequest struct {
	FullName         string    `json:"full_name" validate:"required"`
	Email            string    `json:"email" validate:"required,email"`
	Active           bool      `json:"active"`
	BirthDate        time.Time `json:"birth_date" validate:"required"`
	GuardianName     string    `json:"guardian_name" validate:"required"`
	GuardianPhone    *string   `json:"guardian_phone"`
	Address          *string   `json:"address"`
	EmergencyContact string    `json:"emergency_contact" validate:"required"`
	MedicalNotes     *string   `json:"medical_notes"`
}

// CreateTeacherRequest holds payload for onboarding a teacher.
type CreateTeacherRequest struct {
	EmployeeNumber string    `json:"employee_number" validate:"required"`
	FullName       string    `json:"full_name" validate:"required"`
	Email          string    `json:"email" validate:"required,email"`
	Specialty      string    `json:"specialty" validate:"required"`
	HireDate       time.Time `json:"hire_date" validate:"required"`
	Phone          *string   `json:"phone"`
	AcademicTitle  *string   `json:"academic_title"`
	Bio            *string   `json:"bio"`
	EmergencyName  *string   `json:"emergency_name"`
	EmergencyPhone *string   `json:"emergency_phone"`
	Password       string    `json:"password" validate:"required,min=8"`
}

// UpdateTeacherRequest holds payload for editing a teacher.
type UpdateTeacherRequest struct {
	FullName       string               `json:"full_name" validate:"required"`
	Email          string               `json:"email" validate:"required,email"`
	Active         bool                 `json:"active"`
	Specialty      string               `json:"specialty" validate:"required"`
	Phone          *string              `json:"phone"`
	PhotoPath      *string              `json:"photo_path"`
	AcademicTitle  *string              `json:"academic_title"`
	Bio            *string              `json:"bio"`
	Status         models.TeacherStatus `json:"status" validate:"required"`
	EmergencyName  *string              `json:"emergency_name"`
	EmergencyPhone *string              `json:"emergency_phone"`
}

// UserService handles account and profile administration.
type UserService struct {
	profiles  profileRepository
	users     userAccountRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs the user service.
func NewUserService(profiles profileRepository, users userAccountRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{profiles: profiles, users: users, validator: validate, logger: logger}
}

// CreateStudent provisions a student account plus profile. The student
// number doubles as the login username and the supplied password is
// provisional: the account carries must_reset until the student changes it.
func (s *UserService) CreateStudent(ctx context.Context, actorID string, req CreateStudentRequest) (*models.StudentProfileDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	exists, err := s.profiles.ExistsByStudentNumber(ctx, req.StudentNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate student number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student number already used")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Username:     req.StudentNumber,
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         models.RoleStudent,
		Active:       true,
		MustReset:    true,
	}
	profile := &models.StudentProfile{
		StudentNumber:    req.StudentNumber,
		BirthDate:        req.BirthDate,
		GuardianName:     req.GuardianName,
		GuardianPhone:    req.GuardianPhone,
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
		MedicalNotes:     req.MedicalNotes,
	}
	if err := s.profiles.CreateStudent(ctx, user, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	s.audit(ctx, actorID, models.AuditActionUserCreate, "student", user.ID)

	return &models.StudentProfileDetail{
		StudentProfile: *profile,
		Username:       user.Username,
		FullName:       user.FullName,
		Email:          user.Email,
		Active:         user.Active,
	}, nil
}

// CreateTeacher provisions a teacher account plus profile. The employee
// number is the login username; the password is provisional.
func (s *UserService) CreateTeacher(ctx context.Context, actorID string, req CreateTeacherRequest) (*models.TeacherProfileDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	exists, err := s.profiles.ExistsByEmployeeNumber(ctx, req.EmployeeNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate employee number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "employee number already used")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Username:     req.EmployeeNumber,
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         models.RoleTeacher,
		Active:       true,
		MustReset:    true,
	}
	profile := &models.TeacherProfile{
		EmployeeNumber: req.EmployeeNumber,
		Specialty:      req.Specialty,
		HireDate:       req.HireDate,
		Phone:          req.Phone,
		AcademicTitle:  req.AcademicTitle,
		Bio:            req.Bio,
		Status:         models.TeacherStatusActive,
		EmergencyName:  req.EmergencyName,
		EmergencyPhone: req.EmergencyPhone,
	}
	if err := s.profiles.CreateTeacher(ctx, user, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}

	s.audit(ctx, actorID, models.AuditActionUserCreate, "teacher", user.ID)

	return &models.TeacherProfileDetail{
		TeacherProfile: *profile,
		Username:       user.Username,
		FullName:       user.FullName,
		Email:          user.Email,
		Active:         user.Active,
	}, nil
}

// GetStudent returns one student with profile data.
func (s *UserService) GetStudent(ctx context.Context, userID string) (*models.StudentProfileDetail, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student account")
	}
	if user.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	profile, err := s.profiles.FindStudent(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	return &models.StudentProfileDetail{
		StudentProfile: *profile,
		Username:       user.Username,
		FullName:       user.FullName,
		Email:          user.Email,
		Active:         user.Active,
	}, nil
}

// GetTeacher returns one teacher with profile data.
func (s *UserService) GetTeacher(ctx context.Context, userID string) (*models.TeacherProfileDetail, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher account")
	}
	if user.Role != models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	profile, err := s.profiles.FindTeacher(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher profile")
	}
	return &models.TeacherProfileDetail{
		TeacherProfile: *profile,
		Username:       user.Username,
		FullName:       user.FullName,
		Email:          user.Email,
		Active:         user.Active,
	}, nil
}

// UpdateStudent edits an existing student account and profile.
func (s *UserService) UpdateStudent(ctx context.Context, actorID, userID string, req UpdateStudentRequest) (*models.StudentProfileDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	current, err := s.GetStudent(ctx, userID)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:       userID,
		Email:    req.Email,
		FullName: req.FullName,
		Active:   req.Active,
	}
	profile := &models.StudentProfile{
		UserID:           userID,
		StudentNumber:    current.StudentNumber,
		BirthDate:        req.BirthDate,
		GuardianName:     req.GuardianName,
		GuardianPhone:    req.GuardianPhone,
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
		MedicalNotes:     req.MedicalNotes,
	}
	if err := s.profiles.UpdateStudent(ctx, user, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	s.audit(ctx, actorID, models.AuditActionUserUpdate, "student", userID)

	return s.GetStudent(ctx, userID)
}

// UpdateTeacher edits an existing teacher account and profile.
func (s *UserService) UpdateTeacher(ctx context.Context, actorID, userID string, req UpdateTeacherRequest) (*models.TeacherProfileDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid teacher status")
	}

	current, err := s.GetTeacher(ctx, userID)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:       userID,
		Email:    req.Email,
		FullName: req.FullName,
		Active:   req.Active,
	}
	profile := &models.TeacherProfile{
		UserID:         userID,
		EmployeeNumber: current.EmployeeNumber,
		Specialty:      req.Specialty,
		HireDate:       current.HireDate,
		Phone:          req.Phone,
		PhotoPath:      req.PhotoPath,
		AcademicTitle:  req.AcademicTitle,
		Bio:            req.Bio,
		Status:         req.Status,
		EmergencyName:  req.EmergencyName,
		EmergencyPhone: req.EmergencyPhone,
	}
	if err := s.profiles.UpdateTeacher(ctx, user, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}

	s.audit(ctx, actorID, models.AuditActionUserUpdate, "teacher", userID)

	return s.GetTeacher(ctx, userID)
}

// Delete removes a user account together with its profile and the rows
// hanging off it.
func (s *UserService) Delete(ctx context.Context, actorID, userID string) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if err := s.profiles.DeleteUser(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}

	s.audit(ctx, actorID, models.AuditActionUserDelete, "user", userID)
	return nil
}

// ListStudents returns students with pagination metadata.
func (s *UserService) ListStudents(ctx context.Context, filter models.ProfileFilter) ([]models.StudentProfileDetail, *models.Pagination, error) {
	students, total, err := s.profiles.ListStudents(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, paginationFor(filter.Page, filter.PageSize, total), nil
}

// ListTeachers returns teachers with pagination metadata.
func (s *UserService) ListTeachers(ctx context.Context, filter models.ProfileFilter) ([]models.TeacherProfileDetail, *models.Pagination, error) {
	teachers, total, err := s.profiles.ListTeachers(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, paginationFor(filter.Page, filter.PageSize, total), nil
}

func (s *UserService) audit(ctx context.Context, actorID, action, resource, resourceID string) {
	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

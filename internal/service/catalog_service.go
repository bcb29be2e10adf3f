package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/colegio-altavista/portal-api/internal/models"
	appErrors "github.com/colegio-altavista/portal-api/pkg/errors"
)

type periodRepository interface {
	Current(ctx context.Context) (*models.AcademicPeriod, error)
	FindByID(ctx context.Context, id string) (*models.AcademicPeriod, error)
	List(ctx context.Context) ([]models.AcademicPeriod, error)
	Create(ctx context.Context, period *models.AcademicPeriod) error
}

type catalogClassRepository interface {
	FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error)
	Roster(ctx context.Context, classID string) ([]models.ClassRosterEntry, error)
	Enroll(ctx context.Context, classID, studentID string) error
	Unenroll(ctx context.Context, classID, studentID string) error
	ListCourses(ctx context.Context) ([]models.Course, error)
	CreateCourse(ctx context.Context, course *models.Course) error
	CreateClass(ctx context.Context, class *models.Class) error
}

// CreatePeriodRequest holds payload for adding a term to the calendar.
type CreatePeriodRequest struct {
	Name      string    `json:"name" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
}

// CreateCourseRequest holds payload for adding a catalog subject.
type CreateCourseRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

// CreateClassRequest holds payload for scheduling a class.
type CreateClassRequest struct {
	CourseID  string `json:"course_id" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
	PeriodID  string `json:"period_id" validate:"required"`
	Weekday   int    `json:"weekday" validate:"required,gte=1,lte=7"`
	StartTime string `json:"start_time" validate:"required"`
}

// CatalogService administers periods, courses, classes and enrollments.
type CatalogService struct {
	periods   periodRepository
	classes   catalogClassRepository
	users     userAccountRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs the catalog service.
func NewCatalogService(periods periodRepository, classes catalogClassRepository, users userAccountRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{periods: periods, classes: classes, users: users, cache: cache, validator: validate, logger: logger}
}

// CurrentPeriod resolves the latest-starting period. A nil result means
// the calendar is empty, which is not an error.
func (s *CatalogService) CurrentPeriod(ctx context.Context) (*models.AcademicPeriod, error) {
	period, err := s.periods.Current(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve current period")
	}
	return period, nil
}

// ListPeriods returns the calendar newest first.
func (s *CatalogService) ListPeriods(ctx context.Context) ([]models.AcademicPeriod, error) {
	periods, err := s.periods.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list periods")
	}
	return periods, nil
}

// CreatePeriod adds a term to the calendar.
func (s *CatalogService) CreatePeriod(ctx context.Context, req CreatePeriodRequest) (*models.AcademicPeriod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}
	period := &models.AcademicPeriod{
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}
	if err := s.periods.Create(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create period")
	}
	s.invalidate(ctx)
	return period, nil
}

// ListCourses returns the subject catalog.
func (s *CatalogService) ListCourses(ctx context.Context) ([]models.Course, error) {
	courses, err := s.classes.ListCourses(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// CreateCourse adds a subject to the catalog.
func (s *CatalogService) CreateCourse(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := &models.Course{
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.classes.CreateCourse(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// CreateClass schedules a class taught by an existing teacher.
func (s *CatalogService) CreateClass(ctx context.Context, req CreateClassRequest) (*models.ClassDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	teacher, err := s.users.FindByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if teacher.Role != models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher_id must reference a teacher account")
	}

	if _, err := s.periods.FindByID(ctx, req.PeriodID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}

	class := &models.Class{
		CourseID:  req.CourseID,
		TeacherID: req.TeacherID,
		PeriodID:  req.PeriodID,
		Weekday:   req.Weekday,
		StartTime: req.StartTime,
	}
	if err := s.classes.CreateClass(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}

	s.invalidate(ctx)
	return s.GetClass(ctx, class.ID)
}

// GetClass returns one class with its course and teacher names.
func (s *CatalogService) GetClass(ctx context.Context, id string) (*models.ClassDetail, error) {
	class, err := s.classes.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// Roster returns the enrolled students of a class ordered by name.
func (s *CatalogService) Roster(ctx context.Context, classID string) ([]models.ClassRosterEntry, error) {
	if _, err := s.GetClass(ctx, classID); err != nil {
		return nil, err
	}
	roster, err := s.classes.Roster(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return roster, nil
}

// Enroll adds a student to a class; enrolling twice is a no-op.
func (s *CatalogService) Enroll(ctx context.Context, classID, studentID string) error {
	if _, err := s.GetClass(ctx, classID); err != nil {
		return err
	}

	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent {
		return appErrors.Clone(appErrors.ErrValidation, "student_id must reference a student account")
	}

	if err := s.classes.Enroll(ctx, classID, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}
	s.invalidate(ctx)
	return nil
}

// Unenroll removes a student from a class.
func (s *CatalogService) Unenroll(ctx context.Context, classID, studentID string) error {
	if _, err := s.GetClass(ctx, classID); err != nil {
		return err
	}
	if err := s.classes.Unenroll(ctx, classID, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unenroll student")
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

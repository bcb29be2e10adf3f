package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/colegio-altavista/portal-api/internal/models"
	appErrors "github.com/colegio-altavista/portal-api/pkg/errors"
)

type assignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	Update(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id string) error
	ListByClass(ctx context.Context, classID string) ([]models.Assignment, error)
	UpsertSubmission(ctx context.Context, submission *models.Submission) error
	UpdateGrade(ctx context.Context, submissionID string, grade *float64, teacherComments *string) error
	FindSubmission(ctx context.Context, assignmentID, studentID string) (*models.Submission, error)
	FindSubmissionDetailByID(ctx context.Context, id string) (*models.SubmissionDetail, error)
	ListSubmissionsByAssignment(ctx context.Context, assignmentID string) ([]models.SubmissionDetail, error)
}

type classAccessRepository interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	IsEnrolled(ctx context.Context, classID, studentID string) (bool, error)
	IsTaughtBy(ctx context.Context, classID, teacherID string) (bool, error)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CreateAssignmentRequest holds payload for publishing coursework.
type CreateAssignmentRequest struct {
	ClassID      string    `json:"class_id" validate:"required"`
	Title        string    `json:"title" validate:"required"`
	Description  string    `json:"description" validate:"required"`
	DueAt        time.Time `json:"due_at" validate:"required"`
	ResourcePath *string   `json:"resource_path"`
}

// UpdateAssignmentRequest holds payload for editing coursework.
type UpdateAssignmentRequest struct {
	Title        string    `json:"title" validate:"required"`
	Description  string    `json:"description" validate:"required"`
	DueAt        time.Time `json:"due_at" validate:"required"`
	ResourcePath *string   `json:"resource_path"`
}

// SubmitWorkRequest holds a student's upload for an assignment. The file
// is stored by the handler; the service receives its path.
type SubmitWorkRequest struct {
	FilePath string  `json:"file_path" validate:"required"`
	Comments *string `json:"comments"`
}

// GradeSubmissionRequest holds the evaluation of one submission.
type GradeSubmissionRequest struct {
	Grade           *float64 `json:"grade" validate:"required,gte=0,lte=10"`
	TeacherComments *string  `json:"teacher_comments"`
}

// AssignmentService handles coursework publishing, submission and grading.
type AssignmentService struct {
	assignments assignmentRepository
	classes     classAccessRepository
	audits      auditRecorder
	cache       cacheInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAssignmentService constructs the assignment service.
func NewAssignmentService(assignments assignmentRepository, classes classAccessRepository, audits auditRecorder, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{assignments: assignments, classes: classes, audits: audits, cache: cache, validator: validate, logger: logger}
}

// Create publishes an assignment for a class the teacher runs.
func (s *AssignmentService) Create(ctx context.Context, teacherID string, req CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	if err := s.requireTeacherOfClass(ctx, req.ClassID, teacherID); err != nil {
		return nil, err
	}

	assignment := &models.Assignment{
		ClassID:      req.ClassID,
		Title:        req.Title,
		Description:  req.Description,
		DueAt:        req.DueAt,
		ResourcePath: req.ResourcePath,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}

	s.invalidateDashboards(ctx)
	return assignment, nil
}

// Update edits an assignment; only the class teacher may do so.
func (s *AssignmentService) Update(ctx context.Context, teacherID, assignmentID string, req UpdateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	assignment, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTeacherOfClass(ctx, assignment.ClassID, teacherID); err != nil {
		return nil, err
	}

	assignment.Title = req.Title
	assignment.Description = req.Description
	assignment.DueAt = req.DueAt
	if req.ResourcePath != nil {
		assignment.ResourcePath = req.ResourcePath
	}
	if err := s.assignments.Update(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}

	s.invalidateDashboards(ctx)
	return assignment, nil
}

// Delete removes an assignment; only the class teacher may do so.
func (s *AssignmentService) Delete(ctx context.Context, teacherID, assignmentID string) error {
	assignment, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	if err := s.requireTeacherOfClass(ctx, assignment.ClassID, teacherID); err != nil {
		return err
	}
	if err := s.assignments.Delete(ctx, assignmentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	s.invalidateDashboards(ctx)
	return nil
}

// ListByClass returns a class's assignments for its teacher.
func (s *AssignmentService) ListByClass(ctx context.Context, teacherID, classID string) ([]models.Assignment, error) {
	if err := s.requireTeacherOfClass(ctx, classID, teacherID); err != nil {
		return nil, err
	}
	assignments, err := s.assignments.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// Get returns one assignment to a user who can see it: the class
// teacher or an enrolled student.
func (s *AssignmentService) Get(ctx context.Context, userID string, role models.UserRole, assignmentID string) (*models.Assignment, error) {
	assignment, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	switch role {
	case models.RoleStudent:
		enrolled, err := s.classes.IsEnrolled(ctx, assignment.ClassID, userID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
		}
		if !enrolled {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "not enrolled in this class")
		}
	case models.RoleTeacher:
		if err := s.requireTeacherOfClass(ctx, assignment.ClassID, userID); err != nil {
			return nil, err
		}
	}
	return assignment, nil
}

// SubmitWork records a student's submission. Resubmitting replaces the
// stored work in place; a grade already assigned is never touched.
func (s *AssignmentService) SubmitWork(ctx context.Context, studentID, assignmentID string, req SubmitWorkRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	assignment, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.classes.IsEnrolled(ctx, assignment.ClassID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not enrolled in this class")
	}

	submission := &models.Submission{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		FilePath:     req.FilePath,
		Comments:     req.Comments,
	}
	if err := s.assignments.UpsertSubmission(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store submission")
	}

	s.invalidateDashboards(ctx)
	return submission, nil
}

// MySubmission returns the calling student's submission, if any.
func (s *AssignmentService) MySubmission(ctx context.Context, studentID, assignmentID string) (*models.Submission, error) {
	submission, err := s.assignments.FindSubmission(ctx, assignmentID, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no submission yet")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return submission, nil
}

// ListSubmissions returns all submissions for an assignment to its teacher.
func (s *AssignmentService) ListSubmissions(ctx context.Context, teacherID, assignmentID string) ([]models.SubmissionDetail, error) {
	assignment, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTeacherOfClass(ctx, assignment.ClassID, teacherID); err != nil {
		return nil, err
	}
	submissions, err := s.assignments.ListSubmissionsByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return submissions, nil
}

// Grade evaluates one submission. Only the evaluation fields change; the
// student's uploaded work stays exactly as submitted.
func (s *AssignmentService) Grade(ctx context.Context, teacherID, submissionID string, req GradeSubmissionRequest) (*models.SubmissionDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	submission, err := s.assignments.FindSubmissionDetailByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}

	assignment, err := s.loadAssignment(ctx, submission.AssignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTeacherOfClass(ctx, assignment.ClassID, teacherID); err != nil {
		return nil, err
	}

	if err := s.assignments.UpdateGrade(ctx, submissionID, req.Grade, req.TeacherComments); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store grade")
	}

	if payload, err := json.Marshal(map[string]interface{}{"grade": req.Grade}); err == nil {
		if err := s.audits.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &teacherID,
			Action:     models.AuditActionGrade,
			Resource:   "submission",
			ResourceID: &submissionID,
			NewValues:  payload,
		}); err != nil {
			s.logger.Warn("failed to record grading audit log", zap.Error(err))
		}
	}

	s.invalidateDashboards(ctx)

	submission.Grade = req.Grade
	submission.TeacherComments = req.TeacherComments
	return submission, nil
}

func (s *AssignmentService) loadAssignment(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return assignment, nil
}

func (s *AssignmentService) requireTeacherOfClass(ctx context.Context, classID, teacherID string) error {
	taught, err := s.classes.IsTaughtBy(ctx, classID, teacherID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class ownership")
	}
	if !taught {
		return appErrors.Clone(appErrors.ErrForbidden, "class does not belong to teacher")
	}
	return nil
}

func (s *AssignmentService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

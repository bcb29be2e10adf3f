package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/colegio-altavista/portal-api/internal/models"
	appErrors "github.com/colegio-altavista/portal-api/pkg/errors"
)

type mockAssignmentRepo struct {
	assignments map[string]models.Assignment
	submissions map[string]models.SubmissionDetail
	upserts     []models.Submission
	grades      []string
}

func (m *mockAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	if m.assignments == nil {
		m.assignments = make(map[string]models.Assignment)
	}
	if assignment.ID == "" {
		assignment.ID = "generated"
	}
	m.assignments[assignment.ID] = *assignment
	return nil
}

func (m *mockAssignmentRepo) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	if a, ok := m.assignments[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAssignmentRepo) Update(ctx context.Context, assignment *models.Assignment) error {
	m.assignments[assignment.ID] = *assignment
	return nil
}

func (m *mockAssignmentRepo) Delete(ctx context.Context, id string) error {
	delete(m.assignments, id)
	return nil
}

func (m *mockAssignmentRepo) ListByClass(ctx context.Context, classID string) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, a := range m.assignments {
		if a.ClassID == classID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAssignmentRepo) UpsertSubmission(ctx context.Context, submission *models.Submission) error {
	m.upserts = append(m.upserts, *submission)
	return nil
}

func (m *mockAssignmentRepo) UpdateGrade(ctx context.Context, submissionID string, grade *float64, teacherComments *string) error {
	m.grades = append(m.grades, submissionID)
	return nil
}

func (m *mockAssignmentRepo) FindSubmission(ctx context.Context, assignmentID, studentID string) (*models.Submission, error) {
	for _, s := range m.submissions {
		if s.AssignmentID == assignmentID && s.StudentID == studentID {
			sub := s.Submission
			return &sub, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAssignmentRepo) FindSubmissionDetailByID(ctx context.Context, id string) (*models.SubmissionDetail, error) {
	if s, ok := m.submissions[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAssignmentRepo) ListSubmissionsByAssignment(ctx context.Context, assignmentID string) ([]models.SubmissionDetail, error) {
	var out []models.SubmissionDetail
	for _, s := range m.submissions {
		if s.AssignmentID == assignmentID {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockClassAccessRepo struct {
	classes  map[string]models.Class
	enrolled map[string][]string
	teaches  map[string]string
}

func (m *mockClassAccessRepo) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := m.classes[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassAccessRepo) IsEnrolled(ctx context.Context, classID, studentID string) (bool, error) {
	for _, s := range m.enrolled[classID] {
		if s == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockClassAccessRepo) IsTaughtBy(ctx context.Context, classID, teacherID string) (bool, error) {
	return m.teaches[classID] == teacherID, nil
}

func newAssignmentFixture() (*AssignmentService, *mockAssignmentRepo, *mockAuditRecorder) {
	due := time.Now().Add(72 * time.Hour)
	repo := &mockAssignmentRepo{
		assignments: map[string]models.Assignment{
			"a1": {ID: "a1", ClassID: "c1", Title: "Essay", Description: "Write", DueAt: due},
		},
		submissions: map[string]models.SubmissionDetail{
			"sub1": {
				Submission:    models.Submission{ID: "sub1", AssignmentID: "a1", StudentID: "s1", FilePath: "uploads/work.pdf"},
				StudentNumber: "2026-001",
				StudentName:   "Ana Lopez",
			},
		},
	}
	classes := &mockClassAccessRepo{
		teaches:  map[string]string{"c1": "t1"},
		enrolled: map[string][]string{"c1": {"s1"}},
	}
	audits := &mockAuditRecorder{}
	svc := NewAssignmentService(repo, classes, audits, nil, validator.New(), zap.NewNop())
	return svc, repo, audits
}

func TestCreateAssignmentRequiresClassOwnership(t *testing.T) {
	svc, _, _ := newAssignmentFixture()

	_, err := svc.Create(context.Background(), "intruder", CreateAssignmentRequest{
		ClassID:     "c1",
		Title:       "Quiz",
		Description: "Chapter 3",
		DueAt:       time.Now().Add(24 * time.Hour),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSubmitWorkUpserts(t *testing.T) {
	svc, repo, _ := newAssignmentFixture()

	submission, err := svc.SubmitWork(context.Background(), "s1", "a1", SubmitWorkRequest{FilePath: "uploads/essay.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "a1", submission.AssignmentID)
	require.Len(t, repo.upserts, 1)
	assert.Equal(t, "uploads/essay.pdf", repo.upserts[0].FilePath)
	assert.Nil(t, repo.upserts[0].Grade)
}

func TestSubmitWorkRequiresEnrollment(t *testing.T) {
	svc, repo, _ := newAssignmentFixture()

	_, err := svc.SubmitWork(context.Background(), "outsider", "a1", SubmitWorkRequest{FilePath: "uploads/essay.pdf"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.upserts)
}

func TestGradeRecordsAuditAndKeepsWork(t *testing.T) {
	svc, repo, audits := newAssignmentFixture()

	grade := 9.0
	graded, err := svc.Grade(context.Background(), "t1", "sub1", GradeSubmissionRequest{Grade: &grade})
	require.NoError(t, err)
	require.NotNil(t, graded.Grade)
	assert.Equal(t, 9.0, *graded.Grade)
	assert.Equal(t, "uploads/work.pdf", graded.FilePath)
	require.Len(t, repo.grades, 1)
	require.Len(t, audits.logs, 1)
	assert.Equal(t, models.AuditActionGrade, audits.logs[0].Action)
}

func TestGradeByForeignTeacherForbidden(t *testing.T) {
	svc, repo, _ := newAssignmentFixture()

	grade := 5.0
	_, err := svc.Grade(context.Background(), "t2", "sub1", GradeSubmissionRequest{Grade: &grade})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.grades)
}

func TestGradeOutOfRangeRejected(t *testing.T) {
	svc, repo, _ := newAssignmentFixture()

	grade := 11.0
	_, err := svc.Grade(context.Background(), "t1", "sub1", GradeSubmissionRequest{Grade: &grade})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.grades)
}

func TestListSubmissionsForTeacher(t *testing.T) {
	svc, _, _ := newAssignmentFixture()

	submissions, err := svc.ListSubmissions(context.Background(), "t1", "a1")
	require.NoError(t, err)
	require.Len(t, submissions, 1)
	assert.Equal(t, "Ana Lopez", submissions[0].StudentName)
	assert.Nil(t, submissions[0].Grade)
}

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

func TestUpsertSubmissionLeavesGradeAlone(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("INSERT INTO submissions").WillReturnResult(sqlmock.NewResult(1, 1))

	submission := &models.Submission{
		AssignmentID: "a1",
		StudentID:    "s1",
		FilePath:     "uploads/work.pdf",
	}
	err := repo.UpsertSubmission(context.Background(), submission)
	require.NoError(t, err)
	assert.NotEmpty(t, submission.ID)
	assert.False(t, submission.SubmittedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateGrade(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	grade := 8.5
	comments := "Good work"
	mock.ExpectExec("UPDATE submissions SET grade").
		WithArgs("sub1", grade, comments, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateGrade(context.Background(), "sub1", &grade, &comments)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForStudentInPeriodAnnotatesSubmissions(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	now := time.Now()
	grade := 9.0
	rows := sqlmock.NewRows([]string{"id", "class_id", "title", "description", "due_at", "resource_path", "created_at", "updated_at", "course_name", "submitted", "grade"}).
		AddRow("a1", "c1", "Essay", "Write an essay", now, nil, now, now, "History", true, grade).
		AddRow("a2", "c1", "Quiz", "Prepare for quiz", now, nil, now, now, "History", false, nil)
	mock.ExpectQuery("SELECT a.id, a.class_id").
		WithArgs("s1", "p1").
		WillReturnRows(rows)

	result, err := repo.ListForStudentInPeriod(context.Background(), "s1", "p1")
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.True(t, result[0].Submitted)
	require.NotNil(t, result[0].Grade)
	assert.Equal(t, 9.0, *result[0].Grade)
	assert.False(t, result[1].Submitted)
	assert.Nil(t, result[1].Grade)
	assert.NoError(t, mock.ExpectationsWereMet())
}

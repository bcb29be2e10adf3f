package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/colegio-altavista/portal-api/internal/models"
)

type mockDashboardPeriods struct {
	period *models.AcademicPeriod
}

func (m *mockDashboardPeriods) Current(ctx context.Context) (*models.AcademicPeriod, error) {
	if m.period == nil {
		return nil, sql.ErrNoRows
	}
	return m.period, nil
}

type mockDashboardClasses struct {
	byStudent map[string][]models.ClassDetail
	byTeacher map[string][]models.ClassDetail
	rosters   map[string][]models.ClassRosterEntry
}

func (m *mockDashboardClasses) ListByStudentAndPeriod(ctx context.Context, studentID, periodID string) ([]models.ClassDetail, error) {
	return m.byStudent[studentID], nil
}

func (m *mockDashboardClasses) ListByTeacherAndPeriod(ctx context.Context, teacherID, periodID string) ([]models.ClassDetail, error) {
	return m.byTeacher[teacherID], nil
}

func (m *mockDashboardClasses) Roster(ctx context.Context, classID string) ([]models.ClassRosterEntry, error) {
	return m.rosters[classID], nil
}

type mockDashboardAssignments struct {
	rows []models.AssignmentStatusRow
}

func (m *mockDashboardAssignments) ListForStudentInPeriod(ctx context.Context, studentID, periodID string) ([]models.AssignmentStatusRow, error) {
	return m.rows, nil
}

type mockDashboardNotifications struct {
	lastAudience models.NotificationAudience
	items        []models.Notification
}

func (m *mockDashboardNotifications) ListRecentForAudience(ctx context.Context, audience models.NotificationAudience, limit int) ([]models.Notification, error) {
	m.lastAudience = audience
	return m.items, nil
}

type mockDashboardNews struct {
	posts []models.NewsPostDetail
}

func (m *mockDashboardNews) List(ctx context.Context, filter models.NewsFilter) ([]models.NewsPostDetail, int, error) {
	return m.posts, len(m.posts), nil
}

func newDashboardFixture(period *models.AcademicPeriod) (*DashboardService, *mockDashboardNotifications) {
	notifications := &mockDashboardNotifications{
		items: []models.Notification{{ID: "msg1", Message: "Welcome back", Audience: models.NotificationAudienceAll}},
	}
	classes := &mockDashboardClasses{
		byStudent: map[string][]models.ClassDetail{
			"s1": {{Class: models.Class{ID: "c1", Weekday: 1, StartTime: "08:00"}, CourseName: "History", TeacherName: "T"}},
		},
		byTeacher: map[string][]models.ClassDetail{
			"t1": {{Class: models.Class{ID: "c1", Weekday: 1, StartTime: "08:00"}, CourseName: "History", TeacherName: "T"}},
		},
		rosters: map[string][]models.ClassRosterEntry{
			"c1": {{StudentID: "s1", StudentNumber: "2026-001", FullName: "Ana Lopez"}},
		},
	}
	grade := 9.0
	assignments := &mockDashboardAssignments{
		rows: []models.AssignmentStatusRow{
			{Assignment: models.Assignment{ID: "a1", ClassID: "c1", Title: "Essay"}, CourseName: "History", Submitted: true, Grade: &grade},
		},
	}
	svc := NewDashboardService(
		&mockDashboardPeriods{period: period},
		classes,
		assignments,
		notifications,
		&mockDashboardNews{},
		nil,
		DashboardConfig{},
		zap.NewNop(),
	)
	return svc, notifications
}

func TestStudentDashboard(t *testing.T) {
	period := &models.AcademicPeriod{ID: "p1", Name: "2026-I", StartDate: time.Now()}
	svc, notifications := newDashboardFixture(period)

	dashboard, err := svc.Student(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, dashboard.CurrentPeriod)
	assert.Len(t, dashboard.Classes, 1)
	require.Len(t, dashboard.Assignments, 1)
	assert.True(t, dashboard.Assignments[0].Submitted)
	assert.Equal(t, models.NotificationAudienceStudents, notifications.lastAudience)
}

func TestStudentDashboardEmptyCalendar(t *testing.T) {
	svc, _ := newDashboardFixture(nil)

	dashboard, err := svc.Student(context.Background(), "s1")
	require.NoError(t, err)
	assert.Nil(t, dashboard.CurrentPeriod)
	assert.Empty(t, dashboard.Classes)
	assert.Empty(t, dashboard.Assignments)
}

func TestTeacherDashboardIncludesRosters(t *testing.T) {
	period := &models.AcademicPeriod{ID: "p1", Name: "2026-I", StartDate: time.Now()}
	svc, notifications := newDashboardFixture(period)

	dashboard, err := svc.Teacher(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, dashboard.Classes, 1)
	require.Len(t, dashboard.Classes[0].Students, 1)
	assert.Equal(t, "Ana Lopez", dashboard.Classes[0].Students[0].FullName)
	assert.Equal(t, models.NotificationAudienceTeachers, notifications.lastAudience)
}

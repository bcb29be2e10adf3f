package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/colegio-altavista/portal-api/internal/models"
	appErrors "github.com/colegio-altavista/portal-api/pkg/errors"
)

type mockProfileRepo struct {
	studentNumbers  map[string]bool
	employeeNumbers map[string]bool
	createdUser     *models.User
	createdStudent  *models.StudentProfile
	createdTeacher  *models.TeacherProfile
	students        map[string]*models.StudentProfile
	teachers        map[string]*models.TeacherProfile
	deleted         []string
}

func (m *mockProfileRepo) CreateStudent(_ context.Context, user *models.User, profile *models.StudentProfile) error {
	user.ID = "stu-new"
	m.createdUser = user
	m.createdStudent = profile
	return nil
}

func (m *mockProfileRepo) CreateTeacher(_ context.Context, user *models.User, profile *models.TeacherProfile) error {
	user.ID = "tea-new"
	m.createdUser = user
	m.createdTeacher = profile
	return nil
}

func (m *mockProfileRepo) FindStudent(_ context.Context, userID string) (*models.StudentProfile, error) {
	if p, ok := m.students[userID]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProfileRepo) FindTeacher(_ context.Context, userID string) (*models.TeacherProfile, error) {
	if p, ok := m.teachers[userID]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProfileRepo) UpdateStudent(_ context.Context, _ *models.User, profile *models.StudentProfile) error {
	m.students[profile.UserID] = profile
	return nil
}

func (m *mockProfileRepo) UpdateTeacher(_ context.Context, _ *models.User, profile *models.TeacherProfile) error {
	m.teachers[profile.UserID] = profile
	return nil
}

func (m *mockProfileRepo) DeleteUser(_ context.Context, userID string) error {
	m.deleted = append(m.deleted, userID)
	return nil
}

func (m *mockProfileRepo) ListStudents(context.Context, models.ProfileFilter) ([]models.StudentProfileDetail, int, error) {
	return nil, 0, nil
}

func (m *mockProfileRepo) ListTeachers(context.Context, models.ProfileFilter) ([]models.TeacherProfileDetail, int, error) {
	return nil, 0, nil
}

func (m *mockProfileRepo) ExistsByStudentNumber(_ context.Context, number string) (bool, error) {
	return m.studentNumbers[number], nil
}

func (m *mockProfileRepo) ExistsByEmployeeNumber(_ context.Context, number string) (bool, error) {
	return m.employeeNumbers[number], nil
}

type mockUserAccounts struct {
	users map[string]*models.User
	logs  []models.AuditLog
}

func (m *mockUserAccounts) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserAccounts) FindByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserAccounts) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, *log)
	return nil
}

func newUserFixture() (*UserService, *mockProfileRepo, *mockUserAccounts) {
	profiles := &mockProfileRepo{
		studentNumbers:  map[string]bool{},
		employeeNumbers: map[string]bool{},
		students:        map[string]*models.StudentProfile{},
		teachers:        map[string]*models.TeacherProfile{},
	}
	accounts := &mockUserAccounts{users: map[string]*models.User{}}
	return NewUserService(profiles, accounts, nil, nil), profiles, accounts
}

func TestCreateStudentProvisionsAccount(t *testing.T) {
	svc, profiles, accounts := newUserFixture()

	detail, err := svc.CreateStudent(context.Background(), "adm-1", CreateStudentRequest{
		StudentNumber:    "M-100",
		FullName:         "Ana Lopez",
		Email:            "ana@example.edu",
		BirthDate:        time.Date(2012, 5, 4, 0, 0, 0, 0, time.UTC),
		GuardianName:     "Rosa Lopez",
		EmergencyContact: "555-0100",
		Password:         "provisional1",
	})
	require.NoError(t, err)

	// The student number doubles as the login username.
	assert.Equal(t, "M-100", profiles.createdUser.Username)
	assert.Equal(t, models.RoleStudent, profiles.createdUser.Role)
	assert.True(t, profiles.createdUser.MustReset)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(profiles.createdUser.PasswordHash), []byte("provisional1")))

	assert.Equal(t, "M-100", detail.StudentNumber)
	require.Len(t, accounts.logs, 1)
	assert.Equal(t, models.AuditActionUserCreate, accounts.logs[0].Action)
}

func TestCreateStudentRejectsDuplicateNumber(t *testing.T) {
	svc, profiles, _ := newUserFixture()
	profiles.studentNumbers["M-100"] = true

	_, err := svc.CreateStudent(context.Background(), "adm-1", CreateStudentRequest{
		StudentNumber:    "M-100",
		FullName:         "Ana Lopez",
		Email:            "ana@example.edu",
		BirthDate:        time.Date(2012, 5, 4, 0, 0, 0, 0, time.UTC),
		GuardianName:     "Rosa Lopez",
		EmergencyContact: "555-0100",
		Password:         "provisional1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCreateTeacherProvisionsAccount(t *testing.T) {
	svc, profiles, _ := newUserFixture()

	detail, err := svc.CreateTeacher(context.Background(), "adm-1", CreateTeacherRequest{
		EmployeeNumber: "E-55",
		FullName:       "Luis Mora",
		Email:          "luis@example.edu",
		Specialty:      "Mathematics",
		HireDate:       time.Date(2020, 8, 1, 0, 0, 0, 0, time.UTC),
		Password:       "provisional1",
	})
	require.NoError(t, err)

	assert.Equal(t, "E-55", profiles.createdUser.Username)
	assert.Equal(t, models.RoleTeacher, profiles.createdUser.Role)
	assert.True(t, profiles.createdUser.MustReset)
	assert.Equal(t, models.TeacherStatusActive, detail.Status)
}

func TestGetStudentRejectsOtherRoles(t *testing.T) {
	svc, _, accounts := newUserFixture()
	accounts.users["tea-1"] = &models.User{ID: "tea-1", Role: models.RoleTeacher}

	_, err := svc.GetStudent(context.Background(), "tea-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpdateStudentPreservesStudentNumber(t *testing.T) {
	svc, profiles, accounts := newUserFixture()
	accounts.users["stu-1"] = &models.User{ID: "stu-1", Username: "M-100", FullName: "Ana Lopez", Email: "ana@example.edu", Role: models.RoleStudent, Active: true}
	profiles.students["stu-1"] = &models.StudentProfile{
		UserID:           "stu-1",
		StudentNumber:    "M-100",
		BirthDate:        time.Date(2012, 5, 4, 0, 0, 0, 0, time.UTC),
		GuardianName:     "Rosa Lopez",
		EmergencyContact: "555-0100",
	}

	_, err := svc.UpdateStudent(context.Background(), "adm-1", "stu-1", UpdateStudentRequest{
		FullName:         "Ana Lopez Reyes",
		Email:            "ana@example.edu",
		Active:           true,
		BirthDate:        time.Date(2012, 5, 4, 0, 0, 0, 0, time.UTC),
		GuardianName:     "Rosa Lopez",
		EmergencyContact: "555-0100",
	})
	require.NoError(t, err)
	assert.Equal(t, "M-100", profiles.students["stu-1"].StudentNumber)
}

func TestDeleteUnknownUser(t *testing.T) {
	svc, profiles, _ := newUserFixture()

	err := svc.Delete(context.Background(), "adm-1", "ghost")
	require.Error(t, err)
	assert.Empty(t, profiles.deleted)
}

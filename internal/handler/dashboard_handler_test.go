package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/colegio-altavista/portal-api/internal/dto"
	"github.com/colegio-altavista/portal-api/internal/middleware"
	"github.com/colegio-altavista/portal-api/internal/models"
)

type fakeDashboardSrv struct {
	studentResp *dto.StudentDashboardResponse
	studentErr  error
	teacherResp *dto.TeacherDashboardResponse
	adminResp   *dto.AdminDashboardResponse
	lastStudent string
	lastTeacher string
	lastPage    int
	lastSize    int
}

func (f *fakeDashboardSrv) Student(_ context.Context, studentID string) (*dto.StudentDashboardResponse, error) {
	f.lastStudent = studentID
	return f.studentResp, f.studentErr
}

func (f *fakeDashboardSrv) Teacher(_ context.Context, teacherID string) (*dto.TeacherDashboardResponse, error) {
	f.lastTeacher = teacherID
	return f.teacherResp, nil
}

func (f *fakeDashboardSrv) Admin(_ context.Context, page, pageSize int) (*dto.AdminDashboardResponse, error) {
	f.lastPage = page
	f.lastSize = pageSize
	return f.adminResp, nil
}

func TestDashboardHandlerStudentRequiresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/student", nil)

	handler.Student(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardHandlerStudentUsesCallerID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeDashboardSrv{
		studentResp: &dto.StudentDashboardResponse{
			CurrentPeriod: &models.AcademicPeriod{ID: "per-1", Name: "2026-A"},
		},
	}
	handler := NewDashboardHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/student", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})

	handler.Student(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stu-1", service.lastStudent)

	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	period, _ := envelope.Data["current_period"].(map[string]interface{})
	assert.Equal(t, "2026-A", period["name"])
}

func TestDashboardHandlerTeacherUsesCallerID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeDashboardSrv{teacherResp: &dto.TeacherDashboardResponse{}}
	handler := NewDashboardHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/teacher", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "tea-1", Role: models.RoleTeacher})

	handler.Teacher(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tea-1", service.lastTeacher)
}

func TestDashboardHandlerAdminDefaultsPaging(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeDashboardSrv{adminResp: &dto.AdminDashboardResponse{}}
	handler := NewDashboardHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/admin", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "adm-1", Role: models.RoleAdmin})

	handler.Admin(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, service.lastPage)
	assert.Equal(t, 5, service.lastSize)
}

type responseEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}

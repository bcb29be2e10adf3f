package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/colegio-altavista/portal-api/internal/dto"
	"github.com/colegio-altavista/portal-api/internal/middleware"
	"github.com/colegio-altavista/portal-api/internal/models"
	"github.com/colegio-altavista/portal-api/internal/service"
)

type fakeAttendanceSrv struct {
	sheetResp *dto.AttendanceSheetResponse
	sheetErr  error
	saveErr   error
	lastSheet struct {
		teacherID string
		classID   string
		date      string
	}
	lastSave struct {
		teacherID string
		classID   string
		req       service.SaveAttendanceRequest
	}
}

func (f *fakeAttendanceSrv) Sheet(_ context.Context, teacherID, classID, dateParam string) (*dto.AttendanceSheetResponse, error) {
	f.lastSheet.teacherID = teacherID
	f.lastSheet.classID = classID
	f.lastSheet.date = dateParam
	return f.sheetResp, f.sheetErr
}

func (f *fakeAttendanceSrv) Save(_ context.Context, teacherID, classID string, req service.SaveAttendanceRequest) error {
	f.lastSave.teacherID = teacherID
	f.lastSave.classID = classID
	f.lastSave.req = req
	return f.saveErr
}

func TestAttendanceHandlerSheetPassesDateParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeAttendanceSrv{
		sheetResp: &dto.AttendanceSheetResponse{ClassID: "class-1", Date: "2026-03-10"},
	}
	handler := NewAttendanceHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/classes/class-1/attendance?date=2026-03-10", nil)
	c.Params = gin.Params{{Key: "id", Value: "class-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "tea-1", Role: models.RoleTeacher})

	handler.Sheet(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tea-1", service.lastSheet.teacherID)
	assert.Equal(t, "class-1", service.lastSheet.classID)
	assert.Equal(t, "2026-03-10", service.lastSheet.date)
}

func TestAttendanceHandlerSheetRequiresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttendanceHandler(&fakeAttendanceSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/classes/class-1/attendance", nil)

	handler.Sheet(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAttendanceHandlerSaveForwardsBatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeAttendanceSrv{}
	handler := NewAttendanceHandler(service)

	body := `{"date":"2026-03-10","entries":[{"student_id":"stu-1","status":"P"},{"student_id":"stu-2","status":"A"}]}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/classes/class-1/attendance", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "class-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "tea-1", Role: models.RoleTeacher})

	handler.Save(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "class-1", service.lastSave.classID)
	assert.Len(t, service.lastSave.req.Entries, 2)
	assert.Equal(t, "P", service.lastSave.req.Entries[0].Status)
}

func TestAttendanceHandlerSaveRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeAttendanceSrv{}
	handler := NewAttendanceHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/classes/class-1/attendance", strings.NewReader("{not json"))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "class-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "tea-1", Role: models.RoleTeacher})

	handler.Save(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, service.lastSave.classID)
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/colegio-altavista/portal-api/internal/dto"
	"github.com/colegio-altavista/portal-api/internal/service"
	appErrors "github.com/colegio-altavista/portal-api/pkg/errors"
	"github.com/colegio-altavista/portal-api/pkg/response"
)

type attendanceService interface {
	Sheet(ctx context.Context, teacherID, classID, dateParam string) (*dto.AttendanceSheetResponse, error)
	Save(ctx context.Context, teacherID, classID string, req service.SaveAttendanceRequest) error
}

// AttendanceHandler wires the attendance sheet endpoints.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler creates a new handler.
func NewAttendanceHandler(svc attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Sheet godoc
// @Summary Load the attendance sheet
// @Description One row per enrolled student for the given date; missing or malformed date falls back to today
// @Tags Attendance
// @Produce json
// @Param id path string true "Class ID"
// @Param date query string false "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /classes/{id}/attendance [get]
func (h *AttendanceHandler) Sheet(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	sheet, err := h.service.Sheet(c.Request.Context(), claims.UserID, c.Param("id"), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// Save godoc
// @Summary Save the attendance sheet
// @Description Validates every row before writing; the batch is upserted atomically
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body service.SaveAttendanceRequest true "Sheet payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /classes/{id}/attendance [post]
func (h *AttendanceHandler) Save(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SaveAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}

	if err := h.service.Save(c.Request.Context(), claims.UserID, c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

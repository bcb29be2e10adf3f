package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/colegio-altavista/portal-api/internal/dto"
	appErrors "github.com/colegio-altavista/portal-api/pkg/errors"
	"github.com/colegio-altavista/portal-api/pkg/response"
)

type dashboardService interface {
	Student(ctx context.Context, studentID string) (*dto.StudentDashboardResponse, error)
	Teacher(ctx context.Context, teacherID string) (*dto.TeacherDashboardResponse, error)
	Admin(ctx context.Context, page, pageSize int) (*dto.AdminDashboardResponse, error)
}

// DashboardHandler serves the per-role landing pages.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc dashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Student godoc
// @Summary Student dashboard
// @Description Current period, enrolled classes, assignments with submission state, recent notifications
// @Tags Dashboards
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard/student [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	dashboard, err := h.service.Student(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}

// Teacher godoc
// @Summary Teacher dashboard
// @Description Current period, taught classes with rosters, recent notifications
// @Tags Dashboards
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard/teacher [get]
func (h *DashboardHandler) Teacher(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	dashboard, err := h.service.Teacher(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}

// Admin godoc
// @Summary Admin dashboard
// @Description Recent news feed, paginated
// @Tags Dashboards
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard/admin [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 5)

	dashboard, err := h.service.Admin(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, dashboard.Pagination)
}

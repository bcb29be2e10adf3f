package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/colegio-altavista/portal-api/internal/service"
	appErrors "github.com/colegio-altavista/portal-api/pkg/errors"
	"github.com/colegio-altavista/portal-api/pkg/response"
)

// CatalogHandler wires period, course, class and enrollment endpoints.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler creates a new handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// CurrentPeriod godoc
// @Summary Resolve the current academic period
// @Description Latest-starting period; null data when the calendar is empty
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /periods/current [get]
func (h *CatalogHandler) CurrentPeriod(c *gin.Context) {
	period, err := h.service.CurrentPeriod(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// ListPeriods godoc
// @Summary List academic periods
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /periods [get]
func (h *CatalogHandler) ListPeriods(c *gin.Context) {
	periods, err := h.service.ListPeriods(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, nil)
}

// CreatePeriod godoc
// @Summary Add a term to the calendar
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.CreatePeriodRequest true "Period payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /periods [post]
func (h *CatalogHandler) CreatePeriod(c *gin.Context) {
	var req service.CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid period payload"))
		return
	}

	period, err := h.service.CreatePeriod(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, period)
}

// ListCourses godoc
// @Summary List catalog subjects
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	courses, err := h.service.ListCourses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// CreateCourse godoc
// @Summary Add a subject to the catalog
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses [post]
func (h *CatalogHandler) CreateCourse(c *gin.Context) {
	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}

	course, err := h.service.CreateCourse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// CreateClass godoc
// @Summary Schedule a class
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /classes [post]
func (h *CatalogHandler) CreateClass(c *gin.Context) {
	var req service.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class payload"))
		return
	}

	class, err := h.service.CreateClass(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// GetClass godoc
// @Summary Fetch a class
// @Tags Catalog
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *CatalogHandler) GetClass(c *gin.Context) {
	class, err := h.service.GetClass(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Roster godoc
// @Summary List a class's enrolled students
// @Tags Catalog
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/roster [get]
func (h *CatalogHandler) Roster(c *gin.Context) {
	roster, err := h.service.Roster(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

type enrollmentRequest struct {
	StudentID string `json:"student_id" binding:"required"`
}

// Enroll godoc
// @Summary Enroll a student in a class
// @Description Enrolling twice is a no-op
// @Tags Catalog
// @Accept json
// @Param id path string true "Class ID"
// @Param payload body enrollmentRequest true "Enrollment payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /classes/{id}/enrollments [post]
func (h *CatalogHandler) Enroll(c *gin.Context) {
	var req enrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "student_id is required"))
		return
	}

	if err := h.service.Enroll(c.Request.Context(), c.Param("id"), req.StudentID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Unenroll godoc
// @Summary Remove a student from a class
// @Tags Catalog
// @Param id path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/enrollments/{studentId} [delete]
func (h *CatalogHandler) Unenroll(c *gin.Context) {
	if err := h.service.Unenroll(c.Request.Context(), c.Param("id"), c.Param("studentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

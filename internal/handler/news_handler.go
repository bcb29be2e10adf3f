package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/colegio-altavista/portal-api/internal/models"
	"github.com/colegio-altavista/portal-api/internal/service"
	appErrors "github.com/colegio-altavista/portal-api/pkg/errors"
	"github.com/colegio-altavista/portal-api/pkg/response"
)

type newsService interface {
	Create(ctx context.Context, authorID string, req service.CreateNewsRequest) (*models.NewsPostDetail, error)
	Get(ctx context.Context, id string) (*models.NewsPostDetail, error)
	Update(ctx context.Context, actorID string, actorRole models.UserRole, id string, req service.UpdateNewsRequest) (*models.NewsPostDetail, error)
	Delete(ctx context.Context, actorID string, actorRole models.UserRole, id string) error
	List(ctx context.Context, filter models.NewsFilter) ([]models.NewsPostDetail, *models.Pagination, error)
}

// NewsHandler wires the news feed endpoints.
type NewsHandler struct {
	service newsService
}

// NewNewsHandler creates a new handler.
func NewNewsHandler(svc newsService) *NewsHandler {
	return &NewsHandler{service: svc}
}

// Create godoc
// @Summary Publish a news post
// @Tags News
// @Accept json
// @Produce json
// @Param payload body service.CreateNewsRequest true "News payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /news [post]
func (h *NewsHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateNewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid news payload"))
		return
	}

	post, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, post)
}

// Get godoc
// @Summary Fetch a news post
// @Tags News
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /news/{id} [get]
func (h *NewsHandler) Get(c *gin.Context) {
	post, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, post, nil)
}

// Update godoc
// @Summary Edit a news post
// @Description Only the author or a superadmin may edit
// @Tags News
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param payload body service.UpdateNewsRequest true "News payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /news/{id} [put]
func (h *NewsHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdateNewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid news payload"))
		return
	}

	post, err := h.service.Update(c.Request.Context(), claims.UserID, claims.Role, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, post, nil)
}

// Delete godoc
// @Summary Remove a news post
// @Description Only the author or a superadmin may delete
// @Tags News
// @Param id path string true "Post ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /news/{id} [delete]
func (h *NewsHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims.UserID, claims.Role, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// List godoc
// @Summary List news posts
// @Tags News
// @Produce json
// @Param published query bool false "Only published posts"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /news [get]
func (h *NewsHandler) List(c *gin.Context) {
	filter := models.NewsFilter{
		PublishedOnly: c.Query("published") == "true",
		Page:          queryInt(c, "page", 1),
		PageSize:      queryInt(c, "page_size", 10),
	}

	posts, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, posts, pagination)
}

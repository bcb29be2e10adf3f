package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/colegio-altavista/portal-api/internal/middleware"
	"github.com/colegio-altavista/portal-api/internal/models"
	"github.com/colegio-altavista/portal-api/internal/service"
	appErrors "github.com/colegio-altavista/portal-api/pkg/errors"
)

type fakeNewsSrv struct {
	post       *models.NewsPostDetail
	posts      []models.NewsPostDetail
	err        error
	lastActor  string
	lastRole   models.UserRole
	lastFilter models.NewsFilter
}

func (f *fakeNewsSrv) Create(_ context.Context, authorID string, _ service.CreateNewsRequest) (*models.NewsPostDetail, error) {
	f.lastActor = authorID
	return f.post, f.err
}

func (f *fakeNewsSrv) Get(context.Context, string) (*models.NewsPostDetail, error) {
	return f.post, f.err
}

func (f *fakeNewsSrv) Update(_ context.Context, actorID string, actorRole models.UserRole, _ string, _ service.UpdateNewsRequest) (*models.NewsPostDetail, error) {
	f.lastActor = actorID
	f.lastRole = actorRole
	return f.post, f.err
}

func (f *fakeNewsSrv) Delete(_ context.Context, actorID string, actorRole models.UserRole, _ string) error {
	f.lastActor = actorID
	f.lastRole = actorRole
	return f.err
}

func (f *fakeNewsSrv) List(_ context.Context, filter models.NewsFilter) ([]models.NewsPostDetail, *models.Pagination, error) {
	f.lastFilter = filter
	return f.posts, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: len(f.posts)}, f.err
}

func newsDetail(id, authorID string) *models.NewsPostDetail {
	return &models.NewsPostDetail{
		NewsPost:   models.NewsPost{ID: id, Title: "Open house", Body: "Friday", Published: true, AuthorID: authorID},
		AuthorName: "Admin One",
	}
}

func TestNewsHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeNewsSrv{post: newsDetail("news-1", "adm-1")}
	handler := NewNewsHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/news", strings.NewReader(`{"title":"Open house","body":"Friday","published":true}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "adm-1", Role: models.RoleAdmin})

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "adm-1", service.lastActor)
}

func TestNewsHandlerUpdatePassesCallerRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeNewsSrv{post: newsDetail("news-1", "adm-1")}
	handler := NewNewsHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPut, "/news/news-1", strings.NewReader(`{"title":"Edited","body":"Friday","published":true}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "news-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "root-1", Role: models.RoleSuperAdmin})

	handler.Update(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "root-1", service.lastActor)
	assert.Equal(t, models.RoleSuperAdmin, service.lastRole)
}

func TestNewsHandlerDeleteForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeNewsSrv{err: appErrors.ErrForbidden}
	handler := NewNewsHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/news/news-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "news-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "adm-2", Role: models.RoleAdmin})

	handler.Delete(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNewsHandlerListParsesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeNewsSrv{posts: []models.NewsPostDetail{*newsDetail("news-1", "adm-1")}}
	handler := NewNewsHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/news?published=true&page=2&page_size=15", nil)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, service.lastFilter.PublishedOnly)
	assert.Equal(t, 2, service.lastFilter.Page)
	assert.Equal(t, 15, service.lastFilter.PageSize)
}

package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/colegio-altavista/portal-api/internal/models"
	appErrors "github.com/colegio-altavista/portal-api/pkg/errors"
)

type newsRepository interface {
	Create(ctx context.Context, post *models.NewsPost) error
	FindByID(ctx context.Context, id string) (*models.NewsPostDetail, error)
	Update(ctx context.Context, post *models.NewsPost) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.NewsFilter) ([]models.NewsPostDetail, int, error)
}

// CreateNewsRequest holds payload for publishing a news post.
type CreateNewsRequest struct {
	Title     string `json:"title" validate:"required"`
	Body      string `json:"body" validate:"required"`
	Published bool   `json:"published"`
}

// UpdateNewsRequest holds payload for editing a news post.
type UpdateNewsRequest struct {
	Title     string `json:"title" validate:"required"`
	Body      string `json:"body" validate:"required"`
	Published bool   `json:"published"`
}

// NewsService handles the news feed. Posts belong to their author: only
// the author or a superadmin may edit or remove one.
type NewsService struct {
	repo      newsRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNewsService constructs the news service.
func NewNewsService(repo newsRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *NewsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NewsService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Create publishes a news post owned by the acting admin.
func (s *NewsService) Create(ctx context.Context, authorID string, req CreateNewsRequest) (*models.NewsPostDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid news payload")
	}

	post := &models.NewsPost{
		Title:     req.Title,
		Body:      req.Body,
		Published: req.Published,
		AuthorID:  authorID,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create news post")
	}

	s.invalidate(ctx)
	return s.Get(ctx, post.ID)
}

// Get returns one news post.
func (s *NewsService) Get(ctx context.Context, id string) (*models.NewsPostDetail, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "news post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load news post")
	}
	return post, nil
}

// Update edits a post when the actor owns it or is a superadmin.
func (s *NewsService) Update(ctx context.Context, actorID string, actorRole models.UserRole, id string, req UpdateNewsRequest) (*models.NewsPostDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid news payload")
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.AuthorID != actorID && actorRole != models.RoleSuperAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author may modify this post")
	}

	post := existing.NewsPost
	post.Title = req.Title
	post.Body = req.Body
	post.Published = req.Published
	if err := s.repo.Update(ctx, &post); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update news post")
	}

	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// Delete removes a post when the actor owns it or is a superadmin.
func (s *NewsService) Delete(ctx context.Context, actorID string, actorRole models.UserRole, id string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.AuthorID != actorID && actorRole != models.RoleSuperAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only the author may delete this post")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete news post")
	}
	s.invalidate(ctx)
	return nil
}

// List returns posts newest first with pagination metadata.
func (s *NewsService) List(ctx context.Context, filter models.NewsFilter) ([]models.NewsPostDetail, *models.Pagination, error) {
	posts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list news posts")
	}
	return posts, paginationFor(filter.Page, filter.PageSize, total), nil
}

func (s *NewsService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

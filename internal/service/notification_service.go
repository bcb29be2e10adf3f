package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/colegio-altavista/portal-api/internal/models"
	appErrors "github.com/colegio-altavista/portal-api/pkg/errors"
)

type notificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListRecentForAudience(ctx context.Context, audience models.NotificationAudience, limit int) ([]models.Notification, error)
	List(ctx context.Context, page, pageSize int) ([]models.Notification, int, error)
}

// SendNotificationRequest holds payload for broadcasting a message.
type SendNotificationRequest struct {
	Message  string `json:"message" validate:"required"`
	Audience string `json:"audience" validate:"required"`
}

// NotificationService handles audience-scoped broadcasts.
type NotificationService struct {
	repo      notificationRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNotificationService constructs the notification service.
func NewNotificationService(repo notificationRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Send stores a broadcast addressed to everyone, students or teachers.
func (s *NotificationService) Send(ctx context.Context, authorID string, req SendNotificationRequest) (*models.Notification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification payload")
	}

	audience := models.NotificationAudience(req.Audience)
	if !audience.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "audience must be ALL, STUDENTS or TEACHERS")
	}

	notification := &models.Notification{
		Message:  req.Message,
		Audience: audience,
		AuthorID: authorID,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notification")
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
			s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
		}
	}

	return notification, nil
}

// List returns all broadcasts newest first with pagination metadata.
func (s *NotificationService) List(ctx context.Context, page, pageSize int) ([]models.Notification, *models.Pagination, error) {
	notifications, total, err := s.repo.List(ctx, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, paginationFor(page, pageSize, total), nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/colegio-altavista/portal-api/internal/dto"
	"github.com/colegio-altavista/portal-api/internal/models"
	appErrors "github.com/colegio-altavista/portal-api/pkg/errors"
)

const recentNotificationLimit = 5

type dashboardPeriodRepository interface {
	Current(ctx context.Context) (*models.AcademicPeriod, error)
}

type dashboardClassRepository interface {
	ListByStudentAndPeriod(ctx context.Context, studentID, periodID string) ([]models.ClassDetail, error)
	ListByTeacherAndPeriod(ctx context.Context, teacherID, periodID string) ([]models.ClassDetail, error)
	Roster(ctx context.Context, classID string) ([]models.ClassRosterEntry, error)
}

type dashboardAssignmentRepository interface {
	ListForStudentInPeriod(ctx context.Context, studentID, periodID string) ([]models.AssignmentStatusRow, error)
}

type dashboardNotificationRepository interface {
	ListRecentForAudience(ctx context.Context, audience models.NotificationAudience, limit int) ([]models.Notification, error)
}

type dashboardNewsRepository interface {
	List(ctx context.Context, filter models.NewsFilter) ([]models.NewsPostDetail, int, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type cacheLookupObserver interface {
	ObserveCacheLookup(hit bool)
}

// DashboardConfig tunes the dashboard cache.
type DashboardConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// DashboardService assembles the per-role landing pages.
type DashboardService struct {
	periods       dashboardPeriodRepository
	classes       dashboardClassRepository
	assignments   dashboardAssignmentRepository
	notifications dashboardNotificationRepository
	news          dashboardNewsRepository
	cache         dashboardCache
	metrics       cacheLookupObserver
	config        DashboardConfig
	logger        *zap.Logger
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(
	periods dashboardPeriodRepository,
	classes dashboardClassRepository,
	assignments dashboardAssignmentRepository,
	notifications dashboardNotificationRepository,
	news dashboardNewsRepository,
	cache dashboardCache,
	config DashboardConfig,
	logger *zap.Logger,
) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		periods:       periods,
		classes:       classes,
		assignments:   assignments,
		notifications: notifications,
		news:          news,
		cache:         cache,
		config:        config,
		logger:        logger,
	}
}

// SetMetrics enables cache hit/miss instrumentation.
func (s *DashboardService) SetMetrics(metrics cacheLookupObserver) {
	s.metrics = metrics
}

func (s *DashboardService) observeLookup(hit bool) {
	if s.metrics != nil {
		s.metrics.ObserveCacheLookup(hit)
	}
}

// Student builds the student landing page: the current period's classes,
// every assignment across them annotated with the student's submission
// state, and the latest notifications addressed to students or everyone.
// An empty calendar yields an empty dashboard, not an error.
func (s *DashboardService) Student(ctx context.Context, studentID string) (*dto.StudentDashboardResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:student:%s", studentID)
	if s.cacheEnabled() {
		var cached dto.StudentDashboardResponse
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			s.observeLookup(true)
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("student dashboard cache read failed", zap.Error(err))
		}
		s.observeLookup(false)
	}

	response := &dto.StudentDashboardResponse{
		Classes:       []models.ClassDetail{},
		Assignments:   []models.AssignmentStatusRow{},
		Notifications: []models.Notification{},
	}

	period, err := s.currentPeriod(ctx)
	if err != nil {
		return nil, err
	}
	response.CurrentPeriod = period

	if period != nil {
		classes, err := s.classes.ListByStudentAndPeriod(ctx, studentID, period.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrolled classes")
		}
		if classes != nil {
			response.Classes = classes
		}

		assignments, err := s.assignments.ListForStudentInPeriod(ctx, studentID, period.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
		}
		if assignments != nil {
			response.Assignments = assignments
		}
	}

	notifications, err := s.notifications.ListRecentForAudience(ctx, models.NotificationAudienceStudents, recentNotificationLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notifications")
	}
	if notifications != nil {
		response.Notifications = notifications
	}

	s.storeCache(ctx, cacheKey, response)
	return response, nil
}

// Teacher builds the teacher landing page: the classes they run in the
// current period, each with its roster, plus recent notifications for
// teachers or everyone.
func (s *DashboardService) Teacher(ctx context.Context, teacherID string) (*dto.TeacherDashboardResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:teacher:%s", teacherID)
	if s.cacheEnabled() {
		var cached dto.TeacherDashboardResponse
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			s.observeLookup(true)
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("teacher dashboard cache read failed", zap.Error(err))
		}
		s.observeLookup(false)
	}

	response := &dto.TeacherDashboardResponse{
		Classes:       []dto.TeacherDashboardClass{},
		Notifications: []models.Notification{},
	}

	period, err := s.currentPeriod(ctx)
	if err != nil {
		return nil, err
	}
	response.CurrentPeriod = period

	if period != nil {
		classes, err := s.classes.ListByTeacherAndPeriod(ctx, teacherID, period.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load taught classes")
		}
		for _, class := range classes {
			roster, err := s.classes.Roster(ctx, class.ID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class roster")
			}
			if roster == nil {
				roster = []models.ClassRosterEntry{}
			}
			response.Classes = append(response.Classes, dto.TeacherDashboardClass{
				ClassDetail: class,
				Students:    roster,
			})
		}
	}

	notifications, err := s.notifications.ListRecentForAudience(ctx, models.NotificationAudienceTeachers, recentNotificationLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notifications")
	}
	if notifications != nil {
		response.Notifications = notifications
	}

	s.storeCache(ctx, cacheKey, response)
	return response, nil
}

// Admin builds the admin landing page: the recent news feed, paginated.
func (s *DashboardService) Admin(ctx context.Context, page, pageSize int) (*dto.AdminDashboardResponse, error) {
	posts, total, err := s.news.List(ctx, models.NewsFilter{PublishedOnly: false, Page: page, PageSize: pageSize})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load news feed")
	}
	if posts == nil {
		posts = []models.NewsPostDetail{}
	}
	return &dto.AdminDashboardResponse{
		News:       posts,
		Pagination: paginationFor(page, pageSize, total),
	}, nil
}

func (s *DashboardService) currentPeriod(ctx context.Context) (*models.AcademicPeriod, error) {
	period, err := s.periods.Current(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve current period")
	}
	return period, nil
}

func (s *DashboardService) cacheEnabled() bool {
	return s.cache != nil && s.config.CacheEnabled
}

func (s *DashboardService) storeCache(ctx context.Context, key string, value interface{}) {
	if !s.cacheEnabled() {
		return
	}
	ttl := s.config.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := s.cache.Set(ctx, key, value, ttl); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

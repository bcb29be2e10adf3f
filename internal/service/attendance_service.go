package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/colegio-altavista/portal-api/internal/dto"
	"github.com/colegio-altavista/portal-api/internal/models"
	appErrors "github.com/colegio-altavista/portal-api/pkg/errors"
)

const attendanceDateLayout = "2006-01-02"

type attendanceRepository interface {
	ListByClassAndDate(ctx context.Context, classID string, date time.Time) ([]models.AttendanceRecord, error)
	BulkUpsert(ctx context.Context, records []models.AttendanceRecord) error
	RegisterByClassRange(ctx context.Context, classID string, from, to time.Time) ([]models.AttendanceRegisterRow, error)
}

type rosterRepository interface {
	Roster(ctx context.Context, classID string) ([]models.ClassRosterEntry, error)
	IsTaughtBy(ctx context.Context, classID, teacherID string) (bool, error)
}

// SaveAttendanceRequest is the full sheet posted for one class and date.
type SaveAttendanceRequest struct {
	Date    string                `json:"date" validate:"required"`
	Entries []SaveAttendanceEntry `json:"entries" validate:"required,min=1,dive"`
}

// SaveAttendanceEntry is one student's status in the posted sheet.
type SaveAttendanceEntry struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required"`
}

// AttendanceService handles the date-indexed attendance sheet workflow.
type AttendanceService struct {
	attendance attendanceRepository
	classes    rosterRepository
	audits     auditRecorder
	cache      cacheInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(attendance attendanceRepository, classes rosterRepository, audits auditRecorder, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		attendance: attendance,
		classes:    classes,
		audits:     audits,
		cache:      cache,
		validator:  validate,
		logger:     logger,
		now:        time.Now,
	}
}

// Sheet builds the attendance sheet for a class on a date. An absent or
// unparseable date falls back to today without error. Every enrolled
// student appears; students without a stored record default to absent.
func (s *AttendanceService) Sheet(ctx context.Context, teacherID, classID, dateParam string) (*dto.AttendanceSheetResponse, error) {
	if err := s.requireTeacher(ctx, classID, teacherID); err != nil {
		return nil, err
	}

	today := s.today()
	date := today
	if dateParam != "" {
		if parsed, err := time.ParseInLocation(attendanceDateLayout, dateParam, time.UTC); err == nil {
			date = parsed
		}
	}

	roster, err := s.classes.Roster(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class roster")
	}

	records, err := s.attendance.ListByClassAndDate(ctx, classID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance records")
	}

	statusByStudent := make(map[string]models.AttendanceStatus, len(records))
	for _, record := range records {
		statusByStudent[record.StudentID] = record.Status
	}

	rows := make([]dto.AttendanceSheetRow, 0, len(roster))
	for _, entry := range roster {
		status := models.AttendanceStatusAbsent
		if stored, ok := statusByStudent[entry.StudentID]; ok {
			status = stored
		}
		rows = append(rows, dto.AttendanceSheetRow{
			StudentID:     entry.StudentID,
			StudentNumber: entry.StudentNumber,
			StudentName:   entry.FullName,
			Status:        string(status),
		})
	}

	return &dto.AttendanceSheetResponse{
		ClassID:  classID,
		Date:     date.Format(attendanceDateLayout),
		PrevDate: date.AddDate(0, 0, -1).Format(attendanceDateLayout),
		NextDate: date.AddDate(0, 0, 1).Format(attendanceDateLayout),
		IsToday:  date.Equal(today),
		Rows:     rows,
	}, nil
}

// Save validates the whole posted sheet and then upserts every row in
// one transaction. Any invalid entry rejects the batch before a single
// write happens.
func (s *AttendanceService) Save(ctx context.Context, teacherID, classID string, req SaveAttendanceRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	if err := s.requireTeacher(ctx, classID, teacherID); err != nil {
		return err
	}

	date, err := time.ParseInLocation(attendanceDateLayout, req.Date, time.UTC)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "date must use YYYY-MM-DD")
	}

	roster, err := s.classes.Roster(ctx, classID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class roster")
	}
	enrolled := make(map[string]struct{}, len(roster))
	for _, entry := range roster {
		enrolled[entry.StudentID] = struct{}{}
	}

	records := make([]models.AttendanceRecord, 0, len(req.Entries))
	for _, entry := range req.Entries {
		status := models.AttendanceStatus(entry.Status)
		if !status.Valid() {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid attendance status %q", entry.Status))
		}
		if _, ok := enrolled[entry.StudentID]; !ok {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s is not enrolled in this class", entry.StudentID))
		}
		records = append(records, models.AttendanceRecord{
			ClassID:   classID,
			StudentID: entry.StudentID,
			Date:      date,
			Status:    status,
		})
	}

	if err := s.attendance.BulkUpsert(ctx, records); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance")
	}

	if err := s.audits.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &teacherID,
		Action:     models.AuditActionAttendanceSave,
		Resource:   "attendance",
		ResourceID: &classID,
		NewValues:  []byte(fmt.Sprintf(`{"date":%q,"rows":%d}`, req.Date, len(records))),
	}); err != nil {
		s.logger.Warn("failed to record attendance audit log", zap.Error(err))
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
			s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
		}
	}

	return nil
}

// Register returns the stored records for a class across a date range.
func (s *AttendanceService) Register(ctx context.Context, teacherID, classID string, from, to time.Time) ([]models.AttendanceRegisterRow, error) {
	if err := s.requireTeacher(ctx, classID, teacherID); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "range end precedes range start")
	}
	rows, err := s.attendance.RegisterByClassRange(ctx, classID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance register")
	}
	return rows, nil
}

func (s *AttendanceService) requireTeacher(ctx context.Context, classID, teacherID string) error {
	taught, err := s.classes.IsTaughtBy(ctx, classID, teacherID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class ownership")
	}
	if !taught {
		return appErrors.Clone(appErrors.ErrForbidden, "class does not belong to teacher")
	}
	return nil
}

func (s *AttendanceService) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/colegio-altavista/portal-api/internal/models"
	appErrors "github.com/colegio-altavista/portal-api/pkg/errors"
)

type mockAttendanceRepo struct {
	records  []models.AttendanceRecord
	upserted [][]models.AttendanceRecord
	register []models.AttendanceRegisterRow
}

func (m *mockAttendanceRepo) ListByClassAndDate(ctx context.Context, classID string, date time.Time) ([]models.AttendanceRecord, error) {
	var matched []models.AttendanceRecord
	for _, r := range m.records {
		if r.ClassID == classID && r.Date.Equal(date) {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

func (m *mockAttendanceRepo) BulkUpsert(ctx context.Context, records []models.AttendanceRecord) error {
	m.upserted = append(m.upserted, records)
	return nil
}

func (m *mockAttendanceRepo) RegisterByClassRange(ctx context.Context, classID string, from, to time.Time) ([]models.AttendanceRegisterRow, error) {
	return m.register, nil
}

type mockRosterRepo struct {
	roster  []models.ClassRosterEntry
	teaches map[string]string
}

func (m *mockRosterRepo) Roster(ctx context.Context, classID string) ([]models.ClassRosterEntry, error) {
	return m.roster, nil
}

func (m *mockRosterRepo) IsTaughtBy(ctx context.Context, classID, teacherID string) (bool, error) {
	return m.teaches[classID] == teacherID, nil
}

type mockAuditRecorder struct {
	logs []models.AuditLog
}

func (m *mockAuditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, *log)
	return nil
}

func newAttendanceService(att *mockAttendanceRepo, roster *mockRosterRepo, audits *mockAuditRecorder) *AttendanceService {
	svc := NewAttendanceService(att, roster, audits, nil, validator.New(), zap.NewNop())
	svc.now = func() time.Time {
		return time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	}
	return svc
}

func TestAttendanceSheetDefaultsToAbsent(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	att := &mockAttendanceRepo{
		records: []models.AttendanceRecord{
			{ClassID: "c1", StudentID: "s1", Date: date, Status: models.AttendanceStatusPresent},
		},
	}
	roster := &mockRosterRepo{
		roster: []models.ClassRosterEntry{
			{StudentID: "s1", StudentNumber: "2026-001", FullName: "Ana Lopez"},
			{StudentID: "s2", StudentNumber: "2026-002", FullName: "Bruno Diaz"},
		},
		teaches: map[string]string{"c1": "t1"},
	}
	svc := newAttendanceService(att, roster, &mockAuditRecorder{})

	sheet, err := svc.Sheet(context.Background(), "t1", "c1", "2026-03-10")
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "P", sheet.Rows[0].Status)
	assert.Equal(t, "A", sheet.Rows[1].Status)
	assert.True(t, sheet.IsToday)
	assert.Equal(t, "2026-03-09", sheet.PrevDate)
	assert.Equal(t, "2026-03-11", sheet.NextDate)
}

func TestAttendanceSheetMalformedDateFallsBackToToday(t *testing.T) {
	roster := &mockRosterRepo{
		roster:  []models.ClassRosterEntry{{StudentID: "s1", StudentNumber: "2026-001", FullName: "Ana Lopez"}},
		teaches: map[string]string{"c1": "t1"},
	}
	svc := newAttendanceService(&mockAttendanceRepo{}, roster, &mockAuditRecorder{})

	sheet, err := svc.Sheet(context.Background(), "t1", "c1", "not-a-date")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", sheet.Date)
	assert.True(t, sheet.IsToday)
}

func TestAttendanceSheetForeignClassIsForbidden(t *testing.T) {
	roster := &mockRosterRepo{teaches: map[string]string{"c1": "other"}}
	svc := newAttendanceService(&mockAttendanceRepo{}, roster, &mockAuditRecorder{})

	_, err := svc.Sheet(context.Background(), "t1", "c1", "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestAttendanceSaveRejectsBatchBeforeAnyWrite(t *testing.T) {
	att := &mockAttendanceRepo{}
	roster := &mockRosterRepo{
		roster:  []models.ClassRosterEntry{{StudentID: "s1", StudentNumber: "2026-001", FullName: "Ana Lopez"}},
		teaches: map[string]string{"c1": "t1"},
	}
	svc := newAttendanceService(att, roster, &mockAuditRecorder{})

	err := svc.Save(context.Background(), "t1", "c1", SaveAttendanceRequest{
		Date: "2026-03-10",
		Entries: []SaveAttendanceEntry{
			{StudentID: "s1", Status: "P"},
			{StudentID: "s1", Status: "X"},
		},
	})
	require.Error(t, err)
	assert.Empty(t, att.upserted)
}

func TestAttendanceSaveUpsertsWholeSheet(t *testing.T) {
	att := &mockAttendanceRepo{}
	roster := &mockRosterRepo{
		roster: []models.ClassRosterEntry{
			{StudentID: "s1", StudentNumber: "2026-001", FullName: "Ana Lopez"},
			{StudentID: "s2", StudentNumber: "2026-002", FullName: "Bruno Diaz"},
		},
		teaches: map[string]string{"c1": "t1"},
	}
	audits := &mockAuditRecorder{}
	svc := newAttendanceService(att, roster, audits)

	err := svc.Save(context.Background(), "t1", "c1", SaveAttendanceRequest{
		Date: "2026-03-10",
		Entries: []SaveAttendanceEntry{
			{StudentID: "s1", Status: "P"},
			{StudentID: "s2", Status: "L"},
		},
	})
	require.NoError(t, err)
	require.Len(t, att.upserted, 1)
	assert.Len(t, att.upserted[0], 2)
	assert.Equal(t, models.AttendanceStatusLate, att.upserted[0][1].Status)
	require.Len(t, audits.logs, 1)
	assert.Equal(t, models.AuditActionAttendanceSave, audits.logs[0].Action)
}

func TestAttendanceSaveUnknownStudentRejected(t *testing.T) {
	att := &mockAttendanceRepo{}
	roster := &mockRosterRepo{
		roster:  []models.ClassRosterEntry{{StudentID: "s1", StudentNumber: "2026-001", FullName: "Ana Lopez"}},
		teaches: map[string]string{"c1": "t1"},
	}
	svc := newAttendanceService(att, roster, &mockAuditRecorder{})

	err := svc.Save(context.Background(), "t1", "c1", SaveAttendanceRequest{
		Date:    "2026-03-10",
		Entries: []SaveAttendanceEntry{{StudentID: "ghost", Status: "P"}},
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, att.upserted)
}

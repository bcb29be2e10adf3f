package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colegio-altavista/portal-api/internal/models"
	appErrors "github.com/colegio-altavista/portal-api/pkg/errors"
	"github.com/colegio-altavista/portal-api/pkg/export"
)

type mockRegisterProvider struct {
	rows []models.AttendanceRegisterRow
	err  error
}

func (m *mockRegisterProvider) Register(_ context.Context, _, _ string, _, _ time.Time) ([]models.AttendanceRegisterRow, error) {
	return m.rows, m.err
}

func registerDay(day string) time.Time {
	t, _ := time.Parse("2006-01-02", day)
	return t
}

func registerFixtureRows() []models.AttendanceRegisterRow {
	return []models.AttendanceRegisterRow{
		{StudentID: "stu-2", StudentNumber: "M-002", StudentName: "Zoe Vargas", Date: registerDay("2026-03-10"), Status: models.AttendanceStatusAbsent},
		{StudentID: "stu-1", StudentNumber: "M-001", StudentName: "Ana Lopez", Date: registerDay("2026-03-10"), Status: models.AttendanceStatusPresent},
		{StudentID: "stu-1", StudentNumber: "M-001", StudentName: "Ana Lopez", Date: registerDay("2026-03-11"), Status: models.AttendanceStatusLate},
	}
}

func TestBuildRegisterDatasetPivotsByDate(t *testing.T) {
	dataset := buildRegisterDataset(registerFixtureRows())

	assert.Equal(t, []string{"Student Number", "Student", "2026-03-10", "2026-03-11"}, dataset.Headers)
	require.Len(t, dataset.Rows, 2)

	// Rows are ordered by student name.
	assert.Equal(t, "Ana Lopez", dataset.Rows[0]["Student"])
	assert.Equal(t, "P", dataset.Rows[0]["2026-03-10"])
	assert.Equal(t, "L", dataset.Rows[0]["2026-03-11"])

	assert.Equal(t, "Zoe Vargas", dataset.Rows[1]["Student"])
	assert.Equal(t, "A", dataset.Rows[1]["2026-03-10"])
	assert.Equal(t, "", dataset.Rows[1]["2026-03-11"])
}

func TestAttendanceRegisterRendersCSV(t *testing.T) {
	svc := NewExportService(
		&mockRegisterProvider{rows: registerFixtureRows()},
		export.NewCSVExporter(),
		export.NewPDFExporter(),
		ExportConfig{MaxRangeDays: 31},
		nil,
	)

	result, err := svc.AttendanceRegister(context.Background(), "tea-1", "class-1", "csv", registerDay("2026-03-10"), registerDay("2026-03-11"))
	require.NoError(t, err)

	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "attendance_class-1_20260310_20260311.csv", result.FileName)

	lines := strings.Split(strings.TrimSpace(string(result.Data)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Student Number")
	assert.Contains(t, lines[1], "Ana Lopez")
}

func TestAttendanceRegisterRejectsWideRange(t *testing.T) {
	svc := NewExportService(
		&mockRegisterProvider{},
		export.NewCSVExporter(),
		export.NewPDFExporter(),
		ExportConfig{MaxRangeDays: 7},
		nil,
	)

	_, err := svc.AttendanceRegister(context.Background(), "tea-1", "class-1", "csv", registerDay("2026-03-01"), registerDay("2026-03-31"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestAttendanceRegisterRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(
		&mockRegisterProvider{rows: registerFixtureRows()},
		export.NewCSVExporter(),
		export.NewPDFExporter(),
		ExportConfig{},
		nil,
	)

	_, err := svc.AttendanceRegister(context.Background(), "tea-1", "class-1", "xlsx", registerDay("2026-03-10"), registerDay("2026-03-11"))
	require.Error(t, err)
}

package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/colegio-altavista/portal-api/internal/models"
	appErrors "github.com/colegio-altavista/portal-api/pkg/errors"
	"github.com/colegio-altavista/portal-api/pkg/export"
)

type registerProvider interface {
	Register(ctx context.Context, teacherID, classID string, from, to time.Time) ([]models.AttendanceRegisterRow, error)
}

// ExportConfig bounds export requests.
type ExportConfig struct {
	MaxRangeDays int
}

// ExportResult carries rendered bytes with delivery metadata.
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService renders the attendance register as CSV or PDF. Exports
// run synchronously inside the request; there is no job queue.
type ExportService struct {
	register registerProvider
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	config   ExportConfig
	logger   *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(register registerProvider, csv *export.CSVExporter, pdf *export.PDFExporter, config ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{register: register, csv: csv, pdf: pdf, config: config, logger: logger}
}

// AttendanceRegister renders the per-student attendance matrix for a
// class and date range. Columns are the dates in range order; each row
// is one student with a status letter per date, blank where no record
// exists.
func (s *ExportService) AttendanceRegister(ctx context.Context, teacherID, classID, format string, from, to time.Time) (*ExportResult, error) {
	if s.config.MaxRangeDays > 0 {
		if int(to.Sub(from).Hours()/24)+1 > s.config.MaxRangeDays {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("range exceeds %d days", s.config.MaxRangeDays))
		}
	}

	rows, err := s.register.Register(ctx, teacherID, classID, from, to)
	if err != nil {
		return nil, err
	}

	dataset := buildRegisterDataset(rows)
	name := fmt.Sprintf("attendance_%s_%s_%s", classID, from.Format("20060102"), to.Format("20060102"))

	switch format {
	case "csv":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{FileName: name + ".csv", ContentType: "text/csv", Data: data}, nil
	case "pdf":
		title := fmt.Sprintf("Attendance register %s - %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
		data, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{FileName: name + ".pdf", ContentType: "application/pdf", Data: data}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func buildRegisterDataset(rows []models.AttendanceRegisterRow) export.Dataset {
	dateSet := map[string]struct{}{}
	type studentKey struct {
		number string
		name   string
	}
	byStudent := map[string]map[string]string{}
	identity := map[string]studentKey{}

	for _, row := range rows {
		day := row.Date.Format("2006-01-02")
		dateSet[day] = struct{}{}
		if _, ok := byStudent[row.StudentID]; !ok {
			byStudent[row.StudentID] = map[string]string{}
			identity[row.StudentID] = studentKey{number: row.StudentNumber, name: row.StudentName}
		}
		byStudent[row.StudentID][day] = string(row.Status)
	}

	dates := make([]string, 0, len(dateSet))
	for day := range dateSet {
		dates = append(dates, day)
	}
	sort.Strings(dates)

	headers := append([]string{"Student Number", "Student"}, dates...)

	studentIDs := make([]string, 0, len(byStudent))
	for id := range byStudent {
		studentIDs = append(studentIDs, id)
	}
	sort.Slice(studentIDs, func(i, j int) bool {
		return identity[studentIDs[i]].name < identity[studentIDs[j]].name
	})

	records := make([]map[string]string, 0, len(studentIDs))
	for _, id := range studentIDs {
		record := map[string]string{
			"Student Number": identity[id].number,
			"Student":        identity[id].name,
		}
		for _, day := range dates {
			record[day] = byStudent[id][day]
		}
		records = append(records, record)
	}

	return export.Dataset{Headers: headers, Rows: records}
}

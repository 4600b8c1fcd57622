package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/worklane/hr-api/pkg/errors"
	"github.com/worklane/hr-api/pkg/export"
)

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportService renders a worker's attendance history as a timesheet.
type ExportService struct {
	records attendanceRepository
	metrics *MetricsService
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(records attendanceRepository, metrics *MetricsService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		records: records,
		metrics: metrics,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

// ExportResult carries the rendered bytes and content metadata.
type ExportResult struct {
	ContentType string
	Filename    string
	Payload     []byte
}

var timesheetHeaders = []string{"Date", "Counted In", "Counted Out", "Break (min)", "Counted (h)", "Overtime", "Absence"}

// Timesheet renders the worker's sessions in the inclusive date range.
func (s *ExportService) Timesheet(ctx context.Context, workerID string, from, to time.Time, format ExportFormat) (*ExportResult, error) {
	if workerID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "worker id required")
	}
	if from.After(to) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start date is after end date")
	}
	start := time.Now()
	rows, err := s.records.Timesheet(ctx, workerID, from, to)
	s.metrics.ObserveDBQuery("timesheet", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timesheet")
	}

	dataset := export.Dataset{Headers: timesheetHeaders, Rows: make([]map[string]string, len(rows))}
	for i, row := range rows {
		dataset.Rows[i] = map[string]string{
			"Date":        row.WorkDate.Format("2006-01-02"),
			"Counted In":  formatClock(row.CountedTimeIn),
			"Counted Out": formatClock(row.CountedTimeOut),
			"Break (min)": strconv.FormatInt(row.BreakSeconds/60, 10),
			"Counted (h)": formatHours(row.CountedSeconds),
			"Overtime":    formatBool(row.IsOvertime),
			"Absence":     formatAbsence(row.AbsenceReason),
		}
	}

	name := fmt.Sprintf("timesheet-%s-%s", from.Format("20060102"), to.Format("20060102"))
	switch format {
	case ExportPDF:
		payload, err := s.pdf.Render(dataset, "Timesheet")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{ContentType: "application/pdf", Filename: name + ".pdf", Payload: payload}, nil
	case ExportCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{ContentType: "text/csv", Filename: name + ".csv", Payload: payload}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func formatClock(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("15:04")
}

func formatHours(seconds *int64) string {
	if seconds == nil {
		return ""
	}
	return strconv.FormatFloat(float64(*seconds)/3600, 'f', 2, 64)
}

func formatBool(v bool) string {
	if v {
		return "yes"
	}
	return ""
}

func formatAbsence(reason *string) string {
	if reason == nil {
		return ""
	}
	return *reason
}

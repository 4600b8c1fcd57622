package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/worklane/hr-api/internal/models"
	"github.com/worklane/hr-api/internal/repository"
	"github.com/worklane/hr-api/pkg/config"
	appErrors "github.com/worklane/hr-api/pkg/errors"
)

type attendanceRepository interface {
	Create(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error)
	FindByID(ctx context.Context, id, workerID string) (*models.AttendanceRecord, error)
	FindOpenByWorkerDate(ctx context.Context, workerID string, day time.Time) (*models.AttendanceRecord, error)
	Close(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error)
	AttachImages(ctx context.Context, attendanceID string, refs []string) ([]models.ReportImage, error)
	CountImages(ctx context.Context, attendanceID string) (int, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error)
	Timesheet(ctx context.Context, workerID string, from, to time.Time) ([]models.TimesheetRow, error)
}

type breakRepository interface {
	FindOpen(ctx context.Context, attendanceID string) (*models.BreakInterval, error)
	Insert(ctx context.Context, attendanceID string, at time.Time) (*models.BreakInterval, error)
	Close(ctx context.Context, id string, resume time.Time) (*models.BreakInterval, error)
	ListByRecord(ctx context.Context, attendanceID string) ([]models.BreakInterval, error)
}

type workerRepository interface {
	FindByID(ctx context.Context, id string) (*models.Worker, error)
}

// AttendanceService owns the attendance record lifecycle: clock-in, breaks,
// clock-out and the derived duration accounting.
type AttendanceService struct {
	records   attendanceRepository
	breaks    breakRepository
	workers   workerRepository
	schedule  *ShiftSchedule
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.AttendanceConfig
	overtime  time.Duration
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(records attendanceRepository, breaks breakRepository, workers workerRepository,
	schedule *ShiftSchedule, cache *CacheService, validate *validator.Validate, logger *zap.Logger,
	cfg config.AttendanceConfig, overtimeTolerance time.Duration) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ReportMaxLength <= 0 {
		cfg.ReportMaxLength = 255
	}
	if cfg.MaxReportImages <= 0 {
		cfg.MaxReportImages = 4
	}
	return &AttendanceService{
		records:   records,
		breaks:    breaks,
		workers:   workers,
		schedule:  schedule,
		cache:     cache,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		overtime:  overtimeTolerance,
	}
}

// ClockInRequest carries a clock-in event.
type ClockInRequest struct {
	WorkerID string  `json:"worker_id" validate:"required"`
	Evidence *string `json:"evidence" validate:"omitempty,max=512"`
}

// ClockOutRequest carries a clock-out event with the end-of-day report.
type ClockOutRequest struct {
	RecordID string   `json:"record_id" validate:"required"`
	Report   *string  `json:"report" validate:"omitempty"`
	Evidence *string  `json:"evidence" validate:"omitempty,max=512"`
	Images   []string `json:"images" validate:"omitempty,dive,required,max=512"`
}

// AttendanceView is a record with its break ledger and derived state.
type AttendanceView struct {
	Record models.AttendanceRecord `json:"record"`
	Breaks []models.BreakInterval  `json:"breaks,omitempty"`
	State  models.AttendanceState  `json:"state"`
}

// ClockIn opens a new attendance record for the worker. A concurrent or
// repeated clock-in on the same day fails on the database's uniqueness
// guarantee, never on an application lock.
func (s *AttendanceService) ClockIn(ctx context.Context, req ClockInRequest, at time.Time) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid clock-in payload")
	}
	assignment, err := s.resolveAssignment(ctx, req.WorkerID)
	if err != nil {
		return nil, err
	}
	counted, err := s.schedule.ClampTimeIn(assignment.Shift, at)
	if err != nil {
		return nil, err
	}
	workDate := dateOf(at)
	record := &models.AttendanceRecord{
		WorkerID:       req.WorkerID,
		WorkDate:       workDate,
		TimeIn:         &at,
		CountedTimeIn:  &counted,
		TimeInEvidence: req.Evidence,
	}
	stored, err := s.records.Create(ctx, record)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateOpen) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "worker already has an open attendance record for today")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clock in")
	}
	s.cache.InvalidateAttendance(ctx)
	return stored, nil
}

// StartBreak opens a break interval on an open record.
func (s *AttendanceService) StartBreak(ctx context.Context, workerID, recordID string, at time.Time) (*models.BreakInterval, error) {
	record, err := s.loadWorkedRecord(ctx, recordID, workerID)
	if err != nil {
		return nil, err
	}
	if record.TimeOut != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "attendance record is already closed")
	}
	if _, err := s.breaks.FindOpen(ctx, record.ID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "record is already on break")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check open break")
	}
	interval, err := s.breaks.Insert(ctx, record.ID, at)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start break")
	}
	s.cache.InvalidateAttendance(ctx)
	return interval, nil
}

// Resume closes the open break interval on a record.
func (s *AttendanceService) Resume(ctx context.Context, workerID, recordID string, at time.Time) (*models.BreakInterval, error) {
	record, err := s.loadWorkedRecord(ctx, recordID, workerID)
	if err != nil {
		return nil, err
	}
	open, err := s.breaks.FindOpen(ctx, record.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "no open break to resume")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to find open break")
	}
	if at.Before(open.BreakTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "resume time precedes break time")
	}
	closed, err := s.breaks.Close(ctx, open.ID, at)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resume break")
	}
	s.cache.InvalidateAttendance(ctx)
	return closed, nil
}

// ClockOut closes an open record: clamps the raw time-out, folds in the
// break ledger, stores the counted duration and the required-hours verdict,
// and flags overtime when the raw time-out exceeds the nominal end.
func (s *AttendanceService) ClockOut(ctx context.Context, workerID string, req ClockOutRequest, at time.Time) (*AttendanceView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid clock-out payload")
	}
	if req.Report != nil && len(*req.Report) > s.cfg.ReportMaxLength {
		return nil, appErrors.Clone(appErrors.ErrValidation, "report exceeds maximum length")
	}
	if len(req.Images) > s.cfg.MaxReportImages {
		return nil, appErrors.Clone(appErrors.ErrValidation, "too many report images")
	}
	record, err := s.loadWorkedRecord(ctx, req.RecordID, workerID)
	if err != nil {
		return nil, err
	}
	if record.TimeOut != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "attendance record is already closed")
	}
	if _, err := s.breaks.FindOpen(ctx, record.ID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "cannot clock out while on break")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check open break")
	}
	if at.Before(*record.TimeIn) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "clock-out precedes clock-in")
	}
	if len(req.Images) > 0 {
		existing, err := s.records.CountImages(ctx, record.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count report images")
		}
		if existing+len(req.Images) > s.cfg.MaxReportImages {
			return nil, appErrors.Clone(appErrors.ErrValidation, "too many report images")
		}
	}

	assignment, err := s.resolveAssignment(ctx, record.WorkerID)
	if err != nil {
		return nil, err
	}
	countedOut, err := s.schedule.ClampTimeOut(assignment.Shift, at, *record.TimeIn)
	if err != nil {
		return nil, err
	}
	overtime, err := s.schedule.IsOvertime(assignment.Shift, at, *record.TimeIn, s.overtime)
	if err != nil {
		return nil, err
	}

	breaks, err := s.breaks.ListByRecord(ctx, record.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load break ledger")
	}
	counted := CountedWorkDuration(*record.CountedTimeIn, countedOut, TotalBreakDuration(breaks))
	countedSeconds := int64(counted / time.Second)
	meets := s.schedule.MeetsRequiredHours(assignment.Employment, counted)

	record.TimeOut = &at
	record.CountedTimeOut = &countedOut
	record.TimeOutEvidence = req.Evidence
	record.Report = req.Report
	record.IsOvertime = overtime
	record.CountedSeconds = &countedSeconds
	record.MeetsRequired = &meets

	stored, err := s.records.Close(ctx, record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clock out")
	}

	if len(req.Images) > 0 {
		if _, err := s.records.AttachImages(ctx, stored.ID, req.Images); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach report images")
		}
	}

	s.cache.InvalidateAttendance(ctx)
	return &AttendanceView{Record: *stored, Breaks: breaks, State: models.AttendanceClosed}, nil
}

// Today returns the worker's record for the given day with its break
// ledger, served from the cache when a registered view is still live.
func (s *AttendanceService) Today(ctx context.Context, workerID string, now time.Time) (*AttendanceView, error) {
	key := fmt.Sprintf("attendance:today:%s:%s", workerID, dateOf(now).Format("2006-01-02"))
	var cached AttendanceView
	if s.cache.GetView(ctx, key, &cached) {
		return &cached, nil
	}
	record, err := s.records.FindOpenByWorkerDate(ctx, workerID, dateOf(now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no open attendance record for today")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load today's record")
	}
	breaks, err := s.breaks.ListByRecord(ctx, record.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load break ledger")
	}
	hasOpen := false
	for i := range breaks {
		if !breaks[i].Closed() {
			hasOpen = true
			break
		}
	}
	view := AttendanceView{Record: *record, Breaks: breaks, State: record.State(hasOpen)}
	s.cache.SetView(ctx, key, view, s.cfg.CacheTTL)
	return &view, nil
}

// attendancePage is the cached shape of one listing page.
type attendancePage struct {
	Records    []models.AttendanceRecord `json:"records"`
	Pagination models.Pagination         `json:"pagination"`
}

// List returns paginated attendance rows, served from cache when possible.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	key := listCacheKey(filter)
	var cached attendancePage
	if s.cache.GetView(ctx, key, &cached) {
		pagination := cached.Pagination
		return cached.Records, &pagination, nil
	}
	rows, total, err := s.records.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance records")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	s.cache.SetView(ctx, key, attendancePage{Records: rows, Pagination: *pagination}, s.cfg.CacheTTL)
	return rows, pagination, nil
}

func listCacheKey(f models.AttendanceFilter) string {
	from, to := "", ""
	if f.DateFrom != nil {
		from = f.DateFrom.Format("2006-01-02")
	}
	if f.DateTo != nil {
		to = f.DateTo.Format("2006-01-02")
	}
	return fmt.Sprintf("attendance:list:%s:%s:%s:%t:%d:%d:%s:%s",
		f.WorkerID, from, to, f.LeaveOnly, f.Page, f.PageSize, f.SortBy, f.SortOrder)
}

func (s *AttendanceService) loadWorkedRecord(ctx context.Context, recordID, workerID string) (*models.AttendanceRecord, error) {
	record, err := s.records.FindByID(ctx, recordID, workerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	if record.IsLeave() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "record is a leave record")
	}
	return record, nil
}

func (s *AttendanceService) resolveAssignment(ctx context.Context, workerID string) (models.ShiftAssignment, error) {
	worker, err := s.workers.FindByID(ctx, workerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ShiftAssignment{}, appErrors.Clone(appErrors.ErrNotFound, "worker not found")
		}
		return models.ShiftAssignment{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load worker")
	}
	assignment := models.ResolveShiftAssignment(worker.Labels)
	if !assignment.Shift.Valid() {
		return models.ShiftAssignment{}, appErrors.Clone(appErrors.ErrConfiguration, "worker has no recognized shift label")
	}
	return assignment, nil
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

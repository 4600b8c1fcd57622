package service

import (
	"context"
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

type leaveRepository interface {
	InsertBatch(ctx context.Context, records []models.AttendanceRecord, chunkSize int) ([]models.AttendanceRecord, error)
	CountRequestedSince(ctx context.Context, workerID string, since time.Time) (int, error)
	BulkApprove(ctx context.Context, ids []string, approvedBy string) ([]models.AttendanceRecord, error)
	BulkReject(ctx context.Context, ids []string) ([]models.AttendanceRecord, error)
}

// LeaveService expands leave requests into per-day attendance records and
// runs the approval workflow.
type LeaveService struct {
	repo      leaveRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.LeaveConfig
	now       func() time.Time
}

// NewLeaveService constructs the leave service.
func NewLeaveService(repo leaveRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg config.LeaveConfig) *LeaveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 14
	}
	return &LeaveService{repo: repo, cache: cache, validator: validate, logger: logger, cfg: cfg, now: func() time.Time { return time.Now().UTC() }}
}

// LeaveRequest is a date-range absence request for one worker.
type LeaveRequest struct {
	WorkerID  string `json:"worker_id" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
	Reason    string `json:"reason" validate:"required,max=255"`
}

// BulkLeaveActionRequest targets existing pending leave records.
type BulkLeaveActionRequest struct {
	RecordIDs []string `json:"record_ids" validate:"required,min=1,dive,required"`
}

// ExpandAndStore turns the inclusive date range into one pending leave
// record per calendar day, written atomically. Requests exceeding any
// configured cap store nothing.
func (s *LeaveService) ExpandAndStore(ctx context.Context, req LeaveRequest) ([]models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave payload")
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start date, expected YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid end date, expected YYYY-MM-DD")
	}
	if start.After(end) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start date is after end date")
	}

	days := make([]time.Time, 0, int(end.Sub(start).Hours()/24)+1)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		days = append(days, day)
	}

	if err := s.checkCaps(ctx, req.WorkerID, len(days)); err != nil {
		return nil, err
	}

	reason := req.Reason
	records := make([]models.AttendanceRecord, len(days))
	for i, day := range days {
		d := day
		records[i] = models.AttendanceRecord{
			WorkerID:      req.WorkerID,
			WorkDate:      d,
			AbsenceDate:   &d,
			AbsenceReason: &reason,
		}
	}

	stored, err := s.repo.InsertBatch(ctx, records, s.cfg.BatchSize)
	if err != nil {
		if errors.Is(err, repository.ErrLeaveDayExists) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "leave already requested for a day in this range")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store leave records")
	}
	s.cache.InvalidateAttendance(ctx)
	return stored, nil
}

// Approve stamps approval on a single pending leave record.
func (s *LeaveService) Approve(ctx context.Context, recordID, approvedBy string) (*models.AttendanceRecord, error) {
	updated, err := s.repo.BulkApprove(ctx, []string{recordID}, approvedBy)
	if err != nil {
		if errors.Is(err, repository.ErrLeaveNotPending) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave record not found or already processed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve leave")
	}
	s.cache.InvalidateAttendance(ctx)
	return &updated[0], nil
}

// Reject soft-deletes a single pending leave record.
func (s *LeaveService) Reject(ctx context.Context, recordID string) error {
	if _, err := s.repo.BulkReject(ctx, []string{recordID}); err != nil {
		if errors.Is(err, repository.ErrLeaveNotPending) {
			return appErrors.Clone(appErrors.ErrConflict, "leave record is not pending approval")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject leave")
	}
	s.cache.InvalidateAttendance(ctx)
	return nil
}

// BulkApprove approves every listed record or none of them.
func (s *LeaveService) BulkApprove(ctx context.Context, req BulkLeaveActionRequest, approvedBy string) ([]models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk approve payload")
	}
	ids := dedupe(req.RecordIDs)
	updated, err := s.repo.BulkApprove(ctx, ids, approvedBy)
	if err != nil {
		if errors.Is(err, repository.ErrLeaveNotPending) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "one or more leave records are missing or already processed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bulk approve leave")
	}
	s.cache.InvalidateAttendance(ctx)
	return updated, nil
}

// BulkReject rejects every listed record or none of them.
func (s *LeaveService) BulkReject(ctx context.Context, req BulkLeaveActionRequest) ([]models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk reject payload")
	}
	ids := dedupe(req.RecordIDs)
	updated, err := s.repo.BulkReject(ctx, ids)
	if err != nil {
		if errors.Is(err, repository.ErrLeaveNotPending) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "one or more leave records are not pending approval")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bulk reject leave")
	}
	s.cache.InvalidateAttendance(ctx)
	return updated, nil
}

// checkCaps compares the request against each configured cap, every count
// evaluated over the trailing window. The day cap bounds days already
// filed during the current day; the range being filed is one request and
// does not count against it, so a multi-day range is still a single
// filing. The month and year caps bound the total including the new days.
func (s *LeaveService) checkCaps(ctx context.Context, workerID string, newDays int) error {
	now := s.now()
	windowStart := now.AddDate(0, 0, -s.cfg.WindowDays)

	type cap struct {
		limit      int
		since      time.Time
		label      string
		includeNew bool
	}
	caps := []cap{
		{s.cfg.MaxPerDay, laterOf(windowStart, startOfDay(now)), "day", false},
		{s.cfg.MaxPerMonth, laterOf(windowStart, startOfMonth(now)), "month", true},
		{s.cfg.MaxPerYear, laterOf(windowStart, startOfYear(now)), "year", true},
	}
	for _, c := range caps {
		if c.limit <= 0 {
			continue
		}
		existing, err := s.repo.CountRequestedSince(ctx, workerID, c.since)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to evaluate leave caps")
		}
		exceeded := existing+newDays > c.limit
		if !c.includeNew {
			exceeded = existing >= c.limit
		}
		if exceeded {
			return appErrors.Clone(appErrors.ErrLimitExceeded,
				fmt.Sprintf("leave cap exceeded: at most %d days per %s", c.limit, c.label))
		}
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func startOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
}

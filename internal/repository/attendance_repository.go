package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/worklane/hr-api/internal/models"
)

// ErrDuplicateOpen is returned when a second open record for the same worker
// and day hits the partial unique index.
var ErrDuplicateOpen = errors.New("worker already has an open attendance record for this day")

const attendanceColumns = `id, worker_id, work_date, time_in, time_out, counted_time_in, counted_time_out,
time_in_evidence, time_out_evidence, report, is_overtime, counted_seconds, meets_required,
absence_date, absence_reason, absence_approved_at, absence_approved_by, created_at, updated_at, deleted_at`

// AttendanceRepository handles persistence for attendance records and their
// report images.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Create inserts a worked-day record. Concurrency on (worker, day) is
// serialized by the uq_attendance_open partial unique index, not by locks.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.CreatedAt = now
	record.UpdatedAt = now
	query := fmt.Sprintf(`INSERT INTO attendance_records
(id, worker_id, work_date, time_in, counted_time_in, time_in_evidence, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING %s`, attendanceColumns)
	var stored models.AttendanceRecord
	err := r.db.GetContext(ctx, &stored, query,
		record.ID, record.WorkerID, record.WorkDate, record.TimeIn, record.CountedTimeIn,
		record.TimeInEvidence, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateOpen
		}
		return nil, fmt.Errorf("create attendance record: %w", err)
	}
	return &stored, nil
}

// FindByID loads a live record, optionally scoped to a worker. Records
// belonging to someone else surface as sql.ErrNoRows so callers cannot
// distinguish them from missing ones.
func (r *AttendanceRepository) FindByID(ctx context.Context, id, workerID string) (*models.AttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_records WHERE id = $1 AND deleted_at IS NULL`, attendanceColumns)
	args := []interface{}{id}
	if workerID != "" {
		query += " AND worker_id = $2"
		args = append(args, workerID)
	}
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, args...); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindOpenByWorkerDate returns the worker's open record for a work day.
func (r *AttendanceRepository) FindOpenByWorkerDate(ctx context.Context, workerID string, day time.Time) (*models.AttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_records
WHERE worker_id = $1 AND work_date = $2 AND time_out IS NULL AND absence_date IS NULL AND deleted_at IS NULL`, attendanceColumns)
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, workerID, day); err != nil {
		return nil, err
	}
	return &record, nil
}

// Close writes the clock-out outcome onto an open record.
func (r *AttendanceRepository) Close(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	record.UpdatedAt = time.Now().UTC()
	query := fmt.Sprintf(`UPDATE attendance_records
SET time_out = $2, counted_time_out = $3, time_out_evidence = $4, report = $5,
    is_overtime = $6, counted_seconds = $7, meets_required = $8, updated_at = $9
WHERE id = $1 AND time_out IS NULL AND deleted_at IS NULL
RETURNING %s`, attendanceColumns)
	var stored models.AttendanceRecord
	err := r.db.GetContext(ctx, &stored, query,
		record.ID, record.TimeOut, record.CountedTimeOut, record.TimeOutEvidence, record.Report,
		record.IsOvertime, record.CountedSeconds, record.MeetsRequired, record.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("close attendance record: %w", err)
	}
	return &stored, nil
}

// SoftDelete marks a record deleted, keeping the row for audit.
func (r *AttendanceRepository) SoftDelete(ctx context.Context, id string) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE attendance_records SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, now)
	if err != nil {
		return fmt.Errorf("soft delete attendance record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete attendance record: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AttachImages stores report image references for a record.
func (r *AttendanceRepository) AttachImages(ctx context.Context, attendanceID string, refs []string) ([]models.ReportImage, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	images := make([]models.ReportImage, len(refs))
	values := make([]string, len(refs))
	args := make([]interface{}, 0, len(refs)*4)
	for i, ref := range refs {
		images[i] = models.ReportImage{ID: uuid.NewString(), AttendanceID: attendanceID, Ref: ref, CreatedAt: now}
		values[i] = fmt.Sprintf("($%d, $%d, $%d, $%d)", i*4+1, i*4+2, i*4+3, i*4+4)
		args = append(args, images[i].ID, attendanceID, ref, now)
	}
	query := fmt.Sprintf(`INSERT INTO attendance_report_images (id, attendance_id, ref, created_at) VALUES %s`,
		strings.Join(values, ", "))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("attach report images: %w", err)
	}
	return images, nil
}

// CountImages returns how many report images a record already has.
func (r *AttendanceRepository) CountImages(ctx context.Context, attendanceID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM attendance_report_images WHERE attendance_id = $1`, attendanceID)
	if err != nil {
		return 0, fmt.Errorf("count report images: %w", err)
	}
	return count, nil
}

// List returns attendance rows matching the provided filter.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	where := []string{"deleted_at IS NULL"}
	args := []interface{}{}
	if filter.WorkerID != "" {
		where = append(where, fmt.Sprintf("worker_id = $%d", len(args)+1))
		args = append(args, filter.WorkerID)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("COALESCE(absence_date, work_date) >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("COALESCE(absence_date, work_date) <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if filter.LeaveOnly {
		where = append(where, "absence_date IS NOT NULL")
	}
	whereClause := strings.Join(where, " AND ")

	allowedSort := map[string]string{
		"work_date":  "work_date",
		"created_at": "created_at",
	}
	sortColumn, ok := allowedSort[filter.SortBy]
	if !ok {
		sortColumn = "work_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM attendance_records WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		attendanceColumns, whereClause, sortColumn, order, size, offset)
	var rows []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance records: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM attendance_records WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance records: %w", err)
	}
	return rows, total, nil
}

// Timesheet returns one row per session in the range with the summed break
// time, worked days and leave days alike.
func (r *AttendanceRepository) Timesheet(ctx context.Context, workerID string, from, to time.Time) ([]models.TimesheetRow, error) {
	query := `SELECT ar.work_date, ar.counted_time_in, ar.counted_time_out,
COALESCE(SUM(EXTRACT(EPOCH FROM bi.resume_time - bi.break_time)), 0)::bigint AS break_seconds,
ar.counted_seconds, ar.is_overtime, ar.absence_reason
FROM attendance_records ar
LEFT JOIN break_intervals bi ON bi.attendance_id = ar.id AND bi.resume_time IS NOT NULL
WHERE ar.worker_id = $1 AND COALESCE(ar.absence_date, ar.work_date) BETWEEN $2 AND $3 AND ar.deleted_at IS NULL
GROUP BY ar.id
ORDER BY ar.work_date ASC`
	var rows []models.TimesheetRow
	if err := r.db.SelectContext(ctx, &rows, query, workerID, from, to); err != nil {
		return nil, fmt.Errorf("timesheet: %w", err)
	}
	return rows, nil
}

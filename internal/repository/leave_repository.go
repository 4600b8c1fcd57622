package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/worklane/hr-api/internal/models"
)

var (
	// ErrLeaveDayExists is returned when a requested day collides with a
	// live leave record that cannot be reactivated.
	ErrLeaveDayExists = errors.New("leave record already exists for a requested day")

	// ErrLeaveNotPending is returned by bulk operations when any target row
	// is missing, already approved, or already rejected.
	ErrLeaveNotPending = errors.New("one or more leave records are not pending approval")
)

// LeaveRepository persists leave records produced by batch expansion.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository constructs the repository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// InsertBatch writes all leave records inside one transaction using
// chunked multi-row inserts. A day that collides with a soft-deleted leave
// row reactivates that row in place; a collision with a live row aborts and
// rolls back the whole batch.
func (r *LeaveRepository) InsertBatch(ctx context.Context, records []models.AttendanceRecord, chunkSize int) ([]models.AttendanceRecord, error) {
	if len(records) == 0 {
		return nil, nil
	}
	if chunkSize <= 0 {
		chunkSize = 500
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin leave batch: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	stored := make([]models.AttendanceRecord, 0, len(records))
	for start := 0; start < len(records); start += chunkSize {
		end := start + chunkSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]
		values := make([]string, len(chunk))
		args := make([]interface{}, 0, len(chunk)*7)
		for i := range chunk {
			rec := &chunk[i]
			if rec.ID == "" {
				rec.ID = uuid.NewString()
			}
			rec.CreatedAt = now
			rec.UpdatedAt = now
			base := len(args)
			values[i] = fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7)
			args = append(args, rec.ID, rec.WorkerID, rec.WorkDate, rec.AbsenceDate, rec.AbsenceReason, rec.CreatedAt, rec.UpdatedAt)
		}
		query := fmt.Sprintf(`INSERT INTO attendance_records
(id, worker_id, work_date, absence_date, absence_reason, created_at, updated_at)
VALUES %s
ON CONFLICT (worker_id, absence_date) DO UPDATE
SET deleted_at = NULL, absence_reason = EXCLUDED.absence_reason,
    absence_approved_at = NULL, absence_approved_by = NULL, updated_at = EXCLUDED.updated_at
WHERE attendance_records.deleted_at IS NOT NULL
RETURNING %s`, strings.Join(values, ", "), attendanceColumns)

		var inserted []models.AttendanceRecord
		if err := tx.SelectContext(ctx, &inserted, query, args...); err != nil {
			return nil, fmt.Errorf("insert leave batch: %w", err)
		}
		if len(inserted) != len(chunk) {
			return nil, ErrLeaveDayExists
		}
		stored = append(stored, inserted...)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit leave batch: %w", err)
	}
	committed = true
	return stored, nil
}

// CountRequestedSince counts the worker's live leave days requested at or
// after the given instant. Used by the cap checks.
func (r *LeaveRepository) CountRequestedSince(ctx context.Context, workerID string, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM attendance_records
WHERE worker_id = $1 AND absence_date IS NOT NULL AND deleted_at IS NULL AND created_at >= $2`
	if err := r.db.GetContext(ctx, &count, query, workerID, since); err != nil {
		return 0, fmt.Errorf("count requested leave days: %w", err)
	}
	return count, nil
}

// BulkApprove stamps approval on pending leave rows. All rows must exist
// and be pending; otherwise nothing is written.
func (r *LeaveRepository) BulkApprove(ctx context.Context, ids []string, approvedBy string) ([]models.AttendanceRecord, error) {
	return r.bulkUpdate(ctx, ids, func(tx *sqlx.Tx, now time.Time) ([]models.AttendanceRecord, error) {
		query := fmt.Sprintf(`UPDATE attendance_records
SET absence_approved_at = $2, absence_approved_by = $3, updated_at = $2
WHERE id = ANY($1)
RETURNING %s`, attendanceColumns)
		var updated []models.AttendanceRecord
		if err := tx.SelectContext(ctx, &updated, query, pq.Array(ids), now, approvedBy); err != nil {
			return nil, fmt.Errorf("bulk approve leave: %w", err)
		}
		return updated, nil
	})
}

// BulkReject soft-deletes pending leave rows with the same all-or-nothing
// discipline as BulkApprove.
func (r *LeaveRepository) BulkReject(ctx context.Context, ids []string) ([]models.AttendanceRecord, error) {
	return r.bulkUpdate(ctx, ids, func(tx *sqlx.Tx, now time.Time) ([]models.AttendanceRecord, error) {
		query := fmt.Sprintf(`UPDATE attendance_records
SET deleted_at = $2, updated_at = $2
WHERE id = ANY($1)
RETURNING %s`, attendanceColumns)
		var updated []models.AttendanceRecord
		if err := tx.SelectContext(ctx, &updated, query, pq.Array(ids), now); err != nil {
			return nil, fmt.Errorf("bulk reject leave: %w", err)
		}
		return updated, nil
	})
}

func (r *LeaveRepository) bulkUpdate(ctx context.Context, ids []string, apply func(tx *sqlx.Tx, now time.Time) ([]models.AttendanceRecord, error)) ([]models.AttendanceRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin leave bulk update: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	var pending []string
	lockQuery := `SELECT id FROM attendance_records
WHERE id = ANY($1) AND absence_date IS NOT NULL AND absence_approved_at IS NULL AND deleted_at IS NULL
FOR UPDATE`
	if err := tx.SelectContext(ctx, &pending, lockQuery, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("lock leave rows: %w", err)
	}
	if len(pending) != len(ids) {
		return nil, ErrLeaveNotPending
	}

	updated, err := apply(tx, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit leave bulk update: %w", err)
	}
	committed = true
	return updated, nil
}

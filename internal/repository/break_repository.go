package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/worklane/hr-api/internal/models"
)

// BreakRepository handles persistence for break intervals.
type BreakRepository struct {
	db *sqlx.DB
}

// NewBreakRepository constructs the repository.
func NewBreakRepository(db *sqlx.DB) *BreakRepository {
	return &BreakRepository{db: db}
}

// FindOpen returns the unresumed interval for a record, if any.
func (r *BreakRepository) FindOpen(ctx context.Context, attendanceID string) (*models.BreakInterval, error) {
	query := `SELECT id, attendance_id, break_time, resume_time, created_at
FROM break_intervals WHERE attendance_id = $1 AND resume_time IS NULL`
	var interval models.BreakInterval
	if err := r.db.GetContext(ctx, &interval, query, attendanceID); err != nil {
		return nil, err
	}
	return &interval, nil
}

// Insert opens a new break interval.
func (r *BreakRepository) Insert(ctx context.Context, attendanceID string, at time.Time) (*models.BreakInterval, error) {
	interval := models.BreakInterval{
		ID:           uuid.NewString(),
		AttendanceID: attendanceID,
		BreakTime:    at,
		CreatedAt:    time.Now().UTC(),
	}
	query := `INSERT INTO break_intervals (id, attendance_id, break_time, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, interval.ID, interval.AttendanceID, interval.BreakTime, interval.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert break interval: %w", err)
	}
	return &interval, nil
}

// Close stamps the resume time on an open interval.
func (r *BreakRepository) Close(ctx context.Context, id string, resume time.Time) (*models.BreakInterval, error) {
	query := `UPDATE break_intervals SET resume_time = $2 WHERE id = $1 AND resume_time IS NULL
RETURNING id, attendance_id, break_time, resume_time, created_at`
	var interval models.BreakInterval
	if err := r.db.GetContext(ctx, &interval, query, id, resume); err != nil {
		return nil, fmt.Errorf("close break interval: %w", err)
	}
	return &interval, nil
}

// ListByRecord returns all intervals for a record in insertion order, which
// is kept stable for audit display.
func (r *BreakRepository) ListByRecord(ctx context.Context, attendanceID string) ([]models.BreakInterval, error) {
	query := `SELECT id, attendance_id, break_time, resume_time, created_at
FROM break_intervals WHERE attendance_id = $1 ORDER BY created_at ASC`
	var intervals []models.BreakInterval
	if err := r.db.SelectContext(ctx, &intervals, query, attendanceID); err != nil {
		return nil, fmt.Errorf("list break intervals: %w", err)
	}
	return intervals, nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/worklane/hr-api/internal/models"
)

const workerColumns = `id, full_name, email, password_hash, role, active, created_at, updated_at, last_login_at`

// WorkerRepository handles persistence for worker accounts and their role
// labels.
type WorkerRepository struct {
	db *sqlx.DB
}

// NewWorkerRepository constructs the repository.
func NewWorkerRepository(db *sqlx.DB) *WorkerRepository {
	return &WorkerRepository{db: db}
}

// FindByID loads a worker together with its role labels.
func (r *WorkerRepository) FindByID(ctx context.Context, id string) (*models.Worker, error) {
	query := fmt.Sprintf(`SELECT %s FROM workers WHERE id = $1`, workerColumns)
	var worker models.Worker
	if err := r.db.GetContext(ctx, &worker, query, id); err != nil {
		return nil, err
	}
	labels, err := r.labels(ctx, id)
	if err != nil {
		return nil, err
	}
	worker.Labels = labels
	return &worker, nil
}

// FindByEmail loads a worker by email for authentication.
func (r *WorkerRepository) FindByEmail(ctx context.Context, email string) (*models.Worker, error) {
	query := fmt.Sprintf(`SELECT %s FROM workers WHERE email = $1`, workerColumns)
	var worker models.Worker
	if err := r.db.GetContext(ctx, &worker, query, email); err != nil {
		return nil, err
	}
	return &worker, nil
}

// UpdateLastLogin stamps the latest successful login.
func (r *WorkerRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE workers SET last_login_at = $2, updated_at = $2 WHERE id = $1`, id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

func (r *WorkerRepository) labels(ctx context.Context, workerID string) ([]string, error) {
	var labels []string
	query := `SELECT label FROM worker_labels WHERE worker_id = $1 ORDER BY label`
	if err := r.db.SelectContext(ctx, &labels, query, workerID); err != nil {
		return nil, fmt.Errorf("load worker labels: %w", err)
	}
	return labels, nil
}

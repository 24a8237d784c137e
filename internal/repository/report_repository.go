package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/intransparency/platform-api/internal/models"
	appErrors "github.com/intransparency/platform-api/pkg/errors"
)

// ReportRepository persists asynchronous export jobs.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository instantiates the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportColumns = `id, requested_by, type, params, status, file_path, error_text, created_at, updated_at, finished_at`

// Create inserts a new job row.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	query := `INSERT INTO report_jobs (id, requested_by, type, params, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $6)`
	if _, err := r.db.ExecContext(ctx, query, job.ID, job.RequestedBy, job.Type, job.Params, job.Status, job.CreatedAt); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

// FindByID fetches a job row.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.ReportJob, error) {
	query := "SELECT " + reportColumns + " FROM report_jobs WHERE id = $1"

	var job models.ReportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("find report job: %w", err)
	}
	return &job, nil
}

// UpdateStatusParams carries a job status transition.
type UpdateStatusParams struct {
	ID         string
	Status     string
	FilePath   *string
	ErrorText  *string
	FinishedAt *time.Time
}

// UpdateStatus applies a status transition to a job.
func (r *ReportRepository) UpdateStatus(ctx context.Context, params UpdateStatusParams) error {
	query := `UPDATE report_jobs
        SET status = $2, file_path = $3, error_text = $4, finished_at = $5, updated_at = NOW()
        WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, params.ID, params.Status, params.FilePath, params.ErrorText, params.FinishedAt); err != nil {
		return fmt.Errorf("update report job: %w", err)
	}
	return nil
}

// ListPending returns jobs left queued or processing, oldest first. Used on
// startup to recover work interrupted by a restart.
func (r *ReportRepository) ListPending(ctx context.Context) ([]models.ReportJob, error) {
	query := "SELECT " + reportColumns + ` FROM report_jobs
        WHERE status IN ($1, $2)
        ORDER BY created_at ASC`

	var jobs []models.ReportJob
	if err := r.db.SelectContext(ctx, &jobs, query, models.ReportStatusQueued, models.ReportStatusProcessing); err != nil {
		return nil, fmt.Errorf("list pending report jobs: %w", err)
	}
	return jobs, nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/rollcall-hq/constituent-export/internal/export/domain"
	"github.com/rollcall-hq/constituent-export/shared/postgresql"
)

// Jobs persists export jobs in PostgreSQL.
type Jobs struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewJobs creates a new Jobs store.
func NewJobs(pg *postgresql.Client, logger *slog.Logger) *Jobs {
	return &Jobs{
		db:     pg.GetDB(),
		logger: logger,
	}
}

func (s *Jobs) CreateJob(ctx context.Context, job *domain.ExportJob) error {
	query := `
		INSERT INTO export_jobs (
			job_id, export_type, format, filters,
			status, progress, created_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		job.JobID,
		job.ExportType,
		job.Format,
		job.Filters,
		job.Status,
		job.Progress,
		job.CreatedBy,
		job.CreatedAt,
		job.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create export job: %w", err)
	}

	return nil
}

func (s *Jobs) GetJob(ctx context.Context, jobID string) (*domain.ExportJob, error) {
	var job domain.ExportJob
	query := `
		SELECT
			job_id, export_type, format, filters,
			status, progress, total_records, processed_records,
			file_url, file_name, file_size_kb, error_message,
			created_by, created_at, updated_at
		FROM export_jobs
		WHERE job_id = $1
	`

	err := s.db.GetContext(ctx, &job, query, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get export job: %w", err)
	}

	return &job, nil
}

func (s *Jobs) ListJobs(ctx context.Context, userID string, limit int) ([]domain.ExportJob, error) {
	query := `
		SELECT
			job_id, export_type, format, filters,
			status, progress, total_records, processed_records,
			file_url, file_name, file_size_kb, error_message,
			created_by, created_at, updated_at
		FROM export_jobs
		WHERE created_by = $1
		ORDER BY created_at DESC, job_id DESC
		LIMIT $2
	`

	var jobs []domain.ExportJob
	err := s.db.SelectContext(ctx, &jobs, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list export jobs: %w", err)
	}

	return jobs, nil
}

// MarkProcessing moves a pending job into processing with progress reset to 0.
// The status guard keeps terminal jobs immutable.
func (s *Jobs) MarkProcessing(ctx context.Context, jobID string) error {
	query := `
		UPDATE export_jobs
		SET status = $1,
		    progress = 0,
		    updated_at = NOW()
		WHERE job_id = $2 AND status = $3
	`

	result, err := s.db.ExecContext(ctx, query, domain.JobStatusProcessing, jobID, domain.JobStatusPending)
	if err != nil {
		return fmt.Errorf("failed to mark job processing: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrJobNotFound
	}

	return nil
}

// UpdateProgress writes one checkpoint. The GREATEST guard keeps progress
// monotonic even if a write is retried out of order.
func (s *Jobs) UpdateProgress(ctx context.Context, jobID string, progress int, totalRecords, processedRecords *int) error {
	query := `
		UPDATE export_jobs
		SET progress = GREATEST(progress, $1),
		    total_records = COALESCE($2, total_records),
		    processed_records = COALESCE($3, processed_records),
		    updated_at = NOW()
		WHERE job_id = $4 AND status = $5
	`

	_, err := s.db.ExecContext(ctx, query, progress, totalRecords, processedRecords, jobID, domain.JobStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}

	s.logger.Debug("Export progress updated",
		slog.String("job_id", jobID),
		slog.Int("progress", progress),
	)

	return nil
}

func (s *Jobs) MarkCompleted(ctx context.Context, jobID string, fileURL, fileName string, fileSizeKB int) error {
	query := `
		UPDATE export_jobs
		SET status = $1,
		    progress = 100,
		    file_url = $2,
		    file_name = $3,
		    file_size_kb = $4,
		    updated_at = NOW()
		WHERE job_id = $5 AND status = $6
	`

	_, err := s.db.ExecContext(ctx, query, domain.JobStatusCompleted, fileURL, fileName, fileSizeKB, jobID, domain.JobStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}

	s.logger.Info("Export job completed",
		slog.String("job_id", jobID),
		slog.String("file_name", fileName),
	)

	return nil
}

// MarkFailed records the failure message and freezes progress at its last
// written value.
func (s *Jobs) MarkFailed(ctx context.Context, jobID string, message string) error {
	query := `
		UPDATE export_jobs
		SET status = $1,
		    error_message = $2,
		    updated_at = NOW()
		WHERE job_id = $3 AND status IN ($4, $5)
	`

	_, err := s.db.ExecContext(ctx, query, domain.JobStatusFailed, message, jobID,
		domain.JobStatusPending, domain.JobStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}

	s.logger.Warn("Export job failed",
		slog.String("job_id", jobID),
		slog.String("error_message", message),
	)

	return nil
}

package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rollcall-hq/constituent-export/internal/export/domain"
)

// JobStore is the durable record of export jobs. A job row is only ever
// written by its own run after creation.
type JobStore interface {
	CreateJob(ctx context.Context, job *domain.ExportJob) error
	GetJob(ctx context.Context, jobID string) (*domain.ExportJob, error)
	ListJobs(ctx context.Context, userID string, limit int) ([]domain.ExportJob, error)
	MarkProcessing(ctx context.Context, jobID string) error
	UpdateProgress(ctx context.Context, jobID string, progress int, totalRecords, processedRecords *int) error
	MarkCompleted(ctx context.Context, jobID string, fileURL, fileName string, fileSizeKB int) error
	MarkFailed(ctx context.Context, jobID string, message string) error
}

// Extractor reads the source dataset. The filter descriptor passes through
// unmodified; its interpretation belongs to the implementation.
type Extractor interface {
	CountVoters(ctx context.Context, filters domain.Filters) (int, error)
	FetchVoters(ctx context.Context, filters domain.Filters) ([]domain.Voter, error)
	PhonesByVoterID(ctx context.Context, voterIDs []string) (map[string][]domain.PhoneEntry, error)
}

// Orchestrator composes extraction, expansion, encoding and publishing into
// one background run per export job, writing durable checkpoints along the
// way.
type Orchestrator struct {
	logger     *slog.Logger
	jobs       JobStore
	extractor  Extractor
	publisher  *Publisher
	metrics    *Metrics
	runTimeout time.Duration
	now        func() time.Time
}

// Config holds orchestrator dependencies.
type Config struct {
	Logger     *slog.Logger
	Jobs       JobStore
	Extractor  Extractor
	Publisher  *Publisher
	Metrics    *Metrics
	RunTimeout time.Duration
}

// NewOrchestrator creates a new Orchestrator instance.
func NewOrchestrator(cfg *Config) *Orchestrator {
	return &Orchestrator{
		logger:     cfg.Logger,
		jobs:       cfg.Jobs,
		extractor:  cfg.Extractor,
		publisher:  cfg.Publisher,
		metrics:    cfg.Metrics,
		runTimeout: cfg.RunTimeout,
		now:        time.Now,
	}
}

// Dispatch launches the processing run for an already-created job in a
// detached goroutine. The caller never waits: the outcome is observable only
// through later reads of the job store. A recover guard keeps a panicking run
// from taking down the process; the job is marked failed instead.
func (o *Orchestrator) Dispatch(job *domain.ExportJob) {
	go func() {
		start := o.now()
		defer func() {
			if r := recover(); r != nil {
				o.logger.Error("Export run panicked",
					slog.String("job_id", job.JobID),
					slog.Any("panic", r),
				)
				o.metrics.runFailed(job.Format, o.now().Sub(start))
				o.markFailed(job, fmt.Sprintf("internal error: %v", r))
			}
		}()

		ctx := context.Background()
		if o.runTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, o.runTimeout)
			defer cancel()
		}

		o.Run(ctx, job)
	}()
}

// Run executes the pipeline synchronously and records the terminal state. Any
// error transitions the job to failed with progress frozen at its last
// checkpoint; the job is never left in processing once an error is known.
func (o *Orchestrator) Run(ctx context.Context, job *domain.ExportJob) {
	start := o.now()
	o.metrics.runStarted(job.Format)

	if err := o.run(ctx, job); err != nil {
		o.logger.Error("Export run failed",
			slog.String("job_id", job.JobID),
			slog.String("export_type", job.ExportType),
			slog.String("format", job.Format),
			slog.String("error", err.Error()),
		)

		message := err.Error()
		if message == "" {
			message = "export processing failed"
		}
		o.markFailed(job, message)
		o.metrics.runFailed(job.Format, o.now().Sub(start))
		return
	}

	o.logger.Info("Export run completed",
		slog.String("job_id", job.JobID),
		slog.String("export_type", job.ExportType),
		slog.String("format", job.Format),
		slog.Duration("elapsed", o.now().Sub(start)),
	)
	o.metrics.runCompleted(job.Format, o.now().Sub(start))
}

// run walks the fixed checkpoint sequence: 0 (processing), 5 (count), 20
// (fetch), 30 (expansion), 70 (encode), 100 (publish, completed).
func (o *Orchestrator) run(ctx context.Context, job *domain.ExportJob) error {
	if err := o.jobs.MarkProcessing(ctx, job.JobID); err != nil {
		return fmt.Errorf("failed to mark job processing: %w", err)
	}

	total, err := o.extractor.CountVoters(ctx, job.Filters)
	if err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}
	if err := o.jobs.UpdateProgress(ctx, job.JobID, 5, &total, nil); err != nil {
		return fmt.Errorf("failed to record total: %w", err)
	}

	voters, err := o.extractor.FetchVoters(ctx, job.Filters)
	if err != nil {
		return fmt.Errorf("failed to fetch records: %w", err)
	}
	if err := o.jobs.UpdateProgress(ctx, job.JobID, 20, nil, nil); err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}

	voterIDs := make([]string, len(voters))
	for i, v := range voters {
		voterIDs[i] = v.VoterID
	}
	phones, err := o.extractor.PhonesByVoterID(ctx, voterIDs)
	if err != nil {
		return fmt.Errorf("failed to fetch phone entries: %w", err)
	}

	cols := ResolveColumns(job.Filters.Columns())
	rows := ExpandRows(voters, phones, cols)

	processed := len(voters)
	if err := o.jobs.UpdateProgress(ctx, job.JobID, 30, nil, &processed); err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}

	encodedAt := o.now()
	enc, err := o.encode(job, rows, cols, encodedAt)
	if err != nil {
		return err
	}
	if err := o.jobs.UpdateProgress(ctx, job.JobID, 70, nil, nil); err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}

	artifact, err := o.publisher.Publish(ctx, job.ExportType, enc, encodedAt)
	if err != nil {
		return err
	}

	if err := o.jobs.MarkCompleted(ctx, job.JobID, artifact.FileURL, artifact.FileName, artifact.FileSizeKB); err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}

	o.logger.Info("Export artifact published",
		slog.String("job_id", job.JobID),
		slog.String("file_name", artifact.FileName),
		slog.Int("file_size_kb", artifact.FileSizeKB),
		slog.Int("rows", len(rows)),
	)

	return nil
}

func (o *Orchestrator) encode(job *domain.ExportJob, rows []domain.FlatRow, cols []Column, encodedAt time.Time) (Encoded, error) {
	switch job.Format {
	case domain.FormatCSV:
		return EncodeCSV(rows, cols), nil
	case domain.FormatExcel:
		return EncodeExcelCSV(rows, cols), nil
	case domain.FormatPDF:
		return EncodeHTMLReport(rows, cols, ReportMeta{
			Title:       fmt.Sprintf("%s export report", job.ExportType),
			GeneratedAt: encodedAt,
			Filters:     job.Filters,
		}), nil
	}
	return Encoded{}, fmt.Errorf("%w: %s", domain.ErrInvalidFormat, job.Format)
}

// markFailed records the failure with a fresh context so a terminal write
// still lands when the run context itself expired.
func (o *Orchestrator) markFailed(job *domain.ExportJob, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := o.jobs.MarkFailed(ctx, job.JobID, message); err != nil {
		o.logger.Error("Failed to mark job failed",
			slog.String("job_id", job.JobID),
			slog.String("error", err.Error()),
		)
	}
}

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rollcall-hq/constituent-export/internal/api/auth"
	"github.com/rollcall-hq/constituent-export/internal/api/dto"
	"github.com/rollcall-hq/constituent-export/internal/export/domain"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

// CreateExport handles POST /api/v1/exports
// Creates a pending export job, schedules background processing, and returns
// the job immediately. The HTTP response never carries the processing
// outcome; clients poll the job afterwards.
func (h *ExportHandler) CreateExport(c *gin.Context) {
	var req dto.CreateExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid export request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "type and format are required",
		})
		return
	}

	if !domain.ValidFormat(req.Format) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "format must be one of: csv, excel, pdf",
		})
		return
	}

	identity := auth.IdentityFromContext(c)
	now := time.Now()

	job := &domain.ExportJob{
		JobID:      uuid.New().String(),
		ExportType: req.Type,
		Format:     req.Format,
		Filters:    domain.Filters(req.Filters),
		Status:     domain.JobStatusPending,
		Progress:   0,
		CreatedBy:  identity.UserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if job.Filters == nil {
		job.Filters = domain.Filters{}
	}

	if err := h.jobs.CreateJob(c.Request.Context(), job); err != nil {
		h.logger.Error("Failed to create export job",
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create export job",
		})
		return
	}

	h.logger.Info("Export job created",
		slog.String("job_id", job.JobID),
		slog.String("export_type", job.ExportType),
		slog.String("format", job.Format),
		slog.String("created_by", job.CreatedBy),
	)

	h.orchestrator.Dispatch(job)

	c.JSON(http.StatusCreated, dto.FromJob(job))
}

// ListExports handles GET /api/v1/exports
// Returns the caller's most recent export jobs, newest first.
func (h *ExportHandler) ListExports(c *gin.Context) {
	var req dto.ListExportsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.Limit <= 0 {
		req.Limit = defaultListLimit
	}
	if req.Limit > maxListLimit {
		req.Limit = maxListLimit
	}

	identity := auth.IdentityFromContext(c)

	jobs, err := h.jobs.ListJobs(c.Request.Context(), identity.UserID, req.Limit)
	if err != nil {
		h.logger.Error("Failed to list export jobs",
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list export jobs",
		})
		return
	}

	response := dto.ListExportsResponse{
		Exports: make([]dto.ExportJobDTO, len(jobs)),
	}
	for i := range jobs {
		response.Exports[i] = dto.FromJob(&jobs[i])
	}

	c.JSON(http.StatusOK, response)
}

// GetExport handles GET /api/v1/exports/:job_id
// This is the poll path: clients read progress and the terminal state here.
func (h *ExportHandler) GetExport(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	job, err := h.jobs.GetJob(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "export job not found",
			})
			return
		}
		h.logger.Error("Failed to get export job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get export job",
		})
		return
	}

	// Jobs are visible to their creator only.
	identity := auth.IdentityFromContext(c)
	if job.CreatedBy != identity.UserID {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "export job not found",
		})
		return
	}

	c.JSON(http.StatusOK, dto.FromJob(job))
}

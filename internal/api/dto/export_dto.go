package dto

import (
	"time"

	"github.com/rollcall-hq/constituent-export/internal/export/domain"
)

type CreateExportRequest struct {
	Type    string                 `json:"type" binding:"required"`
	Format  string                 `json:"format" binding:"required"`
	Filters map[string]interface{} `json:"filters"`
}

type ListExportsRequest struct {
	Limit int `form:"limit"`
}

type ListExportsResponse struct {
	Exports []ExportJobDTO `json:"exports"`
}

type ExportJobDTO struct {
	JobID            string                 `json:"job_id"`
	Type             string                 `json:"type"`
	Format           string                 `json:"format"`
	Filters          map[string]interface{} `json:"filters"`
	Status           string                 `json:"status"`
	Progress         int                    `json:"progress"`
	TotalRecords     *int                   `json:"total_records,omitempty"`
	ProcessedRecords *int                   `json:"processed_records,omitempty"`
	FileURL          *string                `json:"file_url,omitempty"`
	FileName         *string                `json:"file_name,omitempty"`
	FileSizeKB       *int                   `json:"file_size_kb,omitempty"`
	ErrorMessage     *string                `json:"error_message,omitempty"`
	CreatedBy        string                 `json:"created_by"`
	CreatedAt        string                 `json:"created_at"`
	UpdatedAt        string                 `json:"updated_at"`
}

// FromJob maps a domain job onto its API representation.
func FromJob(job *domain.ExportJob) ExportJobDTO {
	return ExportJobDTO{
		JobID:            job.JobID,
		Type:             job.ExportType,
		Format:           job.Format,
		Filters:          job.Filters,
		Status:           job.Status,
		Progress:         job.Progress,
		TotalRecords:     job.TotalRecords,
		ProcessedRecords: job.ProcessedRecords,
		FileURL:          job.FileURL,
		FileName:         job.FileName,
		FileSizeKB:       job.FileSizeKB,
		ErrorMessage:     job.ErrorMessage,
		CreatedBy:        job.CreatedBy,
		CreatedAt:        job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        job.UpdatedAt.Format(time.RFC3339),
	}
}

package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Job status constants. A job only ever moves forward:
// pending -> processing -> completed, or pending -> processing -> failed.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Export format constants. FormatPDF produces a self-contained HTML report,
// kept under the historical "pdf" name for API compatibility.
const (
	FormatCSV   = "csv"
	FormatExcel = "excel"
	FormatPDF   = "pdf"
)

// ValidFormat reports whether f is a supported export format.
func ValidFormat(f string) bool {
	switch f {
	case FormatCSV, FormatExcel, FormatPDF:
		return true
	}
	return false
}

// ExportJob is the durable tracking record for one export request.
type ExportJob struct {
	JobID            string    `db:"job_id"`
	ExportType       string    `db:"export_type"`
	Format           string    `db:"format"`
	Filters          Filters   `db:"filters"`
	Status           string    `db:"status"`
	Progress         int       `db:"progress"`
	TotalRecords     *int      `db:"total_records"`
	ProcessedRecords *int      `db:"processed_records"`
	FileURL          *string   `db:"file_url"`
	FileName         *string   `db:"file_name"`
	FileSizeKB       *int      `db:"file_size_kb"`
	ErrorMessage     *string   `db:"error_message"`
	CreatedBy        string    `db:"created_by"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// Filters is the opaque filter descriptor supplied by the caller. The pipeline
// stores it and hands it to the extractor unmodified; the only key interpreted
// here is "columns", which carries the requested output column keys.
type Filters map[string]interface{}

// Columns returns the requested output column keys, if any were supplied.
func (f Filters) Columns() []string {
	raw, ok := f["columns"]
	if !ok {
		return nil
	}

	switch v := raw.(type) {
	case []string:
		return v
	case []interface{}:
		cols := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				cols = append(cols, s)
			}
		}
		return cols
	}
	return nil
}

// Value implements driver.Valuer so filters persist as JSON.
func (f Filters) Value() (driver.Value, error) {
	if f == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal filters: %w", err)
	}
	return data, nil
}

// Scan implements sql.Scanner for reading filters back from the database.
func (f *Filters) Scan(src interface{}) error {
	if src == nil {
		*f = Filters{}
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported filters column type %T", src)
	}

	if err := json.Unmarshal(data, f); err != nil {
		return fmt.Errorf("failed to unmarshal filters: %w", err)
	}
	return nil
}

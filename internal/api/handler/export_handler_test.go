package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollcall-hq/constituent-export/internal/api/auth"
	"github.com/rollcall-hq/constituent-export/internal/api/handler"
	"github.com/rollcall-hq/constituent-export/internal/api/router"
	"github.com/rollcall-hq/constituent-export/internal/export"
	"github.com/rollcall-hq/constituent-export/internal/export/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memJobStore is an in-memory export.JobStore for API tests.
type memJobStore struct {
	mu   sync.Mutex
	jobs map[string]*domain.ExportJob
}

func newMemJobStore() *memJobStore {
	return &memJobStore{jobs: make(map[string]*domain.ExportJob)}
}

func (s *memJobStore) CreateJob(_ context.Context, job *domain.ExportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *job
	s.jobs[job.JobID] = &copied
	return nil
}

func (s *memJobStore) GetJob(_ context.Context, jobID string) (*domain.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	copied := *job
	return &copied, nil
}

func (s *memJobStore) ListJobs(_ context.Context, userID string, limit int) ([]domain.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var jobs []domain.ExportJob
	for _, job := range s.jobs {
		if job.CreatedBy == userID {
			jobs = append(jobs, *job)
		}
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

func (s *memJobStore) MarkProcessing(_ context.Context, jobID string) error {
	return s.update(jobID, func(job *domain.ExportJob) {
		job.Status = domain.JobStatusProcessing
	})
}

func (s *memJobStore) UpdateProgress(_ context.Context, jobID string, progress int, total, processed *int) error {
	return s.update(jobID, func(job *domain.ExportJob) {
		if progress > job.Progress {
			job.Progress = progress
		}
		if total != nil {
			job.TotalRecords = total
		}
		if processed != nil {
			job.ProcessedRecords = processed
		}
	})
}

func (s *memJobStore) MarkCompleted(_ context.Context, jobID string, fileURL, fileName string, fileSizeKB int) error {
	return s.update(jobID, func(job *domain.ExportJob) {
		job.Status = domain.JobStatusCompleted
		job.Progress = 100
		job.FileURL = &fileURL
		job.FileName = &fileName
		job.FileSizeKB = &fileSizeKB
	})
}

func (s *memJobStore) MarkFailed(_ context.Context, jobID string, message string) error {
	return s.update(jobID, func(job *domain.ExportJob) {
		job.Status = domain.JobStatusFailed
		job.ErrorMessage = &message
	})
}

func (s *memJobStore) update(jobID string, fn func(*domain.ExportJob)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	fn(job)
	return nil
}

type stubExtractor struct{}

func (stubExtractor) CountVoters(_ context.Context, _ domain.Filters) (int, error) {
	return 0, nil
}

func (stubExtractor) FetchVoters(_ context.Context, _ domain.Filters) ([]domain.Voter, error) {
	return nil, nil
}

func (stubExtractor) PhonesByVoterID(_ context.Context, _ []string) (map[string][]domain.PhoneEntry, error) {
	return map[string][]domain.PhoneEntry{}, nil
}

type nullObjectStore struct{}

func (nullObjectStore) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	return "https://files.example.com/" + key, nil
}

type stubHealth struct {
	err error
}

func (s stubHealth) HealthCheck(_ context.Context) error {
	return s.err
}

func newTestRouter(jobs export.JobStore) *gin.Engine {
	return newTestRouterWithHealth(jobs, stubHealth{})
}

func newTestRouterWithHealth(jobs export.JobStore, health handler.HealthChecker) *gin.Engine {
	logger := slog.New(slog.DiscardHandler)

	orchestrator := export.NewOrchestrator(&export.Config{
		Logger:    logger,
		Jobs:      jobs,
		Extractor: stubExtractor{},
		Publisher: export.NewPublisher(nullObjectStore{}, "exports"),
		Metrics:   export.NewMetrics(prometheus.NewRegistry()),
	})

	deps := &handler.Dependencies{
		Logger:       logger,
		DB:           health,
		Jobs:         jobs,
		Orchestrator: orchestrator,
		Sessions: &auth.StaticSessionProvider{
			Tokens: map[string]string{
				"alice-token":  "user-alice",
				"bob-token":    "user-bob",
				"intern-token": "user-intern",
			},
		},
		Authorizer: &auth.StaticAuthorizer{
			Grants: map[string][]string{
				"user-alice": {auth.ModuleVoterExports},
				"user-bob":   {auth.ModuleVoterExports},
			},
		},
	}

	return router.SetupRouter(deps, prometheus.NewRegistry())
}

func doRequest(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		r := newTestRouter(newMemJobStore())

		w := doRequest(r, http.MethodGet, "/health", "", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	})

	t.Run("database unreachable", func(t *testing.T) {
		r := newTestRouterWithHealth(newMemJobStore(), stubHealth{err: errors.New("connection refused")})

		w := doRequest(r, http.MethodGet, "/health", "", "")
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"unhealthy"`)
	})
}

func TestCreateExport(t *testing.T) {
	jobs := newMemJobStore()
	r := newTestRouter(jobs)

	w := doRequest(r, http.MethodPost, "/api/v1/exports", "alice-token",
		`{"type":"voters","format":"csv","filters":{"city":"Springfield"}}`)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp["job_id"])
	assert.Equal(t, "voters", resp["type"])
	assert.Equal(t, "csv", resp["format"])
	assert.Equal(t, domain.JobStatusPending, resp["status"])
	assert.Equal(t, float64(0), resp["progress"])
	assert.Equal(t, "user-alice", resp["created_by"])

	// The job is durably created before the response returns.
	jobID, _ := resp["job_id"].(string)
	job, err := jobs.GetJob(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, "Springfield", job.Filters["city"])
}

func TestCreateExport_Validation(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{
			name:      "missing type",
			body:      `{"format":"csv"}`,
			wantError: "type and format are required",
		},
		{
			name:      "missing format",
			body:      `{"type":"voters"}`,
			wantError: "type and format are required",
		},
		{
			name:      "malformed json",
			body:      `{"type":`,
			wantError: "type and format are required",
		},
		{
			name:      "unknown format",
			body:      `{"type":"voters","format":"parquet"}`,
			wantError: "format must be one of: csv, excel, pdf",
		},
	}

	r := newTestRouter(newMemJobStore())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/api/v1/exports", "alice-token", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantError)
		})
	}
}

func TestExports_Auth(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{name: "no token", token: "", wantStatus: http.StatusUnauthorized},
		{name: "unknown token", token: "stolen-token", wantStatus: http.StatusUnauthorized},
		{name: "no module grant", token: "intern-token", wantStatus: http.StatusForbidden},
	}

	r := newTestRouter(newMemJobStore())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/api/v1/exports", tt.token,
				`{"type":"voters","format":"csv"}`)
			assert.Equal(t, tt.wantStatus, w.Code)

			w = doRequest(r, http.MethodGet, "/api/v1/exports", tt.token, "")
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func seedJob(t *testing.T, jobs *memJobStore, userID string, createdAt time.Time) string {
	t.Helper()
	jobID := uuid.New().String()
	err := jobs.CreateJob(context.Background(), &domain.ExportJob{
		JobID:      jobID,
		ExportType: "voters",
		Format:     domain.FormatCSV,
		Filters:    domain.Filters{},
		Status:     domain.JobStatusCompleted,
		Progress:   100,
		CreatedBy:  userID,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	})
	require.NoError(t, err)
	return jobID
}

func TestListExports(t *testing.T) {
	jobs := newMemJobStore()
	base := time.Now()
	for i := 0; i < 3; i++ {
		seedJob(t, jobs, "user-alice", base.Add(time.Duration(i)*time.Minute))
	}
	seedJob(t, jobs, "user-bob", base)

	r := newTestRouter(jobs)

	w := doRequest(r, http.MethodGet, "/api/v1/exports", "alice-token", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Exports []map[string]interface{} `json:"exports"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	// Only the caller's jobs come back.
	require.Len(t, resp.Exports, 3)
	for _, job := range resp.Exports {
		assert.Equal(t, "user-alice", job["created_by"])
	}
}

func TestListExports_Limit(t *testing.T) {
	jobs := newMemJobStore()
	base := time.Now()
	for i := 0; i < 15; i++ {
		seedJob(t, jobs, "user-alice", base.Add(time.Duration(i)*time.Second))
	}

	r := newTestRouter(jobs)

	// Default page size.
	w := doRequest(r, http.MethodGet, "/api/v1/exports", "alice-token", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Exports []map[string]interface{} `json:"exports"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Exports, 10)

	// Explicit limit.
	w = doRequest(r, http.MethodGet, "/api/v1/exports?limit=2", "alice-token", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Exports, 2)
}

func TestGetExport(t *testing.T) {
	jobs := newMemJobStore()
	aliceJob := seedJob(t, jobs, "user-alice", time.Now())
	bobJob := seedJob(t, jobs, "user-bob", time.Now())

	r := newTestRouter(jobs)

	t.Run("own job", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/api/v1/exports/"+aliceJob, "alice-token", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, aliceJob, resp["job_id"])
		assert.Equal(t, domain.JobStatusCompleted, resp["status"])
	})

	t.Run("another user's job reads as not found", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/api/v1/exports/"+bobJob, "alice-token", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown job", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/api/v1/exports/"+uuid.New().String(), "alice-token", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed job id", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/api/v1/exports/not-a-uuid", "alice-token", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

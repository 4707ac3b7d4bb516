package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/moxiedata/affiliate-ledger/internal/jobs"
)

type mockPublisher struct {
	publishFn func(ctx context.Context, job *jobs.ExtractionJob) error
	published []*jobs.ExtractionJob
}

func (m *mockPublisher) PublishExtraction(ctx context.Context, job *jobs.ExtractionJob) error {
	if m.publishFn != nil {
		if err := m.publishFn(ctx, job); err != nil {
			return err
		}
	}
	job.JobID = "job-1"
	job.Status = jobs.JobStatusPending
	m.published = append(m.published, job)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

type mockStore struct {
	getFn  func(ctx context.Context, jobID string) (*jobs.ExtractionJob, error)
	listFn func(ctx context.Context, filter jobs.JobFilter) ([]*jobs.ExtractionJob, error)
}

func (m *mockStore) SaveJob(ctx context.Context, job *jobs.ExtractionJob) error { return nil }

func (m *mockStore) GetJob(ctx context.Context, jobID string) (*jobs.ExtractionJob, error) {
	return m.getFn(ctx, jobID)
}

func (m *mockStore) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.ExtractionJob, error) {
	return m.listFn(ctx, filter)
}

func (m *mockStore) UpdateJobStatus(ctx context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	return nil
}

func TestEnqueueRun(t *testing.T) {
	publisher := &mockPublisher{}
	handler := NewRunsHandler(publisher, &mockStore{}, zerolog.Nop())

	body := strings.NewReader(`{"country": "us", "report_date": "2026-08-27"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/runs", body)
	rec := httptest.NewRecorder()

	handler.EnqueueRun(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["country"] != "US" {
		t.Errorf("country = %q, want normalized US", resp["country"])
	}
	if resp["report_date"] != "2026-08-27" {
		t.Errorf("report_date = %q, want 2026-08-27", resp["report_date"])
	}
	if resp["job_id"] != "job-1" {
		t.Errorf("job_id = %q, want job-1", resp["job_id"])
	}

	if len(publisher.published) != 1 {
		t.Fatalf("got %d published jobs, want 1", len(publisher.published))
	}
	if publisher.published[0].Country != "US" {
		t.Errorf("published country = %q, want US", publisher.published[0].Country)
	}
}

func TestEnqueueRunDefaultsToYesterday(t *testing.T) {
	publisher := &mockPublisher{}
	handler := NewRunsHandler(publisher, &mockStore{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader(`{"country": "UK"}`))
	rec := httptest.NewRecorder()

	handler.EnqueueRun(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	if len(publisher.published) != 1 {
		t.Fatalf("got %d published jobs, want 1", len(publisher.published))
	}
	if publisher.published[0].ReportDate.IsZero() {
		t.Error("default report date was not set")
	}
}

func TestEnqueueRunRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unsupported country", `{"country": "FR"}`},
		{"bad date", `{"country": "US", "report_date": "27/08/2026"}`},
		{"not json", `country=US`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := &mockPublisher{}
			handler := NewRunsHandler(publisher, &mockStore{}, zerolog.Nop())

			req := httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler.EnqueueRun(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if len(publisher.published) != 0 {
				t.Errorf("rejected request still published %d jobs", len(publisher.published))
			}
		})
	}
}

func TestGetRun(t *testing.T) {
	store := &mockStore{
		getFn: func(ctx context.Context, jobID string) (*jobs.ExtractionJob, error) {
			return &jobs.ExtractionJob{JobID: jobID, Country: "US", Status: jobs.JobStatusCompleted}, nil
		},
	}
	handler := NewRunsHandler(&mockPublisher{}, store, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/runs/job-7", nil)
	rec := httptest.NewRecorder()

	handler.GetRun(rec, req, "job-7")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var job jobs.ExtractionJob
	if err := json.NewDecoder(rec.Body).Decode(&job); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if job.JobID != "job-7" || job.Status != jobs.JobStatusCompleted {
		t.Errorf("got %+v, want job-7 completed", job)
	}
}

func TestListRunsPassesFilter(t *testing.T) {
	var gotFilter jobs.JobFilter
	store := &mockStore{
		listFn: func(ctx context.Context, filter jobs.JobFilter) ([]*jobs.ExtractionJob, error) {
			gotFilter = filter
			return []*jobs.ExtractionJob{{JobID: "a"}}, nil
		},
	}
	handler := NewRunsHandler(&mockPublisher{}, store, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/runs?country=UK&status=failed&limit=5", nil)
	rec := httptest.NewRecorder()

	handler.ListRuns(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotFilter.Country != "UK" || gotFilter.Status != jobs.JobStatusFailed || gotFilter.Limit != 5 {
		t.Errorf("filter = %+v, want UK/failed/5", gotFilter)
	}
}

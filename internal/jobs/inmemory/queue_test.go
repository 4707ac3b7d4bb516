package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/moxiedata/affiliate-ledger/internal/jobs"
)

func waitForStatus(t *testing.T, store *Store, jobID string, want jobs.JobStatus) *jobs.ExtractionJob {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("job %s never reached status %s", jobID, want)
		case <-time.After(10 * time.Millisecond):
		}

		job, err := store.GetJob(context.Background(), jobID)
		if err != nil {
			continue
		}
		if job.Status == want {
			return job
		}
	}
}

func TestQueueProcessesJob(t *testing.T) {
	store := NewStore()
	queue := NewQueue(10, 1, store)
	defer queue.Close()

	processed := make(chan string, 1)
	handler := func(ctx context.Context, job jobs.Job) error {
		processed <- job.GetID()
		return nil
	}

	if err := queue.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	job := &jobs.ExtractionJob{
		Country:    "US",
		ReportDate: time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC),
	}
	if err := queue.PublishExtraction(context.Background(), job); err != nil {
		t.Fatalf("PublishExtraction failed: %v", err)
	}

	if job.JobID == "" {
		t.Fatal("publish did not assign a job ID")
	}
	if job.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want default 3", job.MaxRetries)
	}

	select {
	case id := <-processed:
		if id != job.JobID {
			t.Errorf("processed job %s, want %s", id, job.JobID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("job was never processed")
	}

	stored := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if stored.CompletedAt == nil {
		t.Error("completed job has no completion timestamp")
	}
}

func TestQueueRetriesFailedJob(t *testing.T) {
	store := NewStore()
	queue := NewQueue(10, 1, store)
	defer queue.Close()

	attempts := make(chan struct{}, 10)
	handler := func(ctx context.Context, job jobs.Job) error {
		attempts <- struct{}{}
		if len(attempts) < 2 {
			return errors.New("transient extraction failure")
		}
		return nil
	}

	if err := queue.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	job := &jobs.ExtractionJob{Country: "UK", ReportDate: time.Now()}
	if err := queue.PublishExtraction(context.Background(), job); err != nil {
		t.Fatalf("PublishExtraction failed: %v", err)
	}

	stored := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if stored.RetryCount != 1 {
		t.Errorf("RetryCount = %d, want 1", stored.RetryCount)
	}
}

func TestQueueRejectsPublishAfterClose(t *testing.T) {
	queue := NewQueue(1, 1, NewStore())
	if err := queue.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	err := queue.PublishExtraction(context.Background(), &jobs.ExtractionJob{Country: "US"})
	if err == nil {
		t.Fatal("publish on closed queue succeeded")
	}
}

func TestStoreListJobsFilters(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	seed := []*jobs.ExtractionJob{
		{JobID: "a", Country: "US", Status: jobs.JobStatusCompleted},
		{JobID: "b", Country: "UK", Status: jobs.JobStatusPending},
		{JobID: "c", Country: "US", Status: jobs.JobStatusFailed},
	}
	for _, job := range seed {
		if err := store.SaveJob(ctx, job); err != nil {
			t.Fatalf("SaveJob(%s) failed: %v", job.JobID, err)
		}
	}

	byCountry, err := store.ListJobs(ctx, jobs.JobFilter{Country: "US"})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(byCountry) != 2 {
		t.Errorf("got %d US jobs, want 2", len(byCountry))
	}

	byStatus, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusPending})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].JobID != "b" {
		t.Errorf("pending filter returned %v, want job b", byStatus)
	}
}

func TestStoreReturnsCopies(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := &jobs.ExtractionJob{JobID: "x", Country: "US", Status: jobs.JobStatusPending}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	got, err := store.GetJob(ctx, "x")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	got.Status = jobs.JobStatusFailed

	again, err := store.GetJob(ctx, "x")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if again.Status != jobs.JobStatusPending {
		t.Error("mutating a returned job leaked into the store")
	}
}

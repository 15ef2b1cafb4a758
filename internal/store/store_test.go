package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/fairchance/jobintake/internal/model"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(context.Background(), dbPath, 0)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func testJob(id string, submitted time.Time) model.Job {
	return model.Job{
		ID:          id,
		URL:         "https://jobs.example/" + id,
		DirectURL:   "https://apply.example/" + id,
		Title:       "Warehouse Associate",
		Company:     "Acme",
		Location:    "Fresno, CA",
		Grade:       model.GradeBest,
		Category:    model.CategoryWarehouse,
		Salary:      "$18/hr",
		DatePosted:  submitted.Format(model.DateLayout),
		SubmittedAt: submitted,
		SubmittedBy: "CEO Fresno Staff",
	}
}

func TestInsertThenQuery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	job := testJob("a1", now)
	job.RequiresLicense = true
	job.ExpirationDate = strPtr(now.Add(48 * time.Hour).Format(model.DateLayout))
	job.FrequentHirerTag = strPtr("walmart")
	if err := s.Insert(ctx, job); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	jobs, err := s.Query(ctx, model.JobQuery{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	got := jobs[0]
	if got.ID != "a1" || got.Grade != model.GradeBest || got.Category != model.CategoryWarehouse {
		t.Errorf("got %+v", got)
	}
	if !got.RequiresLicense || got.RequiresDiploma || got.NeedsReview {
		t.Errorf("flags = %v %v %v", got.RequiresDiploma, got.RequiresLicense, got.NeedsReview)
	}
	if !got.SubmittedAt.Equal(now) {
		t.Errorf("SubmittedAt = %v, want %v", got.SubmittedAt, now)
	}
	if got.FrequentHirerTag == nil || *got.FrequentHirerTag != "walmart" {
		t.Errorf("FrequentHirerTag = %v", got.FrequentHirerTag)
	}
	if got.ExpirationDate == nil || *got.ExpirationDate != *job.ExpirationDate {
		t.Errorf("ExpirationDate = %v", got.ExpirationDate)
	}
}

func TestInsertDuplicateIDFails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	job := testJob("dup", time.Now())
	if err := s.Insert(ctx, job); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	if err := s.Insert(ctx, job); err == nil {
		t.Fatal("expected error inserting the same id twice")
	}
}

func TestQueryOrderAndFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	older := testJob("older", now.Add(-2*time.Hour))
	newer := testJob("newer", now.Add(-time.Hour))
	newer.Grade = model.GradePoor
	newer.RequiresDiploma = true
	stale := testJob("stale", now.Add(-30*24*time.Hour))
	for _, j := range []model.Job{older, newer, stale} {
		if err := s.Insert(ctx, j); err != nil {
			t.Fatalf("Insert %s: %v", j.ID, err)
		}
	}

	jobs, err := s.Query(ctx, model.JobQuery{Grade: "all"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(jobs) != 2 || jobs[0].ID != "newer" || jobs[1].ID != "older" {
		t.Fatalf("expected [newer older], got %v", ids(jobs))
	}

	jobs, _ = s.Query(ctx, model.JobQuery{IncludeExpired: true})
	if len(jobs) != 3 || jobs[2].ID != "stale" {
		t.Fatalf("IncludeExpired: got %v", ids(jobs))
	}

	jobs, _ = s.Query(ctx, model.JobQuery{Grade: "best"})
	if len(jobs) != 1 || jobs[0].ID != "older" {
		t.Errorf("grade filter: got %v", ids(jobs))
	}

	jobs, _ = s.Query(ctx, model.JobQuery{Diploma: "yes"})
	if len(jobs) != 1 || jobs[0].ID != "newer" {
		t.Errorf("diploma filter: got %v", ids(jobs))
	}

	jobs, _ = s.Query(ctx, model.JobQuery{Limit: 1})
	if len(jobs) != 1 || jobs[0].ID != "newer" {
		t.Errorf("limit: got %v", ids(jobs))
	}
}

func TestUpdateAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Insert(ctx, testJob("u1", time.Now())); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	grade := model.GradeFair
	review := true
	exp := "2099-01-01"
	if err := s.Update(ctx, "u1", model.JobPatch{Grade: &grade, NeedsReview: &review, ExpirationDate: &exp}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := s.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Grade != model.GradeFair || !got.NeedsReview || got.ExpirationDate == nil || *got.ExpirationDate != exp {
		t.Errorf("after update: %+v", got)
	}
	if got.Title != "Warehouse Associate" {
		t.Errorf("unpatched field changed: %q", got.Title)
	}

	if err := s.Update(ctx, "missing", model.JobPatch{Grade: &grade}); !errors.Is(err, model.ErrJobNotFound) {
		t.Errorf("Update missing: %v", err)
	}
	if err := s.Update(ctx, "u1", model.JobPatch{}); err != nil {
		t.Errorf("empty patch: %v", err)
	}

	if err := s.Delete(ctx, "u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "u1"); !errors.Is(err, model.ErrJobNotFound) {
		t.Errorf("Get after delete: %v", err)
	}
	if err := s.Delete(ctx, "u1"); !errors.Is(err, model.ErrJobNotFound) {
		t.Errorf("second Delete: %v", err)
	}
}

func TestExistingURLs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Insert(ctx, testJob("e1", time.Now())); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	urls, err := s.ExistingURLs(ctx)
	if err != nil {
		t.Fatalf("ExistingURLs: %v", err)
	}
	for _, u := range []string{"https://jobs.example/e1", "https://apply.example/e1"} {
		if _, ok := urls[u]; !ok {
			t.Errorf("missing %s", u)
		}
	}
	if len(urls) != 2 {
		t.Errorf("expected 2 urls, got %d", len(urls))
	}
}

func TestSubscribeReceivesChanges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	events, cancel := s.Subscribe()
	defer cancel()

	if err := s.Insert(ctx, testJob("s1", time.Now())); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	for _, want := range []model.ChangeOp{model.ChangeInsert, model.ChangeDelete} {
		select {
		case evt := <-events:
			if evt.Op != want || evt.JobID != "s1" {
				t.Errorf("event = %+v, want %s s1", evt, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s event", want)
		}
	}

	cancel()
	if _, ok := <-events; ok {
		t.Error("channel should be closed after cancel")
	}
	cancel() // idempotent
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "oracle", "x", 0); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestBatchLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bulk.lock")
	first, err := AcquireBatchLock(path)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if _, err := AcquireBatchLock(path); !errors.Is(err, ErrBatchRunning) {
		t.Fatalf("second lock: expected ErrBatchRunning, got %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	again, err := AcquireBatchLock(path)
	if err != nil {
		t.Fatalf("relock after release: %v", err)
	}
	again.Release()
}

func TestNopStore(t *testing.T) {
	var s model.JobStore = NewNopStore()
	ctx := context.Background()
	if err := s.Insert(ctx, testJob("n", time.Now())); err != nil {
		t.Fatal(err)
	}
	urls, _ := s.ExistingURLs(ctx)
	if len(urls) != 0 {
		t.Errorf("nop store reported urls: %v", urls)
	}
	if _, err := s.Get(ctx, "n"); !errors.Is(err, model.ErrJobNotFound) {
		t.Errorf("Get = %v, want ErrJobNotFound", err)
	}
}

func ids(jobs []model.Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.ID
	}
	return out
}

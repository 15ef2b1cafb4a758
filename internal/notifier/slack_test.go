package notifier

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fairchance/jobintake/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func sampleJob(title, company string) model.Job {
	return model.Job{
		ID:          "123",
		URL:         "https://board.example/123",
		DirectURL:   "https://example.com/apply",
		Title:       title,
		Company:     company,
		Location:    "Fresno, CA",
		Grade:       model.GradeBest,
		GradeReason: "Fair chance employer",
		Category:    model.CategoryWarehouse,
		Salary:      "$19/hr",
	}
}

func newTestNotifier(url string, client *http.Client) *SlackNotifier {
	n := NewSlackNotifier(url, client, discardLogger())
	n.sleep = func(time.Duration) {}
	return n
}

func TestSlackNotifier_EmptyJobs(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL, srv.Client())

	if err := n.Notify(nil); err != nil {
		t.Errorf("Notify(nil) = %v, want nil", err)
	}
	if c := calls.Load(); c != 0 {
		t.Errorf("expected 0 HTTP calls, got %d", c)
	}
}

func TestSlackNotifier_SingleJob(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL, srv.Client())
	job := sampleJob("Warehouse Associate", "Walmart")
	job.FrequentHirerTag = strPtr("walmart")

	if err := n.Notify([]model.Job{job}); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(payload.Blocks) != 5 {
		t.Fatalf("expected 5 blocks, got %d", len(payload.Blocks))
	}
	if got := payload.Blocks[0].Text.Text; got != "🟢 Walmart: Warehouse Associate" {
		t.Errorf("header text = %q", got)
	}
	if got := payload.Blocks[1].Fields[0].Text; got != "*Grade:*\nBEST" {
		t.Errorf("grade field = %q", got)
	}
	if got := payload.Blocks[2].Text.Text; got != "*Why:* Fair chance employer\n*Frequent hirer:* walmart" {
		t.Errorf("notes = %q", got)
	}
	if got := payload.Blocks[3].Elements[0].URL; got != "https://example.com/apply" {
		t.Errorf("action URL = %q", got)
	}
	if payload.Blocks[4].Type != "divider" {
		t.Errorf("block[4] type = %q, want divider", payload.Blocks[4].Type)
	}
}

func TestSlackNotifier_NeedsReviewHeader(t *testing.T) {
	job := model.Job{URL: "https://x.example/1", DirectURL: "https://x.example/1", NeedsReview: true}
	payload := buildPayload(job, nil)
	if got := payload.Blocks[0].Text.Text; got != "📝 Needs review: https://x.example/1" {
		t.Errorf("header = %q", got)
	}
	// No notes section without reason, match or tag.
	if len(payload.Blocks) != 4 {
		t.Errorf("expected 4 blocks, got %d", len(payload.Blocks))
	}
}

func TestSlackNotifier_AllFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL, srv.Client())
	err := n.Notify([]model.Job{sampleJob("A", "X"), sampleJob("B", "Y")})
	if err == nil {
		t.Error("expected error when all messages fail, got nil")
	}
}

func TestSlackNotifier_PartialFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL, srv.Client())
	if err := n.Notify([]model.Job{sampleJob("Fails", "A"), sampleJob("Succeeds", "B")}); err != nil {
		t.Errorf("expected nil (partial success), got %v", err)
	}
}

func TestSlackNotifier_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "3")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var slept []time.Duration
	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	n.sleep = func(d time.Duration) { slept = append(slept, d) }

	if err := n.Notify([]model.Job{sampleJob("Rate Limited Job", "Test")}); err != nil {
		t.Fatalf("expected nil after retry, got %v", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls (initial + retry), got %d", c)
	}
	if len(slept) != 1 || slept[0] != 3*time.Second {
		t.Errorf("slept = %v, want [3s]", slept)
	}
}

func TestSlackNotifier_RetryAfterIsCapped(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "120")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var slept []time.Duration
	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	n.sleep = func(d time.Duration) { slept = append(slept, d) }

	if err := n.Notify([]model.Job{sampleJob("Slow Down", "Test")}); err != nil {
		t.Fatalf("expected nil after retry, got %v", err)
	}
	if len(slept) != 1 || slept[0] != maxRetryAfter {
		t.Errorf("slept = %v, want [%v]", slept, maxRetryAfter)
	}
}

func TestSlackNotifier_HirerLabel(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL, srv.Client()).WithHirerLabel(func(slug string) string {
		if slug == "fedex" {
			return "📬 FedEx"
		}
		return slug
	})
	job := sampleJob("Package Handler", "FedEx Ground")
	job.GradeReason = ""
	job.FrequentHirerTag = strPtr("fedex")

	if err := n.Notify([]model.Job{job}); err != nil {
		t.Fatalf("Notify() = %v", err)
	}
	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got := payload.Blocks[2].Text.Text; got != "*Frequent hirer:* 📬 FedEx" {
		t.Errorf("notes = %q", got)
	}
}

func TestSendTestMessage(t *testing.T) {
	rec := &recordingNotifier{}
	if err := SendTestMessage(rec); err != nil {
		t.Fatalf("SendTestMessage: %v", err)
	}
	if len(rec.jobs) != 1 || rec.jobs[0].Grade != model.GradeBest {
		t.Errorf("jobs = %+v", rec.jobs)
	}
}

type recordingNotifier struct{ jobs []model.Job }

func (r *recordingNotifier) Notify(jobs []model.Job) error {
	r.jobs = append(r.jobs, jobs...)
	return nil
}

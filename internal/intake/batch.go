package intake

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fairchance/jobintake/internal/model"
)

// ItemState is the position of one batch URL in its lifecycle.
type ItemState string

const (
	StatePending          ItemState = "pending"
	StateClassifying      ItemState = "classifying"
	StateSucceeded        ItemState = "succeeded"
	StateFailed           ItemState = "failed"
	StateNeedsManualEntry ItemState = "needs_manual_entry"
)

// BatchItem is the outcome of one batch URL.
type BatchItem struct {
	URL   string             `json:"url"`
	State ItemState          `json:"state"`
	Mode  model.HandlingMode `json:"mode"`
	Job   *model.Job         `json:"job,omitempty"`
	Error *model.ErrorReport `json:"error,omitempty"`
}

// BatchResult is the terminal state of a batch run. Items, Errors,
// NeedsManual and Pending preserve input order. Pending holds the URLs a
// cancelled run never attempted.
type BatchResult struct {
	Added       int                 `json:"added"`
	Failed      int                 `json:"failed"`
	NeedsManual []string            `json:"needsManual"`
	Errors      []model.ErrorReport `json:"errors"`
	Jobs        []model.Job         `json:"jobs"`
	Items       []BatchItem         `json:"items"`
	Pending     []string            `json:"pending"`
	Cancelled   bool                `json:"cancelled,omitempty"`
}

// Summary is the one-line outcome shown to the submitter.
func (r BatchResult) Summary() string {
	s := fmt.Sprintf("Added %d job(s), %d failed.", r.Added, r.Failed)
	if n := len(r.NeedsManual); n > 0 {
		s += fmt.Sprintf(" %d URL(s) need manual entry.", n)
	}
	if n := len(r.Pending); n > 0 {
		s += fmt.Sprintf(" %d URL(s) not processed.", n)
	}
	return s
}

// Batch processes many URLs strictly in order through a Pipeline.
type Batch struct {
	pipeline *Pipeline
	pacer    Pacer
	now      func() time.Time
	logger   *slog.Logger
}

// NewBatch creates a batch orchestrator. pacer is waited on between
// consecutive classifier calls.
func NewBatch(pipeline *Pipeline, pacer Pacer, logger *slog.Logger) *Batch {
	return &Batch{pipeline: pipeline, pacer: pacer, now: time.Now, logger: logger}
}

// SplitLines splits pasted text into lines. Run trims them and drops blanks.
func SplitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

// dedupLines trims lines, drops blanks and repeats, keeping first occurrence order.
func dedupLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

// Run processes lines sequentially. URLs that need a pasted description are
// set aside without calling the classifier. If ctx is cancelled the items
// not yet attempted stay pending and the partial result is returned.
func (b *Batch) Run(ctx context.Context, lines []string) (BatchResult, error) {
	urls := dedupLines(lines)
	result := BatchResult{
		NeedsManual: []string{},
		Errors:      []model.ErrorReport{},
		Jobs:        []model.Job{},
		Items:       make([]BatchItem, len(urls)),
		Pending:     []string{},
	}
	for i, u := range urls {
		result.Items[i] = BatchItem{URL: u, State: StatePending}
	}
	if len(urls) == 0 {
		return result, model.InvalidInput("At least one URL is required")
	}

	known, err := b.pipeline.existing(ctx)
	if err != nil {
		return result, err
	}

	called := false
	for i := range result.Items {
		item := &result.Items[i]
		if ctx.Err() != nil {
			result.Cancelled = true
			break
		}

		item.Mode = b.pipeline.sources.Classify(item.URL)
		if item.Mode != model.ModeAuto {
			item.State = StateNeedsManualEntry
			result.NeedsManual = append(result.NeedsManual, item.URL)
			continue
		}

		if known.IsDuplicate(item.URL) {
			b.fail(&result, item, model.DuplicateURL(item.URL))
			continue
		}

		if called && b.pacer != nil {
			if err := b.pacer.Wait(ctx); err != nil {
				result.Cancelled = true
				break
			}
		}
		called = true

		item.State = StateClassifying
		job, err := b.pipeline.submitAuto(ctx, item.URL, known)
		if err != nil {
			b.fail(&result, item, model.AsIntakeError(err))
			continue
		}
		item.State = StateSucceeded
		item.Job = &job
		result.Added++
		result.Jobs = append(result.Jobs, job)
	}
	for _, item := range result.Items {
		if item.State == StatePending {
			result.Pending = append(result.Pending, item.URL)
		}
	}

	b.logger.Info("batch finished",
		"urls", len(urls),
		"added", result.Added,
		"failed", result.Failed,
		"needs_manual", len(result.NeedsManual),
		"pending", len(result.Pending),
		"cancelled", result.Cancelled,
	)
	return result, nil
}

func (b *Batch) fail(result *BatchResult, item *BatchItem, ie *model.IntakeError) {
	report := ie.Report(item.URL, b.now())
	item.State = StateFailed
	item.Error = &report
	result.Failed++
	result.Errors = append(result.Errors, report)
	b.logger.Warn("batch item failed", "url", item.URL, "kind", ie.Kind, "error", ie.Label)
}

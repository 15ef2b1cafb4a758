package intake

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fairchance/jobintake/internal/model"
)

// JobSink is the part of the store the pipeline writes to.
type JobSink interface {
	Insert(ctx context.Context, job model.Job) error
	ExistingURLs(ctx context.Context) (map[string]struct{}, error)
}

// Pipeline owns single-submission intake:
// validate → triage → dedup → classify → normalize → store → announce.
type Pipeline struct {
	sources     SourceClassifier
	analyzer    JobAnalyzer
	normalizer  *Normalizer
	store       JobSink
	notifier    model.Notifier
	submittedBy string
	logger      *slog.Logger
}

// NewPipeline creates a pipeline wired with all its dependencies.
func NewPipeline(
	sources SourceClassifier,
	analyzer JobAnalyzer,
	normalizer *Normalizer,
	store JobSink,
	notifier model.Notifier,
	submittedBy string,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		sources:     sources,
		analyzer:    analyzer,
		normalizer:  normalizer,
		store:       store,
		notifier:    notifier,
		submittedBy: submittedBy,
		logger:      logger,
	}
}

// Submit classifies url through the Auto path and stores the resulting job.
// URLs that need a pasted description are refused with a
// KindManualEntryRequired error naming the handling mode.
func (p *Pipeline) Submit(ctx context.Context, url string) (model.Job, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return model.Job{}, model.InvalidInput("URL is required")
	}
	if mode := p.sources.Classify(url); mode != model.ModeAuto {
		return model.Job{}, model.ManualEntryRequired(mode, p.sources.TrackingKey(url))
	}
	known, err := p.existing(ctx)
	if err != nil {
		return model.Job{}, err
	}
	return p.submitAuto(ctx, url, known)
}

// SubmitManual grades a pasted description for url and stores the result.
func (p *Pipeline) SubmitManual(ctx context.Context, url, description string) (model.Job, error) {
	url = strings.TrimSpace(url)
	description = CleanDescription(description)
	if url == "" || description == "" {
		return model.Job{}, model.InvalidInput("URL and description are required")
	}
	known, err := p.existing(ctx)
	if err != nil {
		return model.Job{}, err
	}
	if known.IsDuplicate(url) {
		return model.Job{}, model.DuplicateURL(url)
	}

	mode := p.sources.Classify(url)
	if mode == model.ModeAuto {
		mode = model.ModeManualPaste
	}
	analysis, err := p.analyzer.AnalyzeDescription(ctx, url, description)
	if err != nil {
		return model.Job{}, err
	}
	job := p.normalizer.Normalize(analysis, model.Submission{URL: url, Mode: mode, SubmittedBy: p.submittedBy})
	return p.save(ctx, job)
}

// AddForReview stores a placeholder job flagged for review without calling
// the classifier.
func (p *Pipeline) AddForReview(ctx context.Context, url string) (model.Job, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return model.Job{}, model.InvalidInput("URL is required")
	}
	known, err := p.existing(ctx)
	if err != nil {
		return model.Job{}, err
	}
	if known.IsDuplicate(url) {
		return model.Job{}, model.DuplicateURL(url)
	}
	return p.save(ctx, p.normalizer.ManualReview(url, p.submittedBy))
}

// submitAuto runs an Auto-mode URL through dedup, classification and
// storage, recording the new job's URLs in known.
func (p *Pipeline) submitAuto(ctx context.Context, url string, known URLSet) (model.Job, error) {
	if known.IsDuplicate(url) {
		return model.Job{}, model.DuplicateURL(url)
	}
	analysis, err := p.analyzer.AnalyzeURL(ctx, url)
	if err != nil {
		return model.Job{}, err
	}
	job := p.normalizer.Normalize(analysis, model.Submission{URL: url, Mode: model.ModeAuto, SubmittedBy: p.submittedBy})
	job, err = p.save(ctx, job)
	if err != nil {
		return model.Job{}, err
	}
	known.Add(job.URL, job.DirectURL)
	return job, nil
}

func (p *Pipeline) save(ctx context.Context, job model.Job) (model.Job, error) {
	if err := p.store.Insert(ctx, job); err != nil {
		p.logger.Error("storing job failed", "url", job.URL, "error", err)
		return model.Job{}, model.StoreWriteFailed(err)
	}
	p.logger.Info("job added",
		"id", job.ID,
		"url", job.URL,
		"grade", job.Grade,
		"category", job.Category,
		"needs_review", job.NeedsReview,
	)
	if p.notifier != nil {
		if err := p.notifier.Notify([]model.Job{job}); err != nil {
			p.logger.Error("announcing job failed", "id", job.ID, "error", err)
		}
	}
	return job, nil
}

func (p *Pipeline) existing(ctx context.Context) (URLSet, error) {
	urls, err := p.store.ExistingURLs(ctx)
	if err != nil {
		return nil, model.NetworkFailure(fmt.Errorf("load existing urls: %w", err))
	}
	if urls == nil {
		urls = make(map[string]struct{})
	}
	return URLSet(urls), nil
}

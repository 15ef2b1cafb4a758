package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"text/template"
	"time"

	"github.com/fairchance/jobintake/internal/model"
)

// Analyzer classifies postings through the classification service. Auto
// submissions and pasted descriptions use separate providers so only the
// Auto path carries the rate-limit retry decorator.
type Analyzer struct {
	auto    Provider
	manual  Provider
	program string
	now     func() time.Time
	logger  *slog.Logger
}

// NewAnalyzer creates an analyzer. program is the name of the employment
// program the posting is matched against.
func NewAnalyzer(auto, manual Provider, program string, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		auto:    auto,
		manual:  manual,
		program: program,
		now:     time.Now,
		logger:  logger,
	}
}

// AnalyzeURL lets the classifier fetch url itself and grades the posting.
// Every failure is returned as a *model.IntakeError.
func (a *Analyzer) AnalyzeURL(ctx context.Context, url string) (model.Analysis, error) {
	prompt, err := render(AutoAnalysisTemplate, promptData{URL: url, Program: a.program})
	if err != nil {
		return model.Analysis{}, err
	}
	return a.run(ctx, a.auto, Request{Prompt: prompt, WebSearch: true}, model.ModeAuto, url)
}

// AnalyzeDescription grades a pasted description for url. The call is made
// once, without rate-limit retries.
func (a *Analyzer) AnalyzeDescription(ctx context.Context, url, description string) (model.Analysis, error) {
	prompt, err := render(ManualAnalysisTemplate, promptData{URL: url, Description: description, Program: a.program})
	if err != nil {
		return model.Analysis{}, err
	}
	return a.run(ctx, a.manual, Request{Prompt: prompt}, model.ModeManualPaste, url)
}

func (a *Analyzer) run(ctx context.Context, p Provider, req Request, mode model.HandlingMode, url string) (model.Analysis, error) {
	start := a.now()
	body, err := p.Complete(ctx, req)
	if err != nil {
		a.logger.Warn("classifier call failed", "url", url, "mode", mode, "error", err)
		return model.Analysis{}, classifyError(err)
	}
	a.logger.Debug("classifier responded", "url", url, "mode", mode, "bytes", len(body), "elapsed", a.now().Sub(start))

	analysis, err := ParseResponse(body, mode, a.now())
	if err != nil {
		a.logger.Info("classifier response rejected", "url", url, "mode", mode, "error", err)
		return analysis, err
	}
	return analysis, nil
}

// classifyError maps provider errors onto intake error kinds.
func classifyError(err error) error {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode == http.StatusTooManyRequests {
			return model.RateLimited(err)
		}
		return model.APIRequestFailed(httpErr.StatusCode, err)
	}
	return model.NetworkFailure(err)
}

func render(tmpl *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

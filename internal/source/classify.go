// Package source decides how a submitted job URL can be handled before any
// network call is made.
package source

import (
	"net/url"
	"strings"

	"github.com/fairchance/jobintake/internal/model"
)

// DefaultQuickEntryPatterns match the Indeed family of job boards, which
// resist automated reading but carry a recognizable job key.
var DefaultQuickEntryPatterns = []string{
	"indeed.com",
	"indeed.ca",
	"indeed.co",
}

// DefaultManualOnlyPatterns match applicant-tracking systems known to block
// automated fetches.
var DefaultManualOnlyPatterns = []string{
	"workforcenow.adp.com",
	"workday.com",
	"myworkday",
	"taleo.net",
	"icims.com",
	"ultipro.com",
	"paycomonline.net",
	"lever.co",
	"greenhouse.io",
	"jobvite.com",
	"smartrecruiters.com",
}

// trackingParams are the query parameters that carry a job key, in priority order.
var trackingParams = []string{"jk", "vjk"}

// Classifier maps URLs to a handling mode using two fixed pattern lists.
// Both lists are lower-cased at construction and never mutated afterwards.
type Classifier struct {
	quickEntry []string
	manualOnly []string
}

// NewClassifier returns a classifier over the given pattern lists. Patterns
// are matched by substring containment against the lower-cased URL.
func NewClassifier(quickEntry, manualOnly []string) *Classifier {
	return &Classifier{
		quickEntry: lowerAll(quickEntry),
		manualOnly: lowerAll(manualOnly),
	}
}

// NewDefaultClassifier returns a classifier with the built-in pattern lists.
func NewDefaultClassifier() *Classifier {
	return NewClassifier(DefaultQuickEntryPatterns, DefaultManualOnlyPatterns)
}

// Classify returns the handling mode for rawURL. Quick-entry matches win over
// manual-only matches. Classify never fails; unknown or unparseable input is Auto.
func (c *Classifier) Classify(rawURL string) model.HandlingMode {
	lower := strings.ToLower(strings.TrimSpace(rawURL))
	if lower == "" {
		return model.ModeAuto
	}
	if containsAny(lower, c.quickEntry) {
		return model.ModeQuickEntry
	}
	if containsAny(lower, c.manualOnly) {
		return model.ModeManualPaste
	}
	return model.ModeAuto
}

// TrackingKey returns the job key carried in rawURL's query string, or "" if
// the URL has none or cannot be parsed. It is a display aid only.
func TrackingKey(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	q := u.Query()
	for _, p := range trackingParams {
		if v := strings.TrimSpace(q.Get(p)); v != "" {
			return v
		}
	}
	return ""
}

// TrackingKey lets a Classifier satisfy the intake source interface.
func (c *Classifier) TrackingKey(rawURL string) string {
	return TrackingKey(rawURL)
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

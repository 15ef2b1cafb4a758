package filter

import (
	"strings"
	"time"

	"github.com/fairchance/jobintake/internal/model"
)

// DefaultExpiryWindow hides jobs without an expiration date this long after
// submission.
const DefaultExpiryWindow = 21 * 24 * time.Hour

// BoardFilter matches jobs against the board's list filters. "all" and the
// empty string leave a dimension unconstrained. Unless IncludeExpired is set,
// expired jobs never match.
type BoardFilter struct {
	query  model.JobQuery
	window time.Duration
	now    func() time.Time
}

// NewBoardFilter returns a filter for q. A non-positive window uses
// DefaultExpiryWindow.
func NewBoardFilter(q model.JobQuery, window time.Duration) *BoardFilter {
	if window <= 0 {
		window = DefaultExpiryWindow
	}
	return &BoardFilter{query: q, window: window, now: time.Now}
}

// Match returns true if job passes every configured constraint.
func (f *BoardFilter) Match(job model.Job) bool {
	q := f.query
	if !unset(q.Grade) && !strings.EqualFold(q.Grade, string(job.Grade)) {
		return false
	}
	if !unset(q.Category) && !strings.EqualFold(q.Category, string(job.Category)) {
		return false
	}
	if !flag(q.Diploma, job.RequiresDiploma) || !flag(q.License, job.RequiresLicense) {
		return false
	}
	if !q.IncludeExpired && job.IsExpired(f.now(), f.window) {
		return false
	}
	return true
}

// Apply returns the matching jobs in their original order, capped at the
// query limit when one is set.
func (f *BoardFilter) Apply(jobs []model.Job) []model.Job {
	out := make([]model.Job, 0, len(jobs))
	for _, j := range jobs {
		if !f.Match(j) {
			continue
		}
		out = append(out, j)
		if f.query.Limit > 0 && len(out) == f.query.Limit {
			break
		}
	}
	return out
}

func unset(v string) bool {
	return v == "" || strings.EqualFold(v, "all")
}

// flag matches a yes/no/all selector against a boolean requirement.
func flag(sel string, v bool) bool {
	switch strings.ToLower(sel) {
	case "yes":
		return v
	case "no":
		return !v
	}
	return true
}

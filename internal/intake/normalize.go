package intake

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fairchance/jobintake/internal/model"
)

// Manual-fallback job values.
const (
	ReviewTitle       = "Needs Review"
	ReviewPlaceholder = "Unknown"
	ReviewReason      = "Added manually - needs review"
	reviewSalary      = "Not listed"
)

// Normalizer turns analyses into canonical Jobs.
type Normalizer struct {
	hirers *HirerTable
	now    func() time.Time
	newID  func(now time.Time) string
}

// NewNormalizer creates a normalizer that tags jobs using hirers.
func NewNormalizer(hirers *HirerTable) *Normalizer {
	return &Normalizer{hirers: hirers, now: time.Now, newID: newJobID}
}

// newJobID returns the creation time in milliseconds followed by nine
// random hex characters.
func newJobID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return strconv.FormatInt(now.UnixMilli(), 10) + suffix
}

// Normalize builds the Job for a classified submission.
func (n *Normalizer) Normalize(a model.Analysis, sub model.Submission) model.Job {
	now := n.now()
	job := model.Job{
		ID:                n.newID(now),
		URL:               sub.URL,
		DirectURL:         a.DirectApplicationURL,
		Title:             a.JobTitle,
		Company:           a.Company,
		Location:          a.Location,
		Grade:             a.Grade,
		GradeReason:       a.GradeReason,
		Category:          a.ExperienceCategory,
		CEOMatch:          a.CEOMatch,
		Salary:            a.Salary,
		RequiresDiploma:   a.RequiresDiploma,
		RequiresLicense:   a.RequiresLicense,
		DatePosted:        a.DatePosted,
		ExpirationDate:    a.ExpirationDate,
		ApplyTimeEstimate: a.ApplyTimeEstimate,
		SubmittedAt:       now,
		SubmittedBy:       sub.SubmittedBy,
	}
	if job.DirectURL == "" {
		job.DirectURL = sub.URL
	}
	if job.DatePosted == "" {
		job.DatePosted = now.UTC().Format(model.DateLayout)
	}
	job.FrequentHirerTag = n.tag(a.Company + " " + a.JobTitle)
	return job
}

// ManualReview builds the placeholder job created when a user adds a posting
// the classifier could not read. The hirer tag is derived from the URL since
// no company is known.
func (n *Normalizer) ManualReview(url, submittedBy string) model.Job {
	now := n.now()
	return model.Job{
		ID:               n.newID(now),
		URL:              url,
		DirectURL:        url,
		Title:            ReviewTitle,
		Company:          ReviewPlaceholder,
		Location:         ReviewPlaceholder,
		Grade:            model.GradeGood,
		GradeReason:      ReviewReason,
		Category:         model.CategoryOther,
		Salary:           reviewSalary,
		DatePosted:       now.UTC().Format(model.DateLayout),
		SubmittedAt:      now,
		SubmittedBy:      submittedBy,
		NeedsReview:      true,
		FrequentHirerTag: n.tag(url),
	}
}

func (n *Normalizer) tag(text string) *string {
	slug := n.hirers.Match(text)
	if slug == "" {
		return nil
	}
	return &slug
}

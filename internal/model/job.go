package model

import (
	"context"
	"time"
)

// DateLayout is the ISO calendar date format used for posting and expiration dates.
const DateLayout = "2006-01-02"

// HandlingMode says how a source URL can be classified.
type HandlingMode string

const (
	ModeAuto        HandlingMode = "auto"         // classifier fetches and reads the page itself
	ModeManualPaste HandlingMode = "manual-paste" // ATS blocks automated reads; user pastes the description
	ModeQuickEntry  HandlingMode = "quick-entry"  // manual paste for a recognized job board with a tracking key
)

// Grade is the fair-chance friendliness rating of a posting.
type Grade string

const (
	GradeBest   Grade = "best"   // fair chance encouraged
	GradeBetter Grade = "better" // has an EEO statement
	GradeGood   Grade = "good"   // no background check mentioned
	GradeFair   Grade = "fair"   // background check, only certain felonies disqualify
	GradePoor   Grade = "poor"   // strict background requirements
)

// Grades lists every valid grade, best first.
var Grades = []Grade{GradeBest, GradeBetter, GradeGood, GradeFair, GradePoor}

// Valid reports whether g is one of the known grades.
func (g Grade) Valid() bool {
	for _, v := range Grades {
		if g == v {
			return true
		}
	}
	return false
}

// Category is the experience category of a posting.
type Category string

const (
	CategoryConstruction   Category = "construction"
	CategoryWarehouse      Category = "warehouse"
	CategoryTransportation Category = "transportation"
	CategoryFoodService    Category = "foodservice"
	CategoryHospitality    Category = "hospitality"
	CategoryCustodial      Category = "custodial"
	CategoryOther          Category = "other"
)

// Categories is the closed set of experience categories.
var Categories = []Category{
	CategoryConstruction, CategoryWarehouse, CategoryTransportation,
	CategoryFoodService, CategoryHospitality, CategoryCustodial, CategoryOther,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// AnalysisSchemaVersion is bumped whenever an optional field is added to Analysis.
// New fields must always carry a default so older classifier output stays valid.
const AnalysisSchemaVersion = 2

// Analysis is the validated, fully defaulted form of a classifier response.
type Analysis struct {
	SchemaVersion        int
	IsLegitimate         bool // Auto mode only; true when absent
	LegitimacyReason     string
	JobTitle             string
	Company              string
	Location             string
	DirectApplicationURL string // empty when absent or not an http(s) URL
	Grade                Grade
	GradeReason          string
	ExperienceCategory   Category
	CEOMatch             string
	Salary               string
	RequiresDiploma      bool
	RequiresLicense      bool
	DatePosted           string  // YYYY-MM-DD
	ExpirationDate       *string // YYYY-MM-DD or nil
	ApplyTimeEstimate    string  // added in schema version 2
}

// Job is the canonical, persisted job-board entry.
type Job struct {
	ID                string    `json:"id"`
	URL               string    `json:"url"`
	DirectURL         string    `json:"directUrl"`
	Title             string    `json:"title"`
	Company           string    `json:"company"`
	Location          string    `json:"location"`
	Grade             Grade     `json:"grade"`
	GradeReason       string    `json:"gradeReason"`
	Category          Category  `json:"category"`
	CEOMatch          string    `json:"ceoMatch"`
	Salary            string    `json:"salary"`
	RequiresDiploma   bool      `json:"requiresDiploma"`
	RequiresLicense   bool      `json:"requiresLicense"`
	DatePosted        string    `json:"datePosted"`
	ExpirationDate    *string   `json:"expirationDate"`
	ApplyTimeEstimate string    `json:"applyTimeEstimate"`
	SubmittedAt       time.Time `json:"submittedAt"`
	SubmittedBy       string    `json:"submittedBy"`
	NeedsReview       bool      `json:"needsReview"`
	FrequentHirerTag  *string   `json:"frequentHirerTag"`
}

// IsExpired reports whether the job should be hidden from the board at now.
// Jobs with an expiration date expire once now passes it; jobs without one
// expire when more than window has elapsed since submission.
func (j Job) IsExpired(now time.Time, window time.Duration) bool {
	if j.ExpirationDate != nil && *j.ExpirationDate != "" {
		exp, err := time.Parse(DateLayout, *j.ExpirationDate)
		if err == nil {
			return now.After(exp)
		}
	}
	return now.Sub(j.SubmittedAt) > window
}

// Submission is the context a Job is normalized in.
type Submission struct {
	URL         string
	Mode        HandlingMode
	SubmittedBy string
}

// ErrorReport records why a URL did not become a Job.
type ErrorReport struct {
	Time             time.Time `json:"time"`
	URL              string    `json:"url"`
	ErrorKind        ErrorKind `json:"errorKind"`
	Error            string    `json:"error"`
	Troubleshoot     string    `json:"troubleshoot"`
	CanRetryManually bool      `json:"canRetryManually"`
}

// JobQuery selects jobs from the store. Empty string and "all" mean no constraint.
type JobQuery struct {
	Grade    string // a Grade or "all"
	Category string // a Category or "all"
	Diploma  string // "yes", "no" or "all"
	License  string // "yes", "no" or "all"

	// IncludeExpired disables the expiration view filter.
	IncludeExpired bool
	Limit          int
}

// JobPatch holds a partial update; nil fields are left unchanged.
type JobPatch struct {
	Title           *string   `json:"title,omitempty"`
	Company         *string   `json:"company,omitempty"`
	Location        *string   `json:"location,omitempty"`
	Grade           *Grade    `json:"grade,omitempty" validate:"omitempty,oneof=best better good fair poor"`
	GradeReason     *string   `json:"gradeReason,omitempty"`
	Category        *Category `json:"category,omitempty" validate:"omitempty,oneof=construction warehouse transportation foodservice hospitality custodial other"`
	Salary          *string   `json:"salary,omitempty"`
	RequiresDiploma *bool     `json:"requiresDiploma,omitempty"`
	RequiresLicense *bool     `json:"requiresLicense,omitempty"`
	ExpirationDate  *string   `json:"expirationDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	NeedsReview     *bool     `json:"needsReview,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p JobPatch) Empty() bool {
	return p.Title == nil && p.Company == nil && p.Location == nil && p.Grade == nil &&
		p.GradeReason == nil && p.Category == nil && p.Salary == nil &&
		p.RequiresDiploma == nil && p.RequiresLicense == nil &&
		p.ExpirationDate == nil && p.NeedsReview == nil
}

// ChangeOp names the kind of row change a store publishes.
type ChangeOp string

const (
	ChangeInsert ChangeOp = "insert"
	ChangeUpdate ChangeOp = "update"
	ChangeDelete ChangeOp = "delete"
)

// ChangeEvent is published whenever a stored job changes.
type ChangeEvent struct {
	Op    ChangeOp  `json:"op"`
	JobID string    `json:"jobId"`
	At    time.Time `json:"at"`
}

// JobStore persists jobs and notifies subscribers of changes.
type JobStore interface {
	Insert(ctx context.Context, job Job) error
	Update(ctx context.Context, id string, patch JobPatch) error
	Delete(ctx context.Context, id string) error
	Query(ctx context.Context, q JobQuery) ([]Job, error)
	// Get returns the job with id, or an error wrapping ErrJobNotFound.
	Get(ctx context.Context, id string) (Job, error)
	// ExistingURLs returns every stored url and directUrl.
	ExistingURLs(ctx context.Context) (map[string]struct{}, error)
	// Subscribe returns a channel of change events and a function that ends the subscription.
	Subscribe() (<-chan ChangeEvent, func())
}

// Notifier announces newly added jobs.
type Notifier interface {
	Notify(jobs []Job) error
}

package intake

import (
	"context"

	"github.com/fairchance/jobintake/internal/model"
)

// JobAnalyzer classifies postings. Errors are *model.IntakeError values.
type JobAnalyzer interface {
	AnalyzeURL(ctx context.Context, url string) (model.Analysis, error)
	AnalyzeDescription(ctx context.Context, url, description string) (model.Analysis, error)
}

// SourceClassifier decides how a URL can be handled.
type SourceClassifier interface {
	Classify(rawURL string) model.HandlingMode
	TrackingKey(rawURL string) string
}

// Pacer pauses between consecutive classifier calls in a batch.
type Pacer interface {
	Wait(ctx context.Context) error
}

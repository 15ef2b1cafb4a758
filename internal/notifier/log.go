package notifier

import (
	"log/slog"

	"github.com/fairchance/jobintake/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes newly added jobs to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each job via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each job with its grade and board fields.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(jobs []model.Job) error {
	for _, j := range jobs {
		args := []any{
			"title", j.Title,
			"company", j.Company,
			"location", j.Location,
			"grade", j.Grade,
			"category", j.Category,
			"url", j.DirectURL,
		}
		if j.FrequentHirerTag != nil {
			args = append(args, "frequent_hirer", *j.FrequentHirerTag)
		}
		if j.NeedsReview {
			args = append(args, "needs_review", true)
		}
		n.logger.Info("job posted to board", args...)
	}
	return nil
}

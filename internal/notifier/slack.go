package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fairchance/jobintake/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// maxRetryAfter caps how long a 429 Retry-After may stall Notify.
const maxRetryAfter = 5 * time.Second

// SlackNotifier announces new board jobs in a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	hirerLabel func(slug string) string
	sleep      func(time.Duration)
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts each job to Slack via webhook.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		sleep:      time.Sleep,
		logger:     logger,
	}
}

// WithHirerLabel sets how a frequent hirer slug is rendered in messages.
func (s *SlackNotifier) WithHirerLabel(label func(slug string) string) *SlackNotifier {
	s.hirerLabel = label
	return s
}

// Notify sends each job as a separate Slack message using Block Kit.
// Returns an error only if ALL messages fail. Individual failures are logged.
func (s *SlackNotifier) Notify(jobs []model.Job) error {
	if len(jobs) == 0 {
		return nil
	}

	failures := 0
	for i, j := range jobs {
		if i > 0 {
			s.sleep(500 * time.Millisecond)
		}

		if err := s.sendMessage(j); err != nil {
			s.logger.Error("slack notification failed", "id", j.ID, "title", j.Title, "error", err)
			failures++
		}
	}

	if failures == len(jobs) {
		return fmt.Errorf("all %d slack notifications failed", failures)
	}
	s.logger.Debug("slack notifications complete", "sent", len(jobs)-failures, "failed", failures)
	return nil
}

func (s *SlackNotifier) sendMessage(j model.Job) error {
	body, err := json.Marshal(buildPayload(j, s.hirerLabel))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.post(body)
	if err != nil {
		return err
	}
	if status == http.StatusTooManyRequests {
		secs, _ := strconv.Atoi(retryAfter)
		if secs <= 0 {
			secs = 1
		}
		wait := min(time.Duration(secs)*time.Second, maxRetryAfter)
		s.logger.Warn("slack rate limited, retrying", "retry_after_secs", secs, "wait", wait)
		s.sleep(wait)

		if status, _, err = s.post(body); err != nil {
			return fmt.Errorf("retry: %w", err)
		}
	}
	if status != http.StatusOK {
		return fmt.Errorf("slack returned %d", status)
	}
	return nil
}

func (s *SlackNotifier) post(body []byte) (int, string, error) {
	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, resp.Header.Get("Retry-After"), nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Fields   []slackText    `json:"fields,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style,omitempty"`
}

// SendTestMessage sends a sample job announcement to verify the integration works.
func SendTestMessage(n model.Notifier) error {
	now := time.Now()
	testJob := model.Job{
		ID:          "test-001",
		URL:         "https://example.com/jobs/test",
		DirectURL:   "https://example.com/jobs/test",
		Title:       "Test Notification - Integration Verified",
		Company:     "Job Intake Test",
		Location:    "Fresno, CA",
		Grade:       model.GradeBest,
		GradeReason: "Sample posting",
		Category:    model.CategoryOther,
		Salary:      "Not listed",
		DatePosted:  now.Format(model.DateLayout),
		SubmittedAt: now,
		SubmittedBy: "test",
	}
	return n.Notify([]model.Job{testJob})
}

var gradeIcons = map[model.Grade]string{
	model.GradeBest:   "🟢",
	model.GradeBetter: "🔵",
	model.GradeGood:   "🟡",
	model.GradeFair:   "🟠",
	model.GradePoor:   "🔴",
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func buildPayload(j model.Job, hirerLabel func(string) string) slackPayload {
	header := fmt.Sprintf("%s %s: %s", gradeIcons[j.Grade], j.Company, j.Title)
	if j.NeedsReview {
		header = "📝 Needs review: " + j.URL
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: header},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Grade:*\n" + strings.ToUpper(string(j.Grade))},
				{Type: "mrkdwn", Text: "*Category:*\n" + string(j.Category)},
				{Type: "mrkdwn", Text: "*Location:*\n" + j.Location},
				{Type: "mrkdwn", Text: "*Salary:*\n" + j.Salary},
				{Type: "mrkdwn", Text: "*Diploma required:*\n" + yesNo(j.RequiresDiploma)},
				{Type: "mrkdwn", Text: "*License required:*\n" + yesNo(j.RequiresLicense)},
			},
		},
	}

	var notes []string
	if j.GradeReason != "" {
		notes = append(notes, "*Why:* "+j.GradeReason)
	}
	if j.CEOMatch != "" {
		notes = append(notes, "*Program match:* "+j.CEOMatch)
	}
	if j.FrequentHirerTag != nil {
		hirer := *j.FrequentHirerTag
		if hirerLabel != nil {
			hirer = hirerLabel(hirer)
		}
		notes = append(notes, "*Frequent hirer:* "+hirer)
	}
	if j.ExpirationDate != nil {
		notes = append(notes, "*Closes:* "+*j.ExpirationDate)
	}
	if len(notes) > 0 {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: strings.Join(notes, "\n")},
		})
	}

	blocks = append(blocks,
		slackBlock{
			Type: "actions",
			Elements: []slackElement{
				{
					Type:  "button",
					Text:  slackText{Type: "plain_text", Text: "Apply Now"},
					URL:   j.DirectURL,
					Style: "primary",
				},
			},
		},
		slackBlock{Type: "divider"},
	)

	return slackPayload{Blocks: blocks}
}

package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
		"strings"
	"time"

	"github.com/fairchance/jobintake/internal/model"
)

// Defaults applied when a classifier field is missing or unusable.
const (
	DefaultJobTitle = "Unknown Position"
	DefaultCompany  = "Unknown Company"
	DefaultLocation = "Location not specified"
	DefaultSalary   = "Not listed"
	DefaultGrade    = model.GradeGood
)

const (
	autoMalformedHint   = "Try the direct employer page instead of a job board."
	manualMalformedHint = "Check that the pasted text is the full job description and try again."
)

// envelope is the subset of the /messages response the parser reads.
type envelope struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// ExtractText concatenates every text block of a response envelope, in order.
// Tool-use and search-result blocks are skipped.
func ExtractText(body []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", fmt.Errorf("decode response envelope: %w", err)
	}
	var sb strings.Builder
	for _, block := range env.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

const fence = "```"

// StripFences removes a leading ```lang line and a trailing ``` from a JSON
// payload. Backticks inside the payload are left alone, and text with no
// fences is returned trimmed, so StripFences(StripFences(s)) == StripFences(s).
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, fence) {
		s = strings.TrimPrefix(s, fence)
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimLeft(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-")
		}
		s = strings.TrimSpace(s)
	}
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}

// decodeObject parses text as a single JSON object, falling back to the
// outermost {...} span when the classifier wrapped the object in prose.
// Text that is already valid JSON but not an object is rejected.
func decodeObject(text string) (map[string]any, error) {
	var fields map[string]any
	err := json.Unmarshal([]byte(text), &fields)
	if err == nil && fields != nil {
		return fields, nil
	}
	if json.Valid([]byte(text)) {
		return nil, errors.New("response is not a JSON object")
	}
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start >= 0 && end > start {
		fields = nil
		if err2 := json.Unmarshal([]byte(text[start:end+1]), &fields); err2 == nil && fields != nil {
			return fields, nil
		}
	}
	if err == nil {
		err = errors.New("response is not a JSON object")
	}
	return nil, err
}

// ParseResponse turns a raw response envelope into a fully defaulted Analysis.
// Legitimacy is only enforced in Auto mode; a pasted description is trusted.
func ParseResponse(body []byte, mode model.HandlingMode, now time.Time) (model.Analysis, error) {
	hint := autoMalformedHint
	if mode != model.ModeAuto {
		hint = manualMalformedHint
	}

	text, err := ExtractText(body)
	if err != nil {
		return model.Analysis{}, model.MalformedJSON(hint, err)
	}
	text = StripFences(text)
	if text == "" {
		return model.Analysis{}, model.EmptyResponse()
	}

	fields, err := decodeObject(text)
	if err != nil {
		return model.Analysis{}, model.MalformedJSON(hint, err)
	}

	a := applyDefaults(fields, now)
	if mode == model.ModeAuto && !a.IsLegitimate {
		return a, model.NotLegitimate(a.LegitimacyReason)
	}
	return a, nil
}

func applyDefaults(f map[string]any, now time.Time) model.Analysis {
	a := model.Analysis{
		SchemaVersion:        model.AnalysisSchemaVersion,
		IsLegitimate:         legitimacy(f),
		LegitimacyReason:     stringField(f, "legitimacyReason"),
		JobTitle:             stringOr(f, "jobTitle", DefaultJobTitle),
		Company:              stringOr(f, "company", DefaultCompany),
		Location:             stringOr(f, "location", DefaultLocation),
		DirectApplicationURL: httpURL(stringField(f, "directApplicationUrl")),
		Grade:                DefaultGrade,
		GradeReason:          stringField(f, "gradeReason"),
		ExperienceCategory:   model.CategoryOther,
		CEOMatch:             stringField(f, "ceoMatch"),
		Salary:               stringOr(f, "salary", DefaultSalary),
		RequiresDiploma:      boolField(f, "requiresDiploma"),
		RequiresLicense:      boolField(f, "requiresLicense"),
		DatePosted:           now.UTC().Format(model.DateLayout),
		ApplyTimeEstimate:    stringField(f, "applyTimeEstimate"),
	}

	if g := model.Grade(strings.ToLower(stringField(f, "grade"))); g.Valid() {
		a.Grade = g
	}
	if c := model.Category(strings.ToLower(stringField(f, "experienceCategory"))); c.Valid() {
		a.ExperienceCategory = c
	}
	if d, ok := parseDate(stringField(f, "datePosted")); ok {
		a.DatePosted = d
	}
	if d, ok := parseDate(stringField(f, "expirationDate")); ok {
		a.ExpirationDate = &d
	}
	return a
}

// legitimacy is true when isLegitimate is absent. A present value counts as
// not legitimate when it is false, null, zero, blank or the string "false".
func legitimacy(f map[string]any) bool {
	v, ok := f["isLegitimate"]
	if !ok {
		return true
	}
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		x = strings.TrimSpace(x)
		return x != "" && !strings.EqualFold(x, "false")
	}
	return true
}

func stringField(f map[string]any, key string) string {
	s, _ := f[key].(string)
	return strings.TrimSpace(s)
}

func stringOr(f map[string]any, key, def string) string {
	if s := stringField(f, key); s != "" {
		return s
	}
	return def
}

func boolField(f map[string]any, key string) bool {
	b, _ := f[key].(bool)
	return b
}

// httpURL returns raw when it is an absolute http(s) URL, otherwise "".
func httpURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return raw
}

// parseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// calendar date. "null" and blank values are rejected.
func parseDate(s string) (string, bool) {
	if s == "" || strings.EqualFold(s, "null") {
		return "", false
	}
	if t, err := time.Parse(model.DateLayout, s); err == nil {
		return t.Format(model.DateLayout), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format(model.DateLayout), true
	}
	return "", false
}

package model

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// HTTPError wraps an upstream HTTP status code so callers can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// ErrNetwork marks failures where no response was obtained at all.
var ErrNetwork = errors.New("network error")

// ErrJobNotFound is returned by stores when no job has the requested id.
var ErrJobNotFound = errors.New("job not found")

// ErrorKind classifies why a submission did not become a Job.
type ErrorKind string

const (
	KindInvalidInput        ErrorKind = "invalid_input"
	KindNetworkError        ErrorKind = "network_error"
	KindRateLimited         ErrorKind = "rate_limited"
	KindAPIRequestFailed    ErrorKind = "api_request_failed"
	KindEmptyResponse       ErrorKind = "empty_response"
	KindMalformedJSON       ErrorKind = "malformed_json"
	KindNotLegitimate       ErrorKind = "not_legitimate"
	KindDuplicateURL        ErrorKind = "duplicate_url"
	KindStoreWriteFailed    ErrorKind = "store_write_failed"
	KindManualEntryRequired ErrorKind = "manual_entry_required"
)

// IntakeError is the error every pipeline stage reports to its caller.
// Label is the short user-facing error; Troubleshoot is the longer hint.
type IntakeError struct {
	Kind         ErrorKind
	Label        string
	Troubleshoot string
	Status       int // upstream status for KindAPIRequestFailed

	// Set for KindManualEntryRequired.
	Mode        HandlingMode
	TrackingKey string

	Err error
}

func (e *IntakeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Label, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Label)
}

func (e *IntakeError) Unwrap() error { return e.Err }

// CanAddAnyway reports whether the caller should offer to force-create a
// review-flagged job. Only content-level failures qualify; a rate-limited
// request never read any content.
func (e *IntakeError) CanAddAnyway() bool {
	switch e.Kind {
	case KindEmptyResponse, KindMalformedJSON, KindNotLegitimate:
		return true
	}
	return false
}

// CanRetryManually reports whether resubmitting through the manual paste
// path could still succeed.
func (e *IntakeError) CanRetryManually() bool {
	switch e.Kind {
	case KindInvalidInput, KindDuplicateURL:
		return false
	}
	return true
}

// HTTPStatus maps the error onto the status the pipeline's HTTP surface returns.
func (e *IntakeError) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindAPIRequestFailed:
		if e.Status >= 400 {
			return e.Status
		}
		return http.StatusBadGateway
	case KindNetworkError:
		return http.StatusBadGateway
	case KindDuplicateURL:
		return http.StatusConflict
	case KindStoreWriteFailed:
		return http.StatusInternalServerError
	default:
		// Content-level failures are reported in a 200 body.
		return http.StatusOK
	}
}

// Report converts the error into an ErrorReport for url.
func (e *IntakeError) Report(url string, at time.Time) ErrorReport {
	return ErrorReport{
		Time:             at,
		URL:              url,
		ErrorKind:        e.Kind,
		Error:            e.Label,
		Troubleshoot:     e.Troubleshoot,
		CanRetryManually: e.CanRetryManually(),
	}
}

// AsIntakeError unwraps err into an IntakeError, wrapping unknown errors as
// network failures so every caller gets a label and a hint.
func AsIntakeError(err error) *IntakeError {
	var ie *IntakeError
	if errors.As(err, &ie) {
		return ie
	}
	return NetworkFailure(err)
}

// InvalidInput reports a submission rejected before any network call.
func InvalidInput(label string) *IntakeError {
	return &IntakeError{Kind: KindInvalidInput, Label: label}
}

// NetworkFailure wraps a transport error or an unclassified failure.
func NetworkFailure(err error) *IntakeError {
	return &IntakeError{
		Kind:         KindNetworkError,
		Label:        "Request failed",
		Troubleshoot: "Network error - try again",
		Err:          err,
	}
}

// RateLimited reports a 429 that survived every retry.
func RateLimited(err error) *IntakeError {
	return &IntakeError{
		Kind:         KindRateLimited,
		Label:        "Rate limited",
		Troubleshoot: "Too many requests. Wait 30 seconds and try again.",
		Status:       http.StatusTooManyRequests,
		Err:          err,
	}
}

// APIRequestFailed reports a non-success status from the classifier.
func APIRequestFailed(status int, err error) *IntakeError {
	return &IntakeError{
		Kind:         KindAPIRequestFailed,
		Label:        "API request failed",
		Troubleshoot: fmt.Sprintf("Server returned %d. Try again.", status),
		Status:       status,
		Err:          err,
	}
}

// EmptyResponse reports a classifier reply with no usable text.
func EmptyResponse() *IntakeError {
	return &IntakeError{
		Kind:         KindEmptyResponse,
		Label:        "Empty response",
		Troubleshoot: "The page may be blocked or require login",
	}
}

// MalformedJSON reports text that does not decode to a JSON object.
func MalformedJSON(troubleshoot string, err error) *IntakeError {
	return &IntakeError{
		Kind:         KindMalformedJSON,
		Label:        "Failed to parse response",
		Troubleshoot: troubleshoot,
		Err:          err,
	}
}

// NotLegitimate reports a posting the classifier judged expired or fake.
// A blank reason falls back to a generic one.
func NotLegitimate(reason string) *IntakeError {
	if reason == "" {
		reason = "Posting may be expired"
	}
	return &IntakeError{
		Kind:         KindNotLegitimate,
		Label:        "Flagged as not legitimate",
		Troubleshoot: reason,
	}
}

// DuplicateURL reports a URL already stored as a url or direct url.
func DuplicateURL(url string) *IntakeError {
	return &IntakeError{
		Kind:         KindDuplicateURL,
		Label:        "Duplicate URL",
		Troubleshoot: "This job is already on the board: " + url,
	}
}

// StoreWriteFailed reports an analyzed job the store could not persist.
func StoreWriteFailed(err error) *IntakeError {
	return &IntakeError{
		Kind:         KindStoreWriteFailed,
		Label:        "Failed to save job to database",
		Troubleshoot: "The job was analyzed but could not be saved. Try again later.",
		Err:          err,
	}
}

// ManualEntryRequired reports a URL whose site needs a pasted description.
func ManualEntryRequired(mode HandlingMode, trackingKey string) *IntakeError {
	hint := "This site blocks automatic reading (ADP, Workday, Taleo, etc.). Paste the job description to continue."
	if mode == ModeQuickEntry {
		hint = "Indeed blocks automatic reading. Open the job, copy the full description, and paste it with the URL."
	}
	return &IntakeError{
		Kind:         KindManualEntryRequired,
		Label:        "Manual entry required",
		Troubleshoot: hint,
		Mode:         mode,
		TrackingKey:  trackingKey,
	}
}

package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/fairchance/jobintake/internal/model"
)

// successBody is returned when a submission became a job.
type successBody struct {
	Success bool      `json:"success"`
	Job     model.Job `json:"job"`
}

// errorBody is returned for every failed request.
type errorBody struct {
	Error        string             `json:"error"`
	Troubleshoot string             `json:"troubleshoot,omitempty"`
	CanAddAnyway bool               `json:"canAddAnyway,omitempty"`
	HandlingMode model.HandlingMode `json:"handlingMode,omitempty"`
	TrackingKey  string             `json:"trackingKey,omitempty"`
}

// writeJSON writes v as application/json with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJob(w http.ResponseWriter, job model.Job) {
	writeJSON(w, http.StatusOK, successBody{Success: true, Job: job})
}

// writeIntakeError maps err onto the status and body callers expect.
func writeIntakeError(w http.ResponseWriter, err error) {
	ie := model.AsIntakeError(err)
	writeJSON(w, ie.HTTPStatus(), errorBody{
		Error:        ie.Label,
		Troubleshoot: ie.Troubleshoot,
		CanAddAnyway: ie.CanAddAnyway(),
		HandlingMode: ie.Mode,
		TrackingKey:  ie.TrackingKey,
	})
}

func writeError(w http.ResponseWriter, status int, label string) {
	writeJSON(w, status, errorBody{Error: label})
}

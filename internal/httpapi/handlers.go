package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fairchance/jobintake/internal/intake"
	"github.com/fairchance/jobintake/internal/model"
	"github.com/fairchance/jobintake/internal/store"
)

type analyzeRequest struct {
	URL string `json:"url" validate:"required"`
}

type analyzeManualRequest struct {
	URL         string `json:"url" validate:"required"`
	Description string `json:"description" validate:"required"`
}

type bulkRequest struct {
	URLs []string `json:"urls" validate:"required_without=Text,max=500"`
	Text string   `json:"text"`
}

type bulkResponse struct {
	intake.BatchResult
	Summary string `json:"summary"`
}

type classifyResponse struct {
	URL          string             `json:"url"`
	HandlingMode model.HandlingMode `json:"handlingMode"`
	TrackingKey  string             `json:"trackingKey,omitempty"`
}

type jobsResponse struct {
	Jobs  []model.Job `json:"jobs"`
	Count int         `json:"count"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := s.validate.decode(r, &req); err != nil {
		writeIntakeError(w, err)
		return
	}
	job, err := s.intake.Submit(r.Context(), req.URL)
	if err != nil {
		writeIntakeError(w, err)
		return
	}
	writeJob(w, job)
}

func (s *Server) handleAnalyzeManual(w http.ResponseWriter, r *http.Request) {
	var req analyzeManualRequest
	if err := s.validate.decode(r, &req); err != nil {
		writeIntakeError(w, err)
		return
	}
	job, err := s.intake.SubmitManual(r.Context(), req.URL, req.Description)
	if err != nil {
		writeIntakeError(w, err)
		return
	}
	writeJob(w, job)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := s.validate.decode(r, &req); err != nil {
		writeIntakeError(w, err)
		return
	}
	job, err := s.intake.AddForReview(r.Context(), req.URL)
	if err != nil {
		writeIntakeError(w, err)
		return
	}
	writeJob(w, job)
}

func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := s.validate.decode(r, &req); err != nil {
		writeIntakeError(w, err)
		return
	}

	if s.lock != nil {
		release, err := s.lock()
		if errors.Is(err, store.ErrBatchRunning) {
			writeError(w, http.StatusConflict, "A bulk run is already in progress")
			return
		}
		if err != nil {
			s.logger.Error("acquire batch lock", "error", err)
			writeError(w, http.StatusInternalServerError, "Could not start bulk run")
			return
		}
		defer func() {
			if err := release(); err != nil {
				s.logger.Warn("release batch lock", "error", err)
			}
		}()
	}

	lines := append([]string{}, req.URLs...)
	lines = append(lines, intake.SplitLines(req.Text)...)

	result, err := s.batch.Run(r.Context(), lines)
	if err != nil {
		writeIntakeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bulkResponse{BatchResult: result, Summary: result.Summary()})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("url"))
	if raw == "" {
		writeIntakeError(w, model.InvalidInput("URL is required"))
		return
	}
	writeJSON(w, http.StatusOK, classifyResponse{
		URL:          raw,
		HandlingMode: s.sources.Classify(raw),
		TrackingKey:  s.sources.TrackingKey(raw),
	})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	q, err := parseJobQuery(r)
	if err != nil {
		writeIntakeError(w, err)
		return
	}
	jobs, err := s.store.Query(r.Context(), q)
	if err != nil {
		s.logger.Error("query jobs", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load jobs")
		return
	}
	if jobs == nil {
		jobs = []model.Job{}
	}
	writeJSON(w, http.StatusOK, jobsResponse{Jobs: jobs, Count: len(jobs)})
}

func (s *Server) handlePatchJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch model.JobPatch
	if err := s.validate.decode(r, &patch); err != nil {
		writeIntakeError(w, err)
		return
	}
	if err := s.store.Update(r.Context(), id, patch); err != nil {
		s.writeStoreError(w, "update job", id, err)
		return
	}
	job, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, "reload job", id, err)
		return
	}
	writeJob(w, job)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeStoreError(w, "delete job", id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeStoreError(w http.ResponseWriter, op, id string, err error) {
	if errors.Is(err, model.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	s.logger.Error(op, "id", id, "error", err)
	writeError(w, http.StatusInternalServerError, "Failed to save job to database")
}

// parseJobQuery reads board filters from the query string.
func parseJobQuery(r *http.Request) (model.JobQuery, error) {
	v := r.URL.Query()
	q := model.JobQuery{
		Grade:    strings.ToLower(v.Get("grade")),
		Category: strings.ToLower(v.Get("category")),
		Diploma:  strings.ToLower(v.Get("diploma")),
		License:  strings.ToLower(v.Get("license")),
	}
	if q.Grade != "" && q.Grade != "all" && !model.Grade(q.Grade).Valid() {
		return q, model.InvalidInput("Unknown grade: " + q.Grade)
	}
	if q.Category != "" && q.Category != "all" && !model.Category(q.Category).Valid() {
		return q, model.InvalidInput("Unknown category: " + q.Category)
	}
	for _, sel := range []string{q.Diploma, q.License} {
		switch sel {
		case "", "all", "yes", "no":
		default:
			return q, model.InvalidInput("Diploma and license filters must be yes, no or all")
		}
	}
	if raw := v.Get("include_expired"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return q, model.InvalidInput("include_expired must be true or false")
		}
		q.IncludeExpired = b
	}
	if raw := v.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return q, model.InvalidInput("limit must be a non-negative integer")
		}
		q.Limit = n
	}
	return q, nil
}

// Package httpapi exposes the intake pipeline and the job board over HTTP.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/fairchance/jobintake/internal/intake"
	"github.com/fairchance/jobintake/internal/model"
)

// Intake is the single-submission surface of the pipeline.
type Intake interface {
	Submit(ctx context.Context, url string) (model.Job, error)
	SubmitManual(ctx context.Context, url, description string) (model.Job, error)
	AddForReview(ctx context.Context, url string) (model.Job, error)
}

// BatchRunner processes bulk submissions.
type BatchRunner interface {
	Run(ctx context.Context, lines []string) (intake.BatchResult, error)
}

// Locker guards bulk runs. The returned function releases the lock.
type Locker func() (release func() error, err error)

// Options configures the HTTP API.
type Options struct {
	Addr           string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// Server serves the pipeline and board endpoints.
type Server struct {
	opts     Options
	intake   Intake
	batch    BatchRunner
	lock     Locker
	store    model.JobStore
	sources  intake.SourceClassifier
	validate *requestValidator
	logger   *slog.Logger
}

// NewServer creates a server wired with all its dependencies. lock may be nil.
func NewServer(
	opts Options,
	in Intake,
	batch BatchRunner,
	lock Locker,
	store model.JobStore,
	sources intake.SourceClassifier,
	logger *slog.Logger,
) *Server {
	return &Server{
		opts:     opts,
		intake:   in,
		batch:    batch,
		lock:     lock,
		store:    store,
		sources:  sources,
		validate: newValidator(),
		logger:   logger,
	}
}

// Routes returns the router with every endpoint mounted.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// The event stream stays open and a bulk run makes one paced
		// classifier call per URL, so both sit outside the timeout group.
		r.Get("/jobs/events", s.handleEvents)
		r.Post("/jobs/bulk", s.handleBulk)

		r.Group(func(r chi.Router) {
			if s.opts.RequestTimeout > 0 {
				r.Use(middleware.Timeout(s.opts.RequestTimeout))
			}
			r.Post("/analyze", s.handleAnalyze)
			r.Post("/analyze-manual", s.handleAnalyzeManual)
			r.Get("/classify", s.handleClassify)

			r.Get("/jobs", s.handleListJobs)
			r.Post("/jobs/review", s.handleReview)
			r.Patch("/jobs/{id}", s.handlePatchJob)
			r.Delete("/jobs/{id}", s.handleDeleteJob)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("http shutting down")
	return srv.Shutdown(shutdownCtx)
}

// accessLog logs each HTTP request with structured fields.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

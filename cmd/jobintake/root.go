package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fairchance/jobintake/internal/ai"
	"github.com/fairchance/jobintake/internal/config"
	"github.com/fairchance/jobintake/internal/intake"
	"github.com/fairchance/jobintake/internal/model"
	"github.com/fairchance/jobintake/internal/notifier"
	"github.com/fairchance/jobintake/internal/ratelimit"
	"github.com/fairchance/jobintake/internal/retry"
	"github.com/fairchance/jobintake/internal/secrets"
	"github.com/fairchance/jobintake/internal/source"
	"github.com/fairchance/jobintake/internal/store"
)

var (
	cfgPath string
	debug   bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:          "jobintake",
	Short:        "Fair-chance job board intake",
	Long:         "jobintake grades job postings for fair-chance friendliness and adds them to the program's job board.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBINTAKE_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBINTAKE_CONFIG env var > "./config.yaml".
// A missing ./config.yaml falls back to built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	explicit := path != ""
	if path == "" {
		if env := os.Getenv("JOBINTAKE_CONFIG"); env != "" {
			path = env
			explicit = true
		} else {
			path = "config.yaml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// tuiLogger keeps log output from corrupting a spinner or picker unless
// --debug asks for it.
func tuiLogger(dbg bool) *slog.Logger {
	if dbg {
		return setupLogger(true)
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger).
			WithHirerLabel(setupHirers(cfg).Label)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (*store.SQLStore, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN, cfg.Intake.ExpiryWindow)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// setupAnalyzer builds the classifier client chain. Both paths share one
// throttle; only the Auto path retries on 429.
func setupAnalyzer(cfg *config.Config, logger *slog.Logger) (*ai.Analyzer, error) {
	cc := cfg.Classifier
	key, err := secrets.ResolveAPIKey(cc.APIKey, cc.KeyringAccount)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cc.Timeout}
	throttled := ratelimit.NewThrottledDoer(httpClient, ratelimit.NewLimiter(cc.RequestsPerMinute))
	retrying := retry.NewRateLimitInvoker(throttled, cc.Retry.MaxAttempts, cc.Retry.Backoff, logger)

	clientCfg := ai.ClientConfig{
		BaseURL:    cc.BaseURL,
		APIKey:     key,
		APIVersion: cc.APIVersion,
		Model:      cc.Model,
		MaxTokens:  cc.MaxTokens,
	}
	return ai.NewAnalyzer(
		ai.NewMessagesClient(clientCfg, retrying),
		ai.NewMessagesClient(clientCfg, throttled),
		cfg.Intake.ProgramName,
		logger,
	), nil
}

func setupSources(cfg *config.Config) *source.Classifier {
	quick := cfg.Intake.QuickEntryDomains
	if quick == nil {
		quick = source.DefaultQuickEntryPatterns
	}
	manual := cfg.Intake.ManualOnlyDomains
	if manual == nil {
		manual = source.DefaultManualOnlyPatterns
	}
	return source.NewClassifier(quick, manual)
}

func setupHirers(cfg *config.Config) *intake.HirerTable {
	if cfg.Intake.FrequentHirers == nil {
		return intake.NewHirerTable(intake.DefaultHirers)
	}
	hirers := make([]intake.Hirer, 0, len(cfg.Intake.FrequentHirers))
	for _, h := range cfg.Intake.FrequentHirers {
		hirers = append(hirers, intake.Hirer{Slug: h.Slug, Name: h.Name, Icon: h.Icon, Patterns: h.Patterns})
	}
	return intake.NewHirerTable(hirers)
}

// services is everything a submitting command needs.
type services struct {
	store    *store.SQLStore
	sources  *source.Classifier
	hirers   *intake.HirerTable
	pipeline *intake.Pipeline
	batch    *intake.Batch
}

func (s *services) Close() error {
	return s.store.Close()
}

// setupServices wires the pipeline. Without withClassifier no API key is
// needed, and only AddForReview may be used.
func setupServices(ctx context.Context, cfg *config.Config, logger *slog.Logger, withClassifier bool) (*services, error) {
	var analyzer intake.JobAnalyzer
	if withClassifier {
		a, err := setupAnalyzer(cfg, logger)
		if err != nil {
			return nil, err
		}
		analyzer = a
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sources := setupSources(cfg)
	hirers := setupHirers(cfg)
	var sink intake.JobSink = st
	n := setupNotifier(cfg, &http.Client{Timeout: 30 * time.Second}, logger)
	if dryRun {
		logger.Info("dry run: jobs are graded but not saved or announced")
		sink = store.NewNopStore()
		n = notifier.NewLogNotifier(logger)
	}
	pipeline := intake.NewPipeline(
		sources,
		analyzer,
		intake.NewNormalizer(hirers),
		sink,
		n,
		cfg.Intake.SubmittedBy,
		logger,
	)
	return &services{
		store:    st,
		sources:  sources,
		hirers:   hirers,
		pipeline: pipeline,
		batch:    intake.NewBatch(pipeline, ratelimit.NewPacer(cfg.Intake.Pacing), logger),
	}, nil
}

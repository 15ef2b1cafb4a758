package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fairchance/jobintake/internal/httpapi"
	"github.com/fairchance/jobintake/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the intake HTTP API",
	Long:  "Serves the intake and board endpoints; blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}
	logger.Info("config loaded",
		"addr", cfg.Server.Addr,
		"store", cfg.Store.Driver,
		"model", cfg.Classifier.Model,
		"notification", cfg.Notification.Type,
		"expiry_window", cfg.Intake.ExpiryWindow.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := setupServices(ctx, cfg, logger, true)
	if err != nil {
		logger.Error("failed to start", "error", err)
		return err
	}
	defer svc.Close()

	lockPath := cfg.Store.LockPath
	lock := func() (func() error, error) {
		l, err := store.AcquireBatchLock(lockPath)
		if err != nil {
			return nil, err
		}
		return l.Release, nil
	}

	srv := httpapi.NewServer(
		httpapi.Options{
			Addr:           cfg.Server.Addr,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			RequestTimeout: cfg.Server.RequestTimeout,
		},
		svc.pipeline,
		svc.batch,
		lock,
		svc.store,
		svc.sources,
		logger,
	)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		return err
	}

	logger.Info("goodbye")
	return nil
}

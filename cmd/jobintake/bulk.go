package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fairchance/jobintake/internal/intake"
	"github.com/fairchance/jobintake/internal/store"
)

var bulkCmd = &cobra.Command{
	Use:   "bulk <file|->",
	Short: "Add many postings, one URL per line",
	Long: "Processes URLs in order with a pause between classifier calls. URLs that need a " +
		"pasted description are listed at the end for manual entry.",
	Args: cobra.ExactArgs(1),
	RunE: runBulk,
}

func init() {
	bulkCmd.Flags().BoolVar(&dryRun, "dry-run", false, "grade the postings without saving or announcing them")
	rootCmd.AddCommand(bulkCmd)
}

func runBulk(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	var data []byte
	if args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read urls: %w", err)
	}

	lock, err := store.AcquireBatchLock(cfg.Store.LockPath)
	if err != nil {
		return err
	}
	defer lock.Release()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := setupServices(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer svc.Close()

	result, err := svc.batch.Run(ctx, intake.SplitLines(string(data)))
	if err != nil {
		return err
	}
	printBatchResult(result)
	return nil
}

func printBatchResult(r intake.BatchResult) {
	fmt.Println()
	if r.Cancelled {
		fmt.Println("Run interrupted; partial results follow.")
	}
	fmt.Println(r.Summary())

	for _, j := range r.Jobs {
		fmt.Printf("  ✅ %s at %s (%s)\n", j.Title, j.Company, j.Grade)
	}
	if len(r.Errors) > 0 {
		fmt.Println("\nErrors:")
		for _, e := range r.Errors {
			fmt.Printf("  ❌ %s\n     %s: %s\n", e.URL, e.Error, e.Troubleshoot)
		}
	}
	if len(r.NeedsManual) > 0 {
		fmt.Println("\nNeed manual entry (run `jobintake add <url> --description-file ...`):")
		for _, u := range r.NeedsManual {
			fmt.Printf("  📝 %s\n", u)
		}
	}
	if len(r.Pending) > 0 {
		fmt.Println("\nNot processed (submit again):")
		for _, u := range r.Pending {
			fmt.Printf("  ⏸  %s\n", u)
		}
	}
}

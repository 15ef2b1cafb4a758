package main

import (
	"github.com/spf13/cobra"

	"github.com/fairchance/jobintake/internal/model"
)

var reviewCmd = &cobra.Command{
	Use:   "review <url>",
	Short: "Add a posting without analysis, flagged for review",
	Args:  cobra.ExactArgs(1),
	RunE:  runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	svc, err := setupServices(cmd.Context(), cfg, logger, false)
	if err != nil {
		return err
	}
	defer svc.Close()

	job, err := svc.pipeline.AddForReview(cmd.Context(), args[0])
	if err != nil {
		ie := model.AsIntakeError(err)
		printIntakeError(ie)
		return ie
	}
	printJob(job, svc.hirers)
	return nil
}

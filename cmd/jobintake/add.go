package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fairchance/jobintake/internal/board"
	"github.com/fairchance/jobintake/internal/config"
	"github.com/fairchance/jobintake/internal/intake"
	"github.com/fairchance/jobintake/internal/model"
)

var (
	descriptionFile  string
	descriptionStdin bool
)

var addCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Grade one job posting and add it to the board",
	Long: "Submits a posting URL. Sites that block automatic reading need the job description, " +
		"passed with --description-file or --description-stdin, or pasted when prompted.",
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&descriptionFile, "description-file", "", "read the job description from a file")
	addCmd.Flags().BoolVar(&descriptionStdin, "description-stdin", false, "read the job description from stdin")
	addCmd.Flags().BoolVar(&dryRun, "dry-run", false, "grade the posting without saving or announcing it")
	addCmd.MarkFlagsMutuallyExclusive("description-file", "description-stdin")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	desc, err := readDescription()
	if err != nil {
		return err
	}

	svc, err := setupServices(cmd.Context(), cfg, tuiLogger(debug), true)
	if err != nil {
		return err
	}
	defer svc.Close()

	url := args[0]
	var job model.Job
	if desc != "" {
		job, err = submitManual(cfg, svc.pipeline, url, desc)
	} else {
		job, err = board.RunLoader("Analyzing "+url, cfg.Server.RequestTimeout, func(ctx context.Context) (model.Job, error) {
			return svc.pipeline.Submit(ctx, url)
		})
	}
	if err == nil {
		printJob(job, svc.hirers)
		return nil
	}
	return recoverAdd(cfg, svc, url, err)
}

func submitManual(cfg *config.Config, p *intake.Pipeline, url, desc string) (model.Job, error) {
	return board.RunLoader("Grading pasted description", cfg.Server.RequestTimeout, func(ctx context.Context) (model.Job, error) {
		return p.SubmitManual(ctx, url, desc)
	})
}

func addForReview(cfg *config.Config, p *intake.Pipeline, url string) (model.Job, error) {
	return board.RunLoader("Adding for review", cfg.Server.RequestTimeout, func(ctx context.Context) (model.Job, error) {
		return p.AddForReview(ctx, url)
	})
}

// recoverAdd offers the follow-up actions a failed submission allows.
func recoverAdd(cfg *config.Config, svc *services, url string, err error) error {
	if errors.Is(err, board.ErrCancelled) {
		fmt.Println("Cancelled.")
		return nil
	}
	ie := model.AsIntakeError(err)
	printIntakeError(ie)

	var options []string
	switch {
	case ie.Kind == model.KindManualEntryRequired:
		options = []string{"Paste the job description", "Add for review without analysis", "Cancel"}
	case ie.CanAddAnyway():
		options = []string{"Add anyway (flagged for review)", "Cancel"}
	default:
		return ie
	}

	detail := ""
	if ie.TrackingKey != "" {
		detail = "Job key: " + ie.TrackingKey
	}
	choice, perr := board.RunChoicePicker(ie.Label, detail, options)
	if perr != nil {
		return perr
	}

	var job model.Job
	switch {
	case choice < 0 || options[choice] == "Cancel":
		return nil
	case ie.Kind == model.KindManualEntryRequired && choice == 0:
		fmt.Println("Paste the job description, then press Ctrl+D:")
		raw, rerr := io.ReadAll(os.Stdin)
		if rerr != nil {
			return fmt.Errorf("read description: %w", rerr)
		}
		job, err = submitManual(cfg, svc.pipeline, url, string(raw))
	default:
		job, err = addForReview(cfg, svc.pipeline, url)
	}
	if err != nil {
		ie := model.AsIntakeError(err)
		printIntakeError(ie)
		return ie
	}
	printJob(job, svc.hirers)
	return nil
}

func readDescription() (string, error) {
	switch {
	case descriptionFile != "":
		b, err := os.ReadFile(descriptionFile)
		if err != nil {
			return "", fmt.Errorf("read description: %w", err)
		}
		return string(b), nil
	case descriptionStdin:
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read description: %w", err)
		}
		return string(b), nil
	}
	return "", nil
}

func printJob(j model.Job, hirers *intake.HirerTable) {
	verb := "Added"
	if dryRun {
		verb = "Graded (not saved)"
	}
	fmt.Printf("✅ %s: %s at %s\n", verb, j.Title, j.Company)
	fmt.Printf("   Grade: %s  Category: %s  Location: %s\n", strings.ToUpper(string(j.Grade)), j.Category, j.Location)
	if j.FrequentHirerTag != nil {
		fmt.Printf("   Frequent hirer: %s\n", hirers.Label(*j.FrequentHirerTag))
	}
	if j.NeedsReview {
		fmt.Println("   📝 Needs review")
	}
	fmt.Printf("   Apply: %s\n", j.DirectURL)
	fmt.Printf("   ID: %s\n", j.ID)
}

func printIntakeError(ie *model.IntakeError) {
	fmt.Printf("❌ %s\n", ie.Label)
	if ie.Troubleshoot != "" {
		fmt.Printf("   %s\n", ie.Troubleshoot)
	}
}

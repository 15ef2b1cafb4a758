package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fairchance/jobintake/internal/model"
)

var (
	jobsGrade    string
	jobsCategory string
	jobsAll      bool
	jobsLimit    int
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List jobs on the board, newest first",
	RunE:  runJobs,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a job from the board",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	jobsCmd.Flags().StringVar(&jobsGrade, "grade", "all", "only show this grade (best, better, good, fair, poor)")
	jobsCmd.Flags().StringVar(&jobsCategory, "category", "all", "only show this experience category")
	jobsCmd.Flags().BoolVar(&jobsAll, "all", false, "include expired jobs")
	jobsCmd.Flags().IntVar(&jobsLimit, "limit", 0, "maximum number of jobs to show (0 = no limit)")
	rootCmd.AddCommand(jobsCmd, deleteCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	st, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	jobs, err := st.Query(cmd.Context(), model.JobQuery{
		Grade:          strings.ToLower(jobsGrade),
		Category:       strings.ToLower(jobsCategory),
		IncludeExpired: jobsAll,
		Limit:          jobsLimit,
	})
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Println("No jobs on the board.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tGRADE\tTITLE\tCOMPANY\tLOCATION\tSUBMITTED")
	for _, j := range jobs {
		title := j.Title
		if j.NeedsReview {
			title += " 📝"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			j.ID, strings.ToUpper(string(j.Grade)), title, j.Company, j.Location,
			j.SubmittedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func runDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	st, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Delete(cmd.Context(), args[0]); err != nil {
		if errors.Is(err, model.ErrJobNotFound) {
			return fmt.Errorf("no job with id %q", args[0])
		}
		return err
	}
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}

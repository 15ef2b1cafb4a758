package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fairchance/jobintake/internal/board"
	"github.com/fairchance/jobintake/internal/filter"
	"github.com/fairchance/jobintake/internal/model"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Browse the job board interactively (TUI)",
	Long:  "Shows every stored job next to what the public board currently displays.",
	RunE:  runBoard,
}

func init() {
	rootCmd.AddCommand(boardCmd)
}

func runBoard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	st, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	all, err := st.Query(cmd.Context(), model.JobQuery{IncludeExpired: true})
	if err != nil {
		return err
	}
	visible := filter.NewBoardFilter(model.JobQuery{}, cfg.Intake.ExpiryWindow).Apply(all)

	reviewed := false
	reviewer := func(ctx context.Context, id string) error {
		return st.Update(ctx, id, model.JobPatch{NeedsReview: &reviewed})
	}
	return board.RunBoard(all, visible, reviewer, setupHirers(cfg).Label)
}

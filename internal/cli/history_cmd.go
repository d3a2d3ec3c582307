package cli

import (
	"fmt"

	"github.com/alexanderramin/dayplan/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newCarryoverCmd(app *App, sc *scope) *cobra.Command {
	return &cobra.Command{
		Use:   "carryover",
		Short: "Show unfinished high-priority work from recent days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items := app.Plans.GetPreviousIncomplete(cmd.Context(), sc.user, sc.section, sc.courseID())
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatActivities("Carryover", items))
			return nil
		},
	}
}

func newHistoryCmd(app *App, sc *scope) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plans := app.Plans.GetPlanHistory(cmd.Context(), sc.user, days)
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHistory(plans, app.today()))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "Number of days to include, today counted")
	return cmd
}

func newRateCmd(app *App, sc *scope) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Show the completion rate over recent days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rate := app.Plans.GetCompletionRate(cmd.Context(), sc.user, days)
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCompletionRate(rate, days))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "Number of days to include, today counted")
	return cmd
}

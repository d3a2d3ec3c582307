package cli

import (
	"fmt"

	"github.com/alexanderramin/dayplan/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *App, sc *scope) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show today's progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			plan := app.Plans.FetchTodaysPlan(ctx, sc.user, sc.lookupSection())
			if plan == nil {
				fmt.Fprintln(out, formatter.Dim("No plan for today."))
				return nil
			}
			done := app.Plans.GetTodaysCompletionStatus(ctx, sc.user, sc.lookupSection())

			fmt.Fprintf(out, "%s %s\n", formatter.Bold("Today:"), formatter.RenderRatio(plan.CompletedCount(), plan.TotalActivities(), 20))
			for _, id := range done {
				fmt.Fprintf(out, "  %s %s\n", formatter.StyleGreen.Render("✔"), formatter.Dim(id))
			}
			for _, a := range plan.Incomplete() {
				fmt.Fprintf(out, "  %s %s %s\n", formatter.StyleBlue.Render("○"), a.ID, formatter.Dim(formatter.FormatMinutes(a.EstimatedMinutes)))
			}
			return nil
		},
	}
}

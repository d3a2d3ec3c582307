package cli

import (
	"fmt"

	"github.com/alexanderramin/dayplan/internal/cli/formatter"
	"github.com/alexanderramin/dayplan/internal/domain"
	"github.com/alexanderramin/dayplan/internal/service"
	"github.com/spf13/cobra"
)

func newCompleteCmd(app *App, sc *scope) *cobra.Command {
	return &cobra.Command{
		Use:   "complete [ACTIVITY_ID]",
		Short: "Mark an activity of today's plan as done",
		Long: "Mark an activity of today's plan as done. Without an ID an " +
			"interactive picker lists the open activities.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			plan := app.Plans.FetchTodaysPlan(ctx, sc.user, sc.lookupSection())

			var activityID string
			if len(args) == 1 {
				activityID = args[0]
			} else {
				if plan == nil {
					return errNoPlan
				}
				open := plan.Incomplete()
				if len(open) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Everything in today's plan is done.")
					return nil
				}
				if !app.interactive() {
					return fmt.Errorf("an activity ID is required when not running in a terminal")
				}
				picked, err := app.pick(open)
				if err != nil {
					return err
				}
				activityID = picked
			}

			req := service.CompletionRequest{
				UserID:     sc.user,
				ActivityID: activityID,
				Section:    sc.section,
				CourseID:   sc.courseID(),
			}
			if a, ok := findActivity(plan, activityID); ok {
				req.ActivityType = a.Type
				req.EstimatedMinutes = a.EstimatedMinutes
				if plan.Section != "" {
					req.Section = plan.Section
				}
			}

			report := app.Plans.MarkActivityCompleted(ctx, req)
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCompletion(activityID, report))
			return nil
		},
	}
}

func findActivity(plan *domain.StudyPlan, id string) (domain.Activity, bool) {
	if plan == nil {
		return domain.Activity{}, false
	}
	for _, a := range plan.Activities {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Activity{}, false
}

func newStartCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "start ACTIVITY_ID",
		Short: "Start the clock on an activity",
		Long: "Record that an activity has started. Completing it later logs the " +
			"actual time taken, which personalizes future estimates.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Tracker == nil {
				return fmt.Errorf("activity tracking is not configured")
			}
			if err := app.Tracker.MarkActivityStarted(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started %s\n", formatter.Bold(args[0]))
			return nil
		},
	}
}

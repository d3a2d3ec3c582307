package cli

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/dayplan/internal/cli/formatter"
	"github.com/alexanderramin/dayplan/internal/service"
	"github.com/spf13/cobra"
)

var errNoPlan = errors.New("no plan for today; run `dayplan generate` first")

func newTodayCmd(app *App, sc *scope) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan := app.Plans.FetchTodaysPlan(cmd.Context(), sc.user, sc.lookupSection())
			if plan == nil {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("No plan for today. Run `dayplan generate` to create one."))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPlan(plan, app.today()))
			return nil
		},
	}
}

func newGenerateCmd(app *App, sc *scope) *cobra.Command {
	var stateFile, examDate string
	var goal int
	var force bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Create today's plan, or show it if one exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := loadStudyState(stateFile)
			if err != nil {
				return err
			}
			if sc.section != "" {
				state.Section = sc.section
			}
			if examDate != "" {
				state.ExamDate = examDate
			}
			if cmd.Flags().Changed("goal") {
				state.DailyGoalMin = goal
			}

			plan, err := app.Plans.GetOrCreateTodaysPlan(cmd.Context(), service.GetOrCreateRequest{
				UserID:          sc.user,
				State:           state,
				CourseID:        sc.courseID(),
				ForceRegenerate: force,
			})
			if err != nil {
				return err
			}
			if plan == nil {
				return fmt.Errorf("a user ID is required (--user)")
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPlan(plan, app.today()))
			return nil
		},
	}

	cmd.Flags().StringVar(&stateFile, "state", "", "YAML file with the study state")
	cmd.Flags().StringVar(&examDate, "exam-date", "", "Exam date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&goal, "goal", 0, "Daily goal in minutes")
	cmd.Flags().BoolVar(&force, "force", false, "Regenerate even if a plan exists")

	return cmd
}

func newClearCmd(app *App, sc *scope) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop today's cached plan so the next generate starts fresh",
		Long: "Drop today's cached plan on this device. Without --section every " +
			"section of today is cleared. Synced plans are only touched with " +
			"--remote, which deletes the section's plan everywhere.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if remote {
				report := app.Plans.DeleteTodaysPlan(cmd.Context(), sc.user, sc.storageSection())
				fmt.Fprintf(out, "Deleted today's %s plan (local: %s, remote: %s)\n",
					sc.storageSection(), report.Local, report.Remote)
				if report.Remote == service.OutcomeFailed {
					return fmt.Errorf("the synced plan could not be deleted")
				}
				return nil
			}

			section := ""
			if sc.section != "" {
				section = sc.storageSection()
			}
			n := app.Plans.ClearTodaysPlan(cmd.Context(), sc.user, section)
			fmt.Fprintf(out, "Cleared %d cached plan(s)\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Also delete the synced plan for this section")
	return cmd
}

package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/dayplan/internal/cli/formatter"
	"github.com/alexanderramin/dayplan/internal/domain"
	"github.com/alexanderramin/dayplan/internal/planner"
	"github.com/spf13/cobra"
)

func newFeedbackCmd(app *App) *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:   "feedback TYPE up|down",
		Short: "Rate an activity type",
		Long: "Rate an activity type. Types you keep rating down are dropped " +
			"from future plans unless they are high priority.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Tracker == nil {
				return fmt.Errorf("activity tracking is not configured")
			}
			rating, err := parseRating(args[1])
			if err != nil {
				return err
			}
			typ := domain.ActivityType(args[0])
			if err := app.Tracker.RecordActivityFeedback(cmd.Context(), typ, rating, tag); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s for %s\n", args[1], typ)
			return nil
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "Optional reason, e.g. too_long")
	return cmd
}

func parseRating(s string) (domain.FeedbackRating, error) {
	switch strings.ToLower(s) {
	case "up", "like", "+1", "1":
		return domain.RatingLiked, nil
	case "down", "dislike", "-1":
		return domain.RatingDisliked, nil
	default:
		return 0, fmt.Errorf("rating must be up or down, got %q", s)
	}
}

func newStatsCmd(app *App) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show personalized durations and preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Tracker == nil {
				return fmt.Errorf("activity tracking is not configured")
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if reset {
				if err := app.Tracker.Reset(ctx); err != nil {
					return err
				}
				fmt.Fprintln(out, "Cleared timing and feedback history.")
				return nil
			}

			durations, err := app.Tracker.GetActivityDurationStats(ctx)
			if err != nil {
				return err
			}
			feedback, err := app.Tracker.GetActivityFeedbackStats(ctx)
			if err != nil {
				return err
			}
			fmt.Fprint(out, formatter.FormatDurationStats(durations, func(t domain.ActivityType) int {
				return planner.Duration(t, nil)
			}))
			fmt.Fprint(out, formatter.FormatFeedbackStats(feedback))
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Forget all timing and feedback history")
	return cmd
}

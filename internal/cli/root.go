package cli

import (
	"context"
	"time"

	"github.com/alexanderramin/dayplan/internal/domain"
	"github.com/alexanderramin/dayplan/internal/service"
	"github.com/spf13/cobra"
)

// App holds the services and environment used by CLI commands.
type App struct {
	Plans   service.PlanService
	Tracker service.ActivityTracker

	// UserID and Course are the defaults for --user and --course.
	UserID string
	Course domain.CourseID

	// Now and Location decide which day "today" is for display.
	Now      func() time.Time
	Location *time.Location

	// IsInteractive reports whether prompts may be shown.
	IsInteractive func() bool
	// PickActivity asks the user to choose among acts. Nil uses the huh
	// picker.
	PickActivity func(acts []domain.Activity) (string, error)

	// Serve runs the HTTP adapter until ctx is done.
	Serve    func(ctx context.Context, addr string) error
	HTTPAddr string
}

func (a *App) today() string {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	loc := a.Location
	if loc == nil {
		loc = time.UTC
	}
	return domain.DateKey(now(), loc)
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) pick(acts []domain.Activity) (string, error) {
	if a.PickActivity != nil {
		return a.PickActivity(acts)
	}
	return pickActivity(acts)
}

// scope carries the persistent flags shared by every command.
type scope struct {
	user    string
	section string
	course  string
}

func (s *scope) courseID() domain.CourseID {
	if s.course == "" {
		return domain.DefaultCourse
	}
	return domain.CourseID(s.course)
}

// lookupSection is the section to read today's plan under.
func (s *scope) lookupSection() string {
	return domain.LookupSection(s.section, s.courseID())
}

// storageSection is the section plans for this scope are written under.
func (s *scope) storageSection() string {
	return domain.NormalizeSection(s.section, s.courseID())
}

// NewRootCmd creates the top-level "dayplan" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	sc := &scope{}

	root := &cobra.Command{
		Use:           "dayplan",
		Short:         "Adaptive daily study plans with carryover",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&sc.user, "user", app.UserID, "User ID")
	root.PersistentFlags().StringVar(&sc.section, "section", "", "Exam section, e.g. FAR")
	root.PersistentFlags().StringVar(&sc.course, "course", string(app.Course), "Course ID (cpa, cma, cia, cisa, cfp, ea)")

	root.AddCommand(
		newTodayCmd(app, sc),
		newGenerateCmd(app, sc),
		newClearCmd(app, sc),
		newCompleteCmd(app, sc),
		newStartCmd(app),
		newStatusCmd(app, sc),
		newCarryoverCmd(app, sc),
		newHistoryCmd(app, sc),
		newRateCmd(app, sc),
		newFeedbackCmd(app),
		newStatsCmd(app),
		newServeCmd(app),
	)

	return root
}

package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexanderramin/dayplan/internal/domain"
	"github.com/alexanderramin/dayplan/internal/planner"
	"github.com/alexanderramin/dayplan/internal/repository"
	"github.com/alexanderramin/dayplan/internal/service"
	"github.com/alexanderramin/dayplan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)

type testEnv struct {
	app    *App
	clock  *testutil.FixedClock
	remote repository.PlanStore
}

// testApp wires a full App backed by an in-memory DB and an in-process
// Redis for CLI integration tests.
func testApp(t *testing.T) *testEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	remote, _ := testutil.NewTestRedisStore(t)
	clock := testutil.NewFixedClock(testNow)

	tracker := service.NewActivityTracker(repository.NewSQLiteActivityLogRepo(database), testutil.NewTestUoW(database), clock.Now)
	gen := &planner.RuleGenerator{Now: clock.Now, Location: time.UTC}
	plans := service.NewPlanService(repository.NewSQLitePlanCache(database), remote, gen, tracker, service.Options{
		Now:      clock.Now,
		Location: time.UTC,
	})

	return &testEnv{
		app: &App{
			Plans:         plans,
			Tracker:       tracker,
			UserID:        "u1",
			Course:        domain.DefaultCourse,
			Now:           clock.Now,
			Location:      time.UTC,
			IsInteractive: func() bool { return false },
		},
		clock:  clock,
		remote: remote,
	}
}

// executeCmd runs the root command with args and returns its stdout.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func writeState(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const farState = `
section: FAR
daily_goal_minutes: 45
flashcards_due: 12
`

func TestToday_NoPlan(t *testing.T) {
	env := testApp(t)

	out, err := executeCmd(t, env.app, "today", "--section", "FAR")
	require.NoError(t, err)
	assert.Contains(t, out, "No plan for today")
}

func TestGenerate_ThenToday(t *testing.T) {
	env := testApp(t)
	state := writeState(t, farState)

	out, err := executeCmd(t, env.app, "generate", "--state", state)
	require.NoError(t, err)
	assert.Contains(t, out, "flashcards-due")

	plan := env.app.Plans.FetchTodaysPlan(t.Context(), "u1", "FAR")
	require.NotNil(t, plan)
	assert.Equal(t, "FAR", plan.Section)

	out, err = executeCmd(t, env.app, "today", "--section", "FAR")
	require.NoError(t, err)
	assert.Contains(t, out, "flashcards-due")
	assert.Contains(t, out, "0/")
}

func TestGenerate_NoSection_ReadBack(t *testing.T) {
	env := testApp(t)

	_, err := executeCmd(t, env.app, "generate", "--state", writeState(t, "flashcards_due: 12\n"), "--goal", "60")
	require.NoError(t, err)

	out, err := executeCmd(t, env.app, "today")
	require.NoError(t, err)
	assert.NotContains(t, out, "No plan for today")
	assert.Contains(t, out, "flashcards-due")

	out, err = executeCmd(t, env.app, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "flashcards-due")

	var picked string
	env.app.IsInteractive = func() bool { return true }
	env.app.PickActivity = func(acts []domain.Activity) (string, error) {
		picked = acts[0].ID
		return picked, nil
	}
	_, err = executeCmd(t, env.app, "complete")
	require.NoError(t, err)
	require.NotEmpty(t, picked)

	assert.Equal(t, []string{picked}, env.app.Plans.GetTodaysCompletionStatus(t.Context(), "u1", ""))
	stored, err := env.remote.Get(t.Context(), "u1", domain.PlanKey{Date: "2026-10-18", Section: domain.SectionDefault})
	require.NoError(t, err)
	assert.True(t, stored.IsCompleted(picked))
}

func TestGenerate_FlagsOverrideStateFile(t *testing.T) {
	env := testApp(t)
	state := writeState(t, farState)

	_, err := executeCmd(t, env.app, "generate", "--state", state, "--section", "AUD")
	require.NoError(t, err)

	assert.Nil(t, env.app.Plans.FetchTodaysPlan(t.Context(), "u1", "FAR"))
	assert.NotNil(t, env.app.Plans.FetchTodaysPlan(t.Context(), "u1", "AUD"))
}

func TestGenerate_UnknownStateKey(t *testing.T) {
	env := testApp(t)
	state := writeState(t, "sektion: FAR\n")

	_, err := executeCmd(t, env.app, "generate", "--state", state)
	require.Error(t, err)
}

func TestComplete_ByID(t *testing.T) {
	env := testApp(t)
	_, err := executeCmd(t, env.app, "generate", "--state", writeState(t, farState))
	require.NoError(t, err)

	out, err := executeCmd(t, env.app, "complete", "flashcards-due", "--section", "FAR")
	require.NoError(t, err)
	assert.Contains(t, out, "flashcards-due")

	done := env.app.Plans.GetTodaysCompletionStatus(t.Context(), "u1", "FAR")
	assert.Equal(t, []string{"flashcards-due"}, done)

	stored, err := env.remote.Get(t.Context(), "u1", domain.PlanKey{Date: "2026-10-18", Section: "FAR"})
	require.NoError(t, err)
	assert.True(t, stored.IsCompleted("flashcards-due"))
}

func TestComplete_NoArgNonInteractive(t *testing.T) {
	env := testApp(t)
	_, err := executeCmd(t, env.app, "generate", "--state", writeState(t, farState))
	require.NoError(t, err)

	_, err = executeCmd(t, env.app, "complete", "--section", "FAR")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "activity ID is required")
}

func TestComplete_NoArgNoPlan(t *testing.T) {
	env := testApp(t)

	_, err := executeCmd(t, env.app, "complete", "--section", "FAR")
	assert.ErrorIs(t, err, errNoPlan)
}

func TestComplete_Picker(t *testing.T) {
	env := testApp(t)
	_, err := executeCmd(t, env.app, "generate", "--state", writeState(t, farState))
	require.NoError(t, err)

	var offered []string
	env.app.IsInteractive = func() bool { return true }
	env.app.PickActivity = func(acts []domain.Activity) (string, error) {
		for _, a := range acts {
			offered = append(offered, a.ID)
		}
		return acts[0].ID, nil
	}

	_, err = executeCmd(t, env.app, "complete", "--section", "FAR")
	require.NoError(t, err)
	require.NotEmpty(t, offered)

	done := env.app.Plans.GetTodaysCompletionStatus(t.Context(), "u1", "FAR")
	assert.Equal(t, offered[:1], done)
}

func TestStartThenComplete_RecordsDuration(t *testing.T) {
	env := testApp(t)
	_, err := executeCmd(t, env.app, "generate", "--state", writeState(t, farState))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = executeCmd(t, env.app, "start", "flashcards-due")
		require.NoError(t, err)
		env.clock.Advance(14 * time.Minute)
		_, err = executeCmd(t, env.app, "complete", "flashcards-due", "--section", "FAR")
		require.NoError(t, err)
	}

	stats, err := env.app.Tracker.GetActivityDurationStats(t.Context())
	require.NoError(t, err)
	assert.Equal(t, domain.DurationStat{AvgMinutes: 14, Count: 3}, stats[domain.ActivityFlashcards])

	out, err := executeCmd(t, env.app, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "flashcards")
	assert.Contains(t, out, "14m")
}

func TestStatus(t *testing.T) {
	env := testApp(t)
	_, err := executeCmd(t, env.app, "generate", "--state", writeState(t, farState))
	require.NoError(t, err)
	_, err = executeCmd(t, env.app, "complete", "flashcards-due", "--section", "FAR")
	require.NoError(t, err)

	out, err := executeCmd(t, env.app, "status", "--section", "FAR")
	require.NoError(t, err)
	assert.Contains(t, out, "flashcards-due")
	assert.Contains(t, out, "mcq-practice-1")
}

func TestCarryover_FromYesterday(t *testing.T) {
	env := testApp(t)
	yesterday := testutil.NewTestPlan("u1", "2026-10-17", testutil.WithSection("FAR"), testutil.WithActivities(
		domain.Activity{ID: "tbs-1", Type: domain.ActivityTBS, Title: "Leases sim", Priority: domain.PriorityHigh, EstimatedMinutes: 20, Reason: "Sims"},
		domain.Activity{ID: "flash-1", Type: domain.ActivityFlashcards, Priority: domain.PriorityLow, EstimatedMinutes: 10},
	))
	require.NoError(t, env.remote.Put(t.Context(), yesterday))

	out, err := executeCmd(t, env.app, "carryover", "--section", "FAR")
	require.NoError(t, err)
	assert.Contains(t, out, "carryover:2026-10-17:tbs-1")
	assert.NotContains(t, out, "flash-1")
}

func TestHistoryAndRate(t *testing.T) {
	env := testApp(t)
	_, err := executeCmd(t, env.app, "generate", "--state", writeState(t, farState))
	require.NoError(t, err)

	out, err := executeCmd(t, env.app, "history", "--days", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Today")

	out, err = executeCmd(t, env.app, "rate", "--days", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "0 of 3 activities")
}

func TestClear(t *testing.T) {
	env := testApp(t)
	_, err := executeCmd(t, env.app, "generate", "--state", writeState(t, farState))
	require.NoError(t, err)

	out, err := executeCmd(t, env.app, "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared 1 cached plan(s)")
}

func TestClear_Remote(t *testing.T) {
	env := testApp(t)
	_, err := executeCmd(t, env.app, "generate", "--state", writeState(t, farState))
	require.NoError(t, err)

	out, err := executeCmd(t, env.app, "clear", "--remote", "--section", "FAR")
	require.NoError(t, err)
	assert.Contains(t, out, "local: written, remote: written")

	_, err = env.remote.Get(t.Context(), "u1", domain.PlanKey{Date: "2026-10-18", Section: "FAR"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	out, err = executeCmd(t, env.app, "today", "--section", "FAR")
	require.NoError(t, err)
	assert.Contains(t, out, "No plan for today")
}

func TestFeedback(t *testing.T) {
	env := testApp(t)

	for i := 0; i < 3; i++ {
		_, err := executeCmd(t, env.app, "feedback", "essay", "down", "--tag", "too_long")
		require.NoError(t, err)
	}
	_, err := executeCmd(t, env.app, "feedback", "essay", "sideways")
	require.Error(t, err)

	stats, err := env.app.Tracker.GetActivityFeedbackStats(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []domain.ActivityType{domain.ActivityEssay}, stats.DislikedTypes)
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		in   string
		want domain.FeedbackRating
		ok   bool
	}{
		{"up", domain.RatingLiked, true},
		{"+1", domain.RatingLiked, true},
		{"Like", domain.RatingLiked, true},
		{"down", domain.RatingDisliked, true},
		{"-1", domain.RatingDisliked, true},
		{"0", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseRating(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTrackingDisabled(t *testing.T) {
	env := testApp(t)
	env.app.Tracker = nil

	_, err := executeCmd(t, env.app, "start", "x")
	require.Error(t, err)
	_, err = executeCmd(t, env.app, "stats")
	require.Error(t, err)
}

func TestServe_NotConfigured(t *testing.T) {
	env := testApp(t)

	_, err := executeCmd(t, env.app, "serve")
	require.Error(t, err)
}

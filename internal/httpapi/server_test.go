package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
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

var testNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	handler http.Handler
	clock   *testutil.FixedClock
	remote  repository.PlanStore
}

func newTestEnv(t *testing.T, withTracker bool) *testEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	remote, _ := testutil.NewTestRedisStore(t)
	clock := testutil.NewFixedClock(testNow)

	var tracker service.ActivityTracker
	if withTracker {
		tracker = service.NewActivityTracker(repository.NewSQLiteActivityLogRepo(database), testutil.NewTestUoW(database), clock.Now)
	}
	gen := &planner.RuleGenerator{Now: clock.Now, Location: time.UTC}
	plans := service.NewPlanService(repository.NewSQLitePlanCache(database), remote, gen, tracker, service.Options{
		Now:      clock.Now,
		Location: time.UTC,
	})
	return &testEnv{
		handler: NewServer(plans, tracker, nil).Handler(),
		clock:   clock,
		remote:  remote,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createBody() map[string]any {
	return map[string]any{
		"course_id": "cpa",
		"state": map[string]any{
			"section":            "FAR",
			"daily_goal_minutes": 60,
			"flashcards_due":     20,
			"questions_due":      []string{"q1", "q2"},
		},
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPlanLifecycle(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodGet, "/v1/users/u1/plans/today?section=FAR", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/users/u1/plans/today", createBody())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decode[domain.StudyPlan](t, rec)
	assert.Equal(t, "2026-10-18", created.Date)
	assert.Equal(t, "FAR", created.Section)
	require.NotEmpty(t, created.Activities)

	rec = env.do(t, http.MethodGet, "/v1/users/u1/plans/today?section=FAR", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.PlanID, decode[domain.StudyPlan](t, rec).PlanID)

	first := created.Activities[0]
	rec = env.do(t, http.MethodPost, "/v1/users/u1/plans/today/completions", map[string]any{
		"activity_id":       first.ID,
		"section":           "FAR",
		"estimated_minutes": first.EstimatedMinutes,
		"activity_type":     first.Type,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"local":"written","remote":"written"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/v1/users/u1/plans/today/completions?section=FAR", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[map[string][]string](t, rec)
	assert.Equal(t, []string{first.ID}, status["completed_activity_ids"])

	rec = env.do(t, http.MethodGet, "/v1/users/u1/completion-rate?days=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rate := decode[domain.CompletionRate](t, rec)
	assert.Equal(t, 1, rate.Completed)
	assert.Equal(t, len(created.Activities), rate.Total)

	rec = env.do(t, http.MethodDelete, "/v1/users/u1/plans/today?section=FAR", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed":1}`, rec.Body.String())
}

func TestCreateToday_BadBody(t *testing.T) {
	env := newTestEnv(t, true)

	req := httptest.NewRequest(http.MethodPost, "/v1/users/u1/plans/today", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComplete_RequiresActivityID(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodPost, "/v1/users/u1/plans/today/completions", map[string]any{"section": "FAR"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCarryoverAndHistory(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := t.Context()

	yesterday := testutil.NewTestPlan("u1", "2026-10-17", testutil.WithActivities(
		domain.Activity{ID: "tbs-1", Type: domain.ActivityTBS, Priority: domain.PriorityHigh, Reason: "Sims"},
	))
	require.NoError(t, env.remote.Put(ctx, yesterday))

	rec := env.do(t, http.MethodGet, "/v1/users/u1/carryover?section=FAR", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	carry := decode[map[string][]domain.Activity](t, rec)
	require.Len(t, carry["activities"], 1)
	assert.Equal(t, "carryover:2026-10-17:tbs-1", carry["activities"][0].ID)

	rec = env.do(t, http.MethodGet, "/v1/users/u1/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	hist := decode[map[string][]*domain.StudyPlan](t, rec)
	require.Len(t, hist["plans"], 1)
	assert.Equal(t, yesterday.PlanID, hist["plans"][0].PlanID)

	rec = env.do(t, http.MethodGet, "/v1/users/u1/history?days=0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"plans":[]}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/v1/users/u1/history?days=week", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnscopedPlanReadBack(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodPost, "/v1/users/u1/plans/today", map[string]any{
		"course_id": "cpa",
		"state":     map[string]any{"daily_goal_minutes": 60, "flashcards_due": 20},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decode[domain.StudyPlan](t, rec)
	assert.Equal(t, domain.SectionDefault, created.Section)

	rec = env.do(t, http.MethodGet, "/v1/users/u1/plans/today", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, created.PlanID, decode[domain.StudyPlan](t, rec).PlanID)

	first := created.Activities[0]
	rec = env.do(t, http.MethodPost, "/v1/users/u1/plans/today/completions", map[string]any{"activity_id": first.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"local":"written","remote":"written"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/v1/users/u1/plans/today/completions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{first.ID}, decode[map[string][]string](t, rec)["completed_activity_ids"])
}

func TestSingleExamCourseParam(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := t.Context()

	rec := env.do(t, http.MethodPost, "/v1/users/u1/plans/today", map[string]any{
		"course_id": "cisa",
		"state":     map[string]any{"section": "Domain 3", "daily_goal_minutes": 60},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decode[domain.StudyPlan](t, rec)
	require.Equal(t, domain.SectionAll, created.Section)

	rec = env.do(t, http.MethodGet, "/v1/users/u1/plans/today?section=Domain+3&course=cisa", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.PlanID, decode[domain.StudyPlan](t, rec).PlanID)

	rec = env.do(t, http.MethodGet, "/v1/users/u1/plans/today?section=Domain+3", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "without the course the section is taken literally")

	yesterday := testutil.NewTestPlan("u1", "2026-10-17", testutil.WithSection(domain.SectionAll), testutil.WithActivities(
		domain.Activity{ID: "tbs-1", Type: domain.ActivityTBS, Priority: domain.PriorityHigh, Reason: "Sims"},
	))
	require.NoError(t, env.remote.Put(ctx, yesterday))

	rec = env.do(t, http.MethodGet, "/v1/users/u1/carryover?course=cisa", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	carry := decode[map[string][]domain.Activity](t, rec)
	require.Len(t, carry["activities"], 1)
	assert.Equal(t, "carryover:2026-10-17:tbs-1", carry["activities"][0].ID)
}

func TestClearToday_Remote(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := t.Context()

	rec := env.do(t, http.MethodPost, "/v1/users/u1/plans/today", createBody())
	require.Equal(t, http.StatusOK, rec.Code)
	created := decode[domain.StudyPlan](t, rec)

	rec = env.do(t, http.MethodDelete, "/v1/users/u1/plans/today?section=FAR&remote=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"local":"written","remote":"written"}`, rec.Body.String())

	_, err := env.remote.Get(ctx, "u1", created.Key())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	rec = env.do(t, http.MethodGet, "/v1/users/u1/plans/today?section=FAR", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrackingEndpoints(t *testing.T) {
	env := newTestEnv(t, true)

	for i := 0; i < 3; i++ {
		rec := env.do(t, http.MethodPost, "/v1/activities/essay-1/start", nil)
		require.Equal(t, http.StatusNoContent, rec.Code)
		env.clock.Advance(35 * time.Minute)
		rec = env.do(t, http.MethodPost, "/v1/users/u1/plans/today/completions", map[string]any{
			"activity_id": "essay-1", "activity_type": "essay", "estimated_minutes": 30,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(t, http.MethodPost, "/v1/feedback", map[string]any{"activity_type": "essay", "rating": -1})
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/v1/stats/durations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"essay":{"avg_minutes":35,"count":3}}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/v1/stats/feedback", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"disliked_types":["essay"],"liked_types":[]}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/v1/feedback", map[string]any{"activity_type": "essay", "rating": 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTrackingDisabled(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodGet, "/v1/stats/durations", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodPut, "/v1/users/u1/plans/today", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

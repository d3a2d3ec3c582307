package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/dayplan/internal/domain"
	"github.com/alexanderramin/dayplan/internal/repository"
	"github.com/alexanderramin/dayplan/internal/testutil"
	"github.com/stretchr/testify/require"
)

// Sunday 2026-10-18, mid-morning.
var testNow = time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

const (
	testToday     = "2026-10-18"
	testYesterday = "2026-10-17"
)

type stubGenerator struct {
	mu        sync.Mutex
	plan      domain.BasePlan
	err       error
	calls     int
	lastState domain.UserStudyState
}

func (g *stubGenerator) Generate(_ context.Context, state domain.UserStudyState, course domain.CourseID) (domain.BasePlan, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.lastState = state
	if g.err != nil {
		return domain.BasePlan{}, g.err
	}
	out := g.plan
	out.Section = domain.NormalizeSection(state.Section, course)
	out.Activities = append([]domain.Activity(nil), g.plan.Activities...)
	return out, nil
}

func (g *stubGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func defaultBase() domain.BasePlan {
	return domain.BasePlan{
		Date:          testToday,
		LearningPhase: domain.PhaseBuilding,
		Activities: []domain.Activity{
			{ID: "mcq-practice-1", Type: domain.ActivityMCQ, Title: "Mixed practice", Priority: domain.PriorityMedium, EstimatedMinutes: 18, Reason: "goal"},
			{ID: "lesson-far-2", Type: domain.ActivityLesson, Title: "Lesson", Priority: domain.PriorityHigh, EstimatedMinutes: 25, Reason: "in progress"},
		},
	}
}

type recordingObserver struct {
	mu     sync.Mutex
	events []PlanEvent
}

func (o *recordingObserver) ObservePlanOp(_ context.Context, e PlanEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) last() PlanEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.events[len(o.events)-1]
}

func (o *recordingObserver) names() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.events))
	for _, e := range o.events {
		out = append(out, e.Op)
	}
	return out
}

type harness struct {
	svc      PlanService
	cache    repository.PlanCache
	remote   repository.PlanStore
	gen      *stubGenerator
	clock    *testutil.FixedClock
	tracker  ActivityTracker
	observer *recordingObserver
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	remote repository.PlanStore
	cache  repository.PlanCache
}

func withRemote(r repository.PlanStore) harnessOption {
	return func(c *harnessConfig) { c.remote = r }
}

func withCache(c repository.PlanCache) harnessOption {
	return func(cfg *harnessConfig) { cfg.cache = c }
}

// newHarness wires a PlanService on an in-memory SQLite cache and an
// in-process Redis remote unless overridden.
func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	database := testutil.NewTestDB(t)
	cfg := harnessConfig{cache: repository.NewSQLitePlanCache(database)}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.remote == nil {
		store, _ := testutil.NewTestRedisStore(t)
		cfg.remote = store
	}

	clock := testutil.NewFixedClock(testNow)
	tracker := NewActivityTracker(repository.NewSQLiteActivityLogRepo(database), testutil.NewTestUoW(database), clock.Now)
	gen := &stubGenerator{plan: defaultBase()}
	obs := &recordingObserver{}

	svc := NewPlanService(cfg.cache, cfg.remote, gen, tracker, Options{
		Observer: obs,
		Now:      clock.Now,
		Location: time.UTC,
	})
	return &harness{
		svc:      svc,
		cache:    cfg.cache,
		remote:   cfg.remote,
		gen:      gen,
		clock:    clock,
		tracker:  tracker,
		observer: obs,
	}
}

// putLocal writes plan into the local cache under key.
func (h *harness) putLocal(t *testing.T, key string, plan *domain.StudyPlan) {
	t.Helper()
	payload, err := repository.EncodePlan(plan)
	require.NoError(t, err)
	require.NoError(t, h.cache.Put(context.Background(), repository.CacheEntry{
		Key: key, UserID: plan.UserID, Date: plan.Date, Section: plan.Section, Payload: payload,
	}))
}

// getLocal decodes the plan cached under key.
func (h *harness) getLocal(t *testing.T, key string) *domain.StudyPlan {
	t.Helper()
	payload, err := h.cache.Get(context.Background(), key)
	require.NoError(t, err)
	plan, err := repository.DecodePlan(payload)
	require.NoError(t, err)
	return plan
}

func activityIDs(acts []domain.Activity) []string {
	ids := make([]string, 0, len(acts))
	for _, a := range acts {
		ids = append(ids, a.ID)
	}
	return ids
}

// hiddenRemote pretends no plan exists on reads, so the orchestrator takes
// the create path while another writer's plan is already stored.
type hiddenRemote struct {
	repository.PlanStore
}

func (hiddenRemote) Get(context.Context, string, domain.PlanKey) (*domain.StudyPlan, error) {
	return nil, repository.ErrNotFound
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/alexanderramin/dayplan/internal/domain"
	"github.com/alexanderramin/dayplan/internal/planner"
	"github.com/alexanderramin/dayplan/internal/repository"
	"github.com/google/uuid"
)

const (
	DefaultLookbackDays  = 3
	DefaultMaxCarryover  = 3
	DefaultRemoteTimeout = 5 * time.Second

	// recentHistoryDays is how far back the generator sees past plans.
	recentHistoryDays = 7
)

// Options tunes a PlanService. Zero values select the defaults.
type Options struct {
	Logger        *slog.Logger
	Observer      PlanObserver
	Now           func() time.Time
	Location      *time.Location
	LookbackDays  int
	MaxCarryover  int
	RemoteTimeout time.Duration
}

type planService struct {
	cache     repository.PlanCache
	remote    repository.PlanStore
	generator planner.Generator
	tracker   ActivityTracker

	log      *slog.Logger
	observer PlanObserver
	now      func() time.Time
	loc      *time.Location
	scanner  carryoverScanner
	timeout  time.Duration

	// localMu serializes read-modify-write on the local cache.
	localMu sync.Mutex
}

// NewPlanService wires the façade. tracker may be nil, which disables
// duration tracking and generator personalization.
func NewPlanService(
	cache repository.PlanCache,
	remote repository.PlanStore,
	generator planner.Generator,
	tracker ActivityTracker,
	opts Options,
) PlanService {
	s := &planService{
		cache:     cache,
		remote:    remote,
		generator: generator,
		tracker:   tracker,
		log:       opts.Logger,
		observer:  planObserverOrNoop(opts.Observer),
		now:       opts.Now,
		loc:       opts.Location,
		timeout:   opts.RemoteTimeout,
	}
	if s.log == nil {
		s.log = discardLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.timeout <= 0 {
		s.timeout = DefaultRemoteTimeout
	}
	s.scanner = carryoverScanner{
		remote:       remote,
		lookbackDays: positiveOr(opts.LookbackDays, DefaultLookbackDays),
		maxItems:     positiveOr(opts.MaxCarryover, DefaultMaxCarryover),
		withTimeout:  s.remoteCtx,
		log:          s.log,
	}
	return s
}

func positiveOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func (s *planService) today() string {
	return domain.DateKey(s.now(), s.loc)
}

func (s *planService) remoteCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *planService) FetchTodaysPlan(ctx context.Context, userID, section string) *domain.StudyPlan {
	op := startOp("fetch-todays-plan", userID, section)
	defer func() { op.finish(ctx, s.observer, nil) }()

	if userID == "" {
		return nil
	}
	plan, source := s.fetch(ctx, userID, s.today(), section)
	op.Source = source
	return plan
}

// fetch resolves the plan for (user, date, section): local candidates
// first, then the remote store. A remote hit is written through to the
// local cache. The second result names where the plan came from.
func (s *planService) fetch(ctx context.Context, userID, date, section string) (*domain.StudyPlan, string) {
	scopes := lookupScopes(section)
	candidates := repository.CacheKeyCandidates(userID, date, scopes[0])
	if plan := s.readLocal(ctx, userID, date, section, candidates); plan != nil {
		return plan, "local"
	}

	for _, scope := range scopes {
		rctx, cancel := s.remoteCtx(ctx)
		plan, err := s.remote.Get(rctx, userID, domain.PlanKey{Date: date, Section: scope})
		cancel()
		if err != nil {
			if repository.IsMiss(err) {
				continue
			}
			s.log.WarnContext(ctx, "remote plan read failed", "user", userID, "date", date, "error", err)
			return nil, "none"
		}
		if !s.usable(plan, userID, date, section) {
			continue
		}

		s.localMu.Lock()
		s.writeLocal(ctx, repository.CacheKey(userID, date, domain.NormalizeSection(plan.Section, "")), plan)
		s.localMu.Unlock()
		return plan, "remote"
	}
	return nil, "none"
}

// lookupScopes lists the sections searched for a requested section. An
// unscoped request finds plans stored under the default section before
// falling back to the legacy unscoped document.
func lookupScopes(section string) []string {
	if section == "" {
		return []string{domain.SectionDefault, ""}
	}
	return []string{section}
}

func (s *planService) readLocal(ctx context.Context, userID, date, section string, candidates []string) *domain.StudyPlan {
	s.localMu.Lock()
	defer s.localMu.Unlock()

	for _, key := range candidates {
		payload, err := s.cache.Get(ctx, key)
		if err != nil {
			if !repository.IsMiss(err) {
				s.log.WarnContext(ctx, "local cache read failed", "key", key, "error", err)
			}
			continue
		}
		plan, err := repository.DecodePlan(payload)
		if err != nil {
			s.log.DebugContext(ctx, "ignoring unreadable cached plan", "key", key, "error", err)
			continue
		}
		if !s.usable(plan, userID, date, section) {
			s.log.DebugContext(ctx, "ignoring cached plan for another scope", "key", key, "plan_section", plan.Section)
			continue
		}
		return plan
	}
	return nil
}

// usable reports whether a decoded plan may be served for the lookup.
func (s *planService) usable(plan *domain.StudyPlan, userID, date, section string) bool {
	if plan == nil || plan.Version != domain.PlanVersion || plan.Date != date {
		return false
	}
	if plan.UserID != "" && plan.UserID != userID {
		return false
	}
	return plan.MatchesSection(section)
}

// writeLocal stores plan under key. Callers hold localMu.
func (s *planService) writeLocal(ctx context.Context, key string, plan *domain.StudyPlan) StoreOutcome {
	payload, err := repository.EncodePlan(plan)
	if err != nil {
		s.log.ErrorContext(ctx, "encoding plan for local cache", "key", key, "error", err)
		return OutcomeFailed
	}
	err = s.cache.Put(ctx, repository.CacheEntry{
		Key:     key,
		UserID:  plan.UserID,
		Date:    plan.Date,
		Section: plan.Section,
		Payload: payload,
	})
	if err != nil {
		s.log.WarnContext(ctx, "local cache write failed", "key", key, "error", err)
		return OutcomeFailed
	}
	return OutcomeWritten
}

func (s *planService) GetOrCreateTodaysPlan(ctx context.Context, req GetOrCreateRequest) (plan *domain.StudyPlan, err error) {
	op := startOp("get-or-create-todays-plan", req.UserID, "")
	defer func() { op.finish(ctx, s.observer, err) }()

	if req.UserID == "" {
		return nil, nil
	}
	course := req.CourseID
	if course == "" {
		course = domain.DefaultCourse
	}
	section := domain.NormalizeSection(req.State.Section, course)
	date := s.today()
	op.Section = section

	if !req.ForceRegenerate {
		if existing, source := s.fetch(ctx, req.UserID, date, section); existing != nil {
			op.Source = source
			op.Count = len(existing.Activities)
			return existing, nil
		}
	}

	state := req.State
	s.enrich(ctx, req.UserID, date, &state)

	base, err := s.generator.Generate(ctx, state, course)
	if err != nil {
		return nil, fmt.Errorf("generating plan: %w", err)
	}

	carry := s.scanner.scan(ctx, req.UserID, section, date)
	plan = s.assemble(req.UserID, date, section, base, carry)

	stored, report := s.persist(ctx, plan, req.ForceRegenerate)
	op.Source = "generated"
	op.Sync = report
	op.Count = len(stored.Activities)
	return stored, nil
}

// enrich fills the generator inputs that come from stored history. Each
// step is best-effort.
func (s *planService) enrich(ctx context.Context, userID, date string, state *domain.UserStudyState) {
	rctx, cancel := s.remoteCtx(ctx)
	recent, err := s.remote.ListRange(rctx, userID, domain.ShiftDate(date, -recentHistoryDays), domain.ShiftDate(date, -1))
	cancel()
	if err != nil {
		s.log.DebugContext(ctx, "recent history unavailable", "user", userID, "error", err)
	}
	for _, p := range recent {
		state.RecentHistory = append(state.RecentHistory, domain.SnapshotOf(p))
	}

	if s.tracker == nil {
		return
	}
	if stats, err := s.tracker.GetActivityDurationStats(ctx); err != nil {
		s.log.DebugContext(ctx, "duration stats unavailable", "error", err)
	} else if len(stats) > 0 {
		state.PersonalizedDurations = make(map[domain.ActivityType]int, len(stats))
		for t, st := range stats {
			state.PersonalizedDurations[t] = st.AvgMinutes
		}
	}
	if fb, err := s.tracker.GetActivityFeedbackStats(ctx); err != nil {
		s.log.DebugContext(ctx, "feedback stats unavailable", "error", err)
	} else {
		state.ActivityFeedback = fb
	}
}

func (s *planService) assemble(userID, date, section string, base domain.BasePlan, carry []domain.Activity) *domain.StudyPlan {
	now := s.now().UTC()
	activities := make([]domain.Activity, 0, len(carry)+len(base.Activities))
	activities = append(activities, carry...)
	activities = append(activities, base.Activities...)

	var sources []string
	for _, a := range carry {
		if a.CarriedFrom != "" && !slices.Contains(sources, a.CarriedFrom) {
			sources = append(sources, a.CarriedFrom)
		}
	}

	return &domain.StudyPlan{
		PlanID:               uuid.New().String(),
		UserID:               userID,
		Date:                 date,
		Section:              section,
		Activities:           activities,
		CompletedActivityIDs: []string{},
		CarryoverSourceDates: sources,
		LearningPhase:        base.LearningPhase,
		WeakAreaFocus:        base.WeakAreaFocus,
		Version:              domain.PlanVersion,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// persist writes a freshly generated plan locally and then remotely. On the
// conditional path a plan that another writer stored first is adopted and
// returned instead.
func (s *planService) persist(ctx context.Context, plan *domain.StudyPlan, force bool) (*domain.StudyPlan, SyncReport) {
	key := repository.CacheKey(plan.UserID, plan.Date, plan.Section)
	var report SyncReport

	s.localMu.Lock()
	report.Local = s.writeLocal(ctx, key, plan)
	s.localMu.Unlock()

	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()

	if force {
		if err := s.remote.Put(rctx, plan); err != nil {
			s.log.WarnContext(ctx, "remote plan write failed", "user", plan.UserID, "date", plan.Date, "error", err)
			report.Remote = OutcomeFailed
			return plan, report
		}
		report.Remote = OutcomeWritten
		return plan, report
	}

	stored, created, err := s.remote.CreateIfAbsent(rctx, plan)
	if err != nil {
		s.log.WarnContext(ctx, "remote plan create failed", "user", plan.UserID, "date", plan.Date, "error", err)
		report.Remote = OutcomeFailed
		return plan, report
	}
	if created || stored == nil || stored.PlanID == plan.PlanID {
		report.Remote = OutcomeWritten
		return plan, report
	}
	if !s.usable(stored, plan.UserID, plan.Date, plan.Section) {
		s.log.WarnContext(ctx, "remote holds an unusable plan for today", "user", plan.UserID, "date", plan.Date)
		report.Remote = OutcomeFailed
		return plan, report
	}

	s.log.InfoContext(ctx, "adopting plan created by another writer", "user", plan.UserID, "date", plan.Date, "plan_id", stored.PlanID)
	report.Remote = OutcomeAdopted
	s.localMu.Lock()
	report.Local = s.writeLocal(ctx, key, stored)
	s.localMu.Unlock()
	return stored, report
}

func (s *planService) MarkActivityCompleted(ctx context.Context, req CompletionRequest) (report SyncReport) {
	op := startOp("mark-activity-completed", req.UserID, req.Section)
	op.Activity = req.ActivityID
	defer func() {
		op.Sync = report
		op.finish(ctx, s.observer, nil)
	}()

	if req.UserID == "" || req.ActivityID == "" {
		return SyncReport{}
	}
	section := domain.NormalizeSection(req.Section, req.CourseID)
	date := s.today()
	now := s.now().UTC()

	report.Local = s.completeLocal(ctx, req.UserID, date, section, req.ActivityID, now)

	rctx, cancel := s.remoteCtx(ctx)
	err := s.remote.AddCompletion(rctx, req.UserID, domain.PlanKey{Date: date, Section: section}, req.ActivityID, now)
	cancel()
	switch {
	case err == nil:
		report.Remote = OutcomeWritten
	case errors.Is(err, repository.ErrNotFound):
		s.log.WarnContext(ctx, "no remote plan to complete", "user", req.UserID, "date", date, "section", section)
		report.Remote = OutcomeMissing
	default:
		s.log.WarnContext(ctx, "remote completion failed", "user", req.UserID, "activity", req.ActivityID, "error", err)
		report.Remote = OutcomeFailed
	}

	if s.tracker != nil {
		if _, err := s.tracker.RecordCompletion(ctx, req.ActivityID, req.ActivityType, req.EstimatedMinutes); err != nil {
			s.log.DebugContext(ctx, "duration tracking failed", "activity", req.ActivityID, "error", err)
		}
	}
	return report
}

// completeLocal adds activityID to the first cached plan present under the
// scoped or the legacy key.
func (s *planService) completeLocal(ctx context.Context, userID, date, section, activityID string, now time.Time) StoreOutcome {
	s.localMu.Lock()
	defer s.localMu.Unlock()

	for _, key := range repository.CacheKeyCandidates(userID, date, section) {
		payload, err := s.cache.Get(ctx, key)
		if err != nil {
			if repository.IsMiss(err) {
				continue
			}
			s.log.WarnContext(ctx, "local cache read failed", "key", key, "error", err)
			return OutcomeFailed
		}

		plan, err := repository.DecodePlan(payload)
		if err != nil {
			s.log.WarnContext(ctx, "skipping local completion on unreadable plan", "key", key, "error", err)
			return OutcomeSkipped
		}
		if !plan.MarkCompleted(activityID, now) {
			return OutcomeUnchanged
		}
		return s.writeLocal(ctx, key, plan)
	}
	return OutcomeMissing
}

func (s *planService) GetTodaysCompletionStatus(ctx context.Context, userID, section string) []string {
	plan := s.FetchTodaysPlan(ctx, userID, section)
	if plan == nil {
		return []string{}
	}
	return append([]string{}, plan.CompletedActivityIDs...)
}

func (s *planService) GetPreviousIncomplete(ctx context.Context, userID, section string, course domain.CourseID) []domain.Activity {
	if course == "" {
		course = domain.DefaultCourse
	}
	section = domain.NormalizeSection(section, course)
	op := startOp("get-previous-incomplete", userID, section)
	defer func() { op.finish(ctx, s.observer, nil) }()

	items := s.scanner.scan(ctx, userID, section, s.today())
	op.Count = len(items)
	return items
}

func (s *planService) ClearTodaysPlan(ctx context.Context, userID, section string) int {
	op := startOp("clear-todays-plan", userID, section)
	defer func() { op.finish(ctx, s.observer, nil) }()

	if userID == "" {
		return 0
	}
	date := s.today()

	s.localMu.Lock()
	defer s.localMu.Unlock()

	if section == "" {
		n, err := s.cache.DeleteForDate(ctx, userID, date)
		if err != nil {
			s.log.WarnContext(ctx, "clearing cached plans failed", "user", userID, "error", err)
			return 0
		}
		op.Count = int(n)
		return int(n)
	}

	key := repository.CacheKey(userID, date, section)
	if _, err := s.cache.Get(ctx, key); err != nil {
		return 0
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		s.log.WarnContext(ctx, "clearing cached plan failed", "key", key, "error", err)
		return 0
	}
	op.Count = 1
	return 1
}

func (s *planService) DeleteTodaysPlan(ctx context.Context, userID, section string) (report SyncReport) {
	op := startOp("delete-todays-plan", userID, section)
	defer func() {
		op.Sync = report
		op.finish(ctx, s.observer, nil)
	}()

	if userID == "" {
		return SyncReport{}
	}
	date := s.today()
	report.Local = OutcomeMissing
	report.Remote = OutcomeFailed

	s.localMu.Lock()
	key := repository.CacheKey(userID, date, section)
	if _, err := s.cache.Get(ctx, key); err == nil {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.log.WarnContext(ctx, "clearing cached plan failed", "key", key, "error", err)
			report.Local = OutcomeFailed
		} else {
			report.Local = OutcomeWritten
		}
	}
	s.localMu.Unlock()

	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	if err := s.remote.Delete(rctx, userID, domain.PlanKey{Date: date, Section: section}); err != nil {
		s.log.WarnContext(ctx, "remote plan delete failed", "user", userID, "date", date, "error", err)
		return report
	}
	report.Remote = OutcomeWritten
	return report
}

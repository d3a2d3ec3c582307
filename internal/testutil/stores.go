package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/alexanderramin/dayplan/internal/domain"
	"github.com/alexanderramin/dayplan/internal/repository"
)

// ErrInjected is returned by the failing doubles below.
var ErrInjected = errors.New("injected failure")

// FixedClock returns a now func pinned to t. Advance moves it forward.
type FixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{t: t}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// FailingPlanStore wraps a PlanStore and fails the selected operations.
// A nil Inner behaves like an empty store.
type FailingPlanStore struct {
	Inner repository.PlanStore

	FailGet    bool
	FailCreate bool
	FailPut    bool
	FailAdd    bool
	FailList   bool
	FailDelete bool

	mu    sync.Mutex
	calls map[string]int
}

func (s *FailingPlanStore) record(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[op]++
}

// Calls reports how many times op was invoked.
func (s *FailingPlanStore) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *FailingPlanStore) Get(ctx context.Context, userID string, key domain.PlanKey) (*domain.StudyPlan, error) {
	s.record("Get")
	if s.FailGet {
		return nil, ErrInjected
	}
	if s.Inner == nil {
		return nil, repository.ErrNotFound
	}
	return s.Inner.Get(ctx, userID, key)
}

func (s *FailingPlanStore) CreateIfAbsent(ctx context.Context, plan *domain.StudyPlan) (*domain.StudyPlan, bool, error) {
	s.record("CreateIfAbsent")
	if s.FailCreate || s.Inner == nil {
		return nil, false, ErrInjected
	}
	return s.Inner.CreateIfAbsent(ctx, plan)
}

func (s *FailingPlanStore) Put(ctx context.Context, plan *domain.StudyPlan) error {
	s.record("Put")
	if s.FailPut || s.Inner == nil {
		return ErrInjected
	}
	return s.Inner.Put(ctx, plan)
}

func (s *FailingPlanStore) AddCompletion(ctx context.Context, userID string, key domain.PlanKey, activityID string, at time.Time) error {
	s.record("AddCompletion")
	if s.FailAdd || s.Inner == nil {
		return ErrInjected
	}
	return s.Inner.AddCompletion(ctx, userID, key, activityID, at)
}

func (s *FailingPlanStore) ListRange(ctx context.Context, userID, fromDate, toDate string) ([]*domain.StudyPlan, error) {
	s.record("ListRange")
	if s.FailList {
		return nil, ErrInjected
	}
	if s.Inner == nil {
		return []*domain.StudyPlan{}, nil
	}
	return s.Inner.ListRange(ctx, userID, fromDate, toDate)
}

func (s *FailingPlanStore) Delete(ctx context.Context, userID string, key domain.PlanKey) error {
	s.record("Delete")
	if s.FailDelete {
		return ErrInjected
	}
	if s.Inner == nil {
		return nil
	}
	return s.Inner.Delete(ctx, userID, key)
}

// FailingPlanCache fails every write and optionally every read.
type FailingPlanCache struct {
	repository.PlanCache
	FailGet bool
}

func (c *FailingPlanCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.FailGet || c.PlanCache == nil {
		return nil, ErrInjected
	}
	return c.PlanCache.Get(ctx, key)
}

func (c *FailingPlanCache) Put(context.Context, repository.CacheEntry) error {
	return ErrInjected
}

func (c *FailingPlanCache) Delete(context.Context, string) error {
	return ErrInjected
}

func (c *FailingPlanCache) DeleteForDate(context.Context, string, string) (int64, error) {
	return 0, ErrInjected
}

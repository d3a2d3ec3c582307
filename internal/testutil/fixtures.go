package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/dayplan/internal/domain"
	"github.com/google/uuid"
)

var testActivityCounter atomic.Int64

// Activity options
type ActivityOption func(*domain.Activity)

func WithActivityID(id string) ActivityOption {
	return func(a *domain.Activity) {
		a.ID = id
	}
}

func WithPriority(p domain.Priority) ActivityOption {
	return func(a *domain.Activity) {
		a.Priority = p
	}
}

func WithMinutes(m int) ActivityOption {
	return func(a *domain.Activity) {
		a.EstimatedMinutes = m
	}
}

func WithReason(r string) ActivityOption {
	return func(a *domain.Activity) {
		a.Reason = r
	}
}

func WithTopic(topic string) ActivityOption {
	return func(a *domain.Activity) {
		a.Topic = topic
	}
}

func NewTestActivity(typ domain.ActivityType, opts ...ActivityOption) domain.Activity {
	n := testActivityCounter.Add(1)
	a := domain.Activity{
		ID:               fmt.Sprintf("%s-%02d", typ, n),
		Type:             typ,
		Title:            fmt.Sprintf("Test %s %d", typ, n),
		Priority:         domain.PriorityMedium,
		EstimatedMinutes: 15,
		Reason:           "test",
	}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

// StudyPlan options
type PlanOption func(*domain.StudyPlan)

func WithSection(section string) PlanOption {
	return func(p *domain.StudyPlan) {
		p.Section = section
	}
}

func WithActivities(acts ...domain.Activity) PlanOption {
	return func(p *domain.StudyPlan) {
		p.Activities = acts
	}
}

func WithCompleted(ids ...string) PlanOption {
	return func(p *domain.StudyPlan) {
		p.CompletedActivityIDs = ids
	}
}

func WithVersion(v int) PlanOption {
	return func(p *domain.StudyPlan) {
		p.Version = v
	}
}

func WithTimestamps(t time.Time) PlanOption {
	return func(p *domain.StudyPlan) {
		p.CreatedAt = t
		p.UpdatedAt = t
	}
}

// NewTestPlan builds a version-current plan for user on date with two
// medium activities unless WithActivities is given.
func NewTestPlan(userID, date string, opts ...PlanOption) *domain.StudyPlan {
	now := time.Now().UTC().Truncate(time.Millisecond)
	p := &domain.StudyPlan{
		PlanID:  uuid.New().String(),
		UserID:  userID,
		Date:    date,
		Section: "FAR",
		Activities: []domain.Activity{
			NewTestActivity(domain.ActivityMCQ),
			NewTestActivity(domain.ActivityLesson),
		},
		CompletedActivityIDs: []string{},
		Version:              domain.PlanVersion,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

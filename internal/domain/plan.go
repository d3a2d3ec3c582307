package domain

import (
	"slices"
	"time"
)

// PlanVersion is the serialized format version written by this engine.
// Documents carrying any other version are treated as unusable.
const PlanVersion = 1

// StudyPlan is the canonical plan for one user on one calendar day,
// optionally scoped to one exam section.
type StudyPlan struct {
	PlanID               string        `json:"plan_id"`
	UserID               string        `json:"user_id"`
	Date                 string        `json:"date"`
	Section              string        `json:"section,omitempty"`
	Activities           []Activity    `json:"activities"`
	CompletedActivityIDs []string      `json:"completed_activity_ids"`
	CarryoverSourceDates []string      `json:"carryover_source_dates,omitempty"`
	LearningPhase        LearningPhase `json:"learning_phase,omitempty"`
	WeakAreaFocus        []string      `json:"weak_area_focus,omitempty"`
	Version              int           `json:"version"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// Key returns the identity of the plan.
func (p *StudyPlan) Key() PlanKey {
	return PlanKey{Date: p.Date, Section: p.Section}
}

// MatchesSection reports whether the plan may be served to a caller asking
// for section. An empty request matches any plan.
func (p *StudyPlan) MatchesSection(section string) bool {
	return section == "" || p.Section == section
}

// IsCompleted reports whether activityID is in the completion set.
func (p *StudyPlan) IsCompleted(activityID string) bool {
	return slices.Contains(p.CompletedActivityIDs, activityID)
}

// MarkCompleted adds activityID to the completion set. It returns false and
// leaves the plan untouched when the id is already present. The id does not
// have to name one of the plan's activities.
func (p *StudyPlan) MarkCompleted(activityID string, now time.Time) bool {
	if activityID == "" || p.IsCompleted(activityID) {
		return false
	}
	p.CompletedActivityIDs = append(p.CompletedActivityIDs, activityID)
	p.UpdatedAt = now
	return true
}

// Incomplete returns the activities not yet completed, in plan order.
func (p *StudyPlan) Incomplete() []Activity {
	var out []Activity
	for _, a := range p.Activities {
		if !p.IsCompleted(a.ID) {
			out = append(out, a)
		}
	}
	return out
}

// CompletedCount counts completion ids that name an activity of this plan.
func (p *StudyPlan) CompletedCount() int {
	n := 0
	for _, a := range p.Activities {
		if p.IsCompleted(a.ID) {
			n++
		}
	}
	return n
}

// TotalActivities is derived from the activity list.
func (p *StudyPlan) TotalActivities() int {
	return len(p.Activities)
}

// TotalMinutes sums the estimated minutes of every activity.
func (p *StudyPlan) TotalMinutes() int {
	total := 0
	for _, a := range p.Activities {
		total += a.EstimatedMinutes
	}
	return total
}

// Summary derives the plan-level aggregates from the activity list.
func (p *StudyPlan) Summary() PlanSummary {
	s := PlanSummary{
		TotalActivities: p.TotalActivities(),
		TotalMinutes:    p.TotalMinutes(),
		ByType:          make(map[ActivityType]int),
	}
	for _, a := range p.Activities {
		s.ByType[a.Type]++
		if a.IsCarryover() {
			s.CarryoverCount++
		}
	}
	return s
}

// Clone returns a deep copy so callers cannot mutate cached state.
func (p *StudyPlan) Clone() *StudyPlan {
	if p == nil {
		return nil
	}
	c := *p
	c.Activities = slices.Clone(p.Activities)
	c.CompletedActivityIDs = slices.Clone(p.CompletedActivityIDs)
	c.CarryoverSourceDates = slices.Clone(p.CarryoverSourceDates)
	c.WeakAreaFocus = slices.Clone(p.WeakAreaFocus)
	return &c
}

// PlanSummary holds aggregates derived from a plan's activities.
type PlanSummary struct {
	TotalActivities int
	TotalMinutes    int
	CarryoverCount  int
	ByType          map[ActivityType]int
}

// BasePlan is the output of a plan generator before carryover is merged in.
type BasePlan struct {
	Date          string
	Section       string
	Activities    []Activity
	LearningPhase LearningPhase
	WeakAreaFocus []string
	RestDay       bool
}

// CompletionRate aggregates completions over a range of plans.
// Rate is in [0,1] and zero when Total is zero.
type CompletionRate struct {
	Rate      float64 `json:"rate"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
}

// NewCompletionRate computes the rate, defining 0/0 as 0.
func NewCompletionRate(completed, total int) CompletionRate {
	r := CompletionRate{Completed: completed, Total: total}
	if total > 0 {
		r.Rate = float64(completed) / float64(total)
	}
	return r
}

package domain

import (
	"fmt"
	"strings"
)

type ActivityType string

const (
	ActivityLesson     ActivityType = "lesson"
	ActivityMCQ        ActivityType = "mcq"
	ActivityTBS        ActivityType = "tbs"
	ActivityFlashcards ActivityType = "flashcards"
	ActivityReview     ActivityType = "review"
	ActivityEssay      ActivityType = "essay"
	ActivityCBQ        ActivityType = "cbq"
	ActivityCaseStudy  ActivityType = "case_study"
	ActivityTimedQuiz  ActivityType = "timed_quiz"
	ActivityMockExam   ActivityType = "mock_exam"
)

// ValidActivityTypes is the closed set of accepted activity type strings.
var ValidActivityTypes = map[ActivityType]bool{
	ActivityLesson: true, ActivityMCQ: true, ActivityTBS: true,
	ActivityFlashcards: true, ActivityReview: true, ActivityEssay: true,
	ActivityCBQ: true, ActivityCaseStudy: true, ActivityTimedQuiz: true,
	ActivityMockExam: true,
}

type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank orders priorities; lower is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	default:
		return 3
	}
}

// CarryEligible reports whether unfinished work at this priority moves to
// the next day.
func (p Priority) CarryEligible() bool {
	return p == PriorityCritical || p == PriorityHigh
}

// Activity is one actionable study unit inside a plan.
type Activity struct {
	ID               string       `json:"id"`
	Type             ActivityType `json:"type"`
	Title            string       `json:"title"`
	Priority         Priority     `json:"priority"`
	EstimatedMinutes int          `json:"estimated_minutes"`
	Reason           string       `json:"reason"`
	Topic            string       `json:"topic,omitempty"`
	CarriedFrom      string       `json:"carried_from,omitempty"`
}

// IsCarryover reports whether the activity was folded in from an earlier day.
func (a Activity) IsCarryover() bool {
	return a.CarriedFrom != ""
}

const (
	carryoverIDPrefix     = "carryover:"
	carryoverReasonPrefix = "Carried over from "
)

// CarryoverID namespaces id for a carryover from sourceDate. A previous
// carryover namespace is stripped first, so carrying the same work again
// yields carryover:<newer date>:<base id>.
func CarryoverID(sourceDate, id string) string {
	return carryoverIDPrefix + sourceDate + ":" + BaseActivityID(id)
}

// BaseActivityID strips any carryover namespace from id.
func BaseActivityID(id string) string {
	for strings.HasPrefix(id, carryoverIDPrefix) {
		rest := strings.TrimPrefix(id, carryoverIDPrefix)
		i := strings.Index(rest, ":")
		if i < 0 {
			return rest
		}
		id = rest[i+1:]
	}
	return id
}

// CarryoverReason annotates reason with its source date. daysAgo is the
// distance from today; 1 renders as "yesterday".
func CarryoverReason(sourceDate string, daysAgo int, reason string) string {
	if strings.HasPrefix(reason, carryoverReasonPrefix) {
		if i := strings.Index(reason, "): "); i >= 0 {
			reason = reason[i+3:]
		}
	}
	when := "yesterday"
	if daysAgo > 1 {
		when = fmt.Sprintf("%d days ago", daysAgo)
	}
	return fmt.Sprintf("%s%s (%s): %s", carryoverReasonPrefix, when, sourceDate, reason)
}

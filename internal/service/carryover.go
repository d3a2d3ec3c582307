package service

import (
	"context"
	"log/slog"
	"sort"

	"github.com/alexanderramin/dayplan/internal/domain"
	"github.com/alexanderramin/dayplan/internal/repository"
)

// carryScore ranks how much an unfinished activity is worth carrying.
var carryScore = map[domain.ActivityType]int{
	domain.ActivityMockExam:   10,
	domain.ActivityTBS:        8,
	domain.ActivityEssay:      7,
	domain.ActivityCBQ:        7,
	domain.ActivityCaseStudy:  6,
	domain.ActivityTimedQuiz:  5,
	domain.ActivityMCQ:        4,
	domain.ActivityLesson:     3,
	domain.ActivityReview:     2,
	domain.ActivityFlashcards: 1,
}

const (
	unknownCarryScore  = 2
	criticalCarryBonus = 3
)

func carryValue(a domain.Activity) int {
	v, ok := carryScore[a.Type]
	if !ok {
		v = unknownCarryScore
	}
	if a.Priority == domain.PriorityCritical {
		v += criticalCarryBonus
	}
	return v
}

// carryoverScanner finds unfinished high-value work from the most recent
// prior day within a bounded lookback.
type carryoverScanner struct {
	remote       repository.PlanStore
	lookbackDays int
	maxItems     int
	withTimeout  func(context.Context) (context.Context, context.CancelFunc)
	log          *slog.Logger
}

// scan walks back from the day before today, one remote read per day, and
// stops at the first day with incomplete critical or high work. Unreadable
// days are skipped.
func (c carryoverScanner) scan(ctx context.Context, userID, section, today string) []domain.Activity {
	if userID == "" {
		return []domain.Activity{}
	}

	for daysAgo := 1; daysAgo <= c.lookbackDays; daysAgo++ {
		date := domain.ShiftDate(today, -daysAgo)

		rctx, cancel := c.withTimeout(ctx)
		plan, err := c.remote.Get(rctx, userID, domain.PlanKey{Date: date, Section: section})
		cancel()
		if err != nil {
			if !repository.IsMiss(err) {
				c.log.DebugContext(ctx, "carryover day unreadable", "user", userID, "date", date, "error", err)
			}
			continue
		}

		var pending []domain.Activity
		for _, a := range plan.Incomplete() {
			if a.Priority.CarryEligible() {
				pending = append(pending, a)
			}
		}
		if len(pending) == 0 {
			continue
		}

		sort.SliceStable(pending, func(i, j int) bool {
			return carryValue(pending[i]) > carryValue(pending[j])
		})
		if len(pending) > c.maxItems {
			pending = pending[:c.maxItems]
		}

		out := make([]domain.Activity, 0, len(pending))
		for _, a := range pending {
			a.ID = domain.CarryoverID(date, a.ID)
			a.Reason = domain.CarryoverReason(date, daysAgo, a.Reason)
			a.CarriedFrom = date
			out = append(out, a)
		}
		return out
	}
	return []domain.Activity{}
}

package service

import (
	"context"

	"github.com/alexanderramin/dayplan/internal/domain"
)

// MaxHistoryDays bounds history lookups so the range start stays a valid
// calendar date.
const MaxHistoryDays = 36600

// historyRange returns the inclusive date range covering daysBack days
// ending today.
func historyRange(today string, daysBack int) (string, string) {
	if daysBack > MaxHistoryDays {
		daysBack = MaxHistoryDays
	}
	return domain.ShiftDate(today, -(daysBack - 1)), today
}

func (s *planService) GetPlanHistory(ctx context.Context, userID string, daysBack int) []*domain.StudyPlan {
	op := startOp("get-plan-history", userID, "")
	defer func() { op.finish(ctx, s.observer, nil) }()

	plans := s.history(ctx, userID, daysBack)
	op.Count = len(plans)
	return plans
}

func (s *planService) history(ctx context.Context, userID string, daysBack int) []*domain.StudyPlan {
	if userID == "" || daysBack <= 0 {
		return []*domain.StudyPlan{}
	}
	from, to := historyRange(s.today(), daysBack)

	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	plans, err := s.remote.ListRange(rctx, userID, from, to)
	if err != nil {
		s.log.WarnContext(ctx, "plan history unavailable", "user", userID, "error", err)
		return []*domain.StudyPlan{}
	}
	if plans == nil {
		plans = []*domain.StudyPlan{}
	}
	return plans
}

func (s *planService) GetCompletionRate(ctx context.Context, userID string, daysBack int) domain.CompletionRate {
	op := startOp("get-completion-rate", userID, "")
	defer func() { op.finish(ctx, s.observer, nil) }()

	rate := CompletionRateOf(s.history(ctx, userID, daysBack))
	op.Count = rate.Total
	return rate
}

// CompletionRateOf aggregates completions over plans. Only completion ids
// naming one of a plan's activities count.
func CompletionRateOf(plans []*domain.StudyPlan) domain.CompletionRate {
	completed, total := 0, 0
	for _, p := range plans {
		total += p.TotalActivities()
		completed += p.CompletedCount()
	}
	return domain.NewCompletionRate(completed, total)
}

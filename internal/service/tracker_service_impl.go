package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/alexanderramin/dayplan/internal/db"
	"github.com/alexanderramin/dayplan/internal/domain"
	"github.com/alexanderramin/dayplan/internal/repository"
)

const (
	durationLogSize = 200
	feedbackLogSize = 100

	minTrackedMinutes = 1
	maxTrackedMinutes = 240

	minStatRecords     = 3
	feedbackNetLiked   = 2
	feedbackNetDislike = -2
)

// ErrInvalidFeedback is returned for an unknown activity type or a rating
// other than +1 or -1.
var ErrInvalidFeedback = errors.New("invalid feedback")

type activityTracker struct {
	log repository.ActivityLogRepo
	uow db.UnitOfWork
	now func() time.Time
}

// NewActivityTracker builds a tracker on the device-local activity log.
// now may be nil.
func NewActivityTracker(log repository.ActivityLogRepo, uow db.UnitOfWork, now func() time.Time) ActivityTracker {
	if now == nil {
		now = time.Now
	}
	return &activityTracker{log: log, uow: uow, now: now}
}

func (t *activityTracker) MarkActivityStarted(ctx context.Context, activityID string) error {
	if activityID == "" {
		return nil
	}
	return t.log.PutStart(ctx, activityID, t.now().UTC())
}

func (t *activityTracker) RecordCompletion(ctx context.Context, activityID string, activityType domain.ActivityType, estimatedMinutes int) (bool, error) {
	if activityID == "" || activityType == "" {
		return false, nil
	}
	recorded := false
	err := t.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txLog := repository.NewSQLiteActivityLogRepo(tx)

		startedAt, err := txLog.GetStart(ctx, activityID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		now := t.now().UTC()
		minutes := int(math.Round(now.Sub(startedAt).Minutes()))
		if minutes < minTrackedMinutes || minutes > maxTrackedMinutes {
			return nil
		}

		if err := txLog.AppendDuration(ctx, domain.DurationRecord{
			ActivityType:     activityType,
			EstimatedMinutes: max(estimatedMinutes, 0),
			ActualMinutes:    minutes,
			CompletedAt:      now,
		}); err != nil {
			return err
		}
		if err := txLog.TrimDurations(ctx, durationLogSize); err != nil {
			return err
		}
		if err := txLog.DeleteStart(ctx, activityID); err != nil {
			return err
		}
		recorded = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("recording duration: %w", err)
	}
	return recorded, nil
}

func (t *activityTracker) GetActivityDurationStats(ctx context.Context) (map[domain.ActivityType]domain.DurationStat, error) {
	recs, err := t.log.ListDurations(ctx)
	if err != nil {
		return nil, err
	}
	grouped := make(map[domain.ActivityType][]int)
	for _, r := range recs {
		grouped[r.ActivityType] = append(grouped[r.ActivityType], r.ActualMinutes)
	}

	stats := make(map[domain.ActivityType]domain.DurationStat)
	for typ, mins := range grouped {
		if len(mins) < minStatRecords {
			continue
		}
		stats[typ] = domain.DurationStat{AvgMinutes: trimmedMean(mins), Count: len(mins)}
	}
	return stats, nil
}

// trimmedMean drops the lowest and highest tenth (at least one value each)
// and rounds the mean of the rest.
func trimmedMean(values []int) int {
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	k := max(1, len(sorted)/10)
	kept := sorted
	if len(sorted) > 2*k {
		kept = sorted[k : len(sorted)-k]
	}
	sum := 0
	for _, v := range kept {
		sum += v
	}
	return int(math.Round(float64(sum) / float64(len(kept))))
}

func (t *activityTracker) RecordActivityFeedback(ctx context.Context, activityType domain.ActivityType, rating domain.FeedbackRating, tag string) error {
	if !domain.ValidActivityTypes[activityType] {
		return fmt.Errorf("%w: unknown activity type %q", ErrInvalidFeedback, activityType)
	}
	if !rating.Valid() {
		return fmt.Errorf("%w: rating must be +1 or -1, got %d", ErrInvalidFeedback, rating)
	}
	return t.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txLog := repository.NewSQLiteActivityLogRepo(tx)
		if err := txLog.AppendFeedback(ctx, domain.FeedbackRecord{
			ActivityType: activityType,
			Rating:       rating,
			Tag:          tag,
			RecordedAt:   t.now().UTC(),
		}); err != nil {
			return err
		}
		return txLog.TrimFeedback(ctx, feedbackLogSize)
	})
}

func (t *activityTracker) GetActivityFeedbackStats(ctx context.Context) (*domain.ActivityFeedbackStats, error) {
	recs, err := t.log.ListFeedback(ctx)
	if err != nil {
		return nil, err
	}
	type tally struct{ net, count int }
	byType := make(map[domain.ActivityType]*tally)
	var order []domain.ActivityType
	for _, r := range recs {
		tl, ok := byType[r.ActivityType]
		if !ok {
			tl = &tally{}
			byType[r.ActivityType] = tl
			order = append(order, r.ActivityType)
		}
		tl.net += int(r.Rating)
		tl.count++
	}

	stats := &domain.ActivityFeedbackStats{
		DislikedTypes: []domain.ActivityType{},
		LikedTypes:    []domain.ActivityType{},
	}
	for _, typ := range order {
		tl := byType[typ]
		if tl.count < minStatRecords {
			continue
		}
		switch {
		case tl.net <= feedbackNetDislike:
			stats.DislikedTypes = append(stats.DislikedTypes, typ)
		case tl.net >= feedbackNetLiked:
			stats.LikedTypes = append(stats.LikedTypes, typ)
		}
	}
	return stats, nil
}

func (t *activityTracker) Reset(ctx context.Context) error {
	return t.log.Reset(ctx)
}

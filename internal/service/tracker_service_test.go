package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/dayplan/internal/domain"
	"github.com/alexanderramin/dayplan/internal/repository"
	"github.com/alexanderramin/dayplan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T) (ActivityTracker, *testutil.FixedClock, *repository.SQLiteActivityLogRepo) {
	t.Helper()
	database := testutil.NewTestDB(t)
	clock := testutil.NewFixedClock(testNow)
	repo := repository.NewSQLiteActivityLogRepo(database)
	return NewActivityTracker(repo, testutil.NewTestUoW(database), clock.Now), clock, repo
}

func timeActivity(t *testing.T, tr ActivityTracker, clock *testutil.FixedClock, id string, typ domain.ActivityType, d time.Duration) bool {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, tr.MarkActivityStarted(ctx, id))
	clock.Advance(d)
	ok, err := tr.RecordCompletion(ctx, id, typ, 15)
	require.NoError(t, err)
	return ok
}

func TestRecordCompletion_RoundsElapsedMinutes(t *testing.T) {
	tr, clock, repo := newTestTracker(t)
	ctx := context.Background()

	assert.True(t, timeActivity(t, tr, clock, "mcq-1", domain.ActivityMCQ, 17*time.Minute+40*time.Second))

	recs, err := repo.ListDurations(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 18, recs[0].ActualMinutes)
	assert.Equal(t, 15, recs[0].EstimatedMinutes)
	assert.Equal(t, domain.ActivityMCQ, recs[0].ActivityType)

	_, err = repo.GetStart(ctx, "mcq-1")
	assert.ErrorIs(t, err, repository.ErrNotFound, "the start entry is consumed")
}

func TestRecordCompletion_OutOfRangeIgnored(t *testing.T) {
	tr, clock, repo := newTestTracker(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		elapsed time.Duration
	}{
		{"under a minute", 20 * time.Second},
		{"over four hours", 241 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, timeActivity(t, tr, clock, "x", domain.ActivityTBS, tt.elapsed))
		})
	}

	recs, err := repo.ListDurations(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRecordCompletion_WithoutStartIsNoop(t *testing.T) {
	tr, _, repo := newTestTracker(t)
	ctx := context.Background()

	ok, err := tr.RecordCompletion(ctx, "never-started", domain.ActivityMCQ, 10)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = tr.RecordCompletion(ctx, "x", "", 10)
	require.NoError(t, err)
	assert.False(t, ok)

	recs, err := repo.ListDurations(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRecordCompletion_RollsBackOnFailure(t *testing.T) {
	database := testutil.NewTestDB(t)
	clock := testutil.NewFixedClock(testNow)
	repo := repository.NewSQLiteActivityLogRepo(database)
	injected := errors.New("disk full")
	// Exec 1 appends the duration, exec 2 trims the log.
	uow := testutil.NewExecFaultUoW(database, 2, injected)
	tr := NewActivityTracker(repo, uow, clock.Now)
	ctx := context.Background()

	require.NoError(t, tr.MarkActivityStarted(ctx, "lesson-1"))
	clock.Advance(25 * time.Minute)
	ok, err := tr.RecordCompletion(ctx, "lesson-1", domain.ActivityLesson, 25)
	assert.False(t, ok)
	assert.ErrorIs(t, err, injected)
	assert.Equal(t, int32(1), uow.Failed.Load())

	recs, err := repo.ListDurations(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs, "the appended duration is rolled back")

	_, err = repo.GetStart(ctx, "lesson-1")
	assert.NoError(t, err, "the start entry survives the failed transaction")
}

func TestRecordCompletion_KeepsBoundedLog(t *testing.T) {
	tr, clock, repo := newTestTracker(t)
	ctx := context.Background()

	for i := 0; i < durationLogSize+5; i++ {
		timeActivity(t, tr, clock, "m", domain.ActivityMCQ, 10*time.Minute)
	}

	recs, err := repo.ListDurations(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, durationLogSize)
}

func TestGetActivityDurationStats(t *testing.T) {
	tr, clock, _ := newTestTracker(t)
	ctx := context.Background()

	for _, m := range []int{10, 12, 14, 16, 18, 20, 22, 24, 26, 200} {
		timeActivity(t, tr, clock, "tbs", domain.ActivityTBS, time.Duration(m)*time.Minute)
	}
	timeActivity(t, tr, clock, "e1", domain.ActivityEssay, 30*time.Minute)
	timeActivity(t, tr, clock, "e2", domain.ActivityEssay, 30*time.Minute)

	stats, err := tr.GetActivityDurationStats(ctx)
	require.NoError(t, err)

	// 10 records trim one from each end: mean of 12..26.
	assert.Equal(t, domain.DurationStat{AvgMinutes: 19, Count: 10}, stats[domain.ActivityTBS])
	_, ok := stats[domain.ActivityEssay]
	assert.False(t, ok, "fewer than three records yields no stat")
}

func TestTrimmedMean(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		want   int
	}{
		{"three values drop min and max", []int{5, 100, 20}, 20},
		{"four values", []int{10, 20, 30, 1000}, 25},
		{"rounds half up", []int{1, 2, 3, 100}, 3},
		{"twenty values trim two each side", []int{1, 1, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 99, 99}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, trimmedMean(tt.values))
		})
	}
}

func TestRecordActivityFeedback_Validation(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	ctx := context.Background()

	err := tr.RecordActivityFeedback(ctx, "karaoke", domain.RatingLiked, "")
	assert.ErrorIs(t, err, ErrInvalidFeedback)

	err = tr.RecordActivityFeedback(ctx, domain.ActivityMCQ, domain.FeedbackRating(0), "")
	assert.ErrorIs(t, err, ErrInvalidFeedback)

	err = tr.RecordActivityFeedback(ctx, domain.ActivityMCQ, domain.FeedbackRating(5), "")
	assert.ErrorIs(t, err, ErrInvalidFeedback)

	assert.NoError(t, tr.RecordActivityFeedback(ctx, domain.ActivityMCQ, domain.RatingLiked, "too_easy"))
}

func TestGetActivityFeedbackStats(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	ctx := context.Background()

	rate := func(typ domain.ActivityType, ratings ...domain.FeedbackRating) {
		for _, r := range ratings {
			require.NoError(t, tr.RecordActivityFeedback(ctx, typ, r, ""))
		}
	}
	up, down := domain.RatingLiked, domain.RatingDisliked

	rate(domain.ActivityTBS, down, down, down, up)         // net -2, disliked
	rate(domain.ActivityFlashcards, up, up, up)            // net +3, liked
	rate(domain.ActivityLesson, up, down, up)              // net +1, neutral
	rate(domain.ActivityMCQ, down, down)                   // too few records
	rate(domain.ActivityEssay, down, down, down, down, up) // net -3, disliked

	stats, err := tr.GetActivityFeedbackStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.ActivityType{domain.ActivityTBS, domain.ActivityEssay}, stats.DislikedTypes)
	assert.Equal(t, []domain.ActivityType{domain.ActivityFlashcards}, stats.LikedTypes)
	assert.True(t, stats.Dislikes(domain.ActivityEssay))
	assert.False(t, stats.Dislikes(domain.ActivityMCQ))
}

func TestGetActivityFeedbackStats_Empty(t *testing.T) {
	tr, _, _ := newTestTracker(t)

	stats, err := tr.GetActivityFeedbackStats(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, stats.DislikedTypes)
	assert.Empty(t, stats.DislikedTypes)
	assert.Empty(t, stats.LikedTypes)
}

func TestTrackerReset(t *testing.T) {
	tr, clock, repo := newTestTracker(t)
	ctx := context.Background()

	timeActivity(t, tr, clock, "a", domain.ActivityMCQ, 10*time.Minute)
	require.NoError(t, tr.MarkActivityStarted(ctx, "pending"))
	require.NoError(t, tr.RecordActivityFeedback(ctx, domain.ActivityMCQ, domain.RatingLiked, ""))

	require.NoError(t, tr.Reset(ctx))

	recs, err := repo.ListDurations(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)
	fb, err := repo.ListFeedback(ctx)
	require.NoError(t, err)
	assert.Empty(t, fb)
	_, err = repo.GetStart(ctx, "pending")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/dayplan/internal/domain"
)

// CacheEntry is one serialized plan in the local cache.
type CacheEntry struct {
	Key     string
	UserID  string
	Date    string
	Section string
	Payload []byte
}

// PlanCache is the device-local plan cache. It stores raw payloads; decoding
// and validation belong to the caller so a corrupt entry is just a miss.
type PlanCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, e CacheEntry) error
	Delete(ctx context.Context, key string) error
	DeleteForDate(ctx context.Context, userID, date string) (int64, error)
}

// PlanStore is the durable remote plan store shared by all of a user's
// devices.
type PlanStore interface {
	Get(ctx context.Context, userID string, key domain.PlanKey) (*domain.StudyPlan, error)
	// CreateIfAbsent writes plan only when no plan exists for its key. It
	// returns the plan now stored and whether this call created it.
	CreateIfAbsent(ctx context.Context, plan *domain.StudyPlan) (*domain.StudyPlan, bool, error)
	// Put overwrites the plan for its key, completions included.
	Put(ctx context.Context, plan *domain.StudyPlan) error
	// AddCompletion is an atomic add-to-set on the plan's completion field.
	// It fails with ErrNotFound when the plan does not exist.
	AddCompletion(ctx context.Context, userID string, key domain.PlanKey, activityID string, at time.Time) error
	// ListRange returns plans dated fromDate..toDate inclusive, newest first
	// and by section within a day. Unreadable documents are skipped.
	ListRange(ctx context.Context, userID, fromDate, toDate string) ([]*domain.StudyPlan, error)
	Delete(ctx context.Context, userID string, key domain.PlanKey) error
}

// ActivityLogRepo holds device-local activity tracking data.
type ActivityLogRepo interface {
	PutStart(ctx context.Context, activityID string, at time.Time) error
	GetStart(ctx context.Context, activityID string) (time.Time, error)
	DeleteStart(ctx context.Context, activityID string) error
	AppendDuration(ctx context.Context, rec domain.DurationRecord) error
	TrimDurations(ctx context.Context, keep int) error
	ListDurations(ctx context.Context) ([]domain.DurationRecord, error)
	AppendFeedback(ctx context.Context, rec domain.FeedbackRecord) error
	TrimFeedback(ctx context.Context, keep int) error
	ListFeedback(ctx context.Context) ([]domain.FeedbackRecord, error)
	Reset(ctx context.Context) error
}

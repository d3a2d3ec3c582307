package service

import (
	"context"

	"github.com/alexanderramin/dayplan/internal/domain"
)

// PlanService is the public façade over the local cache, the remote store
// and the plan generator. Store failures never surface as errors; they
// degrade to misses and are logged.
type PlanService interface {
	FetchTodaysPlan(ctx context.Context, userID, section string) *domain.StudyPlan
	GetOrCreateTodaysPlan(ctx context.Context, req GetOrCreateRequest) (*domain.StudyPlan, error)
	MarkActivityCompleted(ctx context.Context, req CompletionRequest) SyncReport
	GetTodaysCompletionStatus(ctx context.Context, userID, section string) []string
	GetPreviousIncomplete(ctx context.Context, userID, section string, course domain.CourseID) []domain.Activity
	GetPlanHistory(ctx context.Context, userID string, daysBack int) []*domain.StudyPlan
	GetCompletionRate(ctx context.Context, userID string, daysBack int) domain.CompletionRate
	ClearTodaysPlan(ctx context.Context, userID, section string) int
	// DeleteTodaysPlan drops today's plan for one section from both the
	// local cache and the remote store.
	DeleteTodaysPlan(ctx context.Context, userID, section string) SyncReport
}

// ActivityTracker records device-local activity timing and feedback.
type ActivityTracker interface {
	MarkActivityStarted(ctx context.Context, activityID string) error
	// RecordCompletion turns a start stamp into a duration record. It
	// reports whether a record was kept.
	RecordCompletion(ctx context.Context, activityID string, activityType domain.ActivityType, estimatedMinutes int) (bool, error)
	GetActivityDurationStats(ctx context.Context) (map[domain.ActivityType]domain.DurationStat, error)
	RecordActivityFeedback(ctx context.Context, activityType domain.ActivityType, rating domain.FeedbackRating, tag string) error
	GetActivityFeedbackStats(ctx context.Context) (*domain.ActivityFeedbackStats, error)
	Reset(ctx context.Context) error
}

// GetOrCreateRequest asks for today's plan, generating it when needed.
type GetOrCreateRequest struct {
	UserID          string
	State           domain.UserStudyState
	CourseID        domain.CourseID
	ForceRegenerate bool
}

// CompletionRequest marks one activity of today's plan as done.
// EstimatedMinutes and ActivityType only feed duration tracking.
type CompletionRequest struct {
	UserID           string
	ActivityID       string
	Section          string
	CourseID         domain.CourseID
	EstimatedMinutes int
	ActivityType     domain.ActivityType
}

// StoreOutcome is what a dual write did to one store.
type StoreOutcome string

const (
	// OutcomeNone means the store was not touched.
	OutcomeNone      StoreOutcome = ""
	OutcomeWritten   StoreOutcome = "written"
	OutcomeUnchanged StoreOutcome = "unchanged"
	// OutcomeAdopted means another writer's plan was kept instead of ours.
	OutcomeAdopted StoreOutcome = "adopted"
	OutcomeMissing StoreOutcome = "missing"
	// OutcomeSkipped means the stored entry was unreadable and left alone.
	OutcomeSkipped StoreOutcome = "skipped"
	OutcomeFailed  StoreOutcome = "failed"
)

// SyncReport records the per-store result of a best-effort dual write.
type SyncReport struct {
	Local  StoreOutcome `json:"local"`
	Remote StoreOutcome `json:"remote"`
}

// Synced reports whether both stores hold the write.
func (r SyncReport) Synced() bool {
	ok := func(o StoreOutcome) bool {
		return o == OutcomeWritten || o == OutcomeUnchanged || o == OutcomeAdopted
	}
	return ok(r.Local) && ok(r.Remote)
}

package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/dayplan/internal/domain"
)

// OfflinePlanStore is the remote store used when no backend is configured.
// Every call fails with ErrUnavailable, so the engine runs on its local cache.
type OfflinePlanStore struct{}

func (OfflinePlanStore) Get(context.Context, string, domain.PlanKey) (*domain.StudyPlan, error) {
	return nil, ErrUnavailable
}

func (OfflinePlanStore) CreateIfAbsent(context.Context, *domain.StudyPlan) (*domain.StudyPlan, bool, error) {
	return nil, false, ErrUnavailable
}

func (OfflinePlanStore) Put(context.Context, *domain.StudyPlan) error {
	return ErrUnavailable
}

func (OfflinePlanStore) AddCompletion(context.Context, string, domain.PlanKey, string, time.Time) error {
	return ErrUnavailable
}

func (OfflinePlanStore) ListRange(context.Context, string, string, string) ([]*domain.StudyPlan, error) {
	return nil, ErrUnavailable
}

func (OfflinePlanStore) Delete(context.Context, string, domain.PlanKey) error {
	return ErrUnavailable
}

package repository

import (
	"encoding/json"
	"fmt"

	"github.com/alexanderramin/dayplan/internal/domain"
)

// EncodePlan serializes a plan for storage. Timestamps are RFC 3339.
func EncodePlan(p *domain.StudyPlan) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("encoding plan: nil plan")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding plan: %w", err)
	}
	return data, nil
}

// DecodePlan parses a stored plan. Malformed data yields ErrCorruptPayload
// and a version other than domain.PlanVersion yields ErrIncompatibleVersion;
// no partial plan is ever returned.
func DecodePlan(data []byte) (*domain.StudyPlan, error) {
	var head struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	if head.Version != domain.PlanVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrIncompatibleVersion, head.Version, domain.PlanVersion)
	}

	var p domain.StudyPlan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	if p.Date == "" {
		return nil, fmt.Errorf("%w: missing date", ErrCorruptPayload)
	}
	if p.CompletedActivityIDs == nil {
		p.CompletedActivityIDs = []string{}
	}
	return &p, nil
}

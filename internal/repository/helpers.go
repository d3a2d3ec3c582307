package repository

import (
	"sort"
	"time"

	"github.com/alexanderramin/dayplan/internal/domain"
)

// timeLayout is used for every timestamp persisted in the local database.
const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// sortPlans orders plans newest date first, then by section.
func sortPlans(plans []*domain.StudyPlan) {
	sort.SliceStable(plans, func(i, j int) bool {
		if plans[i].Date != plans[j].Date {
			return plans[i].Date > plans[j].Date
		}
		return plans[i].Section < plans[j].Section
	})
}

package formatter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/alexanderramin/dayplan/internal/domain"
)

// FormatDurationStats renders the observed average per activity type next
// to its default estimate.
func FormatDurationStats(stats map[domain.ActivityType]domain.DurationStat, defaults func(domain.ActivityType) int) string {
	if len(stats) == 0 {
		return Dim("No timing data yet. Use `dayplan start` before an activity.") + "\n"
	}
	types := make([]domain.ActivityType, 0, len(stats))
	for t := range stats {
		types = append(types, t)
	}
	slices.Sort(types)

	headers := []string{"TYPE", "AVERAGE", "DEFAULT", "SAMPLES"}
	rows := make([][]string, 0, len(types))
	for _, t := range types {
		st := stats[t]
		def := "--"
		if defaults != nil {
			def = FormatMinutes(defaults(t))
		}
		rows = append(rows, []string{string(t), FormatMinutes(st.AvgMinutes), Dim(def), fmt.Sprintf("%d", st.Count)})
	}
	return RenderBox("Durations", RenderTable(headers, rows)) + "\n"
}

// FormatFeedbackStats lists liked and disliked activity types.
func FormatFeedbackStats(stats *domain.ActivityFeedbackStats) string {
	if stats == nil || (len(stats.LikedTypes) == 0 && len(stats.DislikedTypes) == 0) {
		return Dim("No clear preferences yet.") + "\n"
	}
	var b strings.Builder
	if len(stats.LikedTypes) > 0 {
		b.WriteString(StyleGreen.Render("▲ liked") + "    " + joinTypes(stats.LikedTypes) + "\n")
	}
	if len(stats.DislikedTypes) > 0 {
		b.WriteString(StyleRed.Render("▼ disliked") + " " + joinTypes(stats.DislikedTypes) + "\n")
	}
	return RenderBox("Feedback", strings.TrimRight(b.String(), "\n")) + "\n"
}

func joinTypes(types []domain.ActivityType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

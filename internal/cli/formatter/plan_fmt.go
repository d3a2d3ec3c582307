package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/dayplan/internal/domain"
	"github.com/alexanderramin/dayplan/internal/service"
)

const reasonWidth = 48

// FormatPlan renders a day's plan with its completion progress.
func FormatPlan(plan *domain.StudyPlan, today string) string {
	var b strings.Builder

	sum := plan.Summary()
	meta := []string{DateLabel(plan.Date, today)}
	if plan.Section != "" && plan.Section != domain.SectionDefault {
		meta = append(meta, Bold(plan.Section))
	}
	if badge := PhaseBadge(plan.LearningPhase); badge != "" {
		meta = append(meta, badge)
	}
	b.WriteString(strings.Join(meta, Dim(" · ")))
	b.WriteString("\n")
	b.WriteString(RenderRatio(plan.CompletedCount(), sum.TotalActivities, 20))
	b.WriteString(Dim(fmt.Sprintf("  %s planned", FormatMinutes(sum.TotalMinutes))))
	b.WriteString("\n\n")

	headers := []string{"", "ID", "TYPE", "PRIORITY", "TIME", "WHY"}
	rows := make([][]string, 0, len(plan.Activities))
	for _, a := range plan.Activities {
		mark := StyleBlue.Render("○")
		id := a.ID
		if plan.IsCompleted(a.ID) {
			mark = StyleGreen.Render("✔")
			id = Dim(id)
		}
		rows = append(rows, []string{
			mark,
			id,
			string(a.Type),
			PriorityBadge(a.Priority),
			FormatMinutes(a.EstimatedMinutes),
			Dim(Truncate(a.Reason, reasonWidth)),
		})
	}
	b.WriteString(RenderTable(headers, rows))

	if len(plan.WeakAreaFocus) > 0 {
		b.WriteString("\n")
		b.WriteString(Dim("Focus: ") + strings.Join(plan.WeakAreaFocus, ", "))
		b.WriteString("\n")
	}
	if sum.CarryoverCount > 0 {
		b.WriteString(Dim(fmt.Sprintf("%d carried over from %s", sum.CarryoverCount, strings.Join(plan.CarryoverSourceDates, ", "))))
		b.WriteString("\n")
	}

	return RenderBox("Study plan", b.String()) + "\n"
}

// FormatActivities renders a flat activity list, used for carryover.
func FormatActivities(title string, acts []domain.Activity) string {
	if len(acts) == 0 {
		return Dim("Nothing to carry over.") + "\n"
	}
	headers := []string{"ID", "TYPE", "PRIORITY", "TIME", "WHY"}
	rows := make([][]string, 0, len(acts))
	for _, a := range acts {
		rows = append(rows, []string{
			a.ID,
			string(a.Type),
			PriorityBadge(a.Priority),
			FormatMinutes(a.EstimatedMinutes),
			Dim(Truncate(a.Reason, 60)),
		})
	}
	return RenderBox(title, RenderTable(headers, rows)) + "\n"
}

// FormatHistory renders one row per stored plan, newest first.
func FormatHistory(plans []*domain.StudyPlan, today string) string {
	if len(plans) == 0 {
		return Dim("No plans in range.") + "\n"
	}
	headers := []string{"DATE", "", "SECTION", "DONE", "MINUTES"}
	rows := make([][]string, 0, len(plans))
	for _, p := range plans {
		rows = append(rows, []string{
			p.Date,
			Dim(DateLabel(p.Date, today)),
			p.Section,
			RenderRatio(p.CompletedCount(), p.TotalActivities(), 10),
			FormatMinutes(p.TotalMinutes()),
		})
	}
	rate := service.CompletionRateOf(plans)
	footer := fmt.Sprintf("\n%s %s", Dim("Overall"), RenderProgress(rate.Rate, 20))
	return RenderBox("History", RenderTable(headers, rows)+footer) + "\n"
}

// FormatCompletionRate renders the rate for the last days days.
func FormatCompletionRate(rate domain.CompletionRate, days int) string {
	if rate.Total == 0 {
		return Dim(fmt.Sprintf("No planned activities in the last %d day(s).", max(days, 0))) + "\n"
	}
	return fmt.Sprintf("%s %s  %s\n",
		Bold(fmt.Sprintf("Last %d day(s):", days)),
		RenderProgress(rate.Rate, 20),
		Dim(fmt.Sprintf("%d of %d activities", rate.Completed, rate.Total)),
	)
}

// FormatCompletion reports the outcome of marking an activity done. Any
// store that did not take the write gets its own line.
func FormatCompletion(activityID string, r service.SyncReport) string {
	var b strings.Builder
	b.WriteString(StyleGreen.Render("✔") + " Completed " + Bold(activityID) + "\n")

	switch r.Local {
	case service.OutcomeUnchanged:
		b.WriteString(Dim("  already marked complete") + "\n")
	case service.OutcomeMissing:
		b.WriteString(StyleYellow.Render("  no cached plan for today on this device") + "\n")
	case service.OutcomeSkipped:
		b.WriteString(StyleYellow.Render("  cached plan is unreadable; left untouched") + "\n")
	case service.OutcomeFailed:
		b.WriteString(StyleRed.Render("  could not update the local cache") + "\n")
	}
	switch r.Remote {
	case service.OutcomeMissing:
		b.WriteString(StyleYellow.Render("  no synced plan for today") + "\n")
	case service.OutcomeFailed:
		b.WriteString(StyleYellow.Render("  sync failed; saved on this device only") + "\n")
	}
	return b.String()
}

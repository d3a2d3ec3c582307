package planner

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/alexanderramin/dayplan/internal/domain"
)

// Generator produces the fresh part of a day's plan from the learner's
// study state. The orchestrator merges carryover in front of its output.
type Generator interface {
	Generate(ctx context.Context, state domain.UserStudyState, course domain.CourseID) (domain.BasePlan, error)
}

// Static minutes per activity when no personalized duration is known.
var defaultMinutes = map[domain.ActivityType]int{
	domain.ActivityLesson:     25,
	domain.ActivityMCQ:        18,
	domain.ActivityTBS:        20,
	domain.ActivityFlashcards: 10,
	domain.ActivityReview:     18,
	domain.ActivityEssay:      30,
	domain.ActivityCBQ:        20,
	domain.ActivityCaseStudy:  25,
	domain.ActivityTimedQuiz:  15,
	domain.ActivityMockExam:   30,
}

const (
	weakMinQuestions   = 5
	weakAccuracy       = 0.70
	criticalAccuracy   = 0.50
	maxWeakAreas       = 3
	maxTopUps          = 2
	defaultDailyGoal   = 60
	restDayMinutes     = 5
	restDayMaxExamDays = 7
)

// RuleGenerator is the built-in Generator. It is deterministic for a given
// state and clock.
type RuleGenerator struct {
	Now      func() time.Time
	Location *time.Location
}

// NewRuleGenerator returns a RuleGenerator on the wall clock in loc.
func NewRuleGenerator(loc *time.Location) *RuleGenerator {
	return &RuleGenerator{Now: time.Now, Location: loc}
}

func (g *RuleGenerator) today() time.Time {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	loc := g.Location
	if loc == nil {
		loc = time.UTC
	}
	t := now().In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DaysToExam returns whole days from today until examDate, or false when
// the date is unset or unparseable.
func DaysToExam(today time.Time, examDate string) (int, bool) {
	if examDate == "" {
		return 0, false
	}
	exam, err := time.ParseInLocation(domain.DateLayout, examDate, today.Location())
	if err != nil {
		return 0, false
	}
	return int(math.Round(exam.Sub(today).Hours() / 24)), true
}

// PhaseFor maps the distance to the exam onto a learning phase.
func PhaseFor(days int, known bool) domain.LearningPhase {
	switch {
	case !known:
		return domain.PhaseBuilding
	case days > 90:
		return domain.PhaseFoundation
	case days > 45:
		return domain.PhaseBuilding
	case days > 14:
		return domain.PhaseReinforcement
	case days > 7:
		return domain.PhaseFinalReview
	default:
		return domain.PhaseExamWeek
	}
}

func (g *RuleGenerator) Generate(ctx context.Context, state domain.UserStudyState, course domain.CourseID) (domain.BasePlan, error) {
	if err := ctx.Err(); err != nil {
		return domain.BasePlan{}, err
	}
	today := g.today()
	days, known := DaysToExam(today, state.ExamDate)
	phase := PhaseFor(days, known)

	plan := domain.BasePlan{
		Date:          today.Format(domain.DateLayout),
		Section:       domain.NormalizeSection(state.Section, course),
		LearningPhase: phase,
	}

	if isOffDay(state.StudyDays, today.Weekday(), days, known) {
		plan.RestDay = true
		if state.FlashcardsDue > 0 {
			plan.Activities = append(plan.Activities, domain.Activity{
				ID:               "flashcards-offday-" + plan.Date,
				Type:             domain.ActivityFlashcards,
				Title:            "Quick Flashcard Review",
				Priority:         domain.PriorityLow,
				EstimatedMinutes: restDayMinutes,
				Reason:           "Off-day review to keep the streak going",
			})
		}
		return plan, nil
	}

	b := builder{state: state}

	for _, ts := range weakTopics(state.TopicStats) {
		prio := domain.PriorityHigh
		if ts.Accuracy < criticalAccuracy {
			prio = domain.PriorityCritical
		}
		b.add(domain.Activity{
			ID:       "mcq-weak-" + slug(ts.Topic),
			Type:     domain.ActivityMCQ,
			Title:    "Practice: " + ts.Topic,
			Priority: prio,
			Reason:   fmt.Sprintf("Weak area: %.0f%% accuracy over %d questions", ts.Accuracy*100, ts.TotalQuestions),
			Topic:    ts.Topic,
		})
		plan.WeakAreaFocus = append(plan.WeakAreaFocus, ts.Topic)
	}

	if n := len(state.QuestionsDue); n > 0 {
		b.add(domain.Activity{
			ID:       "review-due",
			Type:     domain.ActivityReview,
			Title:    fmt.Sprintf("Review %d due questions", n),
			Priority: domain.PriorityHigh,
			Reason:   "Spaced repetition: questions due today",
		})
	}

	if state.FlashcardsDue > 0 {
		prio := domain.PriorityMedium
		if phase == domain.PhaseExamWeek {
			prio = domain.PriorityHigh
		}
		b.add(domain.Activity{
			ID:       "flashcards-due",
			Type:     domain.ActivityFlashcards,
			Title:    fmt.Sprintf("%d flashcards due", state.FlashcardsDue),
			Priority: prio,
			Reason:   "Flashcards due for review",
		})
	}

	if phase != domain.PhaseExamWeek {
		for _, lesson := range inProgressLessons(state.LessonProgress) {
			b.add(domain.Activity{
				ID:       "lesson-" + slug(lesson),
				Type:     domain.ActivityLesson,
				Title:    "Continue lesson: " + lesson,
				Priority: domain.PriorityHigh,
				Reason:   fmt.Sprintf("Lesson %d%% complete", state.LessonProgress[lesson]),
				Topic:    lesson,
			})
		}
	}

	if (phase == domain.PhaseFinalReview || phase == domain.PhaseExamWeek) && !hadRecentMock(state.RecentHistory) {
		b.add(domain.Activity{
			ID:       "mock-exam",
			Type:     domain.ActivityMockExam,
			Title:    "Mini mock exam",
			Priority: domain.PriorityMedium,
			Reason:   "Exam is close: simulate test conditions",
		})
	}

	goal := state.DailyGoalMin
	if goal <= 0 {
		goal = defaultDailyGoal
	}
	for i := 1; i <= maxTopUps && b.minutes() < goal; i++ {
		b.add(domain.Activity{
			ID:       fmt.Sprintf("mcq-practice-%d", i),
			Type:     domain.ActivityMCQ,
			Title:    "Mixed practice questions",
			Priority: domain.PriorityMedium,
			Reason:   "Reach today's study goal",
		})
	}

	plan.Activities = b.finish()
	return plan, nil
}

// builder accumulates activities with personalized durations and applies
// feedback filtering at the end.
type builder struct {
	state domain.UserStudyState
	acts  []domain.Activity
}

func (b *builder) add(a domain.Activity) {
	a.EstimatedMinutes = Duration(a.Type, b.state.PersonalizedDurations)
	b.acts = append(b.acts, a)
}

func (b *builder) minutes() int {
	total := 0
	for _, a := range b.acts {
		total += a.EstimatedMinutes
	}
	return total
}

func (b *builder) finish() []domain.Activity {
	out := make([]domain.Activity, 0, len(b.acts))
	for _, a := range b.acts {
		if b.state.ActivityFeedback.Dislikes(a.Type) && !a.Priority.CarryEligible() {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Duration returns the estimated minutes for t. A personalized value is
// clamped to half and one and a half times the static default.
func Duration(t domain.ActivityType, personalized map[domain.ActivityType]int) int {
	base, ok := defaultMinutes[t]
	if !ok {
		base = 15
	}
	p, ok := personalized[t]
	if !ok || p <= 0 {
		return base
	}
	lo := int(math.Round(float64(base) * 0.5))
	hi := int(math.Round(float64(base) * 1.5))
	return max(lo, min(hi, p))
}

func isOffDay(studyDays []time.Weekday, today time.Weekday, daysToExam int, known bool) bool {
	if len(studyDays) == 0 || len(studyDays) >= 7 {
		return false
	}
	if known && daysToExam <= restDayMaxExamDays {
		return false
	}
	return !slices.Contains(studyDays, today)
}

func weakTopics(stats []domain.TopicStats) []domain.TopicStats {
	var weak []domain.TopicStats
	for _, ts := range stats {
		if ts.TotalQuestions >= weakMinQuestions && ts.Accuracy < weakAccuracy {
			weak = append(weak, ts)
		}
	}
	sort.SliceStable(weak, func(i, j int) bool {
		return weak[i].Accuracy < weak[j].Accuracy
	})
	if len(weak) > maxWeakAreas {
		weak = weak[:maxWeakAreas]
	}
	return weak
}

func inProgressLessons(progress map[string]int) []string {
	var ids []string
	for id, p := range progress {
		if p > 0 && p < 100 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func hadRecentMock(history []domain.RecentDaySnapshot) bool {
	for _, day := range history {
		if day.HadMockExam {
			return true
		}
	}
	return false
}

func slug(s string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			dash = false
		case !dash && sb.Len() > 0:
			sb.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}

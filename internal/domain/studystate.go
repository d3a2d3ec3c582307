package domain

import "time"

type LearningPhase string

const (
	PhaseFoundation    LearningPhase = "foundation"
	PhaseBuilding      LearningPhase = "building"
	PhaseReinforcement LearningPhase = "reinforcement"
	PhaseFinalReview   LearningPhase = "final_review"
	PhaseExamWeek      LearningPhase = "exam_week"
)

// TopicStats is the learner's running accuracy on one topic.
type TopicStats struct {
	Topic          string  `json:"topic" yaml:"topic"`
	Accuracy       float64 `json:"accuracy" yaml:"accuracy"`
	TotalQuestions int     `json:"total_questions" yaml:"total_questions"`
	Correct        int     `json:"correct" yaml:"correct"`
}

// UserStudyState is the input the plan generator selects content from.
// RecentHistory, PersonalizedDurations and ActivityFeedback are filled in
// by the orchestrator before generation.
type UserStudyState struct {
	Section        string         `json:"section" yaml:"section"`
	ExamDate       string         `json:"exam_date,omitempty" yaml:"exam_date"`
	DailyGoalMin   int            `json:"daily_goal_minutes" yaml:"daily_goal_minutes"`
	TopicStats     []TopicStats   `json:"topic_stats,omitempty" yaml:"topic_stats"`
	QuestionsDue   []string       `json:"questions_due,omitempty" yaml:"questions_due"`
	LessonProgress map[string]int `json:"lesson_progress,omitempty" yaml:"lesson_progress"`
	FlashcardsDue  int            `json:"flashcards_due" yaml:"flashcards_due"`
	CurrentStreak  int            `json:"current_streak" yaml:"current_streak"`
	StudyDays      []time.Weekday `json:"study_days,omitempty" yaml:"study_days"`

	RecentHistory         []RecentDaySnapshot    `json:"-" yaml:"-"`
	PersonalizedDurations map[ActivityType]int   `json:"-" yaml:"-"`
	ActivityFeedback      *ActivityFeedbackStats `json:"-" yaml:"-"`
}

// RecentDaySnapshot is a lightweight view of a past plan used by the
// generator for weekly awareness.
type RecentDaySnapshot struct {
	Date            string
	ActivityTypes   []ActivityType
	Completed       int
	TotalActivities int
	HadMockExam     bool
}

// SnapshotOf builds the generator's view of a past plan.
func SnapshotOf(p *StudyPlan) RecentDaySnapshot {
	s := RecentDaySnapshot{
		Date:            p.Date,
		Completed:       p.CompletedCount(),
		TotalActivities: p.TotalActivities(),
	}
	for _, a := range p.Activities {
		s.ActivityTypes = append(s.ActivityTypes, a.Type)
		if a.Type == ActivityMockExam {
			s.HadMockExam = true
		}
	}
	return s
}

package domain

import "time"

// DurationRecord is one observed activity duration.
type DurationRecord struct {
	ActivityType     ActivityType
	EstimatedMinutes int
	ActualMinutes    int
	CompletedAt      time.Time
}

// DurationStat summarizes the observed durations of one activity type.
type DurationStat struct {
	AvgMinutes int `json:"avg_minutes"`
	Count      int `json:"count"`
}

// FeedbackRating is a thumbs-up (+1) or thumbs-down (-1).
type FeedbackRating int

const (
	RatingLiked    FeedbackRating = 1
	RatingDisliked FeedbackRating = -1
)

// Valid reports whether r is one of the two accepted ratings.
func (r FeedbackRating) Valid() bool {
	return r == RatingLiked || r == RatingDisliked
}

// FeedbackRecord is one rating given after finishing an activity.
type FeedbackRecord struct {
	ActivityType ActivityType
	Rating       FeedbackRating
	Tag          string
	RecordedAt   time.Time
}

// ActivityFeedbackStats lists activity types with a clear net rating.
type ActivityFeedbackStats struct {
	DislikedTypes []ActivityType `json:"disliked_types"`
	LikedTypes    []ActivityType `json:"liked_types"`
}

// Dislikes reports whether t is in the disliked list.
func (s *ActivityFeedbackStats) Dislikes(t ActivityType) bool {
	if s == nil {
		return false
	}
	for _, d := range s.DislikedTypes {
		if d == t {
			return true
		}
	}
	return false
}

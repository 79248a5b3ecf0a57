package models

import "time"

// SpacedRepetitionItem is a single tracked unit of knowledge. Its scheduling
// fields are a running summary of the item's review history.
type SpacedRepetitionItem struct {
	ID               string     `json:"id" db:"id"`
	UserID           string     `json:"user_id" db:"user_id"`
	SubjectID        string     `json:"subject_id" db:"subject_id"`
	TopicName        string     `json:"topic_name" db:"topic_name"`
	ChapterReference *string    `json:"chapter_reference,omitempty" db:"chapter_reference"`
	DifficultyLevel  int        `json:"difficulty_level" db:"difficulty_level"` // 1-5, set at creation
	EaseFactor       float64    `json:"ease_factor" db:"ease_factor"`           // >= 1.3
	IntervalDays     int        `json:"interval_days" db:"interval_days"`       // >= 1
	RepetitionCount  int        `json:"repetition_count" db:"repetition_count"` // successful reviews since last failure
	LastReviewedAt   *time.Time `json:"last_reviewed_at" db:"last_reviewed_at"`
	NextReviewAt     time.Time  `json:"next_review_at" db:"next_review_at"`
	Archived         bool       `json:"archived" db:"archived"`
	ArchivedAt       *time.Time `json:"archived_at,omitempty" db:"archived_at"`
	Version          int64      `json:"version" db:"version"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// ReinforcedAt returns the last moment the item was reinforced: the last
// review, or the creation time if it was never reviewed.
func (i *SpacedRepetitionItem) ReinforcedAt() time.Time {
	if i.LastReviewedAt != nil {
		return *i.LastReviewedAt
	}
	return i.CreatedAt
}

// NewItem is the validated payload for flagging a topic for tracking.
type NewItem struct {
	UserID           string  `json:"user_id"`
	SubjectID        string  `json:"subject_id"`
	TopicName        string  `json:"topic_name"`
	ChapterReference *string `json:"chapter_reference,omitempty"`
	Confidence       int     `json:"confidence"`
	DifficultyLevel  int     `json:"difficulty_level"`
}

// ItemQuery selects active items of one user. Zero-valued bounds are ignored;
// both bounds are inclusive.
type ItemQuery struct {
	UserID          string
	SubjectID       string
	NextReviewFrom  time.Time
	NextReviewUntil time.Time
}

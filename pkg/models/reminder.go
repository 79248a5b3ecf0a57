package models

// Severity tags an entry of the reminder feed.
type Severity string

const (
	SeverityOverdue  Severity = "overdue"
	SeverityDueToday Severity = "due-today"
	SeverityDueSoon  Severity = "due-soon"
	SeverityAtRisk   Severity = "at-risk"
)

// Rank orders severities; higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityOverdue:
		return 4
	case SeverityDueToday:
		return 3
	case SeverityDueSoon:
		return 2
	case SeverityAtRisk:
		return 1
	}
	return 0
}

// ScoredItem pairs an item with its estimated present-moment retention (0-100).
type ScoredItem struct {
	Item           SpacedRepetitionItem `json:"item"`
	RetentionScore float64              `json:"retention_score"`
}

// Reminder is one entry of a user's review feed.
type Reminder struct {
	Item           SpacedRepetitionItem `json:"item"`
	Severity       Severity             `json:"severity"`
	RetentionScore float64              `json:"retention_score"`
}

// ScheduleDay lists the items falling due on one calendar date.
type ScheduleDay struct {
	Date  string                 `json:"date"` // YYYY-MM-DD in the engine's time zone
	Items []SpacedRepetitionItem `json:"items"`
}


package models

// ReviewStats summarises the review history of a single item.
type ReviewStats struct {
	ItemID             string       `json:"item_id"`
	TotalReviews       int          `json:"total_reviews"`
	Correct            int          `json:"correct"`
	Partial            int          `json:"partial"`
	Incorrect          int          `json:"incorrect"`
	Accuracy           float64      `json:"accuracy"` // (correct + partial/2) / total
	AverageConfidence  float64      `json:"average_confidence"`
	AverageTimeSeconds float64      `json:"average_time_seconds"`
	LastResult         ReviewResult `json:"last_result,omitempty"`
	Mastered           bool         `json:"mastered"`
}

package models

import (
	"fmt"
	"strings"
	"time"
)

// ReviewResult is the outcome of a single review.
type ReviewResult string

const (
	ResultCorrect   ReviewResult = "correct"
	ResultPartial   ReviewResult = "partial"
	ResultIncorrect ReviewResult = "incorrect"
)

// Valid reports whether r is one of the known results.
func (r ReviewResult) Valid() bool {
	switch r {
	case ResultCorrect, ResultPartial, ResultIncorrect:
		return true
	}
	return false
}

// ParseReviewResult converts user input into a ReviewResult.
func ParseReviewResult(s string) (ReviewResult, error) {
	r := ReviewResult(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown review result %q", s)
	}
	return r, nil
}

// ReviewRecord is one immutable reported outcome for an item.
type ReviewRecord struct {
	ID               string       `json:"id" db:"id"`
	ItemID           string       `json:"item_id" db:"item_id"`
	Confidence       int          `json:"confidence" db:"confidence"` // 1-5, rated before seeing the answer
	TimeSpentSeconds int          `json:"time_spent_seconds" db:"time_spent_seconds"`
	Result           ReviewResult `json:"result" db:"result"`
	ReviewedAt       time.Time    `json:"reviewed_at" db:"reviewed_at"`
}

// ReviewInput is the validated payload for reporting a review.
type ReviewInput struct {
	ItemID           string       `json:"item_id"`
	Confidence       int          `json:"confidence"`
	TimeSpentSeconds int          `json:"time_spent_seconds"`
	Result           ReviewResult `json:"result"`
}

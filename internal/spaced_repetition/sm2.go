package spaced_repetition

import (
	"fmt"
	"math"
	"time"

	"github.com/example/studytrack/pkg/models"
)

const (
	// MinConfidence and MaxConfidence bound self-rated recall strength.
	MinConfidence = 1
	MaxConfidence = 5
	// MinDifficulty and MaxDifficulty bound the author-estimated hardness.
	MinDifficulty = 1
	MaxDifficulty = 5
)

// SM2 implements an SM-2 derived interval scheduler driven by confidence
// ratings and a three-way review result.
type SM2 struct {
	// Floor for the ease factor
	MinEaseFactor float64
	// Ease factor given to new items
	InitialEaseFactor float64
	// Extra multiplier applied to interval growth on a partial result
	PartialDamping float64
	// Maximum interval in days
	MaxInterval int
	// Base initial interval in days, indexed by difficulty-1
	BaseIntervals [MaxDifficulty]int
	// Divisor applied to the base interval, indexed by confidence-1
	ConfidenceDivisors [MaxConfidence]float64
}

// NewSM2 creates a new SM2 instance with default settings.
func NewSM2() *SM2 {
	return &SM2{
		MinEaseFactor:      1.3,
		InitialEaseFactor:  2.5,
		PartialDamping:     0.75,
		MaxInterval:        365,
		BaseIntervals:      [MaxDifficulty]int{6, 4, 3, 2, 1},
		ConfidenceDivisors: [MaxConfidence]float64{2.0, 1.6, 1.3, 1.15, 1.0},
	}
}

// Validate checks that the tunables keep the scheduler's guarantees.
func (sm *SM2) Validate() error {
	if sm.MinEaseFactor < 1 {
		return fmt.Errorf("min ease factor %.2f must be at least 1", sm.MinEaseFactor)
	}
	if sm.InitialEaseFactor < sm.MinEaseFactor {
		return fmt.Errorf("initial ease factor %.2f below floor %.2f", sm.InitialEaseFactor, sm.MinEaseFactor)
	}
	if sm.PartialDamping <= 0 || sm.PartialDamping > 1 {
		return fmt.Errorf("partial damping %.2f out of range (0, 1]", sm.PartialDamping)
	}
	if sm.MaxInterval < 1 {
		return fmt.Errorf("max interval %d must be positive", sm.MaxInterval)
	}
	for i := 1; i < len(sm.BaseIntervals); i++ {
		if sm.BaseIntervals[i] > sm.BaseIntervals[i-1] {
			return fmt.Errorf("base intervals must not grow with difficulty")
		}
	}
	for i := 1; i < len(sm.ConfidenceDivisors); i++ {
		if sm.ConfidenceDivisors[i] > sm.ConfidenceDivisors[i-1] {
			return fmt.Errorf("confidence divisors must not grow with confidence")
		}
	}
	if sm.BaseIntervals[MaxDifficulty-1] < 1 || sm.ConfidenceDivisors[MaxConfidence-1] <= 0 {
		return fmt.Errorf("base intervals and divisors must be positive")
	}
	return nil
}

// InitialInterval returns the first spacing, in days, for a new item. Harder
// topics and lower confidence never produce a longer interval.
func (sm *SM2) InitialInterval(difficulty, confidence int) int {
	difficulty = clampInt(difficulty, MinDifficulty, MaxDifficulty)
	confidence = clampInt(confidence, MinConfidence, MaxConfidence)

	base := float64(sm.BaseIntervals[difficulty-1])
	interval := int(math.Round(base / sm.ConfidenceDivisors[confidence-1]))
	if interval < 1 {
		interval = 1
	}
	if interval > sm.MaxInterval {
		interval = sm.MaxInterval
	}
	return interval
}

// NextEaseFactor applies the SM-2 ease delta for a confidence rating.
func (sm *SM2) NextEaseFactor(ease float64, confidence int) float64 {
	q := float64(5 - clampInt(confidence, MinConfidence, MaxConfidence))
	newEF := ease + (0.1 - q*(0.08+q*0.02))
	if newEF < sm.MinEaseFactor {
		newEF = sm.MinEaseFactor
	}
	return newEF
}

// Initialize sets the scheduling fields of a freshly created item.
func (sm *SM2) Initialize(item *models.SpacedRepetitionItem, confidence int, now time.Time) {
	item.EaseFactor = sm.InitialEaseFactor
	item.IntervalDays = sm.InitialInterval(item.DifficultyLevel, confidence)
	item.RepetitionCount = 0
	item.LastReviewedAt = nil
	item.NextReviewAt = NextReviewAt(now, item.IntervalDays)
}

// Process folds one review outcome into the item.
func (sm *SM2) Process(item *models.SpacedRepetitionItem, confidence int, result models.ReviewResult, reviewedAt time.Time) {
	item.EaseFactor = sm.NextEaseFactor(item.EaseFactor, confidence)

	if result == models.ResultIncorrect {
		// Failure collapses spacing regardless of history
		item.IntervalDays = 1
		item.RepetitionCount = 0
	} else {
		item.IntervalDays = sm.grow(item.IntervalDays, item.EaseFactor, result)
		item.RepetitionCount++
	}

	reviewed := reviewedAt
	item.LastReviewedAt = &reviewed
	item.NextReviewAt = NextReviewAt(reviewedAt, item.IntervalDays)
}

// grow computes the interval after a successful review. It never shrinks
// the current interval.
func (sm *SM2) grow(current int, ease float64, result models.ReviewResult) int {
	if current < 1 {
		current = 1
	}
	next := float64(current) * ease
	if result == models.ResultPartial {
		next *= sm.PartialDamping
	}
	interval := int(math.Round(next))
	if interval > sm.MaxInterval {
		interval = sm.MaxInterval
	}
	if interval < current {
		interval = current
	}
	return interval
}

// IsMastered determines if an item is considered "mastered":
// at least 5 successful reviews in a row and an interval of 30 days or more.
func (sm *SM2) IsMastered(item *models.SpacedRepetitionItem) bool {
	return item.RepetitionCount >= 5 && item.IntervalDays >= 30
}

// NextReviewAt adds intervalDays calendar days to from.
func NextReviewAt(from time.Time, intervalDays int) time.Time {
	return from.AddDate(0, 0, intervalDays)
}

// RetentionScore estimates present-moment recall on a 0-100 scale using
// exponential decay over the item's own interval.
func RetentionScore(elapsed time.Duration, intervalDays int) float64 {
	if elapsed <= 0 {
		return 100
	}
	if intervalDays < 1 {
		intervalDays = 1
	}
	elapsedDays := elapsed.Hours() / 24
	return 100 * math.Exp(-elapsedDays/float64(intervalDays))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

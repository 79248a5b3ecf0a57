package review

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	sr "github.com/example/studytrack/internal/spaced_repetition"
	"github.com/example/studytrack/pkg/models"
)

const dateLayout = "2006-01-02"

// GetItemsDueForReview returns the user's items whose review time has come,
// most overdue first; harder items go first on ties. An empty subjectID
// selects every subject.
func (s *Service) GetItemsDueForReview(ctx context.Context, userID, subjectID string) ([]models.SpacedRepetitionItem, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalid("userId", "must not be empty")
	}
	return s.dueItems(ctx, userID, strings.TrimSpace(subjectID), s.clock())
}

func (s *Service) dueItems(ctx context.Context, userID, subjectID string, now time.Time) ([]models.SpacedRepetitionItem, error) {
	items, err := s.store.ListItems(ctx, models.ItemQuery{
		UserID:          userID,
		SubjectID:       subjectID,
		NextReviewUntil: now,
	})
	if err != nil {
		return nil, &StoreError{Op: "list due items", Err: err}
	}

	due := make([]models.SpacedRepetitionItem, 0, len(items))
	for _, item := range items {
		if !item.NextReviewAt.After(now) {
			due = append(due, item)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		a, b := due[i], due[j]
		if !a.NextReviewAt.Equal(b.NextReviewAt) {
			return a.NextReviewAt.Before(b.NextReviewAt)
		}
		if a.DifficultyLevel != b.DifficultyLevel {
			return a.DifficultyLevel > b.DifficultyLevel
		}
		return a.ID < b.ID
	})

	s.log.WithFields(logrus.Fields{"user_id": userID, "count": len(due)}).Debug("due items listed")
	return due, nil
}

// GetReviewSchedule lays out the next days calendar days, today included.
// Every day is present even when nothing falls due on it.
func (s *Service) GetReviewSchedule(ctx context.Context, userID string, days int) ([]models.ScheduleDay, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalid("userId", "must not be empty")
	}
	if days < 1 || days > s.cfg.MaxScheduleDays {
		return nil, invalid("days", "%d not in [1, %d]", days, s.cfg.MaxScheduleDays)
	}

	start := s.startOfDay(s.clock())
	end := start.AddDate(0, 0, days)

	schedule := make([]models.ScheduleDay, days)
	index := make(map[string]int, days)
	for i := range schedule {
		date := start.AddDate(0, 0, i).Format(dateLayout)
		schedule[i] = models.ScheduleDay{Date: date, Items: []models.SpacedRepetitionItem{}}
		index[date] = i
	}

	items, err := s.store.ListItems(ctx, models.ItemQuery{
		UserID:          userID,
		NextReviewFrom:  start,
		NextReviewUntil: end,
	})
	if err != nil {
		return nil, &StoreError{Op: "list scheduled items", Err: err}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].NextReviewAt.Equal(items[j].NextReviewAt) {
			return items[i].NextReviewAt.Before(items[j].NextReviewAt)
		}
		return items[i].ID < items[j].ID
	})
	for _, item := range items {
		date := item.NextReviewAt.In(s.cfg.Location).Format(dateLayout)
		if i, ok := index[date]; ok {
			schedule[i].Items = append(schedule[i].Items, item)
		}
	}
	return schedule, nil
}

// GetTopicsAtRisk estimates retention for every active item and returns those
// scoring below threshold, weakest first. The formal due date is ignored.
func (s *Service) GetTopicsAtRisk(ctx context.Context, userID string, threshold float64) ([]models.ScoredItem, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalid("userId", "must not be empty")
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > 100 {
		return nil, invalid("threshold", "%v not in [0, 100]", threshold)
	}
	return s.atRisk(ctx, userID, threshold, s.clock())
}

func (s *Service) atRisk(ctx context.Context, userID string, threshold float64, now time.Time) ([]models.ScoredItem, error) {
	if threshold == 0 {
		return []models.ScoredItem{}, nil
	}
	items, err := s.store.ListItems(ctx, models.ItemQuery{UserID: userID})
	if err != nil {
		return nil, &StoreError{Op: "list items", Err: err}
	}

	scored := make([]models.ScoredItem, 0)
	for _, item := range items {
		score := s.retention(&item, now)
		if score < threshold {
			scored = append(scored, models.ScoredItem{Item: item, RetentionScore: score})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].RetentionScore != scored[j].RetentionScore {
			return scored[i].RetentionScore < scored[j].RetentionScore
		}
		return scored[i].Item.ID < scored[j].Item.ID
	})

	s.log.WithFields(logrus.Fields{
		"user_id":   userID,
		"threshold": threshold,
		"scanned":   len(items),
		"at_risk":   len(scored),
	}).Debug("retention scored")
	return scored, nil
}

func (s *Service) retention(item *models.SpacedRepetitionItem, now time.Time) float64 {
	return sr.RetentionScore(now.Sub(item.ReinforcedAt()), item.IntervalDays)
}

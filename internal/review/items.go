package review

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	sr "github.com/example/studytrack/internal/spaced_repetition"
	"github.com/example/studytrack/pkg/models"
)

// CreateItem starts tracking a topic. The first review is scheduled from the
// topic's difficulty and the learner's confidence.
func (s *Service) CreateItem(ctx context.Context, in models.NewItem) (*models.SpacedRepetitionItem, error) {
	userID := strings.TrimSpace(in.UserID)
	subjectID := strings.TrimSpace(in.SubjectID)
	topic := strings.TrimSpace(in.TopicName)
	switch {
	case userID == "":
		return nil, invalid("userId", "must not be empty")
	case subjectID == "":
		return nil, invalid("subjectId", "must not be empty")
	case topic == "":
		return nil, invalid("topicName", "must not be empty")
	}
	if err := checkConfidence(in.Confidence); err != nil {
		return nil, err
	}
	if in.DifficultyLevel < sr.MinDifficulty || in.DifficultyLevel > sr.MaxDifficulty {
		return nil, invalid("difficultyLevel", "%d not in [%d, %d]", in.DifficultyLevel, sr.MinDifficulty, sr.MaxDifficulty)
	}

	now := s.clock()
	item := &models.SpacedRepetitionItem{
		ID:              s.newID(),
		UserID:          userID,
		SubjectID:       subjectID,
		TopicName:       topic,
		DifficultyLevel: in.DifficultyLevel,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.ChapterReference != nil {
		if ref := strings.TrimSpace(*in.ChapterReference); ref != "" {
			item.ChapterReference = &ref
		}
	}
	s.sm2.Initialize(item, in.Confidence, now)

	if err := s.store.InsertItem(ctx, item); err != nil {
		return nil, &StoreError{Op: "insert item", Err: err}
	}

	s.log.WithFields(logrus.Fields{
		"item_id":       item.ID,
		"user_id":       item.UserID,
		"interval_days": item.IntervalDays,
	}).Info("item created")
	return item, nil
}

// RecordReview folds a review outcome into the item and appends the record.
// Calls for the same item are serialized; the record and the item update are
// committed together or not at all.
func (s *Service) RecordReview(ctx context.Context, in models.ReviewInput) (*models.SpacedRepetitionItem, *models.ReviewRecord, error) {
	itemID := strings.TrimSpace(in.ItemID)
	if itemID == "" {
		return nil, nil, invalid("itemId", "must not be empty")
	}
	if err := checkConfidence(in.Confidence); err != nil {
		return nil, nil, err
	}
	if in.TimeSpentSeconds <= 0 {
		return nil, nil, invalid("timeSpentSeconds", "must be positive, got %d", in.TimeSpentSeconds)
	}
	if !in.Result.Valid() {
		return nil, nil, invalid("result", "unknown value %q", in.Result)
	}

	unlock := s.locks.lock(itemID)
	defer unlock()

	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, nil, storeErr("get item", itemID, err)
	}
	if item.Archived {
		return nil, nil, invalid("itemId", "item %s is archived", item.ID)
	}

	now := s.clock()
	expected := item.Version
	prevInterval := item.IntervalDays

	s.sm2.Process(item, in.Confidence, in.Result, now)
	item.Version++
	item.UpdatedAt = now

	record := &models.ReviewRecord{
		ID:               s.newID(),
		ItemID:           item.ID,
		Confidence:       in.Confidence,
		TimeSpentSeconds: in.TimeSpentSeconds,
		Result:           in.Result,
		ReviewedAt:       now,
	}

	entry := s.log.WithFields(logrus.Fields{
		"item_id": item.ID,
		"result":  in.Result,
	})
	if err := s.store.CommitReview(ctx, item, record, expected); err != nil {
		if errors.Is(err, models.ErrVersionConflict) {
			entry.Warn("review lost a concurrent update")
		}
		return nil, nil, storeErr("commit review", item.ID, err)
	}

	entry.WithFields(logrus.Fields{
		"interval_from": prevInterval,
		"interval_to":   item.IntervalDays,
		"ease_factor":   item.EaseFactor,
	}).Info("review recorded")
	return item, record, nil
}

// GetItem returns a single item, archived or not.
func (s *Service) GetItem(ctx context.Context, itemID string) (*models.SpacedRepetitionItem, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return nil, invalid("itemId", "must not be empty")
	}
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, storeErr("get item", itemID, err)
	}
	return item, nil
}

// ArchiveItem soft-deactivates an item. Its history is kept; it no longer
// shows up in due, schedule, risk or reminder queries. Archiving twice is a
// no-op.
func (s *Service) ArchiveItem(ctx context.Context, itemID string) (*models.SpacedRepetitionItem, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return nil, invalid("itemId", "must not be empty")
	}

	unlock := s.locks.lock(itemID)
	defer unlock()

	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, storeErr("get item", itemID, err)
	}
	if item.Archived {
		return item, nil
	}

	now := s.clock()
	if err := s.store.ArchiveItem(ctx, itemID, now); err != nil {
		return nil, storeErr("archive item", itemID, err)
	}
	item.Archived = true
	item.ArchivedAt = &now
	item.UpdatedAt = now
	item.Version++

	s.log.WithField("item_id", itemID).Info("item archived")
	return item, nil
}

// GetReviewHistory returns the item's review records, oldest first.
func (s *Service) GetReviewHistory(ctx context.Context, itemID string) ([]models.ReviewRecord, error) {
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListReviews(ctx, item.ID)
	if err != nil {
		return nil, storeErr("list reviews", item.ID, err)
	}
	return records, nil
}

// GetItemStats folds the review history of an item into summary statistics.
func (s *Service) GetItemStats(ctx context.Context, itemID string) (*models.ReviewStats, error) {
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListReviews(ctx, item.ID)
	if err != nil {
		return nil, storeErr("list reviews", item.ID, err)
	}

	stats := &models.ReviewStats{
		ItemID:       item.ID,
		TotalReviews: len(records),
		Mastered:     s.sm2.IsMastered(item),
	}
	if len(records) == 0 {
		return stats, nil
	}

	var confidence, seconds int
	for _, r := range records {
		switch r.Result {
		case models.ResultCorrect:
			stats.Correct++
		case models.ResultPartial:
			stats.Partial++
		case models.ResultIncorrect:
			stats.Incorrect++
		}
		confidence += r.Confidence
		seconds += r.TimeSpentSeconds
	}
	n := float64(len(records))
	stats.Accuracy = (float64(stats.Correct) + float64(stats.Partial)/2) / n
	stats.AverageConfidence = float64(confidence) / n
	stats.AverageTimeSeconds = float64(seconds) / n
	stats.LastResult = records[len(records)-1].Result
	return stats, nil
}

// ListUserIDs returns the users owning at least one active item.
func (s *Service) ListUserIDs(ctx context.Context) ([]string, error) {
	ids, err := s.store.ListUserIDs(ctx)
	if err != nil {
		return nil, &StoreError{Op: "list users", Err: err}
	}
	return ids, nil
}

func checkConfidence(c int) error {
	if c < sr.MinConfidence || c > sr.MaxConfidence {
		return invalid("confidence", "%d not in [%d, %d]", c, sr.MinConfidence, sr.MaxConfidence)
	}
	return nil
}

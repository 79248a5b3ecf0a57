package review

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/example/studytrack/pkg/models"
)

// GenerateReviewReminders merges due, soon-due and at-risk items into one
// feed. Each item appears once under its most severe tag, and the feed is
// capped at the configured limit keeping the most severe entries.
func (s *Service) GenerateReviewReminders(ctx context.Context, userID string) ([]models.Reminder, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalid("userId", "must not be empty")
	}
	now := s.clock()

	var (
		due   []models.SpacedRepetitionItem
		soon  []models.SpacedRepetitionItem
		risky []models.ScoredItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ReadConcurrency)
	g.Go(func() error {
		var err error
		due, err = s.dueItems(gctx, userID, "", now)
		return err
	})
	g.Go(func() error {
		var err error
		soon, err = s.store.ListItems(gctx, models.ItemQuery{
			UserID:          userID,
			NextReviewFrom:  now,
			NextReviewUntil: now.Add(s.cfg.DueSoonWindow),
		})
		if err != nil {
			return &StoreError{Op: "list upcoming items", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		risky, err = s.atRisk(gctx, userID, *s.cfg.RiskThreshold, now)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	feed := make(map[string]models.Reminder, len(due)+len(soon)+len(risky))
	add := func(item models.SpacedRepetitionItem, severity models.Severity, score float64) {
		if existing, ok := feed[item.ID]; ok && existing.Severity.Rank() >= severity.Rank() {
			return
		}
		feed[item.ID] = models.Reminder{Item: item, Severity: severity, RetentionScore: score}
	}
	for _, item := range due {
		add(item, s.severity(&item, now), s.retention(&item, now))
	}
	for _, item := range soon {
		add(item, s.severity(&item, now), s.retention(&item, now))
	}
	for _, scored := range risky {
		add(scored.Item, s.severity(&scored.Item, now), scored.RetentionScore)
	}

	reminders := make([]models.Reminder, 0, len(feed))
	for _, r := range feed {
		reminders = append(reminders, r)
	}
	sort.Slice(reminders, func(i, j int) bool {
		a, b := reminders[i], reminders[j]
		if a.Severity != b.Severity {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.Severity == models.SeverityAtRisk && a.RetentionScore != b.RetentionScore {
			return a.RetentionScore < b.RetentionScore
		}
		if !a.Item.NextReviewAt.Equal(b.Item.NextReviewAt) {
			return a.Item.NextReviewAt.Before(b.Item.NextReviewAt)
		}
		if a.Item.DifficultyLevel != b.Item.DifficultyLevel {
			return a.Item.DifficultyLevel > b.Item.DifficultyLevel
		}
		return a.Item.ID < b.Item.ID
	})
	if len(reminders) > s.cfg.ReminderLimit {
		reminders = reminders[:s.cfg.ReminderLimit]
	}

	s.log.WithFields(logrus.Fields{
		"user_id":   userID,
		"due":       len(due),
		"due_soon":  len(soon),
		"at_risk":   len(risky),
		"reminders": len(reminders),
	}).Debug("reminders generated")
	return reminders, nil
}

// severity tags an item relative to now. Items that are neither due by the
// end of today nor within the due-soon window are only in the feed because of
// their retention.
func (s *Service) severity(item *models.SpacedRepetitionItem, now time.Time) models.Severity {
	tomorrow := s.startOfDay(now).AddDate(0, 0, 1)
	switch {
	case !item.NextReviewAt.After(now):
		return models.SeverityOverdue
	case item.NextReviewAt.Before(tomorrow):
		return models.SeverityDueToday
	case !item.NextReviewAt.After(now.Add(s.cfg.DueSoonWindow)):
		return models.SeverityDueSoon
	default:
		return models.SeverityAtRisk
	}
}

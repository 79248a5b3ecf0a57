package scheduler

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/example/studytrack/pkg/models"
)

// LogNotifier writes reminder feeds to the log. It is the default
// notifier when no delivery channel is configured.
type LogNotifier struct {
	Log logrus.FieldLogger
}

// SendReminders implements Notifier
func (n *LogNotifier) SendReminders(ctx context.Context, userID string, reminders []models.Reminder) error {
	counts := map[models.Severity]int{}
	for _, r := range reminders {
		counts[r.Severity]++
	}
	n.Log.WithFields(logrus.Fields{
		"user_id":   userID,
		"total":     len(reminders),
		"overdue":   counts[models.SeverityOverdue],
		"due_today": counts[models.SeverityDueToday],
		"due_soon":  counts[models.SeverityDueSoon],
		"at_risk":   counts[models.SeverityAtRisk],
	}).Info("Review reminders")

	for _, r := range reminders {
		n.Log.WithFields(logrus.Fields{
			"user_id":   userID,
			"item_id":   r.Item.ID,
			"topic":     r.Item.TopicName,
			"severity":  r.Severity,
			"retention": r.RetentionScore,
			"next":      r.Item.NextReviewAt,
		}).Debug("Reminder")
	}
	return nil
}

package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/example/studytrack/internal/config"
	"github.com/example/studytrack/pkg/models"
)

const maxConcurrentUsers = 4

// ReminderSource produces reminder feeds
type ReminderSource interface {
	ListUserIDs(ctx context.Context) ([]string, error)
	GenerateReviewReminders(ctx context.Context, userID string) ([]models.Reminder, error)
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminders(ctx context.Context, userID string, reminders []models.Reminder) error
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	source    ReminderSource
	notifier  Notifier
	cfg       config.DigestConfig
	loc       *time.Location
	log       logrus.FieldLogger
	clock     func() time.Time
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates a new scheduler instance
func New(source ReminderSource, notifier Notifier, cfg config.DigestConfig, loc *time.Location, logger logrus.FieldLogger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if cfg.Every <= 0 {
		cfg.Every = time.Hour
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		source:    source,
		notifier:  notifier,
		cfg:       cfg,
		loc:       loc,
		log:       logger.WithField("component", "scheduler"),
		clock:     time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.cfg.Every).Do(s.checkAndSendReminders); err != nil {
		return fmt.Errorf("failed to schedule digest: %w", err)
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	s.log.WithField("every", s.cfg.Every).Info("Digest scheduler started")
	return nil
}

// Stop terminates all scheduled tasks and cancels a digest run in flight
func (s *Scheduler) Stop() {
	s.cancel()
	s.scheduler.Stop()
}

// inWindow reports whether the digest may run at the given hour. Both ends
// are inclusive; a start after the end spans midnight.
func (s *Scheduler) inWindow(hour int) bool {
	if s.cfg.StartHour <= s.cfg.EndHour {
		return hour >= s.cfg.StartHour && hour <= s.cfg.EndHour
	}
	return hour >= s.cfg.StartHour || hour <= s.cfg.EndHour
}

// checkAndSendReminders sends the reminder feed of every user with active items
func (s *Scheduler) checkAndSendReminders() {
	currentHour := s.clock().In(s.loc).Hour()
	if !s.inWindow(currentHour) {
		s.log.Debugf("Current hour %d is outside notification hours (%d-%d), skipping reminders",
			currentHour, s.cfg.StartHour, s.cfg.EndHour)
		return
	}

	ctx := s.ctx
	users, err := s.source.ListUserIDs(ctx)
	if err != nil {
		s.log.WithError(err).Error("Error getting users for notification")
		return
	}

	var sent atomic.Int64
	var g errgroup.Group
	g.SetLimit(maxConcurrentUsers)
	for _, userID := range users {
		userID := userID
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			ok, err := s.notify(ctx, userID)
			if err != nil {
				s.log.WithError(err).WithField("user_id", userID).Error("Error sending reminders")
				return nil
			}
			if ok {
				sent.Add(1)
			}
			return nil
		})
	}
	g.Wait()
	s.log.WithFields(logrus.Fields{"users": len(users), "notified": sent.Load()}).Info("Digest run finished")
}

func (s *Scheduler) notify(ctx context.Context, userID string) (bool, error) {
	reminders, err := s.source.GenerateReviewReminders(ctx, userID)
	if err != nil {
		return false, err
	}
	if len(reminders) == 0 {
		return false, nil
	}
	return true, s.notifier.SendReminders(ctx, userID, reminders)
}

// RunManualCheck forces a check for a specific user, ignoring the hour window
func (s *Scheduler) RunManualCheck(ctx context.Context, userID string) error {
	_, err := s.notify(ctx, userID)
	return err
}

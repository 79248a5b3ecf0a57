package review

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	sr "github.com/example/studytrack/internal/spaced_repetition"
)

// Config configures a Service.
// Zero values produce sensible defaults; see field comments.
type Config struct {
	RiskThreshold   *float64       // nil → 60; threshold used by the reminder feed, 0 leaves at-risk entries out
	ReminderLimit   int            // zero → 20
	DueSoonWindow   time.Duration  // zero → 48h
	PartialDamping  float64        // zero → 0.75
	MaxIntervalDays int            // zero → 365
	MaxScheduleDays int            // zero → 90
	ReadConcurrency int            // zero → 4
	Location        *time.Location // nil → UTC; calendar days are drawn in this zone
}

func (c Config) withDefaults() Config {
	threshold := 60.0
	if c.RiskThreshold != nil {
		threshold = *c.RiskThreshold
	}
	c.RiskThreshold = &threshold
	if c.ReminderLimit == 0 {
		c.ReminderLimit = 20
	}
	if c.DueSoonWindow == 0 {
		c.DueSoonWindow = 48 * time.Hour
	}
	if c.PartialDamping == 0 {
		c.PartialDamping = 0.75
	}
	if c.MaxIntervalDays == 0 {
		c.MaxIntervalDays = 365
	}
	if c.MaxScheduleDays == 0 {
		c.MaxScheduleDays = 90
	}
	if c.ReadConcurrency == 0 {
		c.ReadConcurrency = 4
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	return c
}

// Service is the review-scheduling engine. Writes go through the per-item
// locks; reads never take them.
type Service struct {
	store Store
	cfg   Config
	sm2   *sr.SM2
	log   logrus.FieldLogger
	locks *itemLocks
	clock func() time.Time
	newID func() string
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// NewService wires the store with the scheduling algorithm.
// Zero-value config fields are filled with defaults; invalid values return an error.
func NewService(store Store, cfg Config, logger logrus.FieldLogger, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("review: store is required")
	}
	cfg = cfg.withDefaults()
	if t := *cfg.RiskThreshold; math.IsNaN(t) || t < 0 || t > 100 {
		return nil, fmt.Errorf("review: risk threshold %.1f out of range [0, 100]", t)
	}
	if cfg.ReminderLimit < 0 || cfg.MaxScheduleDays < 0 || cfg.ReadConcurrency < 0 || cfg.DueSoonWindow < 0 {
		return nil, fmt.Errorf("review: limits must be positive")
	}

	sm2 := sr.NewSM2()
	sm2.PartialDamping = cfg.PartialDamping
	sm2.MaxInterval = cfg.MaxIntervalDays
	if err := sm2.Validate(); err != nil {
		return nil, fmt.Errorf("review: %w", err)
	}

	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	s := &Service{
		store: store,
		cfg:   cfg,
		sm2:   sm2,
		log:   logger.WithField("component", "review"),
		locks: newItemLocks(),
		clock: time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// startOfDay returns midnight of t's calendar day in the engine's zone.
func (s *Service) startOfDay(t time.Time) time.Time {
	t = t.In(s.cfg.Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.cfg.Location)
}

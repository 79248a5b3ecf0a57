package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/example/studytrack/internal/config"
	"github.com/example/studytrack/internal/database"
	"github.com/example/studytrack/internal/logger"
	"github.com/example/studytrack/internal/review"
	"github.com/example/studytrack/internal/scheduler"
)

// App holds the wired application components.
type App struct {
	Config  *config.Config
	Log     *logrus.Logger
	DB      *sqlx.DB
	Items   *database.ItemRepository
	Service *review.Service
}

// New loads configuration and wires the application.
func New(ctx context.Context, opts config.LoadOptions) (*App, error) {
	cfg, err := config.Load(opts)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewFromConfig(ctx, cfg, os.Stderr)
}

// NewFromConfig wires the application from an already loaded configuration.
// The schema is created when missing.
func NewFromConfig(ctx context.Context, cfg *config.Config, logOut io.Writer, opts ...review.Option) (*App, error) {
	log, err := logger.NewWithOutput(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	items := database.NewItemRepository(db)
	svc, err := review.NewService(items, engineConfig(cfg.Engine, loc), log, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"driver":   cfg.Database.Driver,
		"timezone": loc.String(),
	}).Debug("Application wired")

	return &App{
		Config:  cfg,
		Log:     log,
		DB:      db,
		Items:   items,
		Service: svc,
	}, nil
}

// Scheduler builds the reminder digest scheduler with the given notifier.
// A nil notifier logs the reminders.
func (a *App) Scheduler(n scheduler.Notifier) *scheduler.Scheduler {
	if n == nil {
		n = &scheduler.LogNotifier{Log: a.Log}
	}
	loc, _ := a.Config.Location()
	return scheduler.New(a.Service, n, a.Config.Digest, loc, a.Log)
}

// Close releases the database connection.
func (a *App) Close() error {
	return a.DB.Close()
}

func engineConfig(c config.EngineConfig, loc *time.Location) review.Config {
	risk := c.RiskThreshold
	return review.Config{
		RiskThreshold:   &risk,
		ReminderLimit:   c.ReminderLimit,
		DueSoonWindow:   c.DueSoonWindow,
		PartialDamping:  c.PartialDamping,
		MaxIntervalDays: c.MaxIntervalDays,
		MaxScheduleDays: c.MaxScheduleDays,
		ReadConcurrency: c.ReadConcurrency,
		Location:        loc,
	}
}

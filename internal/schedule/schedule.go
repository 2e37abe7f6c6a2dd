// Package schedule runs the bot's time-driven jobs: period rollover,
// the daily summary, and the month-end report.
package schedule

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Commands is the subset of the command service the scheduler drives.
type Commands interface {
	EnsureCurrentLedger(ctx context.Context) error
	Summary(ctx context.Context) (string, error)
	MonthlyReport(ctx context.Context) (string, error)
}

// Notifier delivers scheduled output to the chat transport.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, text string) error

func (f NotifierFunc) Notify(ctx context.Context, text string) error {
	return f(ctx, text)
}

// Specs carries the cron expressions for each job.
type Specs struct {
	Rollover     string
	DailySummary string
	MonthEnd     string
}

// Scheduler owns the cron runner. Jobs are independent: a failing run is
// logged and the next tick proceeds normally.
type Scheduler struct {
	cron     *cron.Cron
	commands Commands
	notifier Notifier
	now      func() time.Time
	log      zerolog.Logger
}

// New creates a scheduler over the given command service and notifier.
func New(commands Commands, notifier Notifier, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		commands: commands,
		notifier: notifier,
		now:      time.Now,
		log:      log,
	}
}

// WithClock overrides the scheduler clock. Test hook.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Register adds the three jobs under the given cron specs. The month-end
// spec fires daily; the job itself skips every day but the last of the
// month, since standard cron cannot express "last day".
func (s *Scheduler) Register(specs Specs) error {
	if _, err := s.cron.AddFunc(specs.Rollover, s.runRollover); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(specs.DailySummary, s.runDailySummary); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(specs.MonthEnd, s.runMonthEnd); err != nil {
		return err
	}
	return nil
}

// Start begins running registered jobs in their own goroutines.
func (s *Scheduler) Start() {
	s.log.Info().Msg("scheduler started")
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		s.log.Info().Msg("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runRollover() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.commands.EnsureCurrentLedger(ctx); err != nil {
		s.log.Error().Err(err).Msg("period rollover failed")
		return
	}
	s.log.Info().Msg("period rollover completed")
}

func (s *Scheduler) runDailySummary() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	text, err := s.commands.Summary(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("daily summary failed")
		return
	}
	if err := s.notifier.Notify(ctx, text); err != nil {
		s.log.Error().Err(err).Msg("daily summary delivery failed")
	}
}

func (s *Scheduler) runMonthEnd() {
	if !isLastDayOfMonth(s.now()) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	text, err := s.commands.MonthlyReport(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("month-end report failed")
		return
	}
	if err := s.notifier.Notify(ctx, text); err != nil {
		s.log.Error().Err(err).Msg("month-end report delivery failed")
	}
}

func isLastDayOfMonth(t time.Time) bool {
	return t.AddDate(0, 0, 1).Day() == 1
}

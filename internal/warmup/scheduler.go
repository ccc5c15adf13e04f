package warmup

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ErrNoSchedule is returned when the scheduler is created without a schedule.
var ErrNoSchedule = errors.New("warmup: empty schedule")

// Runner is a job the scheduler can trigger.
type Runner interface {
	Run(ctx context.Context) *Result
}

// Scheduler runs a warm-up job on a cron schedule. A run that is still in
// progress when the next one is due causes that tick to be skipped.
type Scheduler struct {
	cron   *cron.Cron
	job    Runner
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler parses schedule (standard five-field cron syntax or a
// descriptor such as "@every 10m") and prepares the schedule.
func NewScheduler(schedule string, job Runner, logger zerolog.Logger) (*Scheduler, error) {
	if schedule == "" {
		return nil, ErrNoSchedule
	}

	logger = logger.With().Str("component", "warmup-scheduler").Logger()
	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{logger}),
		cron.SkipIfStillRunning(cronLogger{logger}),
	))

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   c,
		job:    job,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	if _, err := c.AddFunc(schedule, s.runOnce); err != nil {
		cancel()
		return nil, fmt.Errorf("warmup: invalid schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) runOnce() {
	if s.ctx.Err() != nil {
		return
	}
	s.job.Run(s.ctx)
}

// Start begins running the schedule in the background.
func (s *Scheduler) Start() {
	s.logger.Info().Msg("warm-up scheduler started")
	s.cron.Start()
}

// Stop cancels any in-flight run and waits for it to return or for ctx
// to be done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info().Msg("warm-up scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

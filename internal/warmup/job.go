package warmup

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/envicheck/envicheck/internal/environment"
	"github.com/envicheck/envicheck/internal/geo"
)

// reportSections is the number of sections in a complete report.
const reportSections = 4

// Refresher rebuilds the cached report for a coordinate.
type Refresher interface {
	Refresh(ctx context.Context, coord geo.Coordinate) (*environment.Report, error)
}

// Job refreshes the report cache for the configured targets.
type Job struct {
	config    Config
	logger    zerolog.Logger
	refresher Refresher

	metrics *Metrics
}

// Metrics tracks warm-up statistics across runs.
type Metrics struct {
	mu sync.RWMutex

	TotalRuns         int64
	SuccessfulPoints  int64
	FailedPoints      int64
	IncompleteReports int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// JobConfig holds configuration for creating a Job.
type JobConfig struct {
	Config    Config
	Logger    zerolog.Logger
	Refresher Refresher
}

// NewJob creates a new warm-up job.
func NewJob(cfg JobConfig) *Job {
	config := cfg.Config
	if len(config.Targets) == 0 {
		config.Targets = DefaultTargets()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &Job{
		config:    config,
		logger:    cfg.Logger.With().Str("component", "warmup").Logger(),
		refresher: cfg.Refresher,
		metrics:   &Metrics{},
	}
}

// Result contains the result of one run.
type Result struct {
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	TotalPoints int
	Successful  int
	Failed      int
	// Incomplete counts successful refreshes whose report is missing at
	// least one section.
	Incomplete int
	Errors     []PointError
}

// PointError records a failed refresh.
type PointError struct {
	Point geo.Coordinate
	Error string
}

// Run refreshes every configured point. Points not started before ctx is
// done are counted as failed.
func (j *Job) Run(ctx context.Context) *Result {
	startTime := time.Now()
	points := j.config.AllPoints()
	result := &Result{
		StartTime:   startTime,
		TotalPoints: len(points),
	}

	j.logger.Info().
		Int("total_points", result.TotalPoints).
		Int("concurrency", j.config.Concurrency).
		Msg("starting cache warm-up")

	pointsChan := make(chan geo.Coordinate, len(points))
	resultsChan := make(chan pointResult, len(points))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.worker(ctx, pointsChan, resultsChan)
		}()
	}

	for _, p := range points {
		pointsChan <- p
	}
	close(pointsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	processed := 0
	for pr := range resultsChan {
		processed++
		switch {
		case pr.err != nil:
			result.Failed++
			result.Errors = append(result.Errors, PointError{Point: pr.point, Error: pr.err.Error()})
		case pr.sections < reportSections:
			result.Successful++
			result.Incomplete++
		default:
			result.Successful++
		}
	}
	result.Failed += len(points) - processed

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("incomplete", result.Incomplete).
		Msg("cache warm-up completed")

	return result
}

type pointResult struct {
	point    geo.Coordinate
	sections int
	err      error
}

func (j *Job) worker(ctx context.Context, points <-chan geo.Coordinate, results chan<- pointResult) {
	for point := range points {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.refreshPoint(ctx, point)
		}
	}
}

func (j *Job) refreshPoint(ctx context.Context, point geo.Coordinate) pointResult {
	pointCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	report, err := j.refresher.Refresh(pointCtx, point)
	if err != nil {
		j.logger.Warn().Err(err).Str("point", point.String()).Msg("warm-up refresh failed")
		return pointResult{point: point, err: err}
	}
	return pointResult{point: point, sections: report.SectionCount()}
}

func (j *Job) updateMetrics(result *Result) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SuccessfulPoints += int64(result.Successful)
	j.metrics.FailedPoints += int64(result.Failed)
	j.metrics.IncompleteReports += int64(result.Incomplete)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	TotalRuns         int64
	SuccessfulPoints  int64
	FailedPoints      int64
	IncompleteReports int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *Job) GetMetrics() MetricsSnapshot {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return MetricsSnapshot{
		TotalRuns:         j.metrics.TotalRuns,
		SuccessfulPoints:  j.metrics.SuccessfulPoints,
		FailedPoints:      j.metrics.FailedPoints,
		IncompleteReports: j.metrics.IncompleteReports,
		LastRunAt:         j.metrics.LastRunAt,
		LastRunDuration:   j.metrics.LastRunDuration,
		TotalDuration:     j.metrics.TotalDuration,
	}
}

package warmup_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/envicheck/envicheck/internal/warmup"
)

type countingRunner struct {
	runs atomic.Int32
	ctxs chan context.Context
}

func (r *countingRunner) Run(ctx context.Context) *warmup.Result {
	r.runs.Add(1)
	select {
	case r.ctxs <- ctx:
	default:
	}
	return &warmup.Result{}
}

func TestNewScheduler_RejectsEmptySpec(t *testing.T) {
	_, err := warmup.NewScheduler("", &countingRunner{}, zerolog.Nop())
	assert.ErrorIs(t, err, warmup.ErrNoSchedule)
}

func TestNewScheduler_RejectsInvalidSpec(t *testing.T) {
	_, err := warmup.NewScheduler("every now and then", &countingRunner{}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid schedule")
}

func TestScheduler_RunsAndStops(t *testing.T) {
	runner := &countingRunner{ctxs: make(chan context.Context, 1)}
	s, err := warmup.NewScheduler("@every 1s", runner, zerolog.Nop())
	require.NoError(t, err)

	s.Start()

	var runCtx context.Context
	select {
	case runCtx = <-runner.ctxs:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled run did not happen")
	}
	assert.GreaterOrEqual(t, runner.runs.Load(), int32(1))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	assert.Error(t, runCtx.Err(), "stopping cancels the run context")
}

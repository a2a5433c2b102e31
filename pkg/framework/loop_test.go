package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoopIterationOrder(t *testing.T) {
	var trace []string
	record := func(name string) Controller {
		return ControlFunc(func(cc ControlContext) error {
			trace = append(trace, name)
			return nil
		})
	}
	loop := NewLoop().
		AddController(PrLvPostProc, record("heartbeat")).
		AddController(PrLvSense, record("battery"), record("pots"))
	loop.PreRunAt(PrLvSense, record("pre"))
	loop.PostRunAt(PrLvSense, ControlFunc(func(cc ControlContext) error {
		trace = append(trace, "post")
		cc.PostRun(record("next"))
		return nil
	}))

	loop.RunIteration(context.Background())
	require.Equal(t, []string{"pre", "battery", "pots", "post", "heartbeat"}, trace)
	require.Equal(t, uint64(1), loop.Iterations())

	trace = nil
	loop.RunIteration(context.Background())
	require.Equal(t, []string{"battery", "pots", "next", "heartbeat"}, trace)
	require.Equal(t, uint64(2), loop.Iterations())
}

func TestLoopControllerErrorContinues(t *testing.T) {
	var seq []uint64
	loop := NewLoop().
		AddController(PrLvSense, ControlFunc(func(ControlContext) error {
			return errors.New("sensor")
		})).
		AddController(PrLvPostProc, ControlFunc(func(cc ControlContext) error {
			seq = append(seq, cc.Iteration())
			return nil
		}))
	loop.RunIteration(context.Background())
	loop.RunIteration(context.Background())
	require.Equal(t, []uint64{1, 2}, seq)
}

func TestLoopRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	started := make(chan struct{})
	loop := NewLoop()
	loop.Interval = 5 * time.Millisecond
	loop.AddRunnable(NamedRun("bg", RunFunc(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})))
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()
	<-started
	require.Eventually(t, func() bool { return loop.Iterations() >= 3 }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-errCh)
}

func TestRunnerAggregatesErrors(t *testing.T) {
	errA, errB := errors.New("a"), errors.New("b")
	err := NewRunner().Go(
		RunFunc(func(context.Context) error { return errA }),
		RunFunc(func(context.Context) error { return context.Canceled }),
		RunFunc(func(context.Context) error { return errB }),
	).Wait()
	var agg *AggregatedError
	require.True(t, errors.As(err, &agg))
	require.ElementsMatch(t, []error{errA, errB}, agg.Errors)
	require.ErrorIs(t, err, errB)
	require.NoError(t, NewRunner().Go(RunFunc(func(context.Context) error { return nil })).Wait())
}

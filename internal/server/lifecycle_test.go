package server

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type blockingService struct {
	started atomic.Bool
	stopped atomic.Bool
}

func (s *blockingService) Start() error {
	s.started.Store(true)
	for !s.stopped.Load() {
		time.Sleep(5 * time.Millisecond)
	}
	return nil
}

func (s *blockingService) Stop() { s.stopped.Store(true) }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition not met in time")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func TestLifecycle_RunStopsServicesOnCancel(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	first := &blockingService{}
	second := &blockingService{}
	lc.Add("first", first)
	lc.Add("second", second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lc.Run(ctx) }()

	waitFor(t, func() bool { return first.started.Load() && second.started.Load() })
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down in time")
	}
	assert.True(t, first.stopped.Load())
	assert.True(t, second.stopped.Load())
}

func TestLifecycle_RunReturnsServiceFailure(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	boom := errors.New("boom")
	lc.Add("flaky", &FuncService{
		StartFn: func() error { return boom },
		StopFn:  func() {},
	})
	other := &blockingService{}
	lc.Add("steady", other)

	err := lc.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.True(t, other.stopped.Load())
}

func TestFuncService(t *testing.T) {
	var started, stopped bool
	svc := &FuncService{
		StartFn: func() error { started = true; return nil },
		StopFn:  func() { stopped = true },
	}
	require.NoError(t, svc.Start())
	svc.Stop()
	assert.True(t, started)
	assert.True(t, stopped)
}

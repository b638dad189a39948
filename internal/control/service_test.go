package control

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type syncOutput struct {
	mu     sync.Mutex
	writes []bool
	ch     chan bool
}

func (o *syncOutput) Set(on bool) error {
	o.mu.Lock()
	o.writes = append(o.writes, on)
	o.mu.Unlock()
	select {
	case o.ch <- on:
	default:
	}
	return nil
}

func (o *syncOutput) last() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.writes) > 0 && o.writes[len(o.writes)-1]
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func newServiceRig(t *testing.T, out *syncOutput, closers ...closerFunc) *Service {
	t.Helper()
	ctl, err := New(Config{TickInterval: time.Millisecond}, Devices{
		Sensor: &fakeSensor{values: []float64{25}},
		Relay:  out,
		Store:  newMemStore(),
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	cs := make([]io.Closer, 0, len(closers))
	for _, c := range closers {
		cs = append(cs, c)
	}
	return NewService(ctl, zaptest.NewLogger(t), cs...)
}

func TestServiceStart_IsNonBlocking(t *testing.T) {
	out := &syncOutput{ch: make(chan bool, 64)}
	svc := newServiceRig(t, out)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := time.Now()
	require.NoError(t, svc.Start(ctx))
	if time.Since(start) > 200*time.Millisecond {
		t.Fatalf("Start took too long (likely blocked): %v", time.Since(start))
	}

	// Drain the write from New(), then wait for one from the loop.
	<-out.ch
	select {
	case <-out.ch:
	case <-time.After(time.Second):
		t.Fatalf("expected the loop to drive the relay")
	}

	assert.Error(t, svc.Start(ctx))
	cancel()
	require.NoError(t, svc.Close())
}

func TestServiceClose_TurnsRelayOff(t *testing.T) {
	out := &syncOutput{ch: make(chan bool, 1)}
	svc := newServiceRig(t, out)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, svc.Start(ctx))

	// A cold boiler turns the relay on after the first window.
	deadline := time.After(3 * time.Second)
	for !out.last() {
		select {
		case <-out.ch:
		case <-deadline:
			t.Fatalf("relay never switched on")
		}
	}

	require.NoError(t, svc.Close())
	assert.False(t, out.last())
}

func TestServiceContextCancelStopsLoop(t *testing.T) {
	out := &syncOutput{ch: make(chan bool, 1)}
	svc := newServiceRig(t, out)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, svc.Start(ctx))
	cancel()

	done := make(chan struct{})
	go func() {
		svc.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("loop did not stop on cancel")
	}
	assert.False(t, out.last())
}

func TestServiceClose_ClosesDevices(t *testing.T) {
	out := &syncOutput{ch: make(chan bool, 1)}
	var closed []string
	closeErr := errors.New("line busy")
	svc := newServiceRig(t, out,
		func() error { closed = append(closed, "relay"); return nil },
		func() error { closed = append(closed, "sensor"); return closeErr },
	)

	err := svc.Close()
	assert.ErrorIs(t, err, closeErr)
	assert.Equal(t, []string{"relay", "sensor"}, closed)
	assert.False(t, out.last())

	// Second Close is a no-op.
	assert.NoError(t, svc.Close())
}

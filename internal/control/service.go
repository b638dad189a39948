package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

var nowFn = time.Now

// Service runs a Controller on its own goroutine at a fixed tick interval
// until the context is canceled or Close is called. The relay is driven off
// when the loop exits.
type Service struct {
	ctl      *Controller
	interval time.Duration
	closers  []io.Closer
	log      *zap.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}
	started  bool
}

// NewService wraps ctl. closers are closed by Close after the loop stopped,
// in order; they normally release the hardware lines behind the devices.
func NewService(ctl *Controller, log *zap.Logger, closers ...io.Closer) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		ctl:      ctl,
		interval: ctl.Config().TickInterval,
		closers:  closers,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.ctl == nil {
		return fmt.Errorf("control: service is nil")
	}
	if s.started {
		return fmt.Errorf("control: service already started")
	}
	s.started = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
	return nil
}

// Wait blocks until the loop has exited.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) Close() error {
	if s == nil {
		return nil
	}
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()

	if !s.started && s.ctl != nil {
		s.ctl.Shutdown()
	}

	var errs []error
	for _, c := range s.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func (s *Service) run(ctx context.Context) {
	defer func() {
		s.ctl.Shutdown()
		st := s.ctl.State()
		s.log.Info("control loop stopped, relay off",
			zap.Float64("temp_c", st.Filtered), zap.Bool("halted", st.Halted))
	}()

	t := time.NewTicker(s.interval)
	defer t.Stop()

	s.ctl.Tick(nowFn())
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-t.C:
			s.ctl.Tick(nowFn())
		}
	}
}

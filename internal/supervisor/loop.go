package supervisor

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/core"
	"github.com/mikey/scam-monitor/internal/ports"
)

// run is the loop shared by every channel
func (s *Supervisor) run(ctx context.Context, t *task, interval time.Duration) {
	defer s.finish(t)

	ch := t.state.Channel
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return
		}

		err := s.cycle(ctx, t.poller)
		s.recordCycle(t, err)

		timer.Reset(interval)
		select {
		case <-ctx.Done():
			s.logger.Debug("Poll loop cancelled", zap.String("channel", string(ch)))
			return
		case <-timer.C:
		}
	}
}

// cycle polls once and hands a new event to the processor
func (s *Supervisor) cycle(ctx context.Context, poller ports.ChannelPoller) error {
	ev, err := poller.Poll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		s.logger.Warn("Poll failed", zap.String("channel", string(poller.Channel())), zap.Error(err))
		return err
	}
	if ev == nil {
		return nil
	}

	// a stop request does not abort the event already taken from the channel
	procCtx := context.WithoutCancel(ctx)
	if s.cfg.ProcessTimeout > 0 {
		var cancel context.CancelFunc
		procCtx, cancel = context.WithTimeout(procCtx, s.cfg.ProcessTimeout)
		defer cancel()
	}

	_, err = s.processor.Process(procCtx, ev)
	if err != nil && !errors.Is(err, core.ErrDuplicate) {
		return err
	}
	return nil
}

func (s *Supervisor) recordCycle(t *task, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		t.failures = 0
		if t.state.Health == core.HealthDegraded {
			t.state.Health = core.HealthHealthy
			t.state.LastError = ""
			s.logger.Info("Background task recovered", zap.String("channel", string(t.state.Channel)))
			s.publishLocked(t)
		}
		return
	}

	t.failures++
	t.state.LastError = err.Error()
	if t.failures >= s.cfg.DegradedAfter && t.state.Health != core.HealthDegraded {
		t.state.Health = core.HealthDegraded
		s.logger.Warn("Background task degraded",
			zap.String("channel", string(t.state.Channel)),
			zap.Int("consecutive_failures", t.failures),
			zap.Error(err))
		s.publishLocked(t)
	}
}

// finish releases the poller and returns the task to Idle
func (s *Supervisor) finish(t *task) {
	ch := t.state.Channel
	if opener, ok := t.poller.(ports.Opener); ok {
		if err := opener.Close(); err != nil {
			s.logger.Warn("Failed to close poller", zap.String("channel", string(ch)), zap.Error(err))
		}
	}

	s.mu.Lock()
	keepFlag := t.keepFlag
	s.mu.Unlock()

	if !keepFlag {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.flags.SetFlag(ctx, core.StartedFlagKey(ch), false); err != nil {
			s.logger.Warn("Failed to clear started flag", zap.String("channel", string(ch)), zap.Error(err))
		}
		cancel()
	}

	s.mu.Lock()
	t.state.Status = core.TaskIdle
	s.publishLocked(t)
	s.mu.Unlock()

	s.logger.Info("Background task stopped", zap.String("channel", string(ch)))
	close(t.done)
}

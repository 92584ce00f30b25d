// Package supervisor owns the single background poll loop per channel.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/core"
	"github.com/mikey/scam-monitor/internal/ports"
)

// TaskEvent is published whenever a task changes state or health
type TaskEvent struct {
	Task core.BackgroundTask
}

// Config holds the supervisor tunables
type Config struct {
	// DegradedAfter is the number of consecutive failed cycles before a task is degraded
	DegradedAfter int
	// ProcessTimeout bounds the handling of one event after the loop was stopped
	ProcessTimeout time.Duration
}

type task struct {
	state    core.BackgroundTask
	poller   ports.ChannelPoller
	cancel   context.CancelFunc
	done     chan struct{}
	failures int
	keepFlag bool
}

// Supervisor is the process-wide task registry keyed by channel
type Supervisor struct {
	mu        sync.Mutex
	tasks     map[core.Channel]*task
	processor ports.EventProcessor
	flags     core.FlagStore
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time

	subMu   sync.Mutex
	subs    map[int]chan TaskEvent
	nextSub int
}

// New creates a supervisor with every channel Idle
func New(processor ports.EventProcessor, flags core.FlagStore, cfg Config, logger *zap.Logger) *Supervisor {
	if cfg.DegradedAfter <= 0 {
		cfg.DegradedAfter = 3
	}
	return &Supervisor{
		tasks:     make(map[core.Channel]*task),
		processor: processor,
		flags:     flags,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		subs:      make(map[int]chan TaskEvent),
	}
}

// Start launches the poll loop for a channel. It returns ErrAlreadyRunning when a
// loop is starting, running or stopping, and ErrStartFailure when the poller
// could not be opened.
func (s *Supervisor) Start(ctx context.Context, ch core.Channel, poller ports.ChannelPoller, interval time.Duration) error {
	if poller.Channel() != ch {
		return fmt.Errorf("%w: poller reads %s, not %s", core.ErrStartFailure, poller.Channel(), ch)
	}
	if interval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", core.ErrStartFailure)
	}

	s.mu.Lock()
	if t, ok := s.tasks[ch]; ok && active(t.state.Status) {
		s.mu.Unlock()
		return core.ErrAlreadyRunning
	}
	t := &task{
		state: core.BackgroundTask{
			Channel:      ch,
			Status:       core.TaskStarting,
			PollInterval: interval,
			Health:       core.HealthHealthy,
		},
		poller: poller,
		done:   make(chan struct{}),
	}
	s.tasks[ch] = t
	s.publishLocked(t)
	s.mu.Unlock()

	log := s.logger.With(zap.String("channel", string(ch)))

	if opener, ok := poller.(ports.Opener); ok {
		if err := opener.Open(ctx); err != nil {
			log.Error("Failed to start background task", zap.Error(err))
			s.mu.Lock()
			t.state.Status = core.TaskError
			t.state.LastError = err.Error()
			s.publishLocked(t)
			t.state.Status = core.TaskIdle
			s.publishLocked(t)
			s.mu.Unlock()
			close(t.done)
			return fmt.Errorf("%w: %v", core.ErrStartFailure, err)
		}
	}

	// the loop outlives the caller's context
	loopCtx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	t.cancel = cancel
	t.state.Status = core.TaskRunning
	t.state.StartedAt = s.now()
	s.publishLocked(t)
	s.mu.Unlock()

	if err := s.flags.SetFlag(ctx, core.StartedFlagKey(ch), true); err != nil {
		log.Warn("Failed to persist started flag", zap.Error(err))
	}

	log.Info("Background task started",
		zap.Duration("interval", interval),
		zap.String("permissions", string(poller.Permissions())))

	go s.run(loopCtx, t, interval)
	return nil
}

// Stop cancels the loop of a channel and waits until it has exited.
// In-flight event handling finishes first.
func (s *Supervisor) Stop(ctx context.Context, ch core.Channel) error {
	return s.stop(ctx, ch, false)
}

func (s *Supervisor) stop(ctx context.Context, ch core.Channel, keepFlag bool) error {
	s.mu.Lock()
	t, ok := s.tasks[ch]
	if !ok || t.state.Status != core.TaskRunning {
		s.mu.Unlock()
		return core.ErrNotRunning
	}
	t.state.Status = core.TaskStopping
	t.keepFlag = keepFlag
	s.publishLocked(t)
	t.cancel()
	s.mu.Unlock()

	s.logger.Info("Stopping background task", zap.String("channel", string(ch)))

	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StopAll stops every running task and clears their started flags
func (s *Supervisor) StopAll(ctx context.Context) error {
	return s.stopEach(ctx, false)
}

// Shutdown stops every running task but keeps the started flags so the tasks
// are resumed by the next process
func (s *Supervisor) Shutdown(ctx context.Context) error {
	return s.stopEach(ctx, true)
}

func (s *Supervisor) stopEach(ctx context.Context, keepFlag bool) error {
	var wg sync.WaitGroup
	errs := make(chan error, len(core.AllChannels))
	for _, ch := range core.AllChannels {
		if !s.IsRunning(ch) {
			continue
		}
		wg.Add(1)
		go func(ch core.Channel) {
			defer wg.Done()
			if err := s.stop(ctx, ch, keepFlag); err != nil && !errors.Is(err, core.ErrNotRunning) {
				errs <- fmt.Errorf("stop %s: %w", ch, err)
			}
		}(ch)
	}
	wg.Wait()
	close(errs)

	var all []error
	for err := range errs {
		all = append(all, err)
	}
	return errors.Join(all...)
}

// IsRunning reports whether the loop of a channel is Running
func (s *Supervisor) IsRunning(ch core.Channel) bool {
	return s.Status(ch).Status == core.TaskRunning
}

// Status returns a snapshot of a channel's task
func (s *Supervisor) Status(ch core.Channel) core.BackgroundTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tasks[ch]; ok {
		return t.state
	}
	return core.BackgroundTask{Channel: ch, Status: core.TaskIdle, Health: core.HealthHealthy}
}

// Tasks returns a snapshot of every channel
func (s *Supervisor) Tasks() []core.BackgroundTask {
	out := make([]core.BackgroundTask, 0, len(core.AllChannels))
	for _, ch := range core.AllChannels {
		out = append(out, s.Status(ch))
	}
	return out
}

// PersistedRunning lists the channels whose started flag is set
func (s *Supervisor) PersistedRunning(ctx context.Context) ([]core.Channel, error) {
	var out []core.Channel
	for _, ch := range core.AllChannels {
		on, err := s.flags.Flag(ctx, core.StartedFlagKey(ch))
		if err != nil {
			return nil, err
		}
		if on {
			out = append(out, ch)
		}
	}
	return out, nil
}

func active(status core.TaskStatus) bool {
	return status == core.TaskStarting || status == core.TaskRunning || status == core.TaskStopping
}

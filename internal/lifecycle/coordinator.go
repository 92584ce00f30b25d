// Package lifecycle decides whether the monitor may exit while channels are running.
package lifecycle

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/core"
)

// TaskControl is the part of the supervisor the coordinator drives
type TaskControl interface {
	IsRunning(ch core.Channel) bool
	Stop(ctx context.Context, ch core.Channel) error
}

// Decision is the answer to an exit request
type Decision struct {
	Allow bool
}

// Coordinator intercepts exit requests for a set of channels
type Coordinator struct {
	tasks     TaskControl
	confirmer Confirmer
	channels  []core.Channel
	logger    *zap.Logger
}

// NewCoordinator creates a coordinator guarding the given channels.
// With no channels it guards every channel.
func NewCoordinator(tasks TaskControl, confirmer Confirmer, logger *zap.Logger, channels ...core.Channel) *Coordinator {
	if len(channels) == 0 {
		channels = core.AllChannels
	}
	return &Coordinator{
		tasks:     tasks,
		confirmer: confirmer,
		channels:  channels,
		logger:    logger,
	}
}

// OnExitRequested allows the exit when nothing is running. Otherwise the user is
// asked, and a confirmed exit stops the running channels first.
func (c *Coordinator) OnExitRequested(ctx context.Context) (Decision, error) {
	running := c.running()
	if len(running) == 0 {
		c.logger.Debug("Exit allowed, no background task running")
		return Decision{Allow: true}, nil
	}

	ok, err := c.confirmer.Confirm(ctx, running)
	if err != nil {
		return Decision{Allow: false}, fmt.Errorf("exit confirmation: %w", err)
	}
	if !ok {
		c.logger.Info("Exit declined, background tasks keep running", zap.Int("running", len(running)))
		return Decision{Allow: false}, nil
	}

	for _, ch := range running {
		if err := c.tasks.Stop(ctx, ch); err != nil {
			c.logger.Error("Failed to stop background task", zap.String("channel", string(ch)), zap.Error(err))
			return Decision{Allow: false}, fmt.Errorf("stop %s: %w", ch, err)
		}
	}

	c.logger.Info("Exit confirmed, background tasks stopped", zap.Int("stopped", len(running)))
	return Decision{Allow: true}, nil
}

// OnForeground records the transition; running tasks are not touched
func (c *Coordinator) OnForeground() {
	c.logger.Debug("Monitor moved to foreground", zap.Int("running", len(c.running())))
}

// OnBackground records the transition; running tasks are not touched
func (c *Coordinator) OnBackground() {
	c.logger.Debug("Monitor moved to background", zap.Int("running", len(c.running())))
}

func (c *Coordinator) running() []core.Channel {
	var out []core.Channel
	for _, ch := range c.channels {
		if c.tasks.IsRunning(ch) {
			out = append(out, ch)
		}
	}
	return out
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/config"
	"github.com/mikey/scam-monitor/internal/core"
	"github.com/mikey/scam-monitor/internal/di"
	"github.com/mikey/scam-monitor/internal/factory"
	"github.com/mikey/scam-monitor/internal/lifecycle"
	"github.com/mikey/scam-monitor/internal/supervisor"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	cfg *config.Config,
	logger *zap.Logger,
	sup *supervisor.Supervisor,
	coordinator *lifecycle.Coordinator,
	channels *factory.ChannelFactory,
	classifier core.Classifier,
	cache factory.Cache,
	store factory.Store,
) error {
	defer logger.Sync()
	defer store.Close()
	defer cache.Stop()

	supCfg, err := cfg.GetSupervisor()
	if err != nil {
		return err
	}

	// Start the device gateway
	gw := channels.CreateGateway()
	if gw != nil {
		if err := gw.Start(); err != nil {
			return fmt.Errorf("failed to start gateway: %w", err)
		}
	}

	go logTaskEvents(sup, logger)

	ctx := context.Background()
	if err := startChannels(ctx, cfg, sup, channels, logger); err != nil {
		return err
	}

	// SIGINT asks the user before stopping, SIGTERM stops and keeps the tasks for the next start.
	// SIGHUP and SIGCONT only mark the terminal going away or coming back.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGCONT)
	defer signal.Stop(sigCh)

	for sig := range sigCh {
		switch sig {
		case syscall.SIGHUP:
			coordinator.OnBackground()
			continue
		case syscall.SIGCONT:
			coordinator.OnForeground()
			continue
		}

		if sig == syscall.SIGTERM {
			logger.Info("Terminating, background tasks resume on next start")
			stopCtx, cancel := context.WithTimeout(ctx, supCfg.StopTimeout)
			if err := sup.Shutdown(stopCtx); err != nil {
				logger.Error("Failed to stop background tasks", zap.Error(err))
			}
			cancel()
			break
		}

		decision, err := coordinator.OnExitRequested(ctx)
		if err != nil {
			logger.Error("Exit request failed", zap.Error(err))
			continue
		}
		if decision.Allow {
			break
		}
	}

	logger.Info("Shutting down...")

	if gw != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := gw.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to stop gateway", zap.Error(err))
		}
		cancel()
	}

	// Close any resources that need closing
	if closer, ok := classifier.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close classifier", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}

// startChannels starts every enabled channel and every channel left running by
// the previous process
func startChannels(
	ctx context.Context,
	cfg *config.Config,
	sup *supervisor.Supervisor,
	channels *factory.ChannelFactory,
	logger *zap.Logger,
) error {
	resume, err := sup.PersistedRunning(ctx)
	if err != nil {
		logger.Warn("Failed to read persisted task flags", zap.Error(err))
	}
	wanted := make(map[core.Channel]bool, len(core.AllChannels))
	for _, ch := range resume {
		wanted[ch] = true
	}

	for _, ch := range core.AllChannels {
		chCfg, err := cfg.GetChannel(ch)
		if err != nil {
			return err
		}
		if !chCfg.Enabled && !wanted[ch] {
			continue
		}

		poller, err := channels.CreatePoller(ch)
		if err != nil {
			return err
		}
		if err := sup.Start(ctx, ch, poller, chCfg.PollInterval); err != nil {
			if errors.Is(err, core.ErrStartFailure) {
				logger.Error("Channel failed to start", zap.String("channel", string(ch)), zap.Error(err))
				continue
			}
			return err
		}
	}
	return nil
}

func logTaskEvents(sup *supervisor.Supervisor, logger *zap.Logger) {
	events, _ := sup.Subscribe()
	for ev := range events {
		logger.Debug("Task event",
			zap.String("channel", string(ev.Task.Channel)),
			zap.String("status", string(ev.Task.Status)),
			zap.String("health", string(ev.Task.Health)))
	}
}

// Package notify delivers scam alerts to the user.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/core"
)

// LogNotifier writes notifications to the log
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new log notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the notification
func (n *LogNotifier) Notify(_ context.Context, note *core.Notification) error {
	n.logger.Warn(note.Title,
		zap.String("notification_channel", note.ChannelID),
		zap.String("importance", string(note.Importance)),
		zap.String("message", note.Message))
	return nil
}

package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/mikey/scam-monitor/internal/core"
)

// Named pairs a notifier with the backend name used in errors
type Named struct {
	Name     string
	Notifier core.Notifier
}

// MultiNotifier fans a notification out to every backend
type MultiNotifier struct {
	backends []Named
}

// NewMultiNotifier creates a fan-out notifier
func NewMultiNotifier(backends ...Named) *MultiNotifier {
	return &MultiNotifier{backends: backends}
}

// Notify delivers to all backends and joins their errors
func (m *MultiNotifier) Notify(ctx context.Context, note *core.Notification) error {
	var errs []error
	for _, b := range m.backends {
		if err := b.Notifier.Notify(ctx, note); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.Name, err))
		}
	}
	return errors.Join(errs...)
}

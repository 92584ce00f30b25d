// Package channel implements the pollers reading SMS, call and email sources.
package channel

import (
	"github.com/mikey/scam-monitor/internal/core"
)

// ConfigGate answers permission checks from configuration
type ConfigGate struct {
	granted map[core.Channel]bool
}

// NewConfigGate creates a gate from the per-channel grants
func NewConfigGate(granted map[core.Channel]bool) *ConfigGate {
	return &ConfigGate{granted: granted}
}

// Check returns Granted when the channel was granted
func (g *ConfigGate) Check(ch core.Channel) core.PermissionState {
	if g.granted[ch] {
		return core.PermissionGranted
	}
	return core.PermissionDenied
}

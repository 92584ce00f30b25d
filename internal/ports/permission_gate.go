package ports

import "github.com/mikey/scam-monitor/internal/core"

// PermissionGate answers whether a channel may be read
type PermissionGate interface {
	Check(ch core.Channel) core.PermissionState
}

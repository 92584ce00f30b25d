// Package store persists scam records and supervisor flags.
package store

import (
	"fmt"

	"github.com/mikey/scam-monitor/internal/core"
)

// record collections, one per channel
var tables = map[core.Channel]string{
	core.ChannelSMS:   "scamsms",
	core.ChannelEmail: "scam_email",
	core.ChannelCall:  "scammers",
}

// TableFor returns the collection name for a channel
func TableFor(ch core.Channel) (string, error) {
	table, ok := tables[ch]
	if !ok {
		return "", fmt.Errorf("no record table for channel %q", ch)
	}
	return table, nil
}

package whitelist

import (
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/core"
	"github.com/mikey/scam-monitor/internal/utils"
)

// Checker provides functionality to check if senders are trusted per channel.
// Email entries match a whole address or a domain, phone entries match exactly.
type Checker struct {
	entries map[core.Channel]map[string]struct{}
	logger  *zap.Logger
}

// NewChecker creates a new whitelist checker
func NewChecker(trusted map[core.Channel][]string, logger *zap.Logger) *Checker {
	entries := make(map[core.Channel]map[string]struct{}, len(trusted))
	for ch, senders := range trusted {
		set := make(map[string]struct{}, len(senders))
		for _, s := range senders {
			if s = strings.TrimSpace(s); s == "" {
				continue
			}
			if ch == core.ChannelEmail && !strings.Contains(s, "@") {
				set[strings.ToLower(s)] = struct{}{}
				continue
			}
			set[utils.NormalizeSender(s)] = struct{}{}
		}
		if len(set) > 0 && logger != nil {
			logger.Info("Initialized whitelist", zap.String("channel", string(ch)), zap.Int("entries", len(set)))
		}
		entries[ch] = set
	}

	return &Checker{
		entries: entries,
		logger:  logger,
	}
}

// IsTrusted checks if the sender is whitelisted for the channel
func (c *Checker) IsTrusted(ch core.Channel, sender string) bool {
	set := c.entries[ch]
	if len(set) == 0 {
		return false
	}

	normalized := utils.NormalizeSender(sender)
	if _, ok := set[normalized]; ok {
		c.debug(ch, sender)
		return true
	}

	if ch == core.ChannelEmail {
		parts := strings.Split(normalized, "@")
		if len(parts) == 2 {
			if _, ok := set[parts[1]]; ok {
				c.debug(ch, sender)
				return true
			}
		}
	}

	return false
}

func (c *Checker) debug(ch core.Channel, sender string) {
	if c.logger != nil {
		c.logger.Debug("Sender is whitelisted",
			zap.String("channel", string(ch)),
			zap.String("sender", sender))
	}
}

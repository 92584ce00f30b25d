package whitelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/core"
)

func TestIsTrusted(t *testing.T) {
	c := NewChecker(map[core.Channel][]string{
		core.ChannelEmail: {"Bank.example", "friend@mail.example"},
		core.ChannelSMS:   {"+1 555 000 1111"},
	}, zap.NewNop())

	tests := []struct {
		name   string
		ch     core.Channel
		sender string
		want   bool
	}{
		{"email domain", core.ChannelEmail, "Alerts <alerts@bank.example>", true},
		{"email address", core.ChannelEmail, "FRIEND@mail.example", true},
		{"other email", core.ChannelEmail, "scam@bank.example.evil", false},
		{"sms number with formatting", core.ChannelSMS, "+1-555-000-1111", true},
		{"sms unknown", core.ChannelSMS, "+15559999999", false},
		{"channel without entries", core.ChannelCall, "+15550001111", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsTrusted(tt.ch, tt.sender))
		})
	}
}

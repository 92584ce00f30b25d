package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/scam-monitor/internal/core"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	cls, err := cfg.GetClassifier()
	require.NoError(t, err)
	assert.Equal(t, "http", cls.Provider)
	assert.Equal(t, 15*time.Second, cls.Timeout)
	assert.Equal(t, uint(3), cls.RetryAttempts)

	email, err := cfg.GetChannel(core.ChannelEmail)
	require.NoError(t, err)
	assert.True(t, email.SenderDedup)
	assert.False(t, email.Enabled)

	sms, err := cfg.GetChannel(core.ChannelSMS)
	require.NoError(t, err)
	assert.False(t, sms.SenderDedup)
	assert.Equal(t, 5*time.Second, sms.PollInterval)

	det, err := cfg.GetDetection()
	require.NoError(t, err)
	assert.True(t, det.SenderDedup[core.ChannelEmail])
	assert.False(t, det.SenderDedup[core.ChannelCall])
	assert.Equal(t, "local", det.OwnerUserID)
}

func TestGetChannel_RejectsBadInterval(t *testing.T) {
	v := NewEmptyViper()
	v.Set("channels.sms.poll_interval", "soon")
	_, err := NewFromViper(v).GetChannel(core.ChannelSMS)
	assert.Error(t, err)

	v.Set("channels.sms.poll_interval", "0s")
	_, err = NewFromViper(v).GetChannel(core.ChannelSMS)
	assert.Error(t, err)
}

func TestGetClassifier_ClampsAttempts(t *testing.T) {
	v := NewEmptyViper()
	v.Set("classifier.retry.attempts", 0)
	cls, err := NewFromViper(v).GetClassifier()
	require.NoError(t, err)
	assert.Equal(t, uint(1), cls.RetryAttempts)
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
owner:
  user_id: alice
channels:
  call:
    sender_dedup: true
    trusted_senders: ["+15550000000"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := NewFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.GetString("owner.user_id"))

	call, err := cfg.GetChannel(core.ChannelCall)
	require.NoError(t, err)
	assert.True(t, call.SenderDedup)
	assert.Equal(t, []string{"+15550000000"}, call.TrustedSenders)
}

package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/adapters/cache"
	"github.com/mikey/scam-monitor/internal/adapters/channel"
	"github.com/mikey/scam-monitor/internal/adapters/classifier"
	"github.com/mikey/scam-monitor/internal/adapters/notify"
	"github.com/mikey/scam-monitor/internal/adapters/store"
	"github.com/mikey/scam-monitor/internal/config"
	"github.com/mikey/scam-monitor/internal/core"
	"github.com/mikey/scam-monitor/internal/utils"
)

func newConfig(values map[string]any) *config.Config {
	v := config.NewEmptyViper()
	for k, val := range values {
		v.Set(k, val)
	}
	return config.NewFromViper(v)
}

func TestClassifierFactory(t *testing.T) {
	tp := utils.NewTextProcessor(zap.NewNop())

	c, err := NewClassifierFactory(newConfig(nil), zap.NewNop(), tp).CreateClassifier(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &classifier.HTTPClient{}, c)

	_, err = NewClassifierFactory(newConfig(map[string]any{"classifier.provider": "openai"}), zap.NewNop(), tp).
		CreateClassifier(context.Background())
	assert.ErrorContains(t, err, "API key")

	_, err = NewClassifierFactory(newConfig(map[string]any{"classifier.provider": "magic"}), zap.NewNop(), tp).
		CreateClassifier(context.Background())
	assert.ErrorContains(t, err, "unsupported classifier provider")
}

func TestCacheFactory(t *testing.T) {
	c, err := NewCacheFactory(newConfig(map[string]any{"cache.cleanup_frequency": "0s"}), zap.NewNop()).CreateCache()
	require.NoError(t, err)
	defer c.Stop()
	assert.IsType(t, &cache.MemoryCache{}, c)

	sqlitePath := t.TempDir() + "/dedup.db"
	c2, err := NewCacheFactory(newConfig(map[string]any{
		"cache.type":              "sqlite",
		"cache.sqlite_path":       sqlitePath,
		"cache.cleanup_frequency": "0s",
	}), zap.NewNop()).CreateCache()
	require.NoError(t, err)
	defer c2.Stop()
	assert.IsType(t, &cache.SQLCache{}, c2)

	_, err = NewCacheFactory(newConfig(map[string]any{"cache.ttl": "forever"}), zap.NewNop()).CreateCache()
	assert.ErrorContains(t, err, "invalid cache ttl")

	_, err = NewCacheFactory(newConfig(map[string]any{"cache.type": "redis"}), zap.NewNop()).CreateCache()
	assert.ErrorContains(t, err, "unsupported cache type")
}

func TestStoreFactory(t *testing.T) {
	ctx := context.Background()

	s, err := NewStoreFactory(newConfig(map[string]any{"store.type": "memory"}), zap.NewNop()).CreateStore(ctx)
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, s)

	s2, err := NewStoreFactory(newConfig(map[string]any{
		"store.sqlite_path": t.TempDir() + "/records.db",
	}), zap.NewNop()).CreateStore(ctx)
	require.NoError(t, err)
	defer s2.Close()
	assert.IsType(t, &store.SQLStore{}, s2)

	_, err = NewStoreFactory(newConfig(map[string]any{"store.type": "postgres"}), zap.NewNop()).CreateStore(ctx)
	assert.Error(t, err)
}

func TestNotifierFactory(t *testing.T) {
	n, err := NewNotifierFactory(newConfig(nil), zap.NewNop()).CreateNotifier()
	require.NoError(t, err)
	assert.IsType(t, &notify.LogNotifier{}, n)

	n, err = NewNotifierFactory(newConfig(map[string]any{
		"notify.backends": []string{"log", "smtp"},
		"notify.smtp.to":  []string{"me@example.com"},
	}), zap.NewNop()).CreateNotifier()
	require.NoError(t, err)
	assert.IsType(t, &notify.MultiNotifier{}, n)

	_, err = NewNotifierFactory(newConfig(map[string]any{"notify.backends": []string{"smtp"}}), zap.NewNop()).CreateNotifier()
	assert.ErrorContains(t, err, "recipient")

	_, err = NewNotifierFactory(newConfig(map[string]any{"notify.backends": []string{"telegram"}}), zap.NewNop()).CreateNotifier()
	assert.ErrorContains(t, err, "telegram")

	_, err = NewNotifierFactory(newConfig(map[string]any{"notify.backends": []string{"pager"}}), zap.NewNop()).CreateNotifier()
	assert.ErrorContains(t, err, "unsupported notifier backend")
}

func TestChannelFactory(t *testing.T) {
	f := NewChannelFactory(newConfig(map[string]any{
		"channels.sms.permissions_granted": false,
	}), zap.NewNop(), utils.NewTextProcessor(zap.NewNop()))

	sms, err := f.CreatePoller(core.ChannelSMS)
	require.NoError(t, err)
	assert.IsType(t, &channel.SMSPoller{}, sms)
	assert.Equal(t, core.PermissionDenied, sms.Permissions())

	call, err := f.CreatePoller(core.ChannelCall)
	require.NoError(t, err)
	assert.Equal(t, core.PermissionGranted, call.Permissions())

	// no IMAP server configured
	email, err := f.CreatePoller(core.ChannelEmail)
	require.NoError(t, err)
	assert.Equal(t, core.PermissionDenied, email.Permissions())

	_, err = f.CreatePoller(core.Channel("fax"))
	assert.Error(t, err)

	assert.NotNil(t, f.CreateGateway())
	disabled := NewChannelFactory(newConfig(map[string]any{"gateway.enabled": false}), zap.NewNop(), nil)
	assert.Nil(t, disabled.CreateGateway())
}

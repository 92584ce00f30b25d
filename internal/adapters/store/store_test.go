package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/core"
)

type recordAndFlagStore interface {
	core.RecordStore
	core.FlagStore
}

func exerciseStore(t *testing.T, s recordAndFlagStore) {
	ctx := context.Background()
	base := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	records := []core.ScamRecord{
		{ID: "r-sms", Channel: core.ChannelSMS, ExternalID: "1", Sender: "+1555", Content: "win", DetectedAt: base, OwnerUserID: "u1"},
		{ID: "r-call", Channel: core.ChannelCall, ExternalID: "2", Sender: "+1666", Content: "+1666", DetectedAt: base.Add(2 * time.Minute), OwnerUserID: "u1"},
		{ID: "r-mail", Channel: core.ChannelEmail, ExternalID: "3", Sender: "x@y.example", Content: "Hi\n\nbody", DetectedAt: base.Add(time.Minute), OwnerUserID: "u1"},
		{ID: "r-other", Channel: core.ChannelSMS, ExternalID: "4", Sender: "+1777", Content: "x", DetectedAt: base, OwnerUserID: "u2"},
	}
	for i := range records {
		require.NoError(t, s.Insert(ctx, &records[i]))
	}

	list, err := s.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"r-call", "r-mail", "r-sms"}, []string{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, core.ChannelEmail, list[1].Channel)
	assert.Equal(t, "Hi\n\nbody", list[1].Content)
	assert.True(t, list[0].DetectedAt.Equal(base.Add(2*time.Minute)))

	require.NoError(t, s.DeleteByID(ctx, "r-mail"))
	err = s.DeleteByID(ctx, "r-mail")
	assert.ErrorIs(t, err, core.ErrNotFound)

	list, err = s.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	key := core.StartedFlagKey(core.ChannelSMS)
	on, err := s.Flag(ctx, key)
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, s.SetFlag(ctx, key, true))
	on, err = s.Flag(ctx, key)
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, s.SetFlag(ctx, key, false))
	on, err = s.Flag(ctx, key)
	require.NoError(t, err)
	assert.False(t, on)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "records.db"), zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestSQLiteStoreReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "records.db")

	s, err := NewSQLiteStore(ctx, path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, &core.ScamRecord{
		ID: "keep", Channel: core.ChannelSMS, Sender: "+1", DetectedAt: time.Now(), OwnerUserID: "u",
	}))
	require.NoError(t, s.SetFlag(ctx, core.StartedFlagKey(core.ChannelCall), true))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(ctx, path, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	list, err := s.ListByUser(ctx, "u")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "keep", list[0].ID)

	on, err := s.Flag(ctx, core.StartedFlagKey(core.ChannelCall))
	require.NoError(t, err)
	assert.True(t, on)
}

func TestInsertUnknownChannel(t *testing.T) {
	err := NewMemoryStore().Insert(context.Background(), &core.ScamRecord{ID: "x", Channel: "fax"})
	assert.ErrorIs(t, err, core.ErrPersistence)
}

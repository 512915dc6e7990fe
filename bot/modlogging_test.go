package bot

import (
	"context"
	"testing"

	"github.com/houraiteahouse/hourai/automod/engine"
	"github.com/houraiteahouse/hourai/guildcfg"
	"github.com/houraiteahouse/hourai/modlog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageDeleteLogging(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(t, testGuild())
	gid := engine.FixtureGuildID

	// disabled by default
	require.NoError(t, f.logging.HandleMessageDelete(ctx, gid, generalChannelID, 500, nil))
	require.NoError(t, f.logging.HandleBulkMessageDelete(ctx, gid, generalChannelID, []uint64{1, 2}))
	assert.Empty(f.plat.Snapshot().Sent)

	on, err := f.logging.ToggleDeletedLogging(ctx, gid)
	require.NoError(t, err)
	assert.True(on)

	require.NoError(t, f.logging.HandleMessageDelete(ctx, gid, generalChannelID, 500, nil))
	require.NoError(t, f.logging.HandleMessageDelete(ctx, gid, generalChannelID, 501, &modlog.CachedMessage{ID: 501, AuthorID: engine.FixtureBotID, AuthorBot: true}))
	require.NoError(t, f.logging.HandleMessageDelete(ctx, gid, generalChannelID, 502, &modlog.CachedMessage{ID: 502, AuthorID: 77, Content: "hello"}))
	require.NoError(t, f.logging.HandleBulkMessageDelete(ctx, gid, generalChannelID, []uint64{1, 2, 3}))

	rec := f.plat.Snapshot()
	require.Len(t, rec.Sent, 3)
	assert.Equal("Message deleted in <#2002>.", rec.Sent[0].Message.Content)
	assert.Equal("Message by <@77> deleted in <#2002>.", rec.Sent[1].Message.Content)
	assert.Equal("3 messages bulk deleted in <#2002>.", rec.Sent[2].Message.Content)
	for _, s := range rec.Sent {
		assert.Equal(modlogChannelID, s.ChannelID)
	}

	on, err = f.logging.ToggleDeletedLogging(ctx, gid)
	require.NoError(t, err)
	assert.False(on)
	assert.Equal("Logging of deleted messages has been disabled.", DeletedLoggingStatus(on))
}

func TestSetModlog(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(t, testGuild())

	require.NoError(t, f.configs.SaveLogging(ctx, 7, guildcfg.LoggingConfig{LogDeletedMessages: true}))
	// enabled without a modlog: silently dropped
	assert.NoError(f.logging.HandleBulkMessageDelete(ctx, 7, 1, []uint64{1}))

	require.NoError(t, f.logging.SetModlog(ctx, 7, 70))
	cfg, err := f.configs.Logging(ctx, 7)
	require.NoError(t, err)
	assert.Equal(guildcfg.LoggingConfig{ModlogChannelID: 70, LogDeletedMessages: true}, cfg)

	require.NoError(t, f.logging.HandleBulkMessageDelete(ctx, 7, 1, []uint64{1}))
	rec := f.plat.Snapshot()
	require.Len(t, rec.Sent, 1)
	assert.Equal(uint64(70), rec.Sent[0].ChannelID)
}

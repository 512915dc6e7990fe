package guildcfg

import (
	"context"
	"testing"

	"github.com/houraiteahouse/hourai/automod/kvstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testStore(t *testing.T) *Store {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqldb, err := db.DB()
	require.NoError(t, err)
	// every connection to ":memory:" is a separate database
	sqldb.SetMaxOpenConns(1)

	reg, err := kvstore.DefaultRegistry()
	require.NoError(t, err)
	s, err := NewStore(db, kvstore.NewMemStore(), reg)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	return s
}

func TestValidationConfigs(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := testStore(t)

	cfg, err := s.Validation(ctx, 1)
	assert.NoError(err)
	assert.Nil(cfg)
	assert.False(cfg.IsValid())

	assert.NoError(s.SaveValidation(ctx, &ValidationConfig{GuildID: 1, ValidationRoleID: 10, ValidationChannelID: 20}))
	assert.NoError(s.SaveValidation(ctx, &ValidationConfig{GuildID: 2, ValidationRoleID: 11}))

	cfg, err = s.Validation(ctx, 1)
	assert.NoError(err)
	require.NotNil(t, cfg)
	assert.True(cfg.IsValid())
	assert.False(cfg.IsPropagated)

	// saving again updates in place
	cfg.IsPropagated = true
	cfg.ValidationRoleID = 12
	assert.NoError(s.SaveValidation(ctx, cfg))
	cfg, err = s.Validation(ctx, 1)
	assert.NoError(err)
	assert.Equal(uint64(12), cfg.ValidationRoleID)
	assert.True(cfg.IsPropagated)

	cfg, err = s.Validation(ctx, 2)
	assert.NoError(err)
	assert.False(cfg.IsValid())

	l, err := s.PropagatedValidations(ctx)
	assert.NoError(err)
	require.Len(t, l, 1)
	assert.Equal(uint64(1), l[0].GuildID)
}

func TestAdminConfigs(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := testStore(t)
	sharing := BanSharing{Configs: s}

	blocked, err := sharing.IsGuildBlocked(ctx, 5)
	assert.NoError(err)
	assert.False(blocked)

	assert.NoError(s.SaveAdmin(ctx, &AdminConfig{GuildID: 5, SourceBans: false}))
	cfg, err := s.Admin(ctx, 5)
	assert.NoError(err)
	require.NotNil(t, cfg)
	assert.False(cfg.SourceBans)
	blocked, err = sharing.IsGuildBlocked(ctx, 5)
	assert.NoError(err)
	assert.True(blocked)

	assert.NoError(s.SaveAdmin(ctx, &AdminConfig{GuildID: 5, SourceBans: true}))
	blocked, err = sharing.IsGuildBlocked(ctx, 5)
	assert.NoError(err)
	assert.False(blocked)
}

func TestLoggingConfigs(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := testStore(t)

	cfg, err := s.Logging(ctx, 7)
	assert.NoError(err)
	assert.Equal(LoggingConfig{}, cfg)

	assert.NoError(s.SaveLogging(ctx, 7, LoggingConfig{ModlogChannelID: 99, LogDeletedMessages: true}))
	cfg, err = s.Logging(ctx, 7)
	assert.NoError(err)
	assert.Equal(LoggingConfig{ModlogChannelID: 99, LogDeletedMessages: true}, cfg)

	// stored in the guild's config hash, under the logging field
	reg, _ := kvstore.DefaultRegistry()
	key := reg.MustLookup(kvstore.NamespaceGuildConfigs).Key(7)
	raw, err := s.KV.HGet(ctx, key, []byte{kvstore.GuildConfigLogging})
	assert.NoError(err)
	assert.NotEmpty(raw)
}

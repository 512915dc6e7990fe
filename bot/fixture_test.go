package bot

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/houraiteahouse/hourai/automod/banstore"
	"github.com/houraiteahouse/hourai/automod/engine"
	"github.com/houraiteahouse/hourai/automod/rules"
	"github.com/houraiteahouse/hourai/guildcfg"
	"github.com/houraiteahouse/hourai/modlog"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const (
	botRoleID           uint64 = 1003
	modlogChannelID     uint64 = 2000
	validationChannelID uint64 = 2001
	generalChannelID    uint64 = 2002
)

type fixture struct {
	plat    *FakePlatform
	configs *guildcfg.MemProvider
	bans    *banstore.BanStore
	val     *Validation
	logging *ModLogging
}

// Fixture guild with the bot holding an administrator role, plus any extra members.
func testGuild(members ...engine.Member) *engine.Guild {
	g := engine.GuildFixture()
	g.Roles = append(g.Roles, engine.Role{ID: botRoleID, Name: "Bot", Permissions: discordgo.PermissionAdministrator})
	for i := range g.Members {
		if g.Members[i].ID == engine.FixtureBotID {
			g.Members[i].RoleIDs = []uint64{botRoleID}
		}
	}
	g.Members = append(g.Members, members...)
	return g
}

func testChannels() []Channel {
	return []Channel{
		{ID: modlogChannelID, Name: "modlog"},
		{ID: validationChannelID, Name: "validation"},
		{ID: generalChannelID, Name: "general"},
	}
}

func newFixture(t *testing.T, g *engine.Guild) *fixture {
	eng := engine.EngineTestFixture()
	eng.Rules = rules.DefaultRules()

	plat := NewFakePlatform()
	if g != nil {
		plat.AddGuild(g, testChannels()...)
	}
	configs := guildcfg.NewMemProvider()
	require.NoError(t, configs.SaveLogging(context.Background(), engine.FixtureGuildID, guildcfg.LoggingConfig{ModlogChannelID: modlogChannelID}))
	sink := &modlog.ChannelSink{Configs: configs, Sender: plat}
	bans := eng.Bans.(*banstore.BanStore)

	return &fixture{
		plat:    plat,
		configs: configs,
		bans:    bans,
		val: &Validation{
			Logger:        slog.Default(),
			Engine:        &eng,
			Bans:          bans,
			Configs:       configs,
			Modlog:        sink,
			Platform:      plat,
			PropagateRate: rate.Inf,
			Clock:         func() time.Time { return engine.FixtureNow },
			Rand:          func(n int) int { return 0 },
		},
		logging: &ModLogging{
			Logger:  slog.Default(),
			Configs: configs,
			Modlog:  sink,
		},
	}
}

func (f *fixture) configureValidation(t *testing.T, propagated bool) {
	require.NoError(t, f.configs.SaveValidation(context.Background(), &guildcfg.ValidationConfig{
		GuildID:             engine.FixtureGuildID,
		ValidationRoleID:    engine.FixtureVerifyID,
		ValidationChannelID: validationChannelID,
		IsPropagated:        propagated,
	}))
}

func joinedAgo(m engine.Member, d time.Duration) engine.Member {
	m.JoinedAt = engine.FixtureNow.Add(-d)
	return m
}

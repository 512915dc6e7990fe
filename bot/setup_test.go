package bot

import (
	"context"
	"testing"

	"github.com/houraiteahouse/hourai/automod/engine"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(t, testGuild())

	_, err := f.val.Setup(ctx, engine.FixtureGuildID, 9999, validationChannelID)
	assert.ErrorIs(err, ErrNotFound)
	_, err = f.val.Setup(ctx, engine.FixtureGuildID, engine.FixtureVerifyID, 9999)
	assert.ErrorIs(err, ErrNotFound)

	cfg, err := f.val.Setup(ctx, engine.FixtureGuildID, engine.FixtureVerifyID, validationChannelID)
	require.NoError(t, err)
	assert.True(cfg.IsValid())
	assert.False(cfg.IsPropagated)

	stored, err := f.configs.Validation(ctx, engine.FixtureGuildID)
	require.NoError(t, err)
	assert.Equal(engine.FixtureVerifyID, stored.ValidationRoleID)
	assert.Equal(validationChannelID, stored.ValidationChannelID)
}

func TestPropagate(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	var members []engine.Member
	for i, name := range []string{"reimu", "marisa", "alice", "cirno", "chen", "ran", "yukari", "suika", "aya", "nitori", "hina", "sanae"} {
		members = append(members, engine.MemberFixture(uint64(100+i), name, year))
	}
	g := testGuild(members...)
	// members which can never pass validation already hold the role
	for i := range g.Members {
		if g.Members[i].ID == engine.FixtureModID || g.Members[i].ID == engine.FixtureBotID {
			g.Members[i].RoleIDs = append(g.Members[i].RoleIDs, engine.FixtureVerifyID)
		}
	}
	f := newFixture(t, g)

	_, err := f.val.Propagate(ctx, engine.FixtureGuildID)
	assert.ErrorIs(err, ErrNotConfigured)

	f.configureValidation(t, false)
	res, err := f.val.Propagate(ctx, engine.FixtureGuildID)
	require.NoError(t, err)
	assert.Equal(14, res.Total)
	assert.Equal(12, res.Processed)
	assert.Equal(12, res.Granted)
	assert.Equal(14, res.WithRole)
	assert.True(res.Propagated)

	cfg, err := f.configs.Validation(ctx, engine.FixtureGuildID)
	require.NoError(t, err)
	assert.True(cfg.IsPropagated)
}

func TestPropagateSkipsRejected(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	clean := engine.MemberFixture(100, "reimu", year)
	suspicious := engine.MemberFixture(101, "newbie", year)
	suspicious.Avatar = ""
	f := newFixture(t, testGuild(clean, suspicious))
	f.configureValidation(t, false)

	res, err := f.val.Propagate(ctx, engine.FixtureGuildID)
	require.NoError(t, err)
	assert.Equal(1, res.Granted)
	assert.False(res.Propagated)

	rec := f.plat.Snapshot()
	require.Len(t, rec.Grants, 1)
	assert.Equal(clean.ID, rec.Grants[0].UserID)

	cfg, err := f.configs.Validation(ctx, engine.FixtureGuildID)
	require.NoError(t, err)
	assert.False(cfg.IsPropagated)
}

func TestPropagateMissingRole(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(t, testGuild())
	f.configureValidation(t, true)
	cfg, err := f.configs.Validation(ctx, engine.FixtureGuildID)
	require.NoError(t, err)
	cfg.ValidationRoleID = 9999
	require.NoError(t, f.configs.SaveValidation(ctx, cfg))

	_, err = f.val.Propagate(ctx, engine.FixtureGuildID)
	assert.ErrorIs(err, ErrNotFound)
	cfg, err = f.configs.Validation(ctx, engine.FixtureGuildID)
	require.NoError(t, err)
	assert.False(cfg.IsPropagated)
}

func TestPropagateForbidden(t *testing.T) {
	f := newFixture(t, engine.GuildFixture())
	f.configureValidation(t, false)
	_, err := f.val.Propagate(context.Background(), engine.FixtureGuildID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestLockdown(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	g := testGuild()
	g.Roles[0].Permissions = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages
	f := newFixture(t, g)

	assert.ErrorIs(f.val.Lockdown(ctx, engine.FixtureGuildID), ErrNotConfigured)

	f.configureValidation(t, false)
	require.NoError(t, f.val.Lockdown(ctx, engine.FixtureGuildID))

	rec := f.plat.Snapshot()
	assert.ElementsMatch([]Overwrite{
		{ChannelID: modlogChannelID, RoleID: engine.FixtureVerifyID, Allow: lockdownBits},
		{ChannelID: generalChannelID, RoleID: engine.FixtureVerifyID, Allow: lockdownBits},
		{ChannelID: validationChannelID, RoleID: engine.FixtureGuildID, Allow: lockdownBits},
		{ChannelID: validationChannelID, RoleID: engine.FixtureVerifyID, Deny: lockdownBits},
	}, rec.Overwrites)
	assert.Equal(int64(discordgo.PermissionSendMessages), f.plat.RolePerms[engine.FixtureGuildID])
}

package rules

import (
	"context"
	"testing"
	"time"

	"github.com/houraiteahouse/hourai/automod/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRulesNewAccountNoAvatar(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng := engineFixture()

	m := engine.MemberFixture(10, "marisa", 24*time.Hour)
	m.Avatar = ""

	eff, err := eng.ValidateMember(ctx, engine.GuildFixture(), m)
	require.NoError(t, err)
	assert.False(eff.IsApproved())
	assert.GreaterOrEqual(len(eff.Rejections), 2)
	assert.Contains(eff.RejectionTexts(), "Account created less than 30 days ago.")
	assert.Contains(eff.RejectionTexts(), "User has no avatar.")
	assert.Empty(eff.Approvals)

	// same account, now known to be the bot owner
	eng.Bot.OwnerID = m.ID
	eff, err = eng.ValidateMember(ctx, engine.GuildFixture(), m)
	require.NoError(t, err)
	assert.True(eff.IsApproved())
	assert.GreaterOrEqual(len(eff.Rejections), 2)
	assert.Equal([]string{"User is the owner of this bot."}, eff.ApprovalTexts())
	assert.Equal("bot_owner", eff.Approvals[0].Source)
}

func TestDefaultRulesNitroOverridesSuspicion(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng := engineFixture()

	m := engine.MemberFixture(10, "marisa", 24*time.Hour)
	m.Premium = true
	eff, err := eng.ValidateMember(ctx, engine.GuildFixture(), m)
	require.NoError(t, err)
	assert.True(eff.IsApproved())
	assert.Len(eff.Rejections, 1)

	// a questionable level rejection after the nitro approval still wins
	m.Username = "Sakuya"
	eff, err = eng.ValidateMember(ctx, engine.GuildFixture(), m)
	require.NoError(t, err)
	assert.False(eff.IsApproved())
}

func TestDefaultRulesPlainMember(t *testing.T) {
	assert := assert.New(t)
	eng := engineFixture()

	eff, err := eng.ValidateMember(context.Background(), engine.GuildFixture(), engine.MemberFixture(10, "marisa", 365*24*time.Hour))
	require.NoError(t, err)
	assert.True(eff.IsApproved())
	assert.Equal(engine.Undetermined, eff.Decision)
	assert.Empty(eff.Failed)
}

func TestDefaultRulesOrder(t *testing.T) {
	assert := assert.New(t)

	names := []string{}
	for _, v := range DefaultRules().Validators {
		names = append(names, v.Name())
	}
	assert.Equal([]string{
		"new_account",
		"no_avatar",
		"deleted_account",
		"string_filter/" + SetUserBotSubstrings,
		"string_filter/" + SetUserBotNames,
		"nitro",
		"moderator_username",
		"moderator_nick",
		"bot_username",
		"bot_nick",
		"string_filter/" + SetOffensiveNames,
		"string_filter/" + SetSexualNames,
		"banned_user",
		"bot_self",
		"bot_owner",
		"bot_team",
	}, names)
}

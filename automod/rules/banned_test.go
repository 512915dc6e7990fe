package rules

import (
	"context"
	"testing"
	"time"

	"github.com/houraiteahouse/hourai/automod/banstore"
	"github.com/houraiteahouse/hourai/automod/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockList map[uint64]bool

func (b blockList) IsGuildBlocked(ctx context.Context, guildID uint64) (bool, error) {
	return b[guildID], nil
}

func TestBannedUserRejector(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng := engineFixture()
	bans := fixtureBans(&eng)
	bans.Blocked = blockList{4000: true}

	m := engine.MemberFixture(10, "marisa", time.Hour)
	reason := "raiding"
	big := banstore.Guild{ID: 2000, MemberCount: 200, CanViewBans: true}
	small := banstore.Guild{ID: 3000, MemberCount: 155, CachedBots: 10, CanViewBans: true}
	blocked := banstore.Guild{ID: 4000, MemberCount: 1000, CanViewBans: true}
	current := banstore.Guild{ID: engine.FixtureGuildID, MemberCount: 1000, CanViewBans: true}

	r := BannedUserRejector{MinGuildSize: MinimumGuildSize}
	assert.True(evalRule(t, &eng, r, m).Empty())

	require.NoError(t, bans.SaveBan(ctx, big, banstore.Ban{UserID: m.ID, Reason: &reason}))
	require.NoError(t, bans.SaveBan(ctx, small, banstore.Ban{UserID: m.ID}))
	require.NoError(t, bans.SaveBan(ctx, blocked, banstore.Ban{UserID: m.ID}))
	require.NoError(t, bans.SaveBan(ctx, current, banstore.Ban{UserID: m.ID}))

	v := evalRule(t, &eng, r, m)
	assert.Equal([]string{"Banned from another server with 200 members. Reason: `raiding`"}, v.Rejections)

	// lower threshold lets the small guild count, still ignoring blocked and current guild
	v = evalRule(t, &eng, BannedUserRejector{MinGuildSize: 100}, m)
	assert.Len(v.Rejections, 2)
}

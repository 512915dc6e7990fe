package engine

import (
	"log/slog"
	"strings"
	"time"

	"github.com/houraiteahouse/hourai/automod/banstore"
	"github.com/houraiteahouse/hourai/automod/kvstore"
	"github.com/houraiteahouse/hourai/automod/setstore"
)

// Fixed clock used by fixtures.
var FixtureNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// ids used by GuildFixture and EngineTestFixture
const (
	FixtureGuildID   uint64 = 1000
	FixtureBotID     uint64 = 1
	FixtureOwnerID   uint64 = 2
	FixtureTeamID    uint64 = 3
	FixtureModRoleID uint64 = 1001
	FixtureModID     uint64 = 4
	FixtureVerifyID  uint64 = 1002
)

var simpleRule = ValidatorFunc("simple", func(c *MemberContext) (Verdict, error) {
	var v Verdict
	bad, err := c.InSet("bad-names", strings.ToLower(c.Member.Username))
	if err != nil {
		return v, err
	}
	if bad {
		v.Reject("Bad name.")
	}
	return v, nil
})

// Engine backed by in-memory stores, with a single rule which rejects names in the "bad-names" set.
func EngineTestFixture() Engine {
	sets := setstore.NewMemSetStore()
	sets.Put("bad-names", []string{"badname"})

	reg, err := kvstore.DefaultRegistry()
	if err != nil {
		panic(err)
	}
	bans, err := banstore.NewBanStore(kvstore.NewMemStore(), reg, nil, slog.Default())
	if err != nil {
		panic(err)
	}
	return Engine{
		Logger: slog.Default(),
		Rules: RuleSet{
			Validators: []Validator{simpleRule},
		},
		Bans: bans,
		Sets: sets,
		Bot: BotInfo{
			BotID:   FixtureBotID,
			OwnerID: FixtureOwnerID,
			TeamIDs: []uint64{FixtureTeamID},
		},
		Clock: func() time.Time { return FixtureNow },
	}
}

// Member created the given duration before FixtureNow, with an avatar set.
func MemberFixture(id uint64, username string, age time.Duration) Member {
	// keep low id bits so distinct fixtures stay distinct
	return Member{
		ID:       SnowflakeAt(FixtureNow.Add(-age)) | (id & 0x3fffff),
		Username: username,
		Avatar:   "a_0123456789abcdef",
		JoinedAt: FixtureNow,
	}
}

// Guild with a moderator role and a validation role, a moderator, and the bot itself in the roster.
func GuildFixture() *Guild {
	return &Guild{
		ID:          FixtureGuildID,
		Name:        "fixture guild",
		OwnerID:     FixtureOwnerID,
		MemberCount: 200,
		Roles: []Role{
			{ID: FixtureGuildID, Name: "@everyone"},
			{ID: FixtureModRoleID, Name: "Staff", Permissions: ModeratorPermissions},
			{ID: FixtureVerifyID, Name: "Verified"},
		},
		Members: []Member{
			{ID: FixtureModID, Username: "sakuya", RoleIDs: []uint64{FixtureModRoleID}},
			{ID: FixtureBotID, Username: "hourai", Bot: true},
		},
	}
}

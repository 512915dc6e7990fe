package rules

import (
	"fmt"

	"github.com/houraiteahouse/hourai/automod/engine"
)

// Smallest guild whose bans count against a member elsewhere. Bans from tiny guilds are too easy to create on purpose.
const MinimumGuildSize = 150

// Rejects members banned from other guilds. Emits one reason per qualifying ban: bans from the current guild, from guilds which opted out of sharing, and from guilds smaller than MinGuildSize are ignored.
type BannedUserRejector struct {
	MinGuildSize uint32
}

var _ engine.Validator = BannedUserRejector{}

func (BannedUserRejector) Name() string { return "banned_user" }

func (r BannedUserRejector) Evaluate(c *engine.MemberContext) (engine.Verdict, error) {
	var v engine.Verdict
	bans, err := c.UserBans(c.Member.ID)
	if err != nil {
		return v, err
	}
	for _, ban := range bans {
		if ban.GuildID == c.Guild.ID || ban.GuildBlocked || ban.GuildSize < r.MinGuildSize {
			continue
		}
		if ban.Reason == nil || *ban.Reason == "" {
			v.Reject(fmt.Sprintf("Banned from another server with %d members.", ban.GuildSize))
		} else {
			v.Reject(fmt.Sprintf("Banned from another server with %d members. Reason: `%s`", ban.GuildSize, *ban.Reason))
		}
	}
	return v, nil
}

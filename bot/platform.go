package bot

import (
	"context"
	"errors"

	"github.com/houraiteahouse/hourai/automod/banstore"
	"github.com/houraiteahouse/hourai/automod/engine"
	"github.com/houraiteahouse/hourai/modlog"
)

var (
	// the bot lacks the permission for an operation; callers skip rather than fail
	ErrForbidden = errors.New("missing permissions")
	// the guild has no (usable) validation config
	ErrNotConfigured = errors.New("validation not configured")
	ErrNotFound      = errors.New("not found")
)

type Channel struct {
	ID      uint64
	GuildID uint64
	Name    string
}

// Operations the services need from the chat platform. Implementations map permission failures to ErrForbidden and unknown entities to ErrNotFound.
type Platform interface {
	modlog.ChannelSender

	// blocks until the platform session is connected and the guild cache is populated
	Ready(ctx context.Context) error
	// ids of every guild the bot is a member of
	Guilds(ctx context.Context) ([]uint64, error)
	// snapshot of the guild, including its full member roster and the bot's own member
	Guild(ctx context.Context, guildID uint64) (*engine.Guild, error)
	Channels(ctx context.Context, guildID uint64) ([]Channel, error)

	GuildBans(ctx context.Context, guildID uint64) ([]banstore.Ban, error)
	GuildBan(ctx context.Context, guildID, userID uint64) (banstore.Ban, error)

	AddRole(ctx context.Context, guildID, userID, roleID uint64) error
	Kick(ctx context.Context, guildID, userID uint64, reason string) error
	SendDM(ctx context.Context, userID uint64, content string) error

	// merges allow/deny bits into the role's existing overwrite on the channel
	EditChannelOverwrite(ctx context.Context, channelID, roleID uint64, allow, deny int64) error
	EditRolePermissions(ctx context.Context, guildID, roleID uint64, perms int64) error
}

// Ban cache writes driven by platform events.
type BanCache interface {
	SaveBan(ctx context.Context, g banstore.Guild, ban banstore.Ban) error
	SaveBans(ctx context.Context, g banstore.Guild, bans []banstore.Ban) error
	ClearGuild(ctx context.Context, guildID uint64) error
	ClearBan(ctx context.Context, guildID, userID uint64) error
}

var _ BanCache = (*banstore.BanStore)(nil)

// Guild-level permissions of the bot account, computed from the guild snapshot.
func botPermissions(g *engine.Guild, botID uint64) int64 {
	self, ok := g.Member(botID)
	if !ok {
		return 0
	}
	return g.MemberPermissions(self)
}

func banGuild(g *engine.Guild, botPerms int64) banstore.Guild {
	return banstore.Guild{
		ID:          g.ID,
		MemberCount: g.MemberCount,
		CachedBots:  g.CachedBots(),
		CanViewBans: botPerms&permBanMembers != 0,
	}
}

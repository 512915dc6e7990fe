package engine

import (
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// start of the platform's snowflake epoch (2015-01-01), in unix milliseconds
const snowflakeEpochMillis = 1420070400000

// Permission bits which mark a role as a moderator role.
var ModeratorPermissions = int64(discordgo.PermissionKickMembers | discordgo.PermissionBanMembers | discordgo.PermissionAdministrator)

// Read-only snapshot of a guild member, as seen by the platform when an event arrived.
type Member struct {
	ID         uint64
	Username   string
	GlobalName string
	// guild specific nickname, empty if unset
	Nick string
	// avatar hash, empty if the account has none
	Avatar  string
	Bot     bool
	Premium bool
	// presence is anything other than offline; false when presence is unknown
	Online bool
	// zero if unknown (eg, the member was not loaded with join metadata)
	JoinedAt time.Time
	RoleIDs  []uint64
}

// Account creation time, decoded from the snowflake id.
func (m Member) CreatedAt() time.Time {
	return SnowflakeTime(m.ID)
}

// Name shown in the guild: nickname, then global display name, then username.
func (m Member) DisplayName() string {
	if m.Nick != "" {
		return m.Nick
	}
	if m.GlobalName != "" {
		return m.GlobalName
	}
	return m.Username
}

func (m Member) HasRole(roleID uint64) bool {
	for _, r := range m.RoleIDs {
		if r == roleID {
			return true
		}
	}
	return false
}

func SnowflakeTime(id uint64) time.Time {
	return time.UnixMilli(int64(id>>22) + snowflakeEpochMillis).UTC()
}

// Inverse of SnowflakeTime, with zeroed worker/sequence bits. Mostly useful for building fixtures.
func SnowflakeAt(t time.Time) uint64 {
	ms := t.UnixMilli() - snowflakeEpochMillis
	if ms < 0 {
		return 0
	}
	return uint64(ms) << 22
}

type Role struct {
	ID          uint64
	Name        string
	Permissions int64
}

// Snapshot of a guild and its cached roster. The @everyone role shares the guild's id.
type Guild struct {
	ID          uint64
	Name        string
	OwnerID     uint64
	MemberCount int
	Roles       []Role
	Members     []Member
}

func (g *Guild) Role(id uint64) (Role, bool) {
	for _, r := range g.Roles {
		if r.ID == id {
			return r, true
		}
	}
	return Role{}, false
}

func (g *Guild) Member(id uint64) (Member, bool) {
	for _, m := range g.Members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// Guild-level permissions of the member: union of @everyone and all member roles. The guild owner and administrators get every bit.
func (g *Guild) MemberPermissions(m Member) int64 {
	if m.ID == g.OwnerID {
		return discordgo.PermissionAll
	}
	var perms int64
	if everyone, ok := g.Role(g.ID); ok {
		perms |= everyone.Permissions
	}
	for _, id := range m.RoleIDs {
		if r, ok := g.Role(id); ok {
			perms |= r.Permissions
		}
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return discordgo.PermissionAll
	}
	return perms
}

// Heuristic: the member holds a role granting kick, ban or administrator, or a role whose name starts with "mod" or "admin".
func (g *Guild) IsModerator(m Member) bool {
	if m.Bot {
		return false
	}
	for _, id := range m.RoleIDs {
		r, ok := g.Role(id)
		if !ok {
			continue
		}
		if r.Permissions&ModeratorPermissions != 0 {
			return true
		}
		name := strings.ToLower(r.Name)
		if strings.HasPrefix(name, "mod") || strings.HasPrefix(name, "admin") {
			return true
		}
	}
	return false
}

func (g *Guild) Moderators() []Member {
	var out []Member
	for _, m := range g.Members {
		if g.IsModerator(m) {
			out = append(out, m)
		}
	}
	return out
}

// Number of cached members which are bots.
func (g *Guild) CachedBots() int {
	n := 0
	for _, m := range g.Members {
		if m.Bot {
			n++
		}
	}
	return n
}

// Identity of the account running the engine.
type BotInfo struct {
	BotID   uint64
	OwnerID uint64
	// members of the team owning the application, if any
	TeamIDs []uint64
}

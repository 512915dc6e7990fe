package bot

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/houraiteahouse/hourai/automod/banstore"
	"github.com/houraiteahouse/hourai/automod/engine"
	"github.com/houraiteahouse/hourai/modlog"
)

type RoleGrant struct {
	GuildID, UserID, RoleID uint64
}

type Kick struct {
	GuildID, UserID uint64
	Reason          string
}

type DirectMessage struct {
	UserID  uint64
	Content string
}

type SentMessage struct {
	ChannelID uint64
	Message   modlog.Message
}

type Overwrite struct {
	ChannelID, RoleID uint64
	Allow, Deny       int64
}

// In-memory Platform for tests. Mutations are applied to the stored guilds and recorded.
type FakePlatform struct {
	mu       sync.Mutex
	guilds   map[uint64]*engine.Guild
	channels map[uint64][]Channel
	bans     map[uint64][]banstore.Ban

	// guilds where any mutating call or ban fetch fails with ErrForbidden
	Forbidden map[uint64]bool
	// users who refuse direct messages
	ClosedDMs map[uint64]bool

	Grants     []RoleGrant
	Kicks      []Kick
	DMs        []DirectMessage
	Sent       []SentMessage
	Overwrites []Overwrite
	RolePerms  map[uint64]int64
}

var _ Platform = (*FakePlatform)(nil)

func NewFakePlatform() *FakePlatform {
	return &FakePlatform{
		guilds:    make(map[uint64]*engine.Guild),
		channels:  make(map[uint64][]Channel),
		bans:      make(map[uint64][]banstore.Ban),
		Forbidden: make(map[uint64]bool),
		ClosedDMs: make(map[uint64]bool),
		RolePerms: make(map[uint64]int64),
	}
}

func (p *FakePlatform) AddGuild(g *engine.Guild, channels ...Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.guilds[g.ID] = cloneGuild(g)
	for i := range channels {
		channels[i].GuildID = g.ID
	}
	p.channels[g.ID] = channels
}

func (p *FakePlatform) SetBans(guildID uint64, bans []banstore.Ban) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bans[guildID] = bans
}

func cloneGuild(g *engine.Guild) *engine.Guild {
	out := *g
	out.Roles = slices.Clone(g.Roles)
	out.Members = make([]engine.Member, len(g.Members))
	for i, m := range g.Members {
		m.RoleIDs = slices.Clone(m.RoleIDs)
		out.Members[i] = m
	}
	return &out
}

func (p *FakePlatform) Ready(ctx context.Context) error {
	return nil
}

func (p *FakePlatform) Guilds(ctx context.Context) ([]uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var ids []uint64
	for id := range p.guilds {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (p *FakePlatform) Guild(ctx context.Context, guildID uint64) (*engine.Guild, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	g, ok := p.guilds[guildID]
	if !ok {
		return nil, fmt.Errorf("%w: guild %d", ErrNotFound, guildID)
	}
	return cloneGuild(g), nil
}

func (p *FakePlatform) Channels(ctx context.Context, guildID uint64) ([]Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.channels[guildID]), nil
}

func (p *FakePlatform) GuildBans(ctx context.Context, guildID uint64) ([]banstore.Ban, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Forbidden[guildID] {
		return nil, ErrForbidden
	}
	return slices.Clone(p.bans[guildID]), nil
}

func (p *FakePlatform) GuildBan(ctx context.Context, guildID, userID uint64) (banstore.Ban, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Forbidden[guildID] {
		return banstore.Ban{}, ErrForbidden
	}
	for _, b := range p.bans[guildID] {
		if b.UserID == userID {
			return b, nil
		}
	}
	return banstore.Ban{}, fmt.Errorf("%w: ban of %d", ErrNotFound, userID)
}

func (p *FakePlatform) AddRole(ctx context.Context, guildID, userID, roleID uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Forbidden[guildID] {
		return ErrForbidden
	}
	if g, ok := p.guilds[guildID]; ok {
		for i, m := range g.Members {
			if m.ID == userID && !m.HasRole(roleID) {
				g.Members[i].RoleIDs = append(g.Members[i].RoleIDs, roleID)
			}
		}
	}
	p.Grants = append(p.Grants, RoleGrant{GuildID: guildID, UserID: userID, RoleID: roleID})
	return nil
}

func (p *FakePlatform) Kick(ctx context.Context, guildID, userID uint64, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Forbidden[guildID] {
		return ErrForbidden
	}
	if g, ok := p.guilds[guildID]; ok {
		g.Members = slices.DeleteFunc(g.Members, func(m engine.Member) bool { return m.ID == userID })
	}
	p.Kicks = append(p.Kicks, Kick{GuildID: guildID, UserID: userID, Reason: reason})
	return nil
}

func (p *FakePlatform) SendDM(ctx context.Context, userID uint64, content string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.DMs = append(p.DMs, DirectMessage{UserID: userID, Content: content})
	if p.ClosedDMs[userID] {
		return ErrForbidden
	}
	return nil
}

func (p *FakePlatform) SendChannelMessage(ctx context.Context, channelID uint64, msg modlog.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Sent = append(p.Sent, SentMessage{ChannelID: channelID, Message: msg})
	return nil
}

func (p *FakePlatform) EditChannelOverwrite(ctx context.Context, channelID, roleID uint64, allow, deny int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Overwrites = append(p.Overwrites, Overwrite{ChannelID: channelID, RoleID: roleID, Allow: allow, Deny: deny})
	return nil
}

func (p *FakePlatform) EditRolePermissions(ctx context.Context, guildID, roleID uint64, perms int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if g, ok := p.guilds[guildID]; ok {
		for i, r := range g.Roles {
			if r.ID == roleID {
				g.Roles[i].Permissions = perms
			}
		}
	}
	p.RolePerms[roleID] = perms
	return nil
}

func (p *FakePlatform) Snapshot() FakeRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return FakeRecord{
		Grants:     slices.Clone(p.Grants),
		Kicks:      slices.Clone(p.Kicks),
		DMs:        slices.Clone(p.DMs),
		Sent:       slices.Clone(p.Sent),
		Overwrites: slices.Clone(p.Overwrites),
	}
}

// Copy of everything a FakePlatform recorded, safe to inspect while the platform is in use.
type FakeRecord struct {
	Grants     []RoleGrant
	Kicks      []Kick
	DMs        []DirectMessage
	Sent       []SentMessage
	Overwrites []Overwrite
}

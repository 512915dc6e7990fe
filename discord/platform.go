package discord

import (
	"context"
	"fmt"

	"github.com/houraiteahouse/hourai/automod/banstore"
	"github.com/houraiteahouse/hourai/automod/engine"
	"github.com/houraiteahouse/hourai/bot"
	"github.com/houraiteahouse/hourai/modlog"

	"github.com/bwmarrin/discordgo"
)

// maximum page size of the bans endpoint
const bansPageSize = 1000

var _ bot.Platform = (*Client)(nil)

func (c *Client) Ready(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) Guilds(ctx context.Context) ([]uint64, error) {
	c.Session.State.RLock()
	defer c.Session.State.RUnlock()
	ids := make([]uint64, 0, len(c.Session.State.Guilds))
	for _, g := range c.Session.State.Guilds {
		ids = append(ids, parseID(g.ID))
	}
	return ids, nil
}

func (c *Client) Guild(ctx context.Context, guildID uint64) (*engine.Guild, error) {
	g, err := c.Session.State.Guild(formatID(guildID))
	if err != nil {
		return nil, fmt.Errorf("%w: guild %d", bot.ErrNotFound, guildID)
	}
	c.Session.State.RLock()
	defer c.Session.State.RUnlock()
	return convertGuild(g), nil
}

func (c *Client) Channels(ctx context.Context, guildID uint64) ([]bot.Channel, error) {
	g, err := c.Session.State.Guild(formatID(guildID))
	if err != nil {
		return nil, fmt.Errorf("%w: guild %d", bot.ErrNotFound, guildID)
	}
	c.Session.State.RLock()
	defer c.Session.State.RUnlock()
	out := make([]bot.Channel, 0, len(g.Channels))
	for _, ch := range g.Channels {
		if ch.IsThread() {
			continue
		}
		out = append(out, bot.Channel{ID: parseID(ch.ID), GuildID: guildID, Name: ch.Name})
	}
	return out, nil
}

func (c *Client) GuildBans(ctx context.Context, guildID uint64) ([]banstore.Ban, error) {
	var out []banstore.Ban
	after := ""
	for {
		page, err := c.Session.GuildBans(formatID(guildID), bansPageSize, "", after, discordgo.WithContext(ctx))
		if err != nil {
			return nil, mapError(err)
		}
		for _, b := range page {
			out = append(out, convertBan(b))
		}
		if len(page) < bansPageSize || page[len(page)-1].User == nil {
			return out, nil
		}
		after = page[len(page)-1].User.ID
	}
}

func (c *Client) GuildBan(ctx context.Context, guildID, userID uint64) (banstore.Ban, error) {
	b, err := c.Session.GuildBan(formatID(guildID), formatID(userID), discordgo.WithContext(ctx))
	if err != nil {
		return banstore.Ban{}, mapError(err)
	}
	return convertBan(b), nil
}

func (c *Client) AddRole(ctx context.Context, guildID, userID, roleID uint64) error {
	return mapError(c.Session.GuildMemberRoleAdd(formatID(guildID), formatID(userID), formatID(roleID), discordgo.WithContext(ctx)))
}

func (c *Client) Kick(ctx context.Context, guildID, userID uint64, reason string) error {
	return mapError(c.Session.GuildMemberDeleteWithReason(formatID(guildID), formatID(userID), reason, discordgo.WithContext(ctx)))
}

func (c *Client) SendDM(ctx context.Context, userID uint64, content string) error {
	ch, err := c.Session.UserChannelCreate(formatID(userID), discordgo.WithContext(ctx))
	if err != nil {
		return mapError(err)
	}
	_, err = c.Session.ChannelMessageSend(ch.ID, content, discordgo.WithContext(ctx))
	return mapError(err)
}

func (c *Client) SendChannelMessage(ctx context.Context, channelID uint64, msg modlog.Message) error {
	_, err := c.Session.ChannelMessageSendComplex(formatID(channelID), toMessageSend(msg), discordgo.WithContext(ctx))
	return mapError(err)
}

func (c *Client) EditChannelOverwrite(ctx context.Context, channelID, roleID uint64, allow, deny int64) error {
	chID, rID := formatID(channelID), formatID(roleID)
	var existing *discordgo.PermissionOverwrite
	if ch, err := c.Session.State.Channel(chID); err == nil {
		c.Session.State.RLock()
		for _, o := range ch.PermissionOverwrites {
			if o.Type == discordgo.PermissionOverwriteTypeRole && o.ID == rID {
				cp := *o
				existing = &cp
			}
		}
		c.Session.State.RUnlock()
	}
	newAllow, newDeny := mergeOverwrite(existing, allow, deny)
	err := c.Session.ChannelPermissionSet(chID, rID, discordgo.PermissionOverwriteTypeRole, newAllow, newDeny, discordgo.WithContext(ctx))
	return mapError(err)
}

func (c *Client) EditRolePermissions(ctx context.Context, guildID, roleID uint64, perms int64) error {
	_, err := c.Session.GuildRoleEdit(formatID(guildID), formatID(roleID), &discordgo.RoleParams{Permissions: &perms}, discordgo.WithContext(ctx))
	return mapError(err)
}

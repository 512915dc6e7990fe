package discord

import (
	"context"
	"time"

	"github.com/houraiteahouse/hourai/bot"

	"github.com/bwmarrin/discordgo"
)

// upper bound on the work done for a single gateway event
const eventTimeout = 30 * time.Second

// Routes gateway events to the bot services. Handlers run on discordgo's per-event goroutines; ctx bounds all of them.
func (c *Client) Bind(ctx context.Context, val *bot.Validation, logs *bot.ModLogging) {
	handle := func(kind string, fn func(ctx context.Context) error) {
		eventCount.WithLabelValues(kind).Inc()
		ctx, cancel := context.WithTimeout(ctx, eventTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			eventErrorCount.WithLabelValues(kind).Inc()
			c.Logger.Error("failed to handle event", "type", kind, "err", err)
		}
	}

	c.Session.AddHandler(func(s *discordgo.Session, e *discordgo.GuildMemberAdd) {
		if e.Member == nil || e.User == nil {
			return
		}
		guildID := parseID(e.GuildID)
		online := false
		if p, err := s.State.Presence(e.GuildID, e.User.ID); err == nil {
			online = isOnline(p)
		}
		m := convertMember(e.Member, online)
		handle("member_join", func(ctx context.Context) error {
			return val.HandleMemberJoin(ctx, guildID, m)
		})
	})
	c.Session.AddHandler(func(s *discordgo.Session, e *discordgo.GuildBanAdd) {
		if e.User == nil {
			return
		}
		handle("member_ban", func(ctx context.Context) error {
			return val.HandleMemberBan(ctx, parseID(e.GuildID), parseID(e.User.ID))
		})
	})
	c.Session.AddHandler(func(s *discordgo.Session, e *discordgo.GuildBanRemove) {
		if e.User == nil {
			return
		}
		handle("member_unban", func(ctx context.Context) error {
			return val.HandleMemberUnban(ctx, parseID(e.GuildID), parseID(e.User.ID))
		})
	})
	c.Session.AddHandler(func(s *discordgo.Session, e *discordgo.GuildDelete) {
		guildCount.Set(float64(c.GuildCount()))
		// outages also show up as guild deletes; the bans are still valid
		if e.Guild == nil || e.Unavailable {
			return
		}
		handle("guild_remove", func(ctx context.Context) error {
			return val.HandleGuildRemove(ctx, parseID(e.ID))
		})
	})
	c.Session.AddHandler(func(s *discordgo.Session, e *discordgo.MessageDelete) {
		if e.Message == nil || e.GuildID == "" {
			return
		}
		cached := cachedMessage(e.BeforeDelete)
		handle("message_delete", func(ctx context.Context) error {
			return logs.HandleMessageDelete(ctx, parseID(e.GuildID), parseID(e.ChannelID), parseID(e.ID), cached)
		})
	})
	c.Session.AddHandler(func(s *discordgo.Session, e *discordgo.MessageDeleteBulk) {
		if e.GuildID == "" {
			return
		}
		handle("message_delete_bulk", func(ctx context.Context) error {
			return logs.HandleBulkMessageDelete(ctx, parseID(e.GuildID), parseID(e.ChannelID), parseIDs(e.Messages))
		})
	})
}

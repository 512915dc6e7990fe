package discord

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/houraiteahouse/hourai/automod/banstore"
	"github.com/houraiteahouse/hourai/automod/engine"
	"github.com/houraiteahouse/hourai/bot"
	"github.com/houraiteahouse/hourai/modlog"

	"github.com/bwmarrin/discordgo"
)

func parseID(s string) uint64 {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func parseIDs(ss []string) []uint64 {
	out := make([]uint64, 0, len(ss))
	for _, s := range ss {
		if id := parseID(s); id != 0 {
			out = append(out, id)
		}
	}
	return out
}

// Boosting the guild or having an animated avatar both require a premium subscription.
func isPremium(m *discordgo.Member) bool {
	if m.PremiumSince != nil {
		return true
	}
	return m.User != nil && strings.HasPrefix(m.User.Avatar, "a_")
}

func convertMember(m *discordgo.Member, online bool) engine.Member {
	out := engine.Member{
		Nick:     m.Nick,
		JoinedAt: m.JoinedAt,
		RoleIDs:  parseIDs(m.Roles),
		Premium:  isPremium(m),
		Online:   online,
	}
	if u := m.User; u != nil {
		out.ID = parseID(u.ID)
		out.Username = u.Username
		out.GlobalName = u.GlobalName
		out.Avatar = u.Avatar
		out.Bot = u.Bot
	}
	return out
}

func isOnline(p *discordgo.Presence) bool {
	return p != nil && p.Status != "" && p.Status != discordgo.StatusOffline
}

// must hold state read lock
func convertGuild(g *discordgo.Guild) *engine.Guild {
	online := make(map[string]bool, len(g.Presences))
	for _, p := range g.Presences {
		if p.User != nil {
			online[p.User.ID] = isOnline(p)
		}
	}
	out := &engine.Guild{
		ID:          parseID(g.ID),
		Name:        g.Name,
		OwnerID:     parseID(g.OwnerID),
		MemberCount: g.MemberCount,
		Roles:       make([]engine.Role, 0, len(g.Roles)),
		Members:     make([]engine.Member, 0, len(g.Members)),
	}
	for _, r := range g.Roles {
		out.Roles = append(out.Roles, engine.Role{ID: parseID(r.ID), Name: r.Name, Permissions: r.Permissions})
	}
	for _, m := range g.Members {
		if m.User == nil {
			continue
		}
		out.Members = append(out.Members, convertMember(m, online[m.User.ID]))
	}
	return out
}

func convertBan(b *discordgo.GuildBan) banstore.Ban {
	out := banstore.Ban{}
	if b.User != nil {
		out.UserID = parseID(b.User.ID)
		out.Avatar = b.User.Avatar
	}
	if b.Reason != "" {
		reason := b.Reason
		out.Reason = &reason
	}
	return out
}

func cachedMessage(m *discordgo.Message) *modlog.CachedMessage {
	if m == nil {
		return nil
	}
	out := &modlog.CachedMessage{
		ID:        parseID(m.ID),
		ChannelID: parseID(m.ChannelID),
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
	if m.Author != nil {
		out.AuthorID = parseID(m.Author.ID)
		out.AuthorName = m.Author.Username
		out.AuthorBot = m.Author.Bot
	}
	for _, a := range m.Attachments {
		out.Attachments = append(out.Attachments, a.URL)
	}
	return out
}

func toMessageSend(msg modlog.Message) *discordgo.MessageSend {
	out := &discordgo.MessageSend{
		Content: msg.Content,
		// modlog messages ping moderators by user mention only
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers},
		},
	}
	if e := msg.Embed; e != nil {
		embed := &discordgo.MessageEmbed{
			Title:       e.Title,
			Description: e.Description,
			Color:       e.Color,
		}
		if e.AuthorName != "" {
			embed.Author = &discordgo.MessageEmbedAuthor{Name: e.AuthorName}
		}
		if e.Footer != "" {
			embed.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
		}
		if !e.Timestamp.IsZero() {
			embed.Timestamp = e.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00")
		}
		for _, f := range e.Fields {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
		}
		out.Embeds = []*discordgo.MessageEmbed{embed}
	}
	return out
}

// Merges allow/deny bits into an existing overwrite. Bits explicitly allowed are removed from deny and vice versa.
func mergeOverwrite(existing *discordgo.PermissionOverwrite, allow, deny int64) (int64, int64) {
	var oldAllow, oldDeny int64
	if existing != nil {
		oldAllow, oldDeny = existing.Allow, existing.Deny
	}
	newAllow := (oldAllow | allow) &^ deny
	newDeny := (oldDeny &^ allow) | deny
	return newAllow, newDeny
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var rerr *discordgo.RESTError
	if errors.As(err, &rerr) && rerr.Response != nil {
		switch rerr.Response.StatusCode {
		case http.StatusForbidden:
			return fmt.Errorf("%w: %w", bot.ErrForbidden, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w", bot.ErrNotFound, err)
		}
	}
	return err
}

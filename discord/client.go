package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/houraiteahouse/hourai/automod/engine"

	"github.com/bwmarrin/discordgo"
)

// gateway events the bot needs: guild state, member joins (and the full roster), bans, deletes, and presences for picking online moderators
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildBans |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildPresences |
	discordgo.IntentsDirectMessages

// messages kept per channel so deleted messages can be reported with their content
const DefaultMessageCache = 200

type Client struct {
	Session *discordgo.Session
	Logger  *slog.Logger

	ready     chan struct{}
	readyOnce sync.Once
}

func NewClient(token string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	s.Identify.Intents = Intents
	s.StateEnabled = true
	s.State.TrackMembers = true
	s.State.TrackPresences = true
	s.State.TrackRoles = true
	s.State.TrackChannels = true
	s.State.MaxMessageCount = DefaultMessageCache

	c := &Client{
		Session: s,
		Logger:  logger.With("component", "discord"),
		ready:   make(chan struct{}),
	}
	s.AddHandler(c.onReady)
	s.AddHandler(c.onGuildCreate)
	return c, nil
}

func (c *Client) Open() error {
	if err := c.Session.Open(); err != nil {
		return fmt.Errorf("opening discord gateway: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.Session.Close()
}

func (c *Client) onReady(s *discordgo.Session, r *discordgo.Ready) {
	c.Logger.Info("discord session ready", "user", r.User.Username, "guilds", len(r.Guilds))
	c.readyOnce.Do(func() { close(c.ready) })
}

// Large guilds only send online members up front; request the rest so purge and propagate see everyone.
func (c *Client) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	guildCount.Set(float64(c.GuildCount()))
	if !g.Large {
		return
	}
	if err := s.RequestGuildMembers(g.ID, "", 0, "", true); err != nil {
		c.Logger.Warn("failed to request guild members", "guild", g.ID, "err", err)
	}
}

// Identity of the bot account and the owners of its application.
func (c *Client) BotInfo(ctx context.Context) (engine.BotInfo, error) {
	app, err := c.Session.Application("@me")
	if err != nil {
		return engine.BotInfo{}, fmt.Errorf("fetching application info: %w", mapError(err))
	}
	info := engine.BotInfo{BotID: parseID(app.ID)}
	if c.Session.State.User != nil {
		info.BotID = parseID(c.Session.State.User.ID)
	}
	if app.Owner != nil {
		info.OwnerID = parseID(app.Owner.ID)
	}
	if app.Team != nil {
		for _, m := range app.Team.Members {
			if m.User != nil {
				info.TeamIDs = append(info.TeamIDs, parseID(m.User.ID))
			}
		}
	}
	return info, nil
}

func (c *Client) GuildCount() int {
	c.Session.State.RLock()
	defer c.Session.State.RUnlock()
	return len(c.Session.State.Guilds)
}

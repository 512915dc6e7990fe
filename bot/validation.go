package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/houraiteahouse/hourai/automod/engine"
	"github.com/houraiteahouse/hourai/guildcfg"
	"github.com/houraiteahouse/hourai/modlog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	DefaultPurgeLookback    = 6 * time.Hour
	DefaultPurgeConcurrency = 8
	PropagateBatchSize      = 10
	// fraction of members holding the validation role before a guild counts as propagated
	PropagatedThreshold = 0.99

	purgeKickReason = "Unverified in sufficient time."
)

// Direct message sent before kicking; formatted with the guild name.
const PurgeDM = "You have been kicked from %s due to not being verified within sufficient time.\nIf you feel this is in error, please contact a mod regarding this."

type Validation struct {
	Logger   *slog.Logger
	Engine   *engine.Engine
	Bans     BanCache
	Configs  guildcfg.Provider
	Modlog   modlog.Sink
	Platform Platform

	PurgeLookback    time.Duration
	PurgeConcurrency int
	// pacing of role grant batches during Propagate; zero means one batch per second
	PropagateRate rate.Limit
	// Overridable for tests
	Clock func() time.Time
	// returns a value in [0, n); defaults to math/rand
	Rand func(n int) int
}

func (v *Validation) logger() *slog.Logger {
	if v.Logger == nil {
		return slog.Default()
	}
	return v.Logger
}

func (v *Validation) now() time.Time {
	if v.Clock != nil {
		return v.Clock()
	}
	return time.Now()
}

func (v *Validation) botID() uint64 {
	return v.Engine.Bot.BotID
}

// Picks a moderator to ping about a member needing manual verification, preferring ones who are online. Returns false if the guild has no moderators.
func (v *Validation) pickModerator(g *engine.Guild) (engine.Member, bool) {
	mods := g.Moderators()
	var online []engine.Member
	for _, m := range mods {
		if m.Online {
			online = append(online, m)
		}
	}
	if len(online) > 0 {
		mods = online
	}
	if len(mods) == 0 {
		return engine.Member{}, false
	}
	pick := rand.IntN
	if v.Rand != nil {
		pick = v.Rand
	}
	return mods[pick(len(mods))], true
}

// Modlog text reporting the outcome of validating a newly joined member.
func JoinMessage(m engine.Member, eff *engine.Effects, mod *engine.Member) string {
	var sb strings.Builder
	if eff.IsApproved() {
		fmt.Fprintf(&sb, "Verified user: %s (%d).", modlog.UserMention(m.ID), m.ID)
	} else {
		if mod != nil {
			fmt.Fprintf(&sb, "%s. ", modlog.UserMention(mod.ID))
		}
		fmt.Fprintf(&sb, "User %s (%d) requires manual verification.", m.Username, m.ID)
	}
	if len(eff.Approvals) > 0 {
		sb.WriteString("\nApproved for the following reasons:\n")
		sb.WriteString(modlog.BulletList(eff.ApprovalTexts()))
	}
	if len(eff.Rejections) > 0 {
		sb.WriteString("\nRejected for the following reasons:\n")
		sb.WriteString(modlog.BulletList(eff.RejectionTexts()))
	}
	return sb.String()
}

// Validates a newly joined member, reports to the modlog, and grants the validation role if approved. Guilds without a valid validation config are ignored.
func (v *Validation) HandleMemberJoin(ctx context.Context, guildID uint64, m engine.Member) error {
	logger := v.logger().With("guild", guildID, "member", m.ID)
	cfg, err := v.Configs.Validation(ctx, guildID)
	if err != nil {
		return fmt.Errorf("fetching validation config: %w", err)
	}
	if !cfg.IsValid() {
		return nil
	}
	g, err := v.Platform.Guild(ctx, guildID)
	if err != nil {
		return fmt.Errorf("fetching guild: %w", err)
	}
	eff, err := v.Engine.ValidateMember(ctx, g, m)
	if err != nil {
		return err
	}

	var mod *engine.Member
	if !eff.IsApproved() {
		if picked, ok := v.pickModerator(g); ok {
			mod = &picked
		}
	}
	content := JoinMessage(m, eff, mod)
	if err := v.Modlog.Send(ctx, guildID, modlog.Message{Content: content}); err != nil {
		if errors.Is(err, modlog.ErrNoModlog) {
			logger.Debug("no modlog for validation report")
		} else {
			logger.Warn("failed to send validation report", "err", err)
		}
	}

	if !eff.IsApproved() {
		manualVerificationCount.Inc()
		return nil
	}
	err = v.Platform.AddRole(ctx, guildID, m.ID, cfg.ValidationRoleID)
	if errors.Is(err, ErrForbidden) {
		logger.Warn("not permitted to grant validation role", "role", cfg.ValidationRoleID)
		return nil
	} else if err != nil {
		return fmt.Errorf("granting validation role: %w", err)
	}
	verifiedCount.Inc()
	logger.Info("member verified", "reasons", len(eff.Approvals))
	return nil
}

func (v *Validation) HandleMemberBan(ctx context.Context, guildID, userID uint64) error {
	g, err := v.Platform.Guild(ctx, guildID)
	if err != nil {
		return fmt.Errorf("fetching guild: %w", err)
	}
	ban, err := v.Platform.GuildBan(ctx, guildID, userID)
	if errors.Is(err, ErrForbidden) {
		return nil
	} else if err != nil {
		return fmt.Errorf("fetching ban: %w", err)
	}
	return v.Bans.SaveBan(ctx, banGuild(g, botPermissions(g, v.botID())), ban)
}

func (v *Validation) HandleMemberUnban(ctx context.Context, guildID, userID uint64) error {
	return v.Bans.ClearBan(ctx, guildID, userID)
}

// The bot left (or was removed from) the guild.
func (v *Validation) HandleGuildRemove(ctx context.Context, guildID uint64) error {
	return v.Bans.ClearGuild(ctx, guildID)
}

// Re-saves the full ban list of every guild. Guilds which fail are logged and skipped.
func (v *Validation) ReloadBans(ctx context.Context) error {
	logger := v.logger()
	ids, err := v.Platform.Guilds(ctx)
	if err != nil {
		return fmt.Errorf("listing guilds: %w", err)
	}
	logger.Debug("reloading bans", "guilds", len(ids))
	for _, id := range ids {
		if err := v.reloadGuildBans(ctx, id); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("failed to reload guild bans", "guild", id, "err", err)
		}
	}
	logger.Debug("bans reloaded", "guilds", len(ids))
	return nil
}

func (v *Validation) reloadGuildBans(ctx context.Context, guildID uint64) error {
	g, err := v.Platform.Guild(ctx, guildID)
	if err != nil {
		return err
	}
	bg := banGuild(g, botPermissions(g, v.botID()))
	if !bg.CanViewBans {
		return nil
	}
	bans, err := v.Platform.GuildBans(ctx, guildID)
	if errors.Is(err, ErrForbidden) {
		return nil
	} else if err != nil {
		return err
	}
	return v.Bans.SaveBans(ctx, bg, bans)
}

// Members eligible for purging: not bots, not holding the role, and joined at a known time strictly before cutoff.
func PurgeCandidates(g *engine.Guild, roleID uint64, cutoff time.Time) []engine.Member {
	var out []engine.Member
	for _, m := range g.Members {
		if m.Bot || m.HasRole(roleID) || m.JoinedAt.IsZero() {
			continue
		}
		if !m.JoinedAt.Before(cutoff) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Kicks members of propagated guilds who never got verified within the lookback window. Each is sent a best-effort DM first.
func (v *Validation) PurgeUnverified(ctx context.Context) error {
	configs, err := v.Configs.PropagatedValidations(ctx)
	if err != nil {
		return fmt.Errorf("fetching propagated validation configs: %w", err)
	}
	lookback := v.PurgeLookback
	if lookback <= 0 {
		lookback = DefaultPurgeLookback
	}
	limit := v.PurgeConcurrency
	if limit <= 0 {
		limit = DefaultPurgeConcurrency
	}
	cutoff := v.now().Add(-lookback)

	var eg errgroup.Group
	eg.SetLimit(limit)
	for _, cfg := range configs {
		g, err := v.Platform.Guild(ctx, cfg.GuildID)
		if err != nil {
			v.logger().Warn("skipping purge of unavailable guild", "guild", cfg.GuildID, "err", err)
			continue
		}
		if _, ok := g.Role(cfg.ValidationRoleID); !ok {
			continue
		}
		if botPermissions(g, v.botID())&permKickMembers == 0 {
			continue
		}
		for _, m := range PurgeCandidates(g, cfg.ValidationRoleID, cutoff) {
			eg.Go(func() error {
				v.purgeMember(ctx, g, m)
				return nil
			})
		}
	}
	return eg.Wait()
}

func (v *Validation) purgeMember(ctx context.Context, g *engine.Guild, m engine.Member) {
	logger := v.logger().With("guild", g.ID, "member", m.ID)
	if err := v.Platform.SendDM(ctx, m.ID, fmt.Sprintf(PurgeDM, g.Name)); err != nil {
		logger.Debug("failed to DM purged member", "err", err)
	}
	if err := v.Platform.Kick(ctx, g.ID, m.ID, purgeKickReason); err != nil {
		logger.Warn("failed to purge unverified member", "err", err)
		return
	}
	purgedCount.Inc()
	logger.Info("purged member for not being verified in time", "username", m.Username, "guild_name", g.Name)
}

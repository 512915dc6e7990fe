package bot

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/houraiteahouse/hourai/automod/engine"
	"github.com/houraiteahouse/hourai/guildcfg"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Points the guild's validation at a role and a moderator-only channel. Existing config (including propagation state) is kept otherwise.
func (v *Validation) Setup(ctx context.Context, guildID, roleID, channelID uint64) (*guildcfg.ValidationConfig, error) {
	g, err := v.Platform.Guild(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("fetching guild: %w", err)
	}
	if _, ok := g.Role(roleID); !ok {
		return nil, fmt.Errorf("%w: role %d", ErrNotFound, roleID)
	}
	channels, err := v.Platform.Channels(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("fetching channels: %w", err)
	}
	found := false
	for _, ch := range channels {
		if ch.ID == channelID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: channel %d", ErrNotFound, channelID)
	}

	cfg, err := v.Configs.Validation(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("fetching validation config: %w", err)
	}
	if cfg == nil {
		cfg = &guildcfg.ValidationConfig{GuildID: guildID}
	}
	cfg.ValidationRoleID = roleID
	cfg.ValidationChannelID = channelID
	if err := v.Configs.SaveValidation(ctx, cfg); err != nil {
		return nil, fmt.Errorf("saving validation config: %w", err)
	}
	v.logger().Info("validation configured", "guild", guildID, "role", roleID, "channel", channelID)
	return cfg, nil
}

type PropagateResult struct {
	// members in the guild roster
	Total int `json:"total"`
	// members which did not hold the role and were evaluated
	Processed int `json:"processed"`
	Granted   int `json:"granted"`
	// role holders once the pass completed
	WithRole   int  `json:"with_role"`
	Propagated bool `json:"propagated"`
}

// Grants the validation role to every existing member who would pass validation without rejections. Once at least PropagatedThreshold of the roster holds the role, the config is marked propagated and the purge job starts applying to the guild.
func (v *Validation) Propagate(ctx context.Context, guildID uint64) (*PropagateResult, error) {
	logger := v.logger().With("guild", guildID)
	cfg, err := v.Configs.Validation(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("fetching validation config: %w", err)
	}
	if cfg == nil {
		return nil, ErrNotConfigured
	}
	g, err := v.Platform.Guild(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("fetching guild: %w", err)
	}
	if botPermissions(g, v.botID())&permManageRoles == 0 {
		return nil, fmt.Errorf("%w: manage roles", ErrForbidden)
	}
	roleID := cfg.ValidationRoleID
	if _, ok := g.Role(roleID); !ok {
		cfg.IsPropagated = false
		if err := v.Configs.SaveValidation(ctx, cfg); err != nil {
			return nil, fmt.Errorf("saving validation config: %w", err)
		}
		return nil, fmt.Errorf("%w: validation role %d", ErrNotFound, roleID)
	}

	res := &PropagateResult{Total: len(g.Members)}
	var pending []engine.Member
	for _, m := range g.Members {
		if m.HasRole(roleID) {
			res.WithRole++
		} else {
			pending = append(pending, m)
		}
	}

	limit := v.PropagateRate
	if limit == 0 {
		limit = rate.Every(time.Second)
	}
	limiter := rate.NewLimiter(limit, 1)
	var granted atomic.Int64
	for start := 0; start < len(pending); start += PropagateBatchSize {
		end := min(start+PropagateBatchSize, len(pending))
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		eg, ectx := errgroup.WithContext(ctx)
		for _, m := range pending[start:end] {
			eg.Go(func() error {
				ok, err := v.grantIfClean(ectx, g, m, roleID)
				if ok {
					granted.Add(1)
				}
				return err
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, fmt.Errorf("propagating validation role: %w", err)
		}
		res.Processed = end
		logger.Info("propagation ongoing", "processed", res.Processed, "pending", len(pending))
	}
	res.Granted = int(granted.Load())
	res.WithRole += res.Granted

	if res.Total > 0 && float64(res.WithRole)/float64(res.Total) >= PropagatedThreshold {
		res.Propagated = true
		cfg.IsPropagated = true
		if err := v.Configs.SaveValidation(ctx, cfg); err != nil {
			return nil, fmt.Errorf("saving validation config: %w", err)
		}
	}
	logger.Info("propagation complete", "granted", res.Granted, "with_role", res.WithRole, "total", res.Total, "propagated", res.Propagated)
	return res, nil
}

func (v *Validation) grantIfClean(ctx context.Context, g *engine.Guild, m engine.Member, roleID uint64) (bool, error) {
	reasons, err := v.Engine.RejectionReasons(ctx, g, m)
	if err != nil {
		return false, err
	}
	if len(reasons) > 0 {
		return false, nil
	}
	err = v.Platform.AddRole(ctx, g.ID, m.ID, roleID)
	if errors.Is(err, ErrForbidden) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

// Hides every channel from @everyone, showing them to the validation role instead. The validation channel is inverted: only unverified members see it.
func (v *Validation) Lockdown(ctx context.Context, guildID uint64) error {
	cfg, err := v.Configs.Validation(ctx, guildID)
	if err != nil {
		return fmt.Errorf("fetching validation config: %w", err)
	}
	if !cfg.IsValid() {
		return ErrNotConfigured
	}
	g, err := v.Platform.Guild(ctx, guildID)
	if err != nil {
		return fmt.Errorf("fetching guild: %w", err)
	}
	if botPermissions(g, v.botID())&permManageChannels == 0 {
		return fmt.Errorf("%w: manage channels", ErrForbidden)
	}
	roleID := cfg.ValidationRoleID
	if _, ok := g.Role(roleID); !ok {
		return fmt.Errorf("%w: validation role %d", ErrNotFound, roleID)
	}
	everyone, ok := g.Role(g.ID)
	if !ok {
		return fmt.Errorf("%w: everyone role", ErrNotFound)
	}
	channels, err := v.Platform.Channels(ctx, guildID)
	if err != nil {
		return fmt.Errorf("fetching channels: %w", err)
	}

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	for _, ch := range channels {
		if ch.ID == cfg.ValidationChannelID {
			continue
		}
		eg.Go(func() error {
			return v.Platform.EditChannelOverwrite(ectx, ch.ID, roleID, lockdownBits, 0)
		})
	}
	eg.Go(func() error {
		return v.Platform.EditChannelOverwrite(ectx, cfg.ValidationChannelID, everyone.ID, lockdownBits, 0)
	})
	eg.Go(func() error {
		return v.Platform.EditChannelOverwrite(ectx, cfg.ValidationChannelID, roleID, 0, lockdownBits)
	})
	eg.Go(func() error {
		return v.Platform.EditRolePermissions(ectx, guildID, everyone.ID, everyone.Permissions&^lockdownBits)
	})
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("locking down guild: %w", err)
	}
	v.logger().Info("guild locked down", "guild", guildID, "channels", len(channels))
	return nil
}

package guildcfg

import (
	"context"
)

// Read/write access to guild configuration. Lookups of configs which don't exist return nil (or the zero LoggingConfig), not an error.
type Provider interface {
	Validation(ctx context.Context, guildID uint64) (*ValidationConfig, error)
	SaveValidation(ctx context.Context, cfg *ValidationConfig) error
	// every validation config with IsPropagated set
	PropagatedValidations(ctx context.Context) ([]ValidationConfig, error)
	Admin(ctx context.Context, guildID uint64) (*AdminConfig, error)
	SaveAdmin(ctx context.Context, cfg *AdminConfig) error
	Logging(ctx context.Context, guildID uint64) (LoggingConfig, error)
	SaveLogging(ctx context.Context, guildID uint64, cfg LoggingConfig) error
}

// Answers the ban store's question of whether a guild's bans are shared, from its admin config.
type BanSharing struct {
	Configs Provider
}

func (b BanSharing) IsGuildBlocked(ctx context.Context, guildID uint64) (bool, error) {
	cfg, err := b.Configs.Admin(ctx, guildID)
	if err != nil {
		return false, err
	}
	return cfg.BlocksBans(), nil
}

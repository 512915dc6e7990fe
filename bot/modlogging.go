package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/houraiteahouse/hourai/guildcfg"
	"github.com/houraiteahouse/hourai/modlog"
)

type ModLogging struct {
	Logger  *slog.Logger
	Configs guildcfg.Provider
	Modlog  modlog.Sink
}

func (s *ModLogging) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *ModLogging) enabled(ctx context.Context, guildID uint64) (bool, error) {
	cfg, err := s.Configs.Logging(ctx, guildID)
	if err != nil {
		return false, fmt.Errorf("fetching logging config: %w", err)
	}
	return cfg.LogDeletedMessages, nil
}

func (s *ModLogging) send(ctx context.Context, guildID uint64, msg modlog.Message) error {
	err := s.Modlog.Send(ctx, guildID, msg)
	if errors.Is(err, modlog.ErrNoModlog) {
		s.logger().Debug("deleted message logging enabled without a modlog", "guild", guildID)
		return nil
	}
	return err
}

// cached is nil when the platform no longer had the message.
func (s *ModLogging) HandleMessageDelete(ctx context.Context, guildID, channelID, messageID uint64, cached *modlog.CachedMessage) error {
	on, err := s.enabled(ctx, guildID)
	if err != nil || !on {
		return err
	}
	msg, ok := modlog.DeletedMessage(channelID, messageID, cached)
	if !ok {
		return nil
	}
	return s.send(ctx, guildID, msg)
}

func (s *ModLogging) HandleBulkMessageDelete(ctx context.Context, guildID, channelID uint64, messageIDs []uint64) error {
	on, err := s.enabled(ctx, guildID)
	if err != nil || !on {
		return err
	}
	return s.send(ctx, guildID, modlog.BulkDeleted(channelID, len(messageIDs)))
}

func (s *ModLogging) SetModlog(ctx context.Context, guildID, channelID uint64) error {
	cfg, err := s.Configs.Logging(ctx, guildID)
	if err != nil {
		return fmt.Errorf("fetching logging config: %w", err)
	}
	cfg.ModlogChannelID = channelID
	if err := s.Configs.SaveLogging(ctx, guildID, cfg); err != nil {
		return fmt.Errorf("saving logging config: %w", err)
	}
	return nil
}

// Flips deleted message logging, returning the new state.
func (s *ModLogging) ToggleDeletedLogging(ctx context.Context, guildID uint64) (bool, error) {
	cfg, err := s.Configs.Logging(ctx, guildID)
	if err != nil {
		return false, fmt.Errorf("fetching logging config: %w", err)
	}
	cfg.LogDeletedMessages = !cfg.LogDeletedMessages
	if err := s.Configs.SaveLogging(ctx, guildID, cfg); err != nil {
		return false, fmt.Errorf("saving logging config: %w", err)
	}
	return cfg.LogDeletedMessages, nil
}

func DeletedLoggingStatus(enabled bool) string {
	change := "disabled"
	if enabled {
		change = "enabled"
	}
	return fmt.Sprintf("Logging of deleted messages has been %s.", change)
}

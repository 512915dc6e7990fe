package modlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/houraiteahouse/hourai/guildcfg"
)

var ErrNoModlog = errors.New("guild has no modlog channel configured")

// Delivers messages to a guild's modlog. Errors are returned to the caller, never retried.
type Sink interface {
	Send(ctx context.Context, guildID uint64, msg Message) error
}

// Low level delivery of a message to a specific channel.
type ChannelSender interface {
	SendChannelMessage(ctx context.Context, channelID uint64, msg Message) error
}

type LoggingConfigs interface {
	Logging(ctx context.Context, guildID uint64) (guildcfg.LoggingConfig, error)
}

// Sink which looks up the modlog channel in the guild's logging config.
type ChannelSink struct {
	Configs LoggingConfigs
	Sender  ChannelSender
	Logger  *slog.Logger
}

var _ Sink = (*ChannelSink)(nil)

func (s *ChannelSink) Send(ctx context.Context, guildID uint64, msg Message) error {
	cfg, err := s.Configs.Logging(ctx, guildID)
	if err != nil {
		return fmt.Errorf("fetching modlog config: %w", err)
	}
	if cfg.ModlogChannelID == 0 {
		return ErrNoModlog
	}
	if err := s.Sender.SendChannelMessage(ctx, cfg.ModlogChannelID, msg); err != nil {
		modlogErrorCount.Inc()
		return fmt.Errorf("sending modlog message: %w", err)
	}
	modlogSentCount.Inc()
	if s.Logger != nil {
		s.Logger.Debug("modlog message sent", "guild", guildID, "channel", cfg.ModlogChannelID)
	}
	return nil
}

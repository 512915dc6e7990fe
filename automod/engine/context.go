package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/houraiteahouse/hourai/automod/banstore"
)

// The interface exposed to validators: the candidate member, the guild they joined, and lookups against engine state.
type MemberContext struct {
	// Actual golang "context.Context", if needed for timeouts etc
	Ctx context.Context
	// slog logger handle, with event-specific structured fields pre-populated. Pointer, but expected to never be nil.
	Logger *slog.Logger

	Member Member
	// Pointer, but expected to never be nil. Shared between concurrently running validators; read only.
	Guild *Guild
	Bot   BotInfo
	// fixed for the whole pass, so every validator agrees on "now"
	Now time.Time

	engine *Engine // NOTE: pointer, but expected never to be nil
}

// Every stored ban of the user, across all guilds seen by the bot.
func (c *MemberContext) UserBans(userID uint64) ([]banstore.BanRecord, error) {
	if c.engine.Bans == nil {
		return nil, nil
	}
	bans, err := c.engine.Bans.GetUserBans(c.Ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching bans for user %d: %w", userID, err)
	}
	return bans, nil
}

// Current members of a named pattern set. Returns nil if the engine has no sets configured.
func (c *MemberContext) SetMembers(name string) ([]string, error) {
	if c.engine.Sets == nil {
		return nil, nil
	}
	return c.engine.Sets.Members(c.Ctx, name)
}

func (c *MemberContext) InSet(name, val string) (bool, error) {
	if c.engine.Sets == nil {
		return false, nil
	}
	return c.engine.Sets.InSet(c.Ctx, name, val)
}

package rules

import (
	"slices"

	"github.com/houraiteahouse/hourai/automod/engine"
)

// Members with a premium subscription are unlikely to be throwaway alts or user bots.
type NitroApprover struct{}

var _ engine.Validator = NitroApprover{}

func (NitroApprover) Name() string { return "nitro" }

func (NitroApprover) Evaluate(c *engine.MemberContext) (engine.Verdict, error) {
	var v engine.Verdict
	if c.Member.Premium {
		v.Approve("User has Nitro. Probably not a user bot.")
	}
	return v, nil
}

// The following approvers are override level: they target a small set of trusted accounts and sit at the end of the chain, so they win over every heuristic.

type BotApprover struct{}

var _ engine.Validator = BotApprover{}

func (BotApprover) Name() string { return "bot_self" }

func (BotApprover) Evaluate(c *engine.MemberContext) (engine.Verdict, error) {
	var v engine.Verdict
	if c.Bot.BotID != 0 && c.Member.ID == c.Bot.BotID {
		v.Approve("User is this bot.")
	}
	return v, nil
}

type BotOwnerApprover struct{}

var _ engine.Validator = BotOwnerApprover{}

func (BotOwnerApprover) Name() string { return "bot_owner" }

func (BotOwnerApprover) Evaluate(c *engine.MemberContext) (engine.Verdict, error) {
	var v engine.Verdict
	if c.Bot.OwnerID != 0 && c.Member.ID == c.Bot.OwnerID {
		v.Approve("User is the owner of this bot.")
	}
	return v, nil
}

type BotTeamApprover struct{}

var _ engine.Validator = BotTeamApprover{}

func (BotTeamApprover) Name() string { return "bot_team" }

func (BotTeamApprover) Evaluate(c *engine.MemberContext) (engine.Verdict, error) {
	var v engine.Verdict
	if slices.Contains(c.Bot.TeamIDs, c.Member.ID) {
		v.Approve("User is part of the team that owns this bot.")
	}
	return v, nil
}

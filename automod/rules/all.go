package rules

import (
	"time"

	"github.com/houraiteahouse/hourai/automod/engine"
)

// Names of pattern sets consulted by DefaultRules. A set store entry with one of these names replaces the built-in list.
const (
	SetUserBotSubstrings = "user-bot-substrings"
	SetUserBotNames      = "user-bot-names"
	SetOffensiveNames    = "offensive-names"
	SetSexualNames       = "sexual-names"
)

// Validators are applied in order from first to last. If a later validator has an approval reason, it overrides all previous rejection reasons.
func DefaultRules() engine.RuleSet {
	return engine.RuleSet{
		Validators: []engine.Validator{
			// Suspicion level: high recall, low precision. Low severity checks.
			NewAccountRejector{Lookback: 30 * 24 * time.Hour},
			NoAvatarRejector{},
			DeletedAccountRejector{},
			StringFilterRejector{
				Prefix: "Likely user bot. ",
				Set:    SetUserBotSubstrings,
				Filters: []string{
					`discord\.gg`, `twitter\.com`, `twitch\.tv`, `youtube\.com`, `youtu\.be`,
					`@everyone`, `@here`, `admin`, `mod`,
				},
			},
			StringFilterRejector{
				Prefix:    "Likely user bot. ",
				Set:       SetUserBotNames,
				FullMatch: true,
				Filters: []string{
					`[0-9a-fA-F]+`, // full hexadecimal name
					`\d+`,          // full decimal name
				},
			},
			NitroApprover{},

			// Questionable level: red flags of unruly or troublesome users.
			NameMatchRejector{Label: "moderator_username", Prefix: "Username matches moderator's. ", Filter: IsModerator},
			NameMatchRejector{Label: "moderator_nick", Prefix: "Username matches moderator's. ", Filter: IsModerator, Selector: SelectNick},
			NameMatchRejector{Label: "bot_username", Prefix: "Username matches bot's. ", Filter: IsBot},
			NameMatchRejector{Label: "bot_nick", Prefix: "Username matches bot's. ", Filter: IsBot, Selector: SelectNick},
			StringFilterRejector{
				Prefix:  "Offensive username. ",
				Set:     SetOffensiveNames,
				Filters: []string{"nigger", "nigga", "faggot", "cuck", "retard"},
			},
			StringFilterRejector{
				Prefix:  "Sexually inappropriate username. ",
				Set:     SetSexualNames,
				Filters: []string{"anal", "cock", "vore", "scat", "fuck", "pussy", "penis", "piss", "shit", "cum"},
			},

			// Malicious level: known offenders. Low recall, high precision.
			BannedUserRejector{MinGuildSize: MinimumGuildSize},

			// Override level: explicitly trusted accounts. Always last.
			BotApprover{},
			BotOwnerApprover{},
			BotTeamApprover{},
		},
	}
}

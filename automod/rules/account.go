package rules

import (
	"fmt"
	"regexp"
	"time"

	"github.com/houraiteahouse/hourai/automod/engine"
)

// Rejects accounts created within Lookback of the validation pass.
//
// New accounts are commonly alts of banned users.
type NewAccountRejector struct {
	Lookback time.Duration
}

var _ engine.Validator = NewAccountRejector{}

func (r NewAccountRejector) Name() string { return "new_account" }

func (r NewAccountRejector) Evaluate(c *engine.MemberContext) (engine.Verdict, error) {
	var v engine.Verdict
	if c.Now.Sub(c.Member.CreatedAt()) < r.Lookback {
		v.Reject(fmt.Sprintf("Account created less than %s ago.", humanDuration(r.Lookback)))
	}
	return v, nil
}

// Low effort user bots and alt accounts tend not to set an avatar.
type NoAvatarRejector struct{}

var _ engine.Validator = NoAvatarRejector{}

func (NoAvatarRejector) Name() string { return "no_avatar" }

func (NoAvatarRejector) Evaluate(c *engine.MemberContext) (engine.Verdict, error) {
	var v engine.Verdict
	if c.Member.Avatar == "" {
		v.Reject("User has no avatar.")
	}
	return v, nil
}

var deletedUsernames = []*regexp.Regexp{
	regexp.MustCompile(`^Deleted User [0-9a-fA-F]{8}$`),
	regexp.MustCompile(`^deleted_user_[0-9a-f]{12}$`),
}

// Deleted accounts shouldn't be able to join new servers, so a seemingly deleted account joining is suspicious.
type DeletedAccountRejector struct{}

var _ engine.Validator = DeletedAccountRejector{}

func (DeletedAccountRejector) Name() string { return "deleted_account" }

func (DeletedAccountRejector) Evaluate(c *engine.MemberContext) (engine.Verdict, error) {
	var v engine.Verdict
	for _, re := range deletedUsernames {
		if re.MatchString(c.Member.Username) {
			v.Reject("User has been deleted by Discord.")
			break
		}
	}
	return v, nil
}

package rules

import (
	"context"
	"testing"

	"github.com/houraiteahouse/hourai/automod/banstore"
	"github.com/houraiteahouse/hourai/automod/engine"
	"github.com/houraiteahouse/hourai/automod/setstore"

	"github.com/stretchr/testify/require"
)

func engineFixture() engine.Engine {
	eng := engine.EngineTestFixture()
	eng.Rules = DefaultRules()
	return eng
}

// runs a single validator against the member, in the fixture guild
func evalRule(t *testing.T, eng *engine.Engine, v engine.Validator, m engine.Member) engine.Verdict {
	c := eng.NewMemberContext(context.Background(), engine.GuildFixture(), m)
	verdict, err := v.Evaluate(c)
	require.NoError(t, err)
	return verdict
}

func fixtureBans(eng *engine.Engine) *banstore.BanStore {
	return eng.Bans.(*banstore.BanStore)
}

func fixtureSets(eng *engine.Engine) *setstore.MemSetStore {
	return eng.Sets.(*setstore.MemSetStore)
}

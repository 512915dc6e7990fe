package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/houraiteahouse/hourai/automod/engine"
)

func TestNewAccountRejector(t *testing.T) {
	assert := assert.New(t)
	eng := engineFixture()
	r := NewAccountRejector{Lookback: 30 * 24 * time.Hour}

	v := evalRule(t, &eng, r, engine.MemberFixture(10, "marisa", 24*time.Hour))
	assert.Equal([]string{"Account created less than 30 days ago."}, v.Rejections)

	v = evalRule(t, &eng, r, engine.MemberFixture(10, "marisa", 31*24*time.Hour))
	assert.True(v.Empty())
}

func TestNoAvatarRejector(t *testing.T) {
	assert := assert.New(t)
	eng := engineFixture()

	m := engine.MemberFixture(10, "marisa", time.Hour)
	assert.True(evalRule(t, &eng, NoAvatarRejector{}, m).Empty())

	m.Avatar = ""
	assert.Len(evalRule(t, &eng, NoAvatarRejector{}, m).Rejections, 1)
}

func TestDeletedAccountRejector(t *testing.T) {
	assert := assert.New(t)
	eng := engineFixture()

	fixtures := []struct {
		username string
		deleted  bool
	}{
		{username: "Deleted User 0a1b2c3d", deleted: true},
		{username: "deleted_user_0123456789ab", deleted: true},
		{username: "Deleted User", deleted: false},
		{username: "deleted_user_zz", deleted: false},
		{username: "marisa", deleted: false},
	}
	for _, fix := range fixtures {
		v := evalRule(t, &eng, DeletedAccountRejector{}, engine.MemberFixture(10, fix.username, time.Hour))
		assert.Equal(fix.deleted, len(v.Rejections) == 1, fix.username)
	}
}

func TestHumanDuration(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("30 days", humanDuration(30*24*time.Hour))
	assert.Equal("1 day", humanDuration(24*time.Hour))
	assert.Equal("6 hours", humanDuration(6*time.Hour))
	assert.Equal("1 hour", humanDuration(time.Hour))
	assert.Equal("1m30s", humanDuration(90*time.Second))
}

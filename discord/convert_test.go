package discord

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/houraiteahouse/hourai/bot"
	"github.com/houraiteahouse/hourai/modlog"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertMember(t *testing.T) {
	assert := assert.New(t)
	joined := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	m := convertMember(&discordgo.Member{
		User:     &discordgo.User{ID: "1234", Username: "reimu", GlobalName: "Reimu", Avatar: "abcdef"},
		Nick:     "shrine maiden",
		JoinedAt: joined,
		Roles:    []string{"10", "bogus", "11"},
	}, true)
	assert.Equal(uint64(1234), m.ID)
	assert.Equal("reimu", m.Username)
	assert.Equal("Reimu", m.GlobalName)
	assert.Equal("shrine maiden", m.DisplayName())
	assert.Equal(joined, m.JoinedAt)
	assert.Equal([]uint64{10, 11}, m.RoleIDs)
	assert.False(m.Premium)
	assert.True(m.Online)

	animated := convertMember(&discordgo.Member{User: &discordgo.User{ID: "1", Avatar: "a_123"}}, false)
	assert.True(animated.Premium)

	boosting := convertMember(&discordgo.Member{User: &discordgo.User{ID: "1"}, PremiumSince: &joined}, false)
	assert.True(boosting.Premium)
}

func TestConvertGuild(t *testing.T) {
	assert := assert.New(t)

	g := convertGuild(&discordgo.Guild{
		ID:          "100",
		Name:        "gensokyo",
		OwnerID:     "5",
		MemberCount: 3,
		Roles:       []*discordgo.Role{{ID: "100", Name: "@everyone", Permissions: discordgo.PermissionViewChannel}},
		Members: []*discordgo.Member{
			{User: &discordgo.User{ID: "5", Username: "yukari"}},
			{User: &discordgo.User{ID: "6", Username: "ran"}},
			{},
		},
		Presences: []*discordgo.Presence{
			{User: &discordgo.User{ID: "5"}, Status: discordgo.StatusOnline},
			{User: &discordgo.User{ID: "6"}, Status: discordgo.StatusOffline},
		},
	})
	assert.Equal(uint64(100), g.ID)
	assert.Equal(uint64(5), g.OwnerID)
	require.Len(t, g.Members, 2)
	assert.True(g.Members[0].Online)
	assert.False(g.Members[1].Online)
	r, ok := g.Role(100)
	assert.True(ok)
	assert.Equal(int64(discordgo.PermissionViewChannel), r.Permissions)
}

func TestConvertBan(t *testing.T) {
	assert := assert.New(t)

	b := convertBan(&discordgo.GuildBan{User: &discordgo.User{ID: "42", Avatar: "abc"}, Reason: "spam"})
	assert.Equal(uint64(42), b.UserID)
	assert.Equal("abc", b.Avatar)
	require.NotNil(t, b.Reason)
	assert.Equal("spam", *b.Reason)

	b = convertBan(&discordgo.GuildBan{User: &discordgo.User{ID: "43"}})
	assert.Nil(b.Reason)
}

func TestCachedMessage(t *testing.T) {
	assert := assert.New(t)

	assert.Nil(cachedMessage(nil))
	m := cachedMessage(&discordgo.Message{
		ID:          "9",
		ChannelID:   "8",
		Content:     "hi",
		Author:      &discordgo.User{ID: "7", Username: "cirno", Bot: true},
		Attachments: []*discordgo.MessageAttachment{{URL: "https://cdn.example/x.png"}},
	})
	assert.Equal(uint64(9), m.ID)
	assert.Equal(uint64(7), m.AuthorID)
	assert.True(m.AuthorBot)
	assert.Equal([]string{"https://cdn.example/x.png"}, m.Attachments)
}

func TestToMessageSend(t *testing.T) {
	assert := assert.New(t)

	plain := toMessageSend(modlog.Message{Content: "hello"})
	assert.Equal("hello", plain.Content)
	assert.Empty(plain.Embeds)

	msg, _ := modlog.DeletedMessage(1, 2, &modlog.CachedMessage{AuthorID: 3, AuthorName: "marisa", Content: "x", Attachments: []string{"u"}})
	out := toMessageSend(msg)
	require.Len(t, out.Embeds, 1)
	e := out.Embeds[0]
	assert.Equal(modlog.ColorDarkRed, e.Color)
	assert.Equal("marisa", e.Author.Name)
	assert.Equal("Message ID: 2", e.Footer.Text)
	require.Len(t, e.Fields, 1)
	assert.Equal("Attachments", e.Fields[0].Name)
}

func TestMergeOverwrite(t *testing.T) {
	assert := assert.New(t)

	allow, deny := mergeOverwrite(nil, 0b0011, 0)
	assert.Equal(int64(0b0011), allow)
	assert.Equal(int64(0), deny)

	existing := &discordgo.PermissionOverwrite{Allow: 0b0100, Deny: 0b1001}
	allow, deny = mergeOverwrite(existing, 0b0001, 0b0100)
	assert.Equal(int64(0b0001), allow)
	assert.Equal(int64(0b1100), deny)
}

func TestMapError(t *testing.T) {
	assert := assert.New(t)

	forbidden := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden, Status: "403 Forbidden"}}
	assert.ErrorIs(mapError(forbidden), bot.ErrForbidden)
	notFound := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound, Status: "404 Not Found"}}
	assert.ErrorIs(mapError(notFound), bot.ErrNotFound)

	other := errors.New("boom")
	assert.Equal(other, mapError(other))
	assert.Nil(mapError(nil))
}

package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/houraiteahouse/hourai/automod/banstore"
	"github.com/houraiteahouse/hourai/automod/engine"
	"github.com/houraiteahouse/hourai/bot"
	"github.com/houraiteahouse/hourai/guildcfg"
	"github.com/houraiteahouse/hourai/modlog"

	"github.com/bwmarrin/discordgo"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "secret"

type apiFixture struct {
	e       *echo.Echo
	plat    *bot.FakePlatform
	configs *guildcfg.MemProvider
	bans    *banstore.BanStore
}

func newAPIFixture(t *testing.T) *apiFixture {
	eng := engine.EngineTestFixture()
	g := engine.GuildFixture()
	g.Roles = append(g.Roles, engine.Role{ID: 1003, Name: "Bot", Permissions: discordgo.PermissionAdministrator})
	for i := range g.Members {
		if g.Members[i].ID == engine.FixtureBotID {
			g.Members[i].RoleIDs = []uint64{1003}
		}
	}

	plat := bot.NewFakePlatform()
	plat.AddGuild(g, bot.Channel{ID: 2000, Name: "modlog"}, bot.Channel{ID: 2001, Name: "validation"})
	configs := guildcfg.NewMemProvider()
	sink := &modlog.ChannelSink{Configs: configs, Sender: plat}
	bans := eng.Bans.(*banstore.BanStore)

	e := newAdminAPI(apiConfig{
		Logger: slog.Default(),
		Token:  testToken,
		Validation: &bot.Validation{
			Engine:   &eng,
			Bans:     bans,
			Configs:  configs,
			Modlog:   sink,
			Platform: plat,
		},
		ModLogging: &bot.ModLogging{Configs: configs, Modlog: sink},
		Bans:       bans,
	})
	require.NotNil(t, e)
	return &apiFixture{e: e, plat: plat, configs: configs, bans: bans}
}

func (f *apiFixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+testToken)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decodeStatus(t *testing.T, rec *httptest.ResponseRecorder) GenericStatus {
	var out GenericStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthCheck(t *testing.T) {
	assert := assert.New(t)
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/_health", nil)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	assert.Equal(http.StatusOK, rec.Code)
	assert.Equal("ok", decodeStatus(t, rec).Status)
}

func TestAdminAuth(t *testing.T) {
	assert := assert.New(t)
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/bans/users/5", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer wrong")
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	assert.Equal(http.StatusUnauthorized, rec.Code)
	assert.Equal("error", decodeStatus(t, rec).Status)

	rec = f.do(http.MethodGet, "/bans/users/5", "")
	assert.Equal(http.StatusOK, rec.Code)
}

func TestBanEndpoints(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newAPIFixture(t)

	reason := "spam"
	g := banstore.Guild{ID: engine.FixtureGuildID, MemberCount: 50, CanViewBans: true}
	require.NoError(t, f.bans.SaveBan(ctx, g, banstore.Ban{UserID: 77, Avatar: "abc", Reason: &reason}))

	rec := f.do(http.MethodGet, "/bans/users/77", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out []banJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal("1000", out[0].GuildID)
	assert.Equal("77", out[0].UserID)
	assert.Equal("abc", out[0].Avatar)
	assert.Equal("spam", *out[0].Reason)
	assert.EqualValues(50, out[0].GuildSize)

	rec = f.do(http.MethodGet, "/bans/guilds/1000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(out, 1)

	rec = f.do(http.MethodGet, "/bans/users/notanid", "")
	assert.Equal(http.StatusBadRequest, rec.Code)
}

func TestValidationEndpoints(t *testing.T) {
	assert := assert.New(t)
	f := newAPIFixture(t)

	rec := f.do(http.MethodPost, "/guilds/1000/validation/propagate", "")
	assert.Equal(http.StatusBadRequest, rec.Code)
	rec = f.do(http.MethodPost, "/guilds/1000/validation/lockdown", "")
	assert.Equal(http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/guilds/1000/validation/setup", `{"role_id":"9999","channel_id":"2001"}`)
	assert.Equal(http.StatusNotFound, rec.Code)
	rec = f.do(http.MethodPost, "/guilds/1000/validation/setup", `{"role_id":"1002"}`)
	assert.Equal(http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/guilds/1000/validation/setup", `{"role_id":"1002","channel_id":"2001"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var cfg guildcfg.ValidationConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(engine.FixtureVerifyID, cfg.ValidationRoleID)
	assert.EqualValues(2001, cfg.ValidationChannelID)

	rec = f.do(http.MethodPost, "/guilds/1000/validation/propagate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res bot.PropagateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(2, res.Total)

	rec = f.do(http.MethodPost, "/guilds/1000/validation/lockdown", "")
	assert.Equal(http.StatusOK, rec.Code)
	snap := f.plat.Snapshot()
	assert.NotEmpty(snap.Overwrites)
}

func TestLoggingEndpoints(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newAPIFixture(t)

	rec := f.do(http.MethodPost, "/guilds/1000/modlog", `{"channel_id":"2000"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cfg, err := f.configs.Logging(ctx, engine.FixtureGuildID)
	require.NoError(t, err)
	assert.EqualValues(2000, cfg.ModlogChannelID)

	rec = f.do(http.MethodPost, "/guilds/1000/logging/deleted/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal("Logging of deleted messages has been enabled.", decodeStatus(t, rec).Message)
	rec = f.do(http.MethodPost, "/guilds/1000/logging/deleted/toggle", "")
	assert.Equal("Logging of deleted messages has been disabled.", decodeStatus(t, rec).Message)
}

func TestBanSharingEndpoint(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newAPIFixture(t)

	rec := f.do(http.MethodPost, "/guilds/1000/bans/sharing", `{"enabled":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cfg, err := f.configs.Admin(ctx, engine.FixtureGuildID)
	require.NoError(t, err)
	assert.True(cfg.BlocksBans())

	rec = f.do(http.MethodPost, "/guilds/1000/bans/sharing", `{"enabled":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cfg, err = f.configs.Admin(ctx, engine.FixtureGuildID)
	require.NoError(t, err)
	assert.False(cfg.BlocksBans())
}

package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/houraiteahouse/hourai/automod/banstore"
	"github.com/houraiteahouse/hourai/bot"
	"github.com/houraiteahouse/hourai/guildcfg"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	slogecho "github.com/samber/slog-echo"
)

type BanReader interface {
	GetUserBans(ctx context.Context, userID uint64) ([]banstore.BanRecord, error)
	GetGuildBans(ctx context.Context, guildID uint64) ([]banstore.BanRecord, error)
}

type apiConfig struct {
	Logger *slog.Logger
	// request metrics are registered here; a private registry is used if nil
	Registerer prometheus.Registerer
	Token      string
	Validation *bot.Validation
	ModLogging *bot.ModLogging
	Bans       BanReader
}

type adminAPI struct {
	logger     *slog.Logger
	validation *bot.Validation
	modlogging *bot.ModLogging
	bans       BanReader
}

type GenericStatus struct {
	Daemon  string `json:"daemon"`
	Status  string `json:"status"`
	Message string `json:"msg,omitempty"`
}

type banJSON struct {
	GuildID      string  `json:"guild_id"`
	UserID       string  `json:"user_id"`
	Avatar       string  `json:"avatar,omitempty"`
	Reason       *string `json:"reason,omitempty"`
	GuildSize    uint32  `json:"guild_size"`
	GuildBlocked bool    `json:"guild_blocked"`
}

type setupRequest struct {
	RoleID    uint64 `json:"role_id,string"`
	ChannelID uint64 `json:"channel_id,string"`
}

type modlogRequest struct {
	ChannelID uint64 `json:"channel_id,string"`
}

type banSharingRequest struct {
	Enabled bool `json:"enabled"`
}

func newAdminAPI(config apiConfig) *echo.Echo {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	api := &adminAPI{
		logger:     logger.With("component", "admin-api"),
		validation: config.Validation,
		modlogging: config.ModLogging,
		bans:       config.Bans,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))
	e.HTTPErrorHandler = api.errorHandler
	reg := config.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "hourai_admin",
		Registerer: reg,
	}))

	e.GET("/_health", api.HandleHealthCheck)

	auth := middleware.KeyAuth(func(key string, c echo.Context) (bool, error) {
		return subtle.ConstantTimeCompare([]byte(key), []byte(config.Token)) == 1, nil
	})
	g := e.Group("", auth)
	g.GET("/bans/users/:id", api.HandleUserBans)
	g.GET("/bans/guilds/:id", api.HandleGuildBans)
	g.POST("/guilds/:id/validation/setup", api.HandleValidationSetup)
	g.POST("/guilds/:id/validation/propagate", api.HandleValidationPropagate)
	g.POST("/guilds/:id/validation/lockdown", api.HandleValidationLockdown)
	g.POST("/guilds/:id/modlog", api.HandleSetModlog)
	g.POST("/guilds/:id/logging/deleted/toggle", api.HandleToggleDeletedLogging)
	g.POST("/guilds/:id/bans/sharing", api.HandleBanSharing)
	return e
}

func (api *adminAPI) errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	var errorMessage string
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		code = he.Code
		errorMessage = fmt.Sprintf("%s", he.Message)
	case errors.Is(err, bot.ErrNotFound):
		code = http.StatusNotFound
		errorMessage = err.Error()
	case errors.Is(err, bot.ErrForbidden):
		code = http.StatusForbidden
		errorMessage = err.Error()
	case errors.Is(err, bot.ErrNotConfigured):
		code = http.StatusBadRequest
		errorMessage = err.Error()
	}
	if code >= 500 {
		api.logger.Warn("hourai-http-internal-error", "err", err)
	}
	_ = c.JSON(code, GenericStatus{Status: "error", Daemon: "hourai", Message: errorMessage})
}

func (api *adminAPI) HandleHealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, GenericStatus{Status: "ok", Daemon: "hourai"})
}

func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid id: %q", c.Param("id")))
	}
	return id, nil
}

func bansJSON(recs []banstore.BanRecord) []banJSON {
	out := make([]banJSON, 0, len(recs))
	for _, rec := range recs {
		out = append(out, banJSON{
			GuildID:      strconv.FormatUint(rec.GuildID, 10),
			UserID:       strconv.FormatUint(rec.UserID, 10),
			Avatar:       string(rec.Avatar),
			Reason:       rec.Reason,
			GuildSize:    rec.GuildSize,
			GuildBlocked: rec.GuildBlocked,
		})
	}
	return out
}

func (api *adminAPI) HandleUserBans(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	recs, err := api.bans.GetUserBans(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bansJSON(recs))
}

func (api *adminAPI) HandleGuildBans(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	recs, err := api.bans.GetGuildBans(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bansJSON(recs))
}

func (api *adminAPI) HandleValidationSetup(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req setupRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.RoleID == 0 || req.ChannelID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "role_id and channel_id are required")
	}
	cfg, err := api.validation.Setup(c.Request().Context(), id, req.RoleID, req.ChannelID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cfg)
}

func (api *adminAPI) HandleValidationPropagate(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	res, err := api.validation.Propagate(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (api *adminAPI) HandleValidationLockdown(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := api.validation.Lockdown(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, GenericStatus{Status: "ok", Daemon: "hourai", Message: "Validation lockdown applied."})
}

func (api *adminAPI) HandleSetModlog(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req modlogRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.ChannelID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "channel_id is required")
	}
	if err := api.modlogging.SetModlog(c.Request().Context(), id, req.ChannelID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, GenericStatus{Status: "ok", Daemon: "hourai"})
}

func (api *adminAPI) HandleToggleDeletedLogging(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	enabled, err := api.modlogging.ToggleDeletedLogging(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, GenericStatus{Status: "ok", Daemon: "hourai", Message: bot.DeletedLoggingStatus(enabled)})
}

// Opts a guild in or out of having its bans used to validate members of other guilds.
func (api *adminAPI) HandleBanSharing(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req banSharingRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	cfg, err := api.validation.Configs.Admin(ctx, id)
	if err != nil {
		return err
	}
	if cfg == nil {
		cfg = &guildcfg.AdminConfig{GuildID: id}
	}
	cfg.SourceBans = req.Enabled
	if err := api.validation.Configs.SaveAdmin(ctx, cfg); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cfg)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/houraiteahouse/hourai/automod/banstore"
	"github.com/houraiteahouse/hourai/automod/cachestore"
	"github.com/houraiteahouse/hourai/automod/engine"
	"github.com/houraiteahouse/hourai/automod/kvstore"
	"github.com/houraiteahouse/hourai/automod/rules"
	"github.com/houraiteahouse/hourai/automod/setstore"
	"github.com/houraiteahouse/hourai/bot"
	"github.com/houraiteahouse/hourai/discord"
	"github.com/houraiteahouse/hourai/guildcfg"
	"github.com/houraiteahouse/hourai/listing"
	"github.com/houraiteahouse/hourai/modlog"
	"github.com/houraiteahouse/hourai/pkg/metrics"
	"github.com/houraiteahouse/hourai/pkg/robusthttp"
	"github.com/houraiteahouse/hourai/tasks"
	"github.com/houraiteahouse/hourai/util/cliutil"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/plugin/opentelemetry/tracing"
)

// entries kept by the in-process config cache when no redis is configured
const memCacheCapacity = 10_000

type Config struct {
	Logger             *slog.Logger
	DiscordToken       string
	DatabaseURL        string
	MaxDBConnections   int
	DBTracing          bool
	RedisURL           string
	SetsFileJSON       string
	Bind               string
	MetricsListen      string
	AdminToken         string
	BanTTL             time.Duration
	ConfigCacheTTL     time.Duration
	ReloadBansInterval time.Duration
	PurgeInterval      time.Duration
	PurgeLookback      time.Duration
	ListingInterval    time.Duration
	ListingSites       []listing.Site
}

type Server struct {
	Discord    *discord.Client
	Validation *bot.Validation
	ModLogging *bot.ModLogging
	Bans       *banstore.BanStore

	config Config
	kv     kvstore.KVStore
	echo   *echo.Echo
	httpd  *http.Server
	loops  []*tasks.Loop
	logger *slog.Logger
}

func NewServer(ctx context.Context, config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var kv kvstore.KVStore
	var cache cachestore.CacheStore
	if config.RedisURL != "" {
		rs, err := kvstore.NewRedisStore(ctx, config.RedisURL, logger)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		kv = rs
		cache = cachestore.NewRedisCacheStore(rs.Client, config.ConfigCacheTTL)
	} else {
		logger.Warn("no redis configured, bans and config cache are held in process")
		kv = kvstore.NewMemStore()
		cache = cachestore.NewMemCacheStore(memCacheCapacity, config.ConfigCacheTTL)
	}

	reg, err := kvstore.DefaultRegistry()
	if err != nil {
		return nil, err
	}

	db, err := cliutil.SetupDatabase(config.DatabaseURL, config.MaxDBConnections, logger)
	if err != nil {
		return nil, err
	}
	if config.DBTracing {
		if err := db.Use(tracing.NewPlugin()); err != nil {
			return nil, err
		}
	}
	store, err := guildcfg.NewStore(db, kv, reg)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		return nil, fmt.Errorf("migrating config database: %w", err)
	}
	configs := guildcfg.NewCachedProvider(store, cache, logger)

	bans, err := banstore.NewBanStore(kv, reg, guildcfg.BanSharing{Configs: configs}, logger)
	if err != nil {
		return nil, err
	}
	if config.BanTTL > 0 {
		bans.TTL = config.BanTTL
	}

	sets := setstore.NewMemSetStore()
	if config.SetsFileJSON != "" {
		if err := sets.LoadFromFileJSON(config.SetsFileJSON); err != nil {
			return nil, fmt.Errorf("loading sets from %s: %w", config.SetsFileJSON, err)
		}
		logger.Info("loaded name filter sets", "path", config.SetsFileJSON)
	}

	dc, err := discord.NewClient(config.DiscordToken, logger)
	if err != nil {
		return nil, err
	}

	sink := &modlog.ChannelSink{
		Configs: configs,
		Sender:  dc,
		Logger:  logger,
	}
	eng := &engine.Engine{
		Logger: logger,
		Rules:  rules.DefaultRules(),
		Bans:   bans,
		Sets:   sets,
	}

	srv := &Server{
		Discord: dc,
		Validation: &bot.Validation{
			Logger:        logger,
			Engine:        eng,
			Bans:          bans,
			Configs:       configs,
			Modlog:        sink,
			Platform:      dc,
			PurgeLookback: config.PurgeLookback,
		},
		ModLogging: &bot.ModLogging{
			Logger:  logger,
			Configs: configs,
			Modlog:  sink,
		},
		Bans:   bans,
		config: config,
		kv:     kv,
		logger: logger,
	}

	if config.AdminToken != "" {
		srv.echo = newAdminAPI(apiConfig{
			Logger:     logger,
			Registerer: prometheus.DefaultRegisterer,
			Token:      config.AdminToken,
			Validation: srv.Validation,
			ModLogging: srv.ModLogging,
			Bans:       bans,
		})
		srv.httpd = &http.Server{
			Handler:        srv.echo,
			Addr:           config.Bind,
			WriteTimeout:   time.Minute,
			ReadTimeout:    time.Minute,
			MaxHeaderBytes: 1 << 20,
		}
	} else {
		logger.Info("no admin token configured, admin API disabled")
	}
	return srv, nil
}

// Connects to discord and runs the background loops until ctx is cancelled.
func (srv *Server) Run(ctx context.Context) error {
	logger := srv.logger

	go func() {
		if err := metrics.RunServer(ctx, srv.config.MetricsListen, logger); err != nil {
			logger.Error("metrics server failed", "err", err)
		}
	}()

	info, err := srv.Discord.BotInfo(ctx)
	if err != nil {
		return fmt.Errorf("fetching bot info: %w", err)
	}
	srv.Validation.Engine.Bot = info
	logger.Info("running as bot", "bot", info.BotID, "owner", info.OwnerID)

	srv.Discord.Bind(ctx, srv.Validation, srv.ModLogging)
	if err := srv.Discord.Open(); err != nil {
		return err
	}

	srv.loops = append(srv.loops,
		&tasks.Loop{
			Name:     "reload-bans",
			Interval: srv.config.ReloadBansInterval,
			Ready:    srv.Discord.Ready,
			Run:      srv.Validation.ReloadBans,
			Logger:   logger,
		},
		&tasks.Loop{
			Name:     "purge-unverified",
			Interval: srv.config.PurgeInterval,
			Ready:    srv.Discord.Ready,
			Run:      srv.Validation.PurgeUnverified,
			Logger:   logger,
		},
	)
	poster := &listing.Poster{
		Client:     robusthttp.NewClient(robusthttp.WithLogger(logger)),
		ClientID:   info.BotID,
		GuildCount: srv.Discord.GuildCount,
		Logger:     logger,
	}
	srv.loops = append(srv.loops, poster.Loops(srv.config.ListingSites, srv.config.ListingInterval, srv.Discord.Ready)...)
	for _, l := range srv.loops {
		if err := l.Start(ctx); err != nil {
			return fmt.Errorf("starting %s loop: %w", l.Name, err)
		}
	}

	if srv.httpd != nil {
		go func() {
			logger.Info("starting admin API", "bind", srv.httpd.Addr)
			if err := srv.httpd.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server shutting down unexpectedly", "err", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return srv.Shutdown()
}

func (srv *Server) Shutdown() error {
	var errs []error
	for _, l := range srv.loops {
		l.Stop()
	}
	if srv.httpd != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.httpd.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutting down admin API: %w", err))
		}
	}
	if err := srv.Discord.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing discord session: %w", err))
	}
	if c, ok := srv.kv.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing kv store: %w", err))
		}
	}
	return errors.Join(errs...)
}

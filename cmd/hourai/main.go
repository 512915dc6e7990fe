package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/houraiteahouse/hourai/automod/banstore"
	"github.com/houraiteahouse/hourai/bot"
	"github.com/houraiteahouse/hourai/listing"
	"github.com/houraiteahouse/hourai/util/cliutil"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "hourai",
		Usage:   "discord moderation bot",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity level (eg: warn, info, debug)",
			EnvVars: []string{"HOURAI_LOG_LEVEL", "LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "text or json",
			EnvVars: []string{"HOURAI_LOG_FMT"},
		},
		&cli.StringFlag{
			Name:    "log-file",
			Usage:   "write logs to this file instead of stdout",
			EnvVars: []string{"HOURAI_LOG_FILE"},
		},
		&cli.IntFlag{
			Name:    "max-metadb-connections",
			EnvVars: []string{"MAX_METADB_CONNECTIONS"},
			Value:   40,
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the bot",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "discord-token",
			Usage:   "bot token for the discord gateway and API",
			Required: true,
			EnvVars:  []string{"HOURAI_DISCORD_TOKEN", "DISCORD_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "database-url",
			Value:   "sqlite://data/hourai/hourai.db",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.BoolFlag{
			Name:    "db-tracing",
			Usage:   "trace database queries with OpenTelemetry",
			EnvVars: []string{"HOURAI_DB_TRACING"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis server for the ban cache and config cache; in-process stores are used if unset",
			EnvVars: []string{"HOURAI_REDIS_URL", "REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "sets-json-path",
			Usage:   "file path of JSON file containing static pattern sets, overriding the built-in filter lists",
			EnvVars: []string{"HOURAI_SETS_JSON_PATH"},
		},
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for the admin HTTP API",
			Value:   ":3999",
			EnvVars: []string{"HOURAI_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3998",
			EnvVars: []string{"HOURAI_METRICS_LISTEN"},
		},
		&cli.StringFlag{
			Name:    "admin-token",
			Usage:   "bearer token required by the admin HTTP API; the API is not started if unset",
			EnvVars: []string{"HOURAI_ADMIN_TOKEN"},
		},
		&cli.DurationFlag{
			Name:    "ban-ttl",
			Usage:   "expiry of cached bans; must be longer than the reload interval",
			Value:   banstore.DefaultTTL,
			EnvVars: []string{"HOURAI_BAN_TTL"},
		},
		&cli.DurationFlag{
			Name:    "config-cache-ttl",
			Value:   5 * time.Minute,
			EnvVars: []string{"HOURAI_CONFIG_CACHE_TTL"},
		},
		&cli.DurationFlag{
			Name:    "reload-bans-interval",
			Value:   5 * time.Second,
			EnvVars: []string{"HOURAI_RELOAD_BANS_INTERVAL"},
		},
		&cli.DurationFlag{
			Name:    "purge-interval",
			Value:   5 * time.Second,
			EnvVars: []string{"HOURAI_PURGE_INTERVAL"},
		},
		&cli.DurationFlag{
			Name:    "purge-lookback",
			Usage:   "how long unverified members may stay in a propagated guild",
			Value:   bot.DefaultPurgeLookback,
			EnvVars: []string{"HOURAI_PURGE_LOOKBACK"},
		},
		&cli.DurationFlag{
			Name:    "listing-interval",
			Value:   listing.DefaultInterval,
			EnvVars: []string{"HOURAI_LISTING_INTERVAL"},
		},
		&cli.StringFlag{
			Name:    "discord-bots-gg-token",
			EnvVars: []string{"DISCORD_BOTS_GG_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "top-gg-token",
			EnvVars: []string{"TOP_GG_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "discord-bot-list-token",
			EnvVars: []string{"DISCORD_BOT_LIST_TOKEN"},
		},
	},
	Action: func(cctx *cli.Context) error {
		logger, err := cliutil.SetupSlog(cliutil.LogOptions{
			LogLevel:  cctx.String("log-level"),
			LogFormat: cctx.String("log-format"),
			LogPath:   cctx.String("log-file"),
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		shutdownOTEL, err := configOTEL(ctx, "hourai")
		if err != nil {
			return err
		}
		defer shutdownOTEL()

		srv, err := NewServer(ctx, Config{
			Logger:             logger,
			DiscordToken:       cctx.String("discord-token"),
			DatabaseURL:        cctx.String("database-url"),
			MaxDBConnections:   cctx.Int("max-metadb-connections"),
			DBTracing:          cctx.Bool("db-tracing"),
			RedisURL:           cctx.String("redis-url"),
			SetsFileJSON:       cctx.String("sets-json-path"),
			Bind:               cctx.String("bind"),
			MetricsListen:      cctx.String("metrics-listen"),
			AdminToken:         cctx.String("admin-token"),
			BanTTL:             cctx.Duration("ban-ttl"),
			ConfigCacheTTL:     cctx.Duration("config-cache-ttl"),
			ReloadBansInterval: cctx.Duration("reload-bans-interval"),
			PurgeInterval:      cctx.Duration("purge-interval"),
			PurgeLookback:      cctx.Duration("purge-lookback"),
			ListingInterval:    cctx.Duration("listing-interval"),
			ListingSites: []listing.Site{
				listing.DiscordBotsGG(cctx.String("discord-bots-gg-token")),
				listing.TopGG(cctx.String("top-gg-token")),
				listing.DiscordBotList(cctx.String("discord-bot-list-token")),
			},
		})
		if err != nil {
			return fmt.Errorf("failed to construct server: %w", err)
		}

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("failed to run hourai: %w", err)
		}
		return nil
	},
}

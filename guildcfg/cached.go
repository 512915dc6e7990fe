package guildcfg

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/houraiteahouse/hourai/automod/cachestore"
)

const (
	cacheValidation = "guildcfg-validation"
	cacheAdmin      = "guildcfg-admin"
)

// Provider decorator which caches validation and admin config reads, including misses. Writes through this provider purge the cached entry.
//
// Cache failures are logged and fall through to the wrapped provider.
type CachedProvider struct {
	Inner  Provider
	Cache  cachestore.CacheStore
	Logger *slog.Logger
}

var _ Provider = (*CachedProvider)(nil)

func NewCachedProvider(inner Provider, cache cachestore.CacheStore, logger *slog.Logger) *CachedProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedProvider{
		Inner:  inner,
		Cache:  cache,
		Logger: logger.With("component", "guildcfg-cache"),
	}
}

func cacheKey(guildID uint64) string {
	return strconv.FormatUint(guildID, 10)
}

// shared read-through logic for nullable configs
func cachedRead[T any](ctx context.Context, p *CachedProvider, name string, guildID uint64, fetch func(context.Context, uint64) (*T, error)) (*T, error) {
	key := cacheKey(guildID)
	cfg, ok, err := cachestore.GetJSON[*T](ctx, p.Cache, name, key)
	if err != nil {
		p.Logger.Warn("config cache read failed", "cache", name, "guild", guildID, "err", err)
	} else if ok {
		return cfg, nil
	}
	cfg, err = fetch(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if err := cachestore.SetJSON(ctx, p.Cache, name, key, cfg); err != nil {
		p.Logger.Warn("config cache write failed", "cache", name, "guild", guildID, "err", err)
	}
	return cfg, nil
}

func (p *CachedProvider) purge(ctx context.Context, name string, guildID uint64) {
	if err := p.Cache.Purge(ctx, name, cacheKey(guildID)); err != nil {
		p.Logger.Warn("config cache purge failed", "cache", name, "guild", guildID, "err", err)
	}
}

func (p *CachedProvider) Validation(ctx context.Context, guildID uint64) (*ValidationConfig, error) {
	return cachedRead(ctx, p, cacheValidation, guildID, p.Inner.Validation)
}

func (p *CachedProvider) SaveValidation(ctx context.Context, cfg *ValidationConfig) error {
	defer p.purge(ctx, cacheValidation, cfg.GuildID)
	return p.Inner.SaveValidation(ctx, cfg)
}

func (p *CachedProvider) PropagatedValidations(ctx context.Context) ([]ValidationConfig, error) {
	return p.Inner.PropagatedValidations(ctx)
}

func (p *CachedProvider) Admin(ctx context.Context, guildID uint64) (*AdminConfig, error) {
	return cachedRead(ctx, p, cacheAdmin, guildID, p.Inner.Admin)
}

func (p *CachedProvider) SaveAdmin(ctx context.Context, cfg *AdminConfig) error {
	defer p.purge(ctx, cacheAdmin, cfg.GuildID)
	return p.Inner.SaveAdmin(ctx, cfg)
}

func (p *CachedProvider) Logging(ctx context.Context, guildID uint64) (LoggingConfig, error) {
	return p.Inner.Logging(ctx, guildID)
}

func (p *CachedProvider) SaveLogging(ctx context.Context, guildID uint64, cfg LoggingConfig) error {
	return p.Inner.SaveLogging(ctx, guildID, cfg)
}

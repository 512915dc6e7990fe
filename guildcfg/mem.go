package guildcfg

import (
	"context"
	"sort"
	"sync"
)

// In-process Provider, for tests and for running without a database.
type MemProvider struct {
	mu         sync.Mutex
	validation map[uint64]ValidationConfig
	admin      map[uint64]AdminConfig
	logging    map[uint64]LoggingConfig
}

var _ Provider = (*MemProvider)(nil)

func NewMemProvider() *MemProvider {
	return &MemProvider{
		validation: make(map[uint64]ValidationConfig),
		admin:      make(map[uint64]AdminConfig),
		logging:    make(map[uint64]LoggingConfig),
	}
}

func (p *MemProvider) Validation(ctx context.Context, guildID uint64) (*ValidationConfig, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cfg, ok := p.validation[guildID]
	if !ok {
		return nil, nil
	}
	return &cfg, nil
}

func (p *MemProvider) SaveValidation(ctx context.Context, cfg *ValidationConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.validation[cfg.GuildID] = *cfg
	return nil
}

func (p *MemProvider) PropagatedValidations(ctx context.Context) ([]ValidationConfig, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []ValidationConfig
	for _, cfg := range p.validation {
		if cfg.IsPropagated {
			out = append(out, cfg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GuildID < out[j].GuildID })
	return out, nil
}

func (p *MemProvider) Admin(ctx context.Context, guildID uint64) (*AdminConfig, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cfg, ok := p.admin[guildID]
	if !ok {
		return nil, nil
	}
	return &cfg, nil
}

func (p *MemProvider) SaveAdmin(ctx context.Context, cfg *AdminConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.admin[cfg.GuildID] = *cfg
	return nil
}

func (p *MemProvider) Logging(ctx context.Context, guildID uint64) (LoggingConfig, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.logging[guildID], nil
}

func (p *MemProvider) SaveLogging(ctx context.Context, guildID uint64, cfg LoggingConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logging[guildID] = cfg
	return nil
}

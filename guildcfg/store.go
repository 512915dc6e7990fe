package guildcfg

import (
	"context"
	"errors"
	"fmt"

	"github.com/houraiteahouse/hourai/automod/kvstore"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Provider backed by the SQL database, plus the key-value store for logging configs.
type Store struct {
	DB *gorm.DB
	KV kvstore.KVStore

	configNS kvstore.Namespace
}

var _ Provider = (*Store)(nil)

func NewStore(db *gorm.DB, kv kvstore.KVStore, reg *kvstore.Registry) (*Store, error) {
	ns, ok := reg.Lookup(kvstore.NamespaceGuildConfigs)
	if !ok {
		return nil, fmt.Errorf("registry missing namespace: %s", kvstore.NamespaceGuildConfigs)
	}
	return &Store{
		DB:       db,
		KV:       kv,
		configNS: ns,
	}, nil
}

func (s *Store) Migrate() error {
	return s.DB.AutoMigrate(&ValidationConfig{}, &AdminConfig{})
}

func (s *Store) Validation(ctx context.Context, guildID uint64) (*ValidationConfig, error) {
	var cfg ValidationConfig
	err := s.DB.WithContext(ctx).First(&cfg, "guild_id = ?", guildID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("fetching validation config: %w", err)
	}
	return &cfg, nil
}

func (s *Store) SaveValidation(ctx context.Context, cfg *ValidationConfig) error {
	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"validation_role_id", "validation_channel_id", "is_propagated", "updated_at"}),
	}).Create(cfg)
	if res.Error != nil {
		return fmt.Errorf("saving validation config: %w", res.Error)
	}
	return nil
}

func (s *Store) PropagatedValidations(ctx context.Context) ([]ValidationConfig, error) {
	var out []ValidationConfig
	if err := s.DB.WithContext(ctx).Where("is_propagated = ?", true).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing propagated validation configs: %w", err)
	}
	return out, nil
}

func (s *Store) Admin(ctx context.Context, guildID uint64) (*AdminConfig, error) {
	var cfg AdminConfig
	err := s.DB.WithContext(ctx).First(&cfg, "guild_id = ?", guildID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("fetching admin config: %w", err)
	}
	return &cfg, nil
}

func (s *Store) SaveAdmin(ctx context.Context, cfg *AdminConfig) error {
	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"source_bans", "updated_at"}),
	}).Create(cfg)
	if res.Error != nil {
		return fmt.Errorf("saving admin config: %w", res.Error)
	}
	return nil
}

func (s *Store) loggingField() []byte {
	return []byte{kvstore.GuildConfigLogging}
}

func (s *Store) Logging(ctx context.Context, guildID uint64) (LoggingConfig, error) {
	raw, err := s.KV.HGet(ctx, s.configNS.Key(guildID), s.loggingField())
	if err != nil {
		return LoggingConfig{}, fmt.Errorf("fetching logging config: %w", err)
	}
	if raw == nil {
		return LoggingConfig{}, nil
	}
	return loggingCodec.Decode(raw)
}

func (s *Store) SaveLogging(ctx context.Context, guildID uint64, cfg LoggingConfig) error {
	val, err := loggingCodec.Encode(cfg)
	if err != nil {
		return err
	}
	tx := kvstore.NewTx()
	tx.HSet(s.configNS.Key(guildID), s.loggingField(), val)
	if _, err := s.KV.Exec(ctx, tx); err != nil {
		return fmt.Errorf("saving logging config: %w", err)
	}
	return nil
}

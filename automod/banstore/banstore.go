package banstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/houraiteahouse/hourai/automod/kvstore"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultTTL = 300 * time.Second
	// max number of hash fields written per HSET
	MaxChunkSize = 1024
)

var tracer = otel.Tracer("banstore")

// Snapshot of the guild a ban came from.
type Guild struct {
	ID          uint64
	MemberCount int
	// bot accounts in the member cache; subtracted from MemberCount to estimate real users
	CachedBots int
	// whether the bot holds the ban members permission
	CanViewBans bool
}

// Approximate count of real, non-bot users.
func (g Guild) Size() uint32 {
	n := g.MemberCount - g.CachedBots
	if n < 0 {
		return 0
	}
	return uint32(n)
}

// A ban as reported by the platform.
type Ban struct {
	UserID uint64
	// empty if the account has no avatar
	Avatar string
	Reason *string
}

// Reports whether a guild has opted out of having its bans used elsewhere.
type BlockedChecker interface {
	IsGuildBlocked(ctx context.Context, guildID uint64) (bool, error)
}

type BanStore struct {
	Store   kvstore.KVStore
	TTL     time.Duration
	Blocked BlockedChecker
	Logger  *slog.Logger

	guildNS kvstore.Namespace
	userNS  kvstore.Namespace
}

func NewBanStore(store kvstore.KVStore, reg *kvstore.Registry, blocked BlockedChecker, logger *slog.Logger) (*BanStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	guildNS, ok := reg.Lookup(kvstore.NamespaceGuildBans)
	if !ok {
		return nil, fmt.Errorf("registry missing namespace: %s", kvstore.NamespaceGuildBans)
	}
	userNS, ok := reg.Lookup(kvstore.NamespaceUserBans)
	if !ok {
		return nil, fmt.Errorf("registry missing namespace: %s", kvstore.NamespaceUserBans)
	}
	return &BanStore{
		Store:   store,
		TTL:     DefaultTTL,
		Blocked: blocked,
		Logger:  logger.With("component", "banstore"),
		guildNS: guildNS,
		userNS:  userNS,
	}, nil
}

func (s *BanStore) IsGuildBlocked(ctx context.Context, guildID uint64) (bool, error) {
	if s.Blocked == nil {
		return false, nil
	}
	return s.Blocked.IsGuildBlocked(ctx, guildID)
}

func (s *BanStore) encode(g Guild, ban Ban, blocked bool) ([]byte, error) {
	rec := BanRecord{
		GuildID:      g.ID,
		UserID:       ban.UserID,
		Reason:       ban.Reason,
		GuildSize:    g.Size(),
		GuildBlocked: blocked,
	}
	if ban.Avatar != "" {
		rec.Avatar = []byte(ban.Avatar)
	}
	return recordCodec.Encode(rec)
}

// Stores a single ban, refreshing the TTL on both indices.
func (s *BanStore) SaveBan(ctx context.Context, g Guild, ban Ban) error {
	ctx, span := tracer.Start(ctx, "SaveBan")
	defer span.End()
	span.SetAttributes(attribute.Int64("guild", int64(g.ID)))

	blocked, err := s.IsGuildBlocked(ctx, g.ID)
	if err != nil {
		return fmt.Errorf("checking guild block status: %w", err)
	}
	val, err := s.encode(g, ban, blocked)
	if err != nil {
		return err
	}
	guildKey := s.guildNS.Key(g.ID)
	userKey := s.userNS.Key(ban.UserID)

	tx := kvstore.NewTx()
	tx.HSet(guildKey, kvstore.EncodeID(ban.UserID), val)
	tx.SAdd(userKey, guildKey)
	tx.Expire(guildKey, s.TTL)
	tx.Expire(userKey, s.TTL)
	if _, err := s.Store.Exec(ctx, tx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("saving ban: %w", err)
	}
	bansSavedCount.Add(1)
	return nil
}

// Replaces the stored ban list of a guild. Does nothing if the bot cannot view bans in the guild, or the list is empty.
func (s *BanStore) SaveBans(ctx context.Context, g Guild, bans []Ban) error {
	if !g.CanViewBans || len(bans) == 0 {
		return nil
	}
	ctx, span := tracer.Start(ctx, "SaveBans")
	defer span.End()
	span.SetAttributes(attribute.Int64("guild", int64(g.ID)), attribute.Int("count", len(bans)))

	blocked, err := s.IsGuildBlocked(ctx, g.ID)
	if err != nil {
		return fmt.Errorf("checking guild block status: %w", err)
	}
	guildKey := s.guildNS.Key(g.ID)

	tx := kvstore.NewTx()
	// drop entries for users unbanned since the last sync
	tx.Delete(guildKey)
	chunk := make(map[string][]byte, min(len(bans), MaxChunkSize))
	for _, ban := range bans {
		val, err := s.encode(g, ban, blocked)
		if err != nil {
			return err
		}
		chunk[string(kvstore.EncodeID(ban.UserID))] = val
		if len(chunk) >= MaxChunkSize {
			tx.HSetMany(guildKey, chunk)
			chunk = make(map[string][]byte, MaxChunkSize)
		}
	}
	tx.HSetMany(guildKey, chunk)
	for _, ban := range bans {
		userKey := s.userNS.Key(ban.UserID)
		tx.SAdd(userKey, guildKey)
		tx.Expire(userKey, s.TTL)
	}
	tx.Expire(guildKey, s.TTL)

	if _, err := s.Store.Exec(ctx, tx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("saving guild bans: %w", err)
	}
	bansSavedCount.Add(float64(len(bans)))
	return nil
}

func (s *BanStore) GetGuildBans(ctx context.Context, guildID uint64) ([]BanRecord, error) {
	raw, err := s.Store.HGetAll(ctx, s.guildNS.Key(guildID))
	if err != nil {
		return nil, fmt.Errorf("fetching guild bans: %w", err)
	}
	out := make([]BanRecord, 0, len(raw))
	for _, val := range raw {
		rec, err := recordCodec.Decode(val)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Returns every stored ban of the user, across all guilds. Guild indices which have since expired are skipped.
func (s *BanStore) GetUserBans(ctx context.Context, userID uint64) ([]BanRecord, error) {
	guildKeys, err := s.Store.SMembers(ctx, s.userNS.Key(userID))
	if err != nil {
		return nil, fmt.Errorf("fetching user ban index: %w", err)
	}
	if len(guildKeys) == 0 {
		return []BanRecord{}, nil
	}

	field := kvstore.EncodeID(userID)
	tx := kvstore.NewTx()
	for _, k := range guildKeys {
		tx.HGet(k, field)
	}
	replies, err := s.Store.Exec(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("fetching user bans: %w", err)
	}
	out := make([]BanRecord, 0, len(replies))
	for _, r := range replies {
		if !r.Found {
			continue
		}
		rec, err := recordCodec.Decode(r.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Removes all bans of a guild from both indices. Used when the bot leaves the guild.
func (s *BanStore) ClearGuild(ctx context.Context, guildID uint64) error {
	guildKey := s.guildNS.Key(guildID)
	raw, err := s.Store.HGetAll(ctx, guildKey)
	if err != nil {
		return fmt.Errorf("fetching guild bans: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}
	tx := kvstore.NewTx()
	tx.Delete(guildKey)
	for field := range raw {
		userID, err := kvstore.DecodeID([]byte(field))
		if err != nil {
			s.Logger.Warn("skipping malformed ban field", "guild", guildID, "err", err)
			continue
		}
		tx.SRem(s.userNS.Key(userID), guildKey)
	}
	if _, err := s.Store.Exec(ctx, tx); err != nil {
		return fmt.Errorf("clearing guild bans: %w", err)
	}
	return nil
}

func (s *BanStore) ClearBan(ctx context.Context, guildID, userID uint64) error {
	guildKey := s.guildNS.Key(guildID)
	tx := kvstore.NewTx()
	tx.HDel(guildKey, kvstore.EncodeID(userID))
	tx.SRem(s.userNS.Key(userID), guildKey)
	if _, err := s.Store.Exec(ctx, tx); err != nil {
		return fmt.Errorf("clearing ban: %w", err)
	}
	return nil
}

package kvstore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
)

// Top level prefixes in the root keyspace.
const (
	// persistent per-guild data, stored as one hash per guild with a sub-prefix byte per config type
	PrefixGuildConfigs byte = 1
	// ephemeral ban data, always written with an expiration
	PrefixBans byte = 2
)

// Sub-type bytes under PrefixBans.
const (
	SubtypeGuildBans byte = 0
	SubtypeUserBans  byte = 1
)

// Field bytes inside a guild config hash.
const (
	GuildConfigAuto       byte = 0
	GuildConfigModeration byte = 1
	GuildConfigLogging    byte = 2
	GuildConfigValidation byte = 3
)

// Names used in DefaultRegistry
const (
	NamespaceGuildConfigs = "guild_configs"
	NamespaceGuildBans    = "guild_bans"
	NamespaceUserBans     = "user_bans"
)

// A registered, fixed-width key prefix for one logical entity type.
type Namespace struct {
	Name   string
	Prefix []byte
}

// Builds the full key for an entity: the namespace prefix followed by the 8-byte big-endian id.
func (ns Namespace) Key(id uint64) []byte {
	out := make([]byte, len(ns.Prefix), len(ns.Prefix)+8)
	copy(out, ns.Prefix)
	return binary.BigEndian.AppendUint64(out, id)
}

// Inverse of Key. Errors if the key does not belong to this namespace.
func (ns Namespace) ParseKey(key []byte) (uint64, error) {
	if !bytes.HasPrefix(key, ns.Prefix) {
		return 0, fmt.Errorf("key %x not in namespace %s", key, ns.Name)
	}
	return DecodeID(key[len(ns.Prefix):])
}

func EncodeID(id uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, id)
}

func DecodeID(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("invalid encoded id length: %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// Registry of key namespaces. Registration fails on duplicate names, and on any prefix which is a prefix of another registered one (which would make keys ambiguous).
type Registry struct {
	mu     sync.Mutex
	byName map[string]Namespace
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Namespace),
	}
}

func (r *Registry) Register(name string, prefix ...byte) (Namespace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" || len(prefix) == 0 {
		return Namespace{}, fmt.Errorf("namespace requires a name and at least one prefix byte")
	}
	if _, ok := r.byName[name]; ok {
		return Namespace{}, fmt.Errorf("namespace already registered: %s", name)
	}
	for _, other := range r.byName {
		if bytes.HasPrefix(other.Prefix, prefix) || bytes.HasPrefix(prefix, other.Prefix) {
			return Namespace{}, fmt.Errorf("namespace %s prefix %x collides with %s (%x)", name, prefix, other.Name, other.Prefix)
		}
	}
	ns := Namespace{Name: name, Prefix: append([]byte(nil), prefix...)}
	r.byName[name] = ns
	return ns, nil
}

func (r *Registry) Lookup(name string) (Namespace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ns, ok := r.byName[name]
	return ns, ok
}

// Like Lookup, but panics on unknown names. Intended for wiring at startup.
func (r *Registry) MustLookup(name string) Namespace {
	ns, ok := r.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("unregistered kvstore namespace: %s", name))
	}
	return ns
}

// Registry with the namespaces used by the bot. The byte layout matches data written by earlier deployments.
func DefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	for _, ns := range []struct {
		name   string
		prefix []byte
	}{
		{NamespaceGuildConfigs, []byte{PrefixGuildConfigs}},
		{NamespaceGuildBans, []byte{PrefixBans, SubtypeGuildBans}},
		{NamespaceUserBans, []byte{PrefixBans, SubtypeUserBans}},
	} {
		if _, err := r.Register(ns.name, ns.prefix...); err != nil {
			return nil, err
		}
	}
	return r, nil
}

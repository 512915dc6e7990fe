package kvstore

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type entryKind int

const (
	kindString entryKind = iota + 1
	kindHash
	kindSet
)

type memEntry struct {
	kind    entryKind
	str     []byte
	hash    map[string][]byte
	set     map[string]struct{}
	expires time.Time // zero means no expiration
}

// In-process KVStore. Mirrors the redis semantics the rest of automod relies on: empty hashes and sets disappear, writes to an existing hash or set keep its TTL, and plain Set replaces the TTL.
type MemStore struct {
	// Overridable for tests
	Now func() time.Time

	mu   sync.Mutex
	data map[string]*memEntry
}

var _ KVStore = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		Now:  time.Now,
		data: make(map[string]*memEntry),
	}
}

// must hold lock
func (s *MemStore) lookup(key string) *memEntry {
	e, ok := s.data[key]
	if !ok {
		return nil
	}
	if !e.expires.IsZero() && !s.Now().Before(e.expires) {
		delete(s.data, key)
		return nil
	}
	return e
}

func (s *MemStore) Get(ctx context.Context, key []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.lookup(string(key))
	if e == nil {
		return nil, nil
	}
	if e.kind != kindString {
		return nil, ErrWrongType
	}
	return cloneBytes(e.str), nil
}

func (s *MemStore) Set(ctx context.Context, key, val []byte, ttl time.Duration) error {
	tx := NewTx()
	tx.Set(key, val, ttl)
	_, err := s.Exec(ctx, tx)
	return err
}

func (s *MemStore) Delete(ctx context.Context, keys ...[]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, string(k))
	}
	return nil
}

func (s *MemStore) Expire(ctx context.Context, key []byte, ttl time.Duration) error {
	tx := NewTx()
	tx.Expire(key, ttl)
	_, err := s.Exec(ctx, tx)
	return err
}

func (s *MemStore) HGet(ctx context.Context, key, field []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.lookup(string(key))
	if e == nil {
		return nil, nil
	}
	if e.kind != kindHash {
		return nil, ErrWrongType
	}
	v, ok := e.hash[string(field)]
	if !ok {
		return nil, nil
	}
	return cloneBytes(v), nil
}

func (s *MemStore) HGetAll(ctx context.Context, key []byte) (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.lookup(string(key))
	if e == nil {
		return nil, nil
	}
	if e.kind != kindHash {
		return nil, ErrWrongType
	}
	out := make(map[string][]byte, len(e.hash))
	for f, v := range e.hash {
		out[f] = cloneBytes(v)
	}
	return out, nil
}

func (s *MemStore) SMembers(ctx context.Context, key []byte) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.lookup(string(key))
	if e == nil {
		return nil, nil
	}
	if e.kind != kindSet {
		return nil, ErrWrongType
	}
	out := make([][]byte, 0, len(e.set))
	for m := range e.set {
		out = append(out, []byte(m))
	}
	return out, nil
}

func (s *MemStore) Exec(ctx context.Context, tx *Tx) ([]Reply, error) {
	if tx == nil || tx.Len() == 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// type-check the whole batch before mutating anything, so a bad op leaves the store untouched
	if err := s.check(tx); err != nil {
		return nil, err
	}

	replies := make([]Reply, len(tx.ops))
	for i, o := range tx.ops {
		key := string(o.key)
		switch o.kind {
		case opSet:
			e := &memEntry{kind: kindString, str: cloneBytes(o.val)}
			if o.ttl > 0 {
				e.expires = s.Now().Add(o.ttl)
			}
			s.data[key] = e
		case opDelete:
			delete(s.data, key)
		case opExpire:
			if e := s.lookup(key); e != nil {
				if o.ttl <= 0 {
					delete(s.data, key)
				} else {
					e.expires = s.Now().Add(o.ttl)
				}
			}
		case opHSet:
			e := s.ensure(key, kindHash)
			e.hash[string(o.field)] = cloneBytes(o.val)
		case opHSetMany:
			e := s.ensure(key, kindHash)
			for f, v := range o.fields {
				e.hash[f] = cloneBytes(v)
			}
		case opHGet:
			if e := s.lookup(key); e != nil {
				if v, ok := e.hash[string(o.field)]; ok {
					replies[i] = Reply{Value: cloneBytes(v), Found: true}
				}
			}
		case opHDel:
			if e := s.lookup(key); e != nil {
				delete(e.hash, string(o.field))
				if len(e.hash) == 0 {
					delete(s.data, key)
				}
			}
		case opSAdd:
			e := s.ensure(key, kindSet)
			e.set[string(o.val)] = struct{}{}
		case opSRem:
			if e := s.lookup(key); e != nil {
				delete(e.set, string(o.val))
				if len(e.set) == 0 {
					delete(s.data, key)
				}
			}
		}
	}
	return replies, nil
}

// must hold lock
func (s *MemStore) check(tx *Tx) error {
	kinds := make(map[string]entryKind)
	for _, o := range tx.ops {
		key := string(o.key)
		want := opEntryKind(o.kind)
		have, seen := kinds[key]
		if !seen {
			if e := s.lookup(key); e != nil {
				have = e.kind
			}
		}
		switch o.kind {
		case opSet:
			kinds[key] = kindString
			continue
		case opDelete:
			kinds[key] = 0
			continue
		case opExpire:
			continue
		}
		if have != 0 && have != want {
			return fmt.Errorf("%w: key %x", ErrWrongType, o.key)
		}
		if have == 0 && (o.kind == opHSet || o.kind == opHSetMany || o.kind == opSAdd) {
			kinds[key] = want
		} else if !seen {
			kinds[key] = have
		}
	}
	return nil
}

// must hold lock
func (s *MemStore) ensure(key string, kind entryKind) *memEntry {
	e := s.lookup(key)
	if e == nil {
		e = &memEntry{kind: kind}
		s.data[key] = e
	}
	switch kind {
	case kindHash:
		if e.hash == nil {
			e.hash = make(map[string][]byte)
		}
	case kindSet:
		if e.set == nil {
			e.set = make(map[string]struct{})
		}
	}
	return e
}

func opEntryKind(k opKind) entryKind {
	switch k {
	case opHSet, opHSetMany, opHGet, opHDel:
		return kindHash
	case opSAdd, opSRem:
		return kindSet
	default:
		return kindString
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

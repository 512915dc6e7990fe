package kvstore

import (
	"context"
	"errors"
	"time"
)

var ErrWrongType = errors.New("kvstore: operation against a key holding the wrong kind of value")

type KVStore interface {
	// Returns nil (and no error) if the key is absent or expired.
	Get(ctx context.Context, key []byte) ([]byte, error)
	// A ttl of zero stores the value without expiration.
	Set(ctx context.Context, key, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...[]byte) error
	Expire(ctx context.Context, key []byte, ttl time.Duration) error
	HGet(ctx context.Context, key, field []byte) ([]byte, error)
	// Returns an empty (nil) map if the key is absent.
	HGetAll(ctx context.Context, key []byte) (map[string][]byte, error)
	SMembers(ctx context.Context, key []byte) ([][]byte, error)
	// Applies every queued operation atomically. The returned slice has one Reply per operation, in queue order.
	Exec(ctx context.Context, tx *Tx) ([]Reply, error)
}

type opKind int

const (
	opSet opKind = iota
	opDelete
	opExpire
	opHSet
	opHSetMany
	opHGet
	opHDel
	opSAdd
	opSRem
)

type op struct {
	kind   opKind
	key    []byte
	field  []byte
	val    []byte
	fields map[string][]byte
	ttl    time.Duration
}

// Ordered batch of store operations, applied all-or-nothing by KVStore.Exec.
//
// A Tx is not safe for concurrent use; build it in one goroutine then hand it to Exec.
type Tx struct {
	ops []op
}

func NewTx() *Tx {
	return &Tx{}
}

// Number of queued operations
func (tx *Tx) Len() int {
	return len(tx.ops)
}

func (tx *Tx) Set(key, val []byte, ttl time.Duration) {
	tx.ops = append(tx.ops, op{kind: opSet, key: key, val: val, ttl: ttl})
}

func (tx *Tx) Delete(key []byte) {
	tx.ops = append(tx.ops, op{kind: opDelete, key: key})
}

func (tx *Tx) Expire(key []byte, ttl time.Duration) {
	tx.ops = append(tx.ops, op{kind: opExpire, key: key, ttl: ttl})
}

func (tx *Tx) HSet(key, field, val []byte) {
	tx.ops = append(tx.ops, op{kind: opHSet, key: key, field: field, val: val})
}

// Writes many fields of one hash as a single operation. An empty map is a no-op.
func (tx *Tx) HSetMany(key []byte, fields map[string][]byte) {
	if len(fields) == 0 {
		return
	}
	tx.ops = append(tx.ops, op{kind: opHSetMany, key: key, fields: fields})
}

// Queues a read; the value shows up in the matching Reply.
func (tx *Tx) HGet(key, field []byte) {
	tx.ops = append(tx.ops, op{kind: opHGet, key: key, field: field})
}

func (tx *Tx) HDel(key, field []byte) {
	tx.ops = append(tx.ops, op{kind: opHDel, key: key, field: field})
}

func (tx *Tx) SAdd(key, member []byte) {
	tx.ops = append(tx.ops, op{kind: opSAdd, key: key, val: member})
}

func (tx *Tx) SRem(key, member []byte) {
	tx.ops = append(tx.ops, op{kind: opSRem, key: key, val: member})
}

// Result of a single operation inside a Tx. Only reads (HGet) populate Value.
type Reply struct {
	Value []byte
	Found bool
}

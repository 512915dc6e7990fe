// Automod component for namespaced, expiring key-value state.
//
// Keys are binary-safe byte strings; values are opaque bytes produced by a pluggable Codec. A key may hold a plain value, a hash of field/value pairs, or a set of members; a single TTL governs everything stored under one key.
//
// Includes an interface and implementations using redis and in-process memory. Multi-key writes go through Exec, which applies a Tx atomically in a single round-trip.
package kvstore

// Automod component which mirrors guild ban lists into a kvstore, indexed both ways.
//
// Each guild has a hash of user id to encoded BanRecord, and each banned user has a set of the guild hash keys they appear in. Both indices are always written together in a single transaction, and both expire after the store TTL unless a resync refreshes them.
package banstore

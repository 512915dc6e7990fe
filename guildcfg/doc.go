// Per-guild configuration: which role and channel member validation uses, whether a guild shares its bans, and modlog settings.
//
// Validation and admin configs are rows in the SQL database (via gorm). Logging configs live in the key-value store, in the hash holding all of a guild's configs. CachedProvider puts a cachestore in front of the SQL reads, which happen on every member join.
package guildcfg

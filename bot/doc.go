/*
Package bot holds the moderation services which sit between platform events and the stores.

Validation handles member joins (running the validator chain and reporting to the modlog), keeps the ban cache in sync with ban/unban/guild-remove events, and implements the validation setup operations (Setup, Propagate, Lockdown) plus the periodic ReloadBans and PurgeUnverified jobs.

ModLogging reports deleted messages to the modlog and manages the logging config.

Neither service talks to the chat platform directly: everything goes through the Platform interface, which the discord package implements.
*/
package bot

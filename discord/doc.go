// Discord implementation of bot.Platform, on top of a discordgo session.
//
// Reads (guild rosters, channels, presences) are answered from the discordgo state cache; writes go to the REST API. HTTP 403 and 404 responses are mapped to bot.ErrForbidden and bot.ErrNotFound.
package discord

package bot

import (
	"github.com/bwmarrin/discordgo"
)

const (
	permBanMembers     = discordgo.PermissionBanMembers
	permKickMembers    = discordgo.PermissionKickMembers
	permManageRoles    = discordgo.PermissionManageRoles
	permManageChannels = discordgo.PermissionManageChannels
	// bits toggled by Lockdown
	lockdownBits = discordgo.PermissionViewChannel | discordgo.PermissionVoiceConnect
)

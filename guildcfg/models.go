package guildcfg

import (
	"time"

	"github.com/houraiteahouse/hourai/automod/kvstore"

	"google.golang.org/protobuf/encoding/protowire"
)

type ValidationConfig struct {
	GuildID             uint64 `gorm:"primaryKey;autoIncrement:false" json:"guild_id"`
	ValidationRoleID    uint64 `json:"validation_role_id"`
	ValidationChannelID uint64 `json:"validation_channel_id"`
	// set once nearly every existing member holds the validation role; purging only happens after that
	IsPropagated bool      `gorm:"index" json:"is_propagated"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// A config is usable once both the role and the channel are set.
func (c *ValidationConfig) IsValid() bool {
	return c != nil && c.ValidationRoleID != 0 && c.ValidationChannelID != 0
}

type AdminConfig struct {
	GuildID uint64 `gorm:"primaryKey;autoIncrement:false" json:"guild_id"`
	// whether bans from this guild may be used when validating members of other guilds
	SourceBans bool      `json:"source_bans"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Guild opted out of ban sharing. Guilds with no admin config share by default.
func (c *AdminConfig) BlocksBans() bool {
	return c != nil && !c.SourceBans
}

type LoggingConfig struct {
	// zero if no modlog channel is configured
	ModlogChannelID    uint64
	LogDeletedMessages bool
}

const (
	fieldModlogChannel      protowire.Number = 1
	fieldLogDeletedMessages protowire.Number = 2
)

func (c *LoggingConfig) MarshalWire() []byte {
	var b []byte
	if c.ModlogChannelID != 0 {
		b = kvstore.AppendVarintField(b, fieldModlogChannel, c.ModlogChannelID)
	}
	if c.LogDeletedMessages {
		b = kvstore.AppendBoolField(b, fieldLogDeletedMessages, true)
	}
	return b
}

func (c *LoggingConfig) UnmarshalWire(b []byte) error {
	fields, err := kvstore.ParseWire(b)
	if err != nil {
		return err
	}
	*c = LoggingConfig{}
	for _, f := range fields {
		switch f.Num {
		case fieldModlogChannel:
			c.ModlogChannelID = f.Varint
		case fieldLogDeletedMessages:
			c.LogDeletedMessages = protowire.DecodeBool(f.Varint)
		}
	}
	return nil
}

var loggingCodec = kvstore.Compressed(kvstore.WireCodec[LoggingConfig]())

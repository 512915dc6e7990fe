package banstore

import (
	"fmt"

	"github.com/houraiteahouse/hourai/automod/kvstore"

	"google.golang.org/protobuf/encoding/protowire"
)

// wire field numbers. stable; records written by earlier versions must still decode
const (
	fieldGuildID      protowire.Number = 1
	fieldUserID       protowire.Number = 2
	fieldAvatar       protowire.Number = 3
	fieldReason       protowire.Number = 4
	fieldGuildSize    protowire.Number = 5
	fieldGuildBlocked protowire.Number = 6
)

// One ban of one user in one guild, as seen by the bot.
type BanRecord struct {
	GuildID uint64
	UserID  uint64
	// avatar hash of the banned account, nil if the account had none
	Avatar []byte
	// nil if the moderator gave no reason
	Reason *string
	// approximate count of non-bot members at the time of the ban
	GuildSize uint32
	// guild has opted out of sharing its bans
	GuildBlocked bool
}

func (r *BanRecord) MarshalWire() []byte {
	var b []byte
	if r.GuildID != 0 {
		b = kvstore.AppendVarintField(b, fieldGuildID, r.GuildID)
	}
	if r.UserID != 0 {
		b = kvstore.AppendVarintField(b, fieldUserID, r.UserID)
	}
	if r.Avatar != nil {
		b = kvstore.AppendBytesField(b, fieldAvatar, r.Avatar)
	}
	if r.Reason != nil {
		b = kvstore.AppendBytesField(b, fieldReason, []byte(*r.Reason))
	}
	if r.GuildSize != 0 {
		b = kvstore.AppendVarintField(b, fieldGuildSize, uint64(r.GuildSize))
	}
	if r.GuildBlocked {
		b = kvstore.AppendBoolField(b, fieldGuildBlocked, true)
	}
	return b
}

func (r *BanRecord) UnmarshalWire(b []byte) error {
	fields, err := kvstore.ParseWire(b)
	if err != nil {
		return fmt.Errorf("decoding ban record: %w", err)
	}
	*r = BanRecord{}
	for _, f := range fields {
		switch f.Num {
		case fieldGuildID:
			r.GuildID = f.Varint
		case fieldUserID:
			r.UserID = f.Varint
		case fieldAvatar:
			r.Avatar = f.Bytes
		case fieldReason:
			reason := string(f.Bytes)
			r.Reason = &reason
		case fieldGuildSize:
			r.GuildSize = uint32(f.Varint)
		case fieldGuildBlocked:
			r.GuildBlocked = protowire.DecodeBool(f.Varint)
		}
	}
	return nil
}

// Codec used for stored values: protobuf wire format, zlib compressed.
var recordCodec = kvstore.Compressed(kvstore.WireCodec[BanRecord]())

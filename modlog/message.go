package modlog

import (
	"fmt"
	"strings"
	"time"
)

// Embed colors, as 24-bit RGB
const (
	ColorDarkRed = 0x992d22
	ColorGreen   = 0x2ecc71
	ColorOrange  = 0xe67e22
)

type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// Minimal rich embed. Only the parts the bot actually uses.
type Embed struct {
	Title       string
	Description string
	AuthorName  string
	Color       int
	Fields      []EmbedField
	Footer      string
	Timestamp   time.Time
}

func (e *Embed) AddField(name, value string) {
	e.Fields = append(e.Fields, EmbedField{Name: name, Value: value})
}

type Message struct {
	Content string
	// optional
	Embed *Embed
}

// What the platform cache retained about a message before it was deleted.
type CachedMessage struct {
	ID          uint64
	ChannelID   uint64
	AuthorID    uint64
	AuthorName  string
	AuthorBot   bool
	Content     string
	Attachments []string // urls
	Timestamp   time.Time
}

func UserMention(id uint64) string {
	return fmt.Sprintf("<@%d>", id)
}

func ChannelMention(id uint64) string {
	return fmt.Sprintf("<#%d>", id)
}

func RoleMention(id uint64) string {
	return fmt.Sprintf("<@&%d>", id)
}

func BulletList(items []string) string {
	var sb strings.Builder
	for i, it := range items {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("- ")
		sb.WriteString(it)
	}
	return sb.String()
}

func VerticalList(items []string) string {
	return strings.Join(items, "\n")
}

func messageEmbed(messageID uint64, msg *CachedMessage) *Embed {
	e := &Embed{
		Color:  ColorDarkRed,
		Footer: fmt.Sprintf("Message ID: %d", messageID),
	}
	if msg != nil {
		e.AuthorName = msg.AuthorName
		e.Description = msg.Content
		e.Timestamp = msg.Timestamp
	}
	return e
}

// Modlog entry for a deleted message. msg is nil when the message was not in the cache. The boolean is false when nothing should be logged (messages by bots).
func DeletedMessage(channelID, messageID uint64, msg *CachedMessage) (Message, bool) {
	embed := messageEmbed(messageID, msg)
	if msg == nil {
		return Message{
			Content: fmt.Sprintf("Message deleted in %s.", ChannelMention(channelID)),
			Embed:   embed,
		}, true
	}
	if msg.AuthorBot {
		return Message{}, false
	}
	if len(msg.Attachments) > 0 {
		embed.AddField("Attachments", VerticalList(msg.Attachments))
	}
	return Message{
		Content: fmt.Sprintf("Message by %s deleted in %s.", UserMention(msg.AuthorID), ChannelMention(channelID)),
		Embed:   embed,
	}, true
}

func BulkDeleted(channelID uint64, count int) Message {
	return Message{
		Content: fmt.Sprintf("%d messages bulk deleted in %s.", count, ChannelMention(channelID)),
	}
}

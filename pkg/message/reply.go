package message

import "github.com/samber/mo"

// ReplyMessage is an outbound reply addressed back to the channel a ChatMessage came from.
type ReplyMessage struct {
	authorID  uint64
	channelID uint64
	guildID   mo.Option[uint64]
	reply     string
}

// NewReplyMessage addresses reply to the author, channel and guild of msg.
func NewReplyMessage(msg *ChatMessage, reply string) *ReplyMessage {
	return &ReplyMessage{
		authorID:  msg.AuthorID(),
		channelID: msg.ChannelID(),
		guildID:   msg.GuildID(),
		reply:     reply,
	}
}

func (r *ReplyMessage) AuthorID() uint64 { return r.authorID }
func (r *ReplyMessage) ChannelID() uint64 { return r.channelID }
func (r *ReplyMessage) GuildID() mo.Option[uint64] { return r.guildID }
func (r *ReplyMessage) Reply() string { return r.reply }

// NewMessage is the minimal send instruction consumed by the relay: which channel, what text.
type NewMessage struct {
	ChannelID uint64 `json:"ChannelId"`
	Content   string `json:"Content"`
}

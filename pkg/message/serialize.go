package message

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/mo"
)

// chatMessageWire is the queue representation of a ChatMessage.
type chatMessageWire struct {
	MessageID           uint64        `json:"MessageId"`
	AuthorID            uint64        `json:"AuthorId"`
	ChannelID           uint64        `json:"ChannelId"`
	GuildID             *uint64       `json:"GuildId"`
	Source              MessageSource `json:"Source"`
	Content             *string       `json:"Content"`
	CreatedAt           time.Time     `json:"CreatedAt"`
	IsPinned            bool          `json:"IsPinned"`
	MentionedChannelIDs []uint64      `json:"MentionedChannelIDs"`
	MentionedRoleIDs    []uint64      `json:"MentionedRoleIDs"`
	MentionedUserIDs    []uint64      `json:"MentionedUserIDs"`
	AttachmentIDs       []uint64      `json:"AttachmentIDs"`
}

type replyMessageWire struct {
	AuthorID  uint64  `json:"AuthorId"`
	ChannelID uint64  `json:"ChannelId"`
	GuildID   *uint64 `json:"GuildId"`
	Reply     string  `json:"Reply"`
}

type newMessageWire struct {
	ChannelID *uint64 `json:"ChannelId"`
	Content   *string `json:"Content"`
}

// ErrMalformedPayload is returned when a payload is valid JSON but not the expected shape.
var ErrMalformedPayload = errors.New("malformed payload")

// guildPtr renders an absent guild as JSON null.
func guildPtr(o mo.Option[uint64]) *uint64 {
	if v, ok := o.Get(); ok {
		return &v
	}
	return nil
}

func guildOption(p *uint64) mo.Option[uint64] {
	if p == nil {
		return mo.None[uint64]()
	}
	return mo.Some(*p)
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

// MarshalJSON implements json.Marshaler.
func (m *ChatMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(chatMessageWire{
		MessageID:           m.messageID,
		AuthorID:            m.authorID,
		ChannelID:           m.channelID,
		GuildID:             guildPtr(m.guildID),
		Source:              m.source,
		Content:             &m.content,
		CreatedAt:           m.createdAt,
		IsPinned:            m.pinned,
		MentionedChannelIDs: cloneIDs(m.mentionedChannelIDs),
		MentionedRoleIDs:    cloneIDs(m.mentionedRoleIDs),
		MentionedUserIDs:    cloneIDs(m.mentionedUserIDs),
		AttachmentIDs:       cloneIDs(m.attachmentIDs),
	})
}

// UnmarshalJSON implements json.Unmarshaler. Missing or null collections decode as empty; a
// null document or a missing Content is rejected.
func (m *ChatMessage) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return errors.Wrap(ErrMalformedPayload, "chat message is null")
	}
	var w chatMessageWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Content == nil {
		return errors.Wrap(ErrMalformedPayload, "chat message has no Content")
	}
	*m = *NewChatMessage(ChatMessageFields{
		MessageID:           w.MessageID,
		AuthorID:            w.AuthorID,
		ChannelID:           w.ChannelID,
		GuildID:             guildOption(w.GuildID),
		Source:              w.Source,
		Content:             *w.Content,
		CreatedAt:           w.CreatedAt,
		Pinned:              w.IsPinned,
		MentionedChannelIDs: w.MentionedChannelIDs,
		MentionedRoleIDs:    w.MentionedRoleIDs,
		MentionedUserIDs:    w.MentionedUserIDs,
		AttachmentIDs:       w.AttachmentIDs,
	})
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r *ReplyMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(replyMessageWire{
		AuthorID:  r.authorID,
		ChannelID: r.channelID,
		GuildID:   guildPtr(r.guildID),
		Reply:     r.reply,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *ReplyMessage) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return errors.Wrap(ErrMalformedPayload, "reply message is null")
	}
	var w replyMessageWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = ReplyMessage{
		authorID:  w.AuthorID,
		channelID: w.ChannelID,
		guildID:   guildOption(w.GuildID),
		reply:     w.Reply,
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler. Both fields are required.
func (n *NewMessage) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return errors.Wrap(ErrMalformedPayload, "new message is null")
	}
	var w newMessageWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.ChannelID == nil || w.Content == nil {
		return errors.Wrap(ErrMalformedPayload, "new message needs ChannelId and Content")
	}
	*n = NewMessage{ChannelID: *w.ChannelID, Content: *w.Content}
	return nil
}

// String renders the message in its queue format.
func (m *ChatMessage) String() string {
	s, err := Serialize(m)
	if err != nil {
		return ""
	}
	return s
}

// String renders the reply in its queue format.
func (r *ReplyMessage) String() string {
	s, err := Serialize(r)
	if err != nil {
		return ""
	}
	return s
}

// Serialize renders v as a single-line JSON document for queue transport.
func Serialize(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "failed to serialize message")
	}
	return string(data), nil
}

// DeserializeChatMessage parses a storage queue payload.
func DeserializeChatMessage(payload string) (*ChatMessage, error) {
	var m ChatMessage
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return nil, errors.Wrap(err, "failed to deserialize chat message")
	}
	return &m, nil
}

// DeserializeReplyMessage parses a reply payload.
func DeserializeReplyMessage(payload string) (*ReplyMessage, error) {
	var r ReplyMessage
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, errors.Wrap(err, "failed to deserialize reply message")
	}
	return &r, nil
}

// DeserializeNewMessage parses a bus queue payload.
func DeserializeNewMessage(payload string) (*NewMessage, error) {
	var n NewMessage
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return nil, errors.Wrap(err, "failed to deserialize new message")
	}
	return &n, nil
}

package message

import (
	"slices"
	"time"

	"github.com/samber/mo"
)

// Inbound is the minimal capability set an upstream message representation must expose to be
// converted into a ChatMessage. Each gateway representation gets its own adapter.
type Inbound interface {
	ID() (uint64, error)
	AuthorID() (uint64, error)
	ChannelID() (uint64, error)
	GuildID() (mo.Option[uint64], error)
	Source() MessageSource
	Content() string
	CreatedAt() time.Time
	Pinned() bool
	MentionedChannelIDs() ([]uint64, error)
	MentionedRoleIDs() ([]uint64, error)
	MentionedUserIDs() ([]uint64, error)
	AttachmentIDs() ([]uint64, error)
}

// ChatMessage is the normalized inbound envelope placed on the storage queue.
// It is immutable; accessors return copies of the ID collections.
type ChatMessage struct {
	messageID           uint64
	authorID            uint64
	channelID           uint64
	guildID             mo.Option[uint64]
	source              MessageSource
	content             string
	createdAt           time.Time
	pinned              bool
	mentionedChannelIDs []uint64
	mentionedRoleIDs    []uint64
	mentionedUserIDs    []uint64
	attachmentIDs       []uint64
}

// ChatMessageFields carries the values for NewChatMessage.
type ChatMessageFields struct {
	MessageID           uint64
	AuthorID            uint64
	ChannelID           uint64
	GuildID             mo.Option[uint64]
	Source              MessageSource
	Content             string
	CreatedAt           time.Time
	Pinned              bool
	MentionedChannelIDs []uint64
	MentionedRoleIDs    []uint64
	MentionedUserIDs    []uint64
	AttachmentIDs       []uint64
}

// NewChatMessage builds a ChatMessage. Nil collections become empty ones.
func NewChatMessage(f ChatMessageFields) *ChatMessage {
	return &ChatMessage{
		messageID:           f.MessageID,
		authorID:            f.AuthorID,
		channelID:           f.ChannelID,
		guildID:             f.GuildID,
		source:              f.Source,
		content:             f.Content,
		createdAt:           f.CreatedAt,
		pinned:              f.Pinned,
		mentionedChannelIDs: cloneIDs(f.MentionedChannelIDs),
		mentionedRoleIDs:    cloneIDs(f.MentionedRoleIDs),
		mentionedUserIDs:    cloneIDs(f.MentionedUserIDs),
		attachmentIDs:       cloneIDs(f.AttachmentIDs),
	}
}

// Convert builds a ChatMessage from any upstream representation.
func Convert(in Inbound) (*ChatMessage, error) {
	var (
		f   ChatMessageFields
		err error
	)
	if f.MessageID, err = in.ID(); err != nil {
		return nil, err
	}
	if f.AuthorID, err = in.AuthorID(); err != nil {
		return nil, err
	}
	if f.ChannelID, err = in.ChannelID(); err != nil {
		return nil, err
	}
	if f.GuildID, err = in.GuildID(); err != nil {
		return nil, err
	}
	if f.MentionedChannelIDs, err = in.MentionedChannelIDs(); err != nil {
		return nil, err
	}
	if f.MentionedRoleIDs, err = in.MentionedRoleIDs(); err != nil {
		return nil, err
	}
	if f.MentionedUserIDs, err = in.MentionedUserIDs(); err != nil {
		return nil, err
	}
	if f.AttachmentIDs, err = in.AttachmentIDs(); err != nil {
		return nil, err
	}
	f.Source = in.Source()
	f.Content = in.Content()
	f.CreatedAt = in.CreatedAt()
	f.Pinned = in.Pinned()

	return NewChatMessage(f), nil
}

func (m *ChatMessage) MessageID() uint64 { return m.messageID }
func (m *ChatMessage) AuthorID() uint64 { return m.authorID }
func (m *ChatMessage) ChannelID() uint64 { return m.channelID }
func (m *ChatMessage) GuildID() mo.Option[uint64] { return m.guildID }
func (m *ChatMessage) Source() MessageSource { return m.source }
func (m *ChatMessage) Content() string { return m.content }
func (m *ChatMessage) CreatedAt() time.Time { return m.createdAt }
func (m *ChatMessage) IsPinned() bool { return m.pinned }
func (m *ChatMessage) MentionedChannelIDs() []uint64 { return cloneIDs(m.mentionedChannelIDs) }
func (m *ChatMessage) MentionedRoleIDs() []uint64 { return cloneIDs(m.mentionedRoleIDs) }
func (m *ChatMessage) MentionedUserIDs() []uint64 { return cloneIDs(m.mentionedUserIDs) }
func (m *ChatMessage) AttachmentIDs() []uint64 { return cloneIDs(m.attachmentIDs) }

// Fields returns a copy of the message's values.
func (m *ChatMessage) Fields() ChatMessageFields {
	return ChatMessageFields{
		MessageID:           m.messageID,
		AuthorID:            m.authorID,
		ChannelID:           m.channelID,
		GuildID:             m.guildID,
		Source:              m.source,
		Content:             m.content,
		CreatedAt:           m.createdAt,
		Pinned:              m.pinned,
		MentionedChannelIDs: m.MentionedChannelIDs(),
		MentionedRoleIDs:    m.MentionedRoleIDs(),
		MentionedUserIDs:    m.MentionedUserIDs(),
		AttachmentIDs:       m.AttachmentIDs(),
	}
}

func cloneIDs(ids []uint64) []uint64 {
	if ids == nil {
		return []uint64{}
	}
	return slices.Clone(ids)
}

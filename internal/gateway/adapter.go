package gateway

import (
	"regexp"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/samber/mo"

	"github.com/fpt/ping-relay/pkg/message"
)

// socketMessage adapts a MessageCreate gateway event to message.Inbound.
type socketMessage struct {
	event *discordgo.MessageCreate
}

// restMessage adapts a message fetched over REST. REST payloads omit guild_id, so the guild is
// taken from the resolved channel.
type restMessage struct {
	msg     *discordgo.Message
	channel *discordgo.Channel
}

var (
	_ message.Inbound = socketMessage{}
	_ message.Inbound = restMessage{}
)

func (s socketMessage) ID() (uint64, error) { return message.ParseSnowflake(s.event.ID) }
func (s socketMessage) AuthorID() (uint64, error) { return authorID(s.event.Message) }
func (s socketMessage) ChannelID() (uint64, error) { return message.ParseSnowflake(s.event.ChannelID) }
func (s socketMessage) GuildID() (mo.Option[uint64], error) {
	return optionalSnowflake(s.event.GuildID)
}
func (s socketMessage) Source() message.MessageSource { return sourceOf(s.event.Message) }
func (s socketMessage) Content() string { return s.event.Content }
func (s socketMessage) CreatedAt() time.Time { return s.event.Timestamp }
func (s socketMessage) Pinned() bool { return s.event.Pinned }
func (s socketMessage) MentionedChannelIDs() ([]uint64, error) {
	return mentionedChannels(s.event.Message)
}
func (s socketMessage) MentionedRoleIDs() ([]uint64, error) {
	return parseSnowflakes(s.event.MentionRoles)
}
func (s socketMessage) MentionedUserIDs() ([]uint64, error) { return mentionedUsers(s.event.Message) }
func (s socketMessage) AttachmentIDs() ([]uint64, error) { return attachments(s.event.Message) }

func (r restMessage) ID() (uint64, error) { return message.ParseSnowflake(r.msg.ID) }
func (r restMessage) AuthorID() (uint64, error) { return authorID(r.msg) }
func (r restMessage) ChannelID() (uint64, error) { return message.ParseSnowflake(r.msg.ChannelID) }
func (r restMessage) GuildID() (mo.Option[uint64], error) {
	if r.msg.GuildID != "" {
		return optionalSnowflake(r.msg.GuildID)
	}
	if r.channel == nil {
		return mo.None[uint64](), nil
	}
	return optionalSnowflake(r.channel.GuildID)
}
func (r restMessage) Source() message.MessageSource { return sourceOf(r.msg) }
func (r restMessage) Content() string { return r.msg.Content }
func (r restMessage) CreatedAt() time.Time { return r.msg.Timestamp }
func (r restMessage) Pinned() bool { return r.msg.Pinned }
func (r restMessage) MentionedChannelIDs() ([]uint64, error) {
	return mentionedChannels(r.msg)
}
func (r restMessage) MentionedRoleIDs() ([]uint64, error) { return parseSnowflakes(r.msg.MentionRoles) }
func (r restMessage) MentionedUserIDs() ([]uint64, error) { return mentionedUsers(r.msg) }
func (r restMessage) AttachmentIDs() ([]uint64, error) { return attachments(r.msg) }

func authorID(m *discordgo.Message) (uint64, error) {
	if m.Author == nil {
		return 0, errors.Wrapf(message.ErrInvalidSnowflake, "message %s has no author", m.ID)
	}
	return message.ParseSnowflake(m.Author.ID)
}

func optionalSnowflake(id string) (mo.Option[uint64], error) {
	if id == "" {
		return mo.None[uint64](), nil
	}
	v, err := message.ParseSnowflake(id)
	if err != nil {
		return mo.None[uint64](), err
	}
	return mo.Some(v), nil
}

// sourceOf classifies the author the way Discord does: webhook posts first, then bots, then
// system notices (join messages, pins, boosts and the like).
func sourceOf(m *discordgo.Message) message.MessageSource {
	switch {
	case m.WebhookID != "":
		return message.MessageSourceWebhook
	case m.Author != nil && m.Author.Bot:
		return message.MessageSourceBot
	case m.Author != nil && m.Author.System:
		return message.MessageSourceSystem
	case m.Type != discordgo.MessageTypeDefault && m.Type != discordgo.MessageTypeReply:
		return message.MessageSourceSystem
	default:
		return message.MessageSourceUser
	}
}

var channelMentionRe = regexp.MustCompile(`<#(\d+)>`)

// mentionedChannels merges channel tags in the content with any cross-post mentions Discord
// resolved, keeping first-seen order.
func mentionedChannels(m *discordgo.Message) ([]uint64, error) {
	var raw []string
	for _, match := range channelMentionRe.FindAllStringSubmatch(m.Content, -1) {
		raw = append(raw, match[1])
	}
	for _, ch := range m.MentionChannels {
		if ch != nil {
			raw = append(raw, ch.ID)
		}
	}
	ids, err := parseSnowflakes(raw)
	if err != nil {
		return nil, err
	}
	return dedupe(ids), nil
}

func mentionedUsers(m *discordgo.Message) ([]uint64, error) {
	raw := make([]string, 0, len(m.Mentions))
	for _, u := range m.Mentions {
		if u != nil {
			raw = append(raw, u.ID)
		}
	}
	return parseSnowflakes(raw)
}

func attachments(m *discordgo.Message) ([]uint64, error) {
	raw := make([]string, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		if a != nil {
			raw = append(raw, a.ID)
		}
	}
	return parseSnowflakes(raw)
}

func parseSnowflakes(raw []string) ([]uint64, error) {
	ids := make([]uint64, 0, len(raw))
	for _, s := range raw {
		id, err := message.ParseSnowflake(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

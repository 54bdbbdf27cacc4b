package gateway

import (
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/fpt/ping-relay/pkg/logger"
	"github.com/fpt/ping-relay/pkg/message"
)

// Client is the subset of the Discord gateway the listener and relay depend on.
type Client interface {
	Open() error
	Close() error
	// AddHandler registers a discordgo event handler and returns its remover.
	AddHandler(handler any) func()
	// Channel resolves a channel from the state cache, falling back to REST.
	Channel(channelID uint64) (*discordgo.Channel, error)
	// Message fetches a single message over REST.
	Message(channelID, messageID uint64) (*discordgo.Message, error)
	SendMessage(channelID uint64, content string) error
}

// DiscordClient implements Client over a discordgo session.
type DiscordClient struct {
	session *discordgo.Session
}

// NewDiscordClient creates a bot session with the message intents the listener needs.
func NewDiscordClient(token string, level logger.LogLevel) (*DiscordClient, error) {
	if token == "" {
		return nil, errors.New("bot token is required")
	}

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create discord session")
	}

	dg.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent
	dg.LogLevel = sessionLogLevel(level)

	return &DiscordClient{session: dg}, nil
}

func sessionLogLevel(level logger.LogLevel) int {
	switch level {
	case logger.LogLevelDebug:
		return discordgo.LogDebug
	case logger.LogLevelWarning:
		return discordgo.LogWarning
	case logger.LogLevelError:
		return discordgo.LogError
	default:
		return discordgo.LogInformational
	}
}

func (c *DiscordClient) Open() error {
	if err := c.session.Open(); err != nil {
		return errors.Wrap(err, "failed to open discord connection")
	}
	return nil
}

func (c *DiscordClient) Close() error {
	return c.session.Close()
}

func (c *DiscordClient) AddHandler(handler any) func() {
	return c.session.AddHandler(handler)
}

func (c *DiscordClient) Channel(channelID uint64) (*discordgo.Channel, error) {
	id := message.FormatSnowflake(channelID)
	if c.session.State != nil {
		if ch, err := c.session.State.Channel(id); err == nil {
			return ch, nil
		}
	}
	ch, err := c.session.Channel(id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch channel %s", id)
	}
	return ch, nil
}

func (c *DiscordClient) Message(channelID, messageID uint64) (*discordgo.Message, error) {
	m, err := c.session.ChannelMessage(message.FormatSnowflake(channelID), message.FormatSnowflake(messageID))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch message %d in channel %d", messageID, channelID)
	}
	return m, nil
}

func (c *DiscordClient) SendMessage(channelID uint64, content string) error {
	if _, err := c.session.ChannelMessageSend(message.FormatSnowflake(channelID), content); err != nil {
		return errors.Wrapf(err, "failed to send discord message to channel %d", channelID)
	}
	return nil
}

// IsTextChannel reports whether messages can be posted to ch. Guild text, news, threads and
// voice channels (which carry a text chat) qualify; DMs, categories and forums do not.
func IsTextChannel(ch *discordgo.Channel) bool {
	if ch == nil {
		return false
	}
	switch ch.Type {
	case discordgo.ChannelTypeGuildText,
		discordgo.ChannelTypeGuildNews,
		discordgo.ChannelTypeGuildNewsThread,
		discordgo.ChannelTypeGuildPublicThread,
		discordgo.ChannelTypeGuildPrivateThread,
		discordgo.ChannelTypeGuildVoice,
		discordgo.ChannelTypeGuildStageVoice:
		return true
	default:
		return false
	}
}

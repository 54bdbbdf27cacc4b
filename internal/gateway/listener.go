package gateway

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/fpt/ping-relay/internal/repository"
	"github.com/fpt/ping-relay/pkg/logger"
	"github.com/fpt/ping-relay/pkg/message"
)

// Listener forwards every gateway message onto the inbound queue.
type Listener struct {
	client     Client
	queue      repository.Queue
	ignoreBots bool
	logger     *logger.Logger
}

// NewListener creates a listener that enqueues onto queue.
func NewListener(client Client, queue repository.Queue, opts Options, log *logger.Logger) *Listener {
	return &Listener{
		client:     client,
		queue:      queue,
		ignoreBots: opts.IgnoreBots,
		logger:     log.WithComponent("listener").WithQueue(queue.Name()),
	}
}

// HandleMessageCreate is the MessageCreate handler. Failures are logged and the message is
// dropped; the listener never stops on a bad message.
func (l *Listener) HandleMessageCreate(ctx context.Context, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil {
		return
	}
	if l.ignoreBots && m.Author != nil && m.Author.Bot {
		l.logger.Debug("Ignoring bot message", "message_id", m.ID, "author", m.Author.ID)
		return
	}

	if _, err := l.enqueue(ctx, socketMessage{event: m}); err != nil {
		l.logger.Error("Failed to forward message", "message_id", m.ID, "channel_id", m.ChannelID, "error", err)
	}
}

// Replay fetches one message over REST and enqueues it exactly as the gateway handler would.
func (l *Listener) Replay(ctx context.Context, channelID, messageID uint64) (*repository.QueueItem, error) {
	ch, err := l.client.Channel(channelID)
	if err != nil {
		return nil, err
	}
	msg, err := l.client.Message(channelID, messageID)
	if err != nil {
		return nil, err
	}
	return l.enqueue(ctx, restMessage{msg: msg, channel: ch})
}

func (l *Listener) enqueue(ctx context.Context, in message.Inbound) (*repository.QueueItem, error) {
	msg, err := message.Convert(in)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert message")
	}
	body, err := message.Serialize(msg)
	if err != nil {
		return nil, err
	}

	item, err := l.queue.Send(ctx, body)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("Message enqueued", "message_id", msg.MessageID(), "sequence", item.SequenceNumber)
	return item, nil
}

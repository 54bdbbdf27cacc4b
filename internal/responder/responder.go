// Package responder answers queued chat messages. It is the queue-triggered half of the relay:
// one invocation per inbound item, an optional NewMessage payload as output.
package responder

import (
	"github.com/samber/mo"

	"github.com/fpt/ping-relay/internal/command"
	"github.com/fpt/ping-relay/pkg/logger"
	"github.com/fpt/ping-relay/pkg/message"
)

// Responder maps a serialized ChatMessage to an optional serialized NewMessage.
type Responder struct {
	commands command.Set
	logger   *logger.Logger
}

// New creates a responder for the default command set.
func New(log *logger.Logger) *Responder {
	return &Responder{
		commands: command.Default(),
		logger:   log.WithComponent("responder"),
	}
}

// Handle processes one inbound payload. A message that matches no command yields None. A
// payload that cannot be decoded is an error, which fails the invocation.
func (r *Responder) Handle(body string) (mo.Option[string], error) {
	msg, err := message.DeserializeChatMessage(body)
	if err != nil {
		return mo.None[string](), err
	}

	text, ok := r.commands.Lookup(msg.Content())
	if !ok {
		r.logger.Debug("No command matched", "message_id", msg.MessageID())
		return mo.None[string](), nil
	}

	reply := message.NewReplyMessage(msg, text)
	r.logger.Info("Replying", "reply", reply.String())

	out, err := message.Serialize(&message.NewMessage{ChannelID: reply.ChannelID(), Content: reply.Reply()})
	if err != nil {
		return mo.None[string](), err
	}
	return mo.Some(out), nil
}

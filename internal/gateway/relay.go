package gateway

import (
	"context"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/pkg/errors"

	"github.com/fpt/ping-relay/internal/repository"
	"github.com/fpt/ping-relay/pkg/logger"
	"github.com/fpt/ping-relay/pkg/message"
)

// ErrNotTextChannel is returned when the destination channel cannot carry text messages.
var ErrNotTextChannel = errors.New("channel is not a text channel")

// Relay consumes NewMessage payloads from the bus queue and posts them to Discord.
type Relay struct {
	client Client
	queue  repository.Queue
	opts   Options
	logger *logger.Logger
}

// NewRelay creates a relay reading from queue.
func NewRelay(client Client, queue repository.Queue, opts Options, log *logger.Logger) *Relay {
	return &Relay{
		client: client,
		queue:  queue,
		opts:   opts.withDefaults(),
		logger: log.WithComponent("relay").WithQueue(queue.Name()),
	}
}

// Run polls the bus queue until ctx is cancelled. At most MaxConcurrentCalls items are in
// flight; in-flight deliveries finish before Run returns.
func (r *Relay) Run(ctx context.Context) error {
	pool := workerpool.New(r.opts.MaxConcurrentCalls)
	defer pool.StopWait()

	slots := make(chan struct{}, r.opts.MaxConcurrentCalls)

	r.logger.Info("Relay started", "policy", r.opts.DeliveryPolicy, "max_concurrent_calls", r.opts.MaxConcurrentCalls)
	for {
		select {
		case <-ctx.Done():
			return nil
		case slots <- struct{}{}:
		}

		item, err := r.queue.Receive(ctx)
		if err != nil {
			<-slots
			if ctx.Err() != nil {
				return nil
			}
			if !errors.Is(err, repository.ErrNoMessage) {
				r.logger.Error("Failed to receive from bus queue", "error", err)
			}
			if !sleep(ctx, r.opts.PollInterval) {
				return nil
			}
			continue
		}

		pool.Submit(func() {
			defer func() { <-slots }()
			r.process(context.WithoutCancel(ctx), item)
		})
	}
}

func (r *Relay) process(ctx context.Context, item *repository.QueueItem) {
	r.logger.Info("Sending message", "sequence", item.SequenceNumber, "body", item.Body)

	err := r.Deliver(item.Body)
	if err != nil {
		r.logger.LogEvent(logger.SeverityError, "Self", "Error sending message", err)
	}

	if err != nil && r.opts.DeliveryPolicy == AtLeastOnce {
		if aerr := r.queue.Abandon(ctx, item); aerr != nil {
			r.logger.Error("Failed to abandon message", "sequence", item.SequenceNumber, "error", aerr)
		}
		return
	}
	if cerr := r.queue.Complete(ctx, item); cerr != nil {
		r.logger.Error("Failed to complete message", "sequence", item.SequenceNumber, "error", cerr)
	}
}

// Deliver posts one serialized NewMessage to its channel.
func (r *Relay) Deliver(body string) error {
	msg, err := message.DeserializeNewMessage(body)
	if err != nil {
		return err
	}

	ch, err := r.client.Channel(msg.ChannelID)
	if err != nil {
		return err
	}
	if !IsTextChannel(ch) {
		return errors.Wrapf(ErrNotTextChannel, "channel %d", msg.ChannelID)
	}

	return r.client.SendMessage(msg.ChannelID, msg.Content)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

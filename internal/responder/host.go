package responder

import (
	"context"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/pkg/errors"

	"github.com/fpt/ping-relay/internal/repository"
	"github.com/fpt/ping-relay/pkg/logger"
)

const (
	DefaultBatchSize    = 16
	DefaultPollInterval = time.Second
)

// HostOptions tunes the trigger loop.
type HostOptions struct {
	// BatchSize caps concurrent invocations.
	BatchSize int
	// PollInterval is the wait between polls of an empty queue.
	PollInterval time.Duration
}

// Host drives a Responder from the inbound queue and sends its output to the bus queue. A
// successful invocation completes the item; a failed one abandons it so the queue redelivers
// it, and the queue dead-letters it once its delivery count is exhausted.
type Host struct {
	responder *Responder
	inbound   repository.Queue
	bus       repository.Queue
	opts      HostOptions
	logger    *logger.Logger
}

// NewHost creates a host reading from inbound and writing to bus.
func NewHost(responder *Responder, inbound, bus repository.Queue, opts HostOptions, log *logger.Logger) *Host {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &Host{
		responder: responder,
		inbound:   inbound,
		bus:       bus,
		opts:      opts,
		logger:    log.WithComponent("host").WithQueue(inbound.Name()),
	}
}

// Run polls until ctx is cancelled and waits for in-flight invocations.
func (h *Host) Run(ctx context.Context) error {
	pool := workerpool.New(h.opts.BatchSize)
	defer pool.StopWait()

	slots := make(chan struct{}, h.opts.BatchSize)

	h.logger.Info("Responder host started", "batch_size", h.opts.BatchSize, "output_queue", h.bus.Name())
	for {
		select {
		case <-ctx.Done():
			return nil
		case slots <- struct{}{}:
		}

		item, err := h.inbound.Receive(ctx)
		if err != nil {
			<-slots
			if ctx.Err() != nil {
				return nil
			}
			if !errors.Is(err, repository.ErrNoMessage) {
				h.logger.Error("Failed to receive from inbound queue", "error", err)
			}
			if !wait(ctx, h.opts.PollInterval) {
				return nil
			}
			continue
		}

		pool.Submit(func() {
			defer func() { <-slots }()
			h.invoke(context.WithoutCancel(ctx), item)
		})
	}
}

func (h *Host) invoke(ctx context.Context, item *repository.QueueItem) {
	log := h.logger.With("id", item.ID, "dequeue_count", item.DequeueCount)

	err := h.execute(ctx, item)
	if err != nil {
		log.Error("Invocation failed", "error", err)
		if aerr := h.inbound.Abandon(ctx, item); aerr != nil {
			log.Error("Failed to abandon message", "error", aerr)
		}
		return
	}

	if cerr := h.inbound.Complete(ctx, item); cerr != nil {
		log.Error("Failed to complete message", "error", cerr)
	}
}

func (h *Host) execute(ctx context.Context, item *repository.QueueItem) error {
	out, err := h.responder.Handle(item.Body)
	if err != nil {
		return err
	}
	body, ok := out.Get()
	if !ok {
		return nil
	}
	if _, err := h.bus.Send(ctx, body); err != nil {
		return errors.Wrap(err, "failed to send output")
	}
	return nil
}

func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

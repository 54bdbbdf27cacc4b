package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNoMessage is returned by Receive when no item is currently visible.
	ErrNoMessage = errors.New("no message available")
	// ErrLockLost is returned when an item's lease expired or was taken by another receiver
	// before it was settled.
	ErrLockLost = errors.New("message lock lost")
)

// QueueItem is one leased message. LockToken identifies the lease and must be presented to
// settle it.
type QueueItem struct {
	ID             string    `db:"id"`
	Queue          string    `db:"queue"`
	Body           string    `db:"body"`
	SequenceNumber int64     `db:"seq"`
	DequeueCount   int       `db:"dequeue_count"`
	EnqueuedAt     time.Time `db:"-"`
	LockToken      string    `db:"lock_token"`
	LockedUntil    time.Time `db:"-"`
}

// Queue is a durable at-least-once queue with peek-lock delivery: a received item stays
// invisible until it is completed, abandoned or its lease expires.
type Queue interface {
	Name() string
	// Send appends body to the queue.
	Send(ctx context.Context, body string) (*QueueItem, error)
	// Receive leases the oldest visible item, or returns ErrNoMessage.
	Receive(ctx context.Context) (*QueueItem, error)
	// Complete removes a leased item.
	Complete(ctx context.Context, item *QueueItem) error
	// Abandon releases the lease so the item is immediately visible again.
	Abandon(ctx context.Context, item *QueueItem) error
	// DeadLetter moves a leased item to the queue's poison queue.
	DeadLetter(ctx context.Context, item *QueueItem) error
	// Depth counts items in the queue, leased or not.
	Depth(ctx context.Context) (int, error)
}

// PoisonQueueName returns the name items are dead-lettered to.
func PoisonQueueName(queue string) string {
	return queue + "-poison"
}

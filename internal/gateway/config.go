package gateway

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DeliveryPolicy decides how the relay settles a bus item after trying to deliver it.
type DeliveryPolicy string

const (
	// AtMostOnce completes every item whether or not the send succeeded.
	AtMostOnce DeliveryPolicy = "at-most-once"
	// AtLeastOnce completes on success and abandons on failure so the item is redelivered.
	AtLeastOnce DeliveryPolicy = "at-least-once"
)

// ParseDeliveryPolicy accepts the two policy names; empty selects AtMostOnce.
func ParseDeliveryPolicy(s string) (DeliveryPolicy, error) {
	switch DeliveryPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", AtMostOnce:
		return AtMostOnce, nil
	case AtLeastOnce:
		return AtLeastOnce, nil
	default:
		return "", errors.Errorf("unknown delivery policy %q", s)
	}
}

const (
	DefaultMaxConcurrentCalls = 1
	DefaultPollInterval       = time.Second
)

// Options configures the listener and relay.
type Options struct {
	// IgnoreBots drops bot-authored messages instead of forwarding them.
	IgnoreBots bool
	// DeliveryPolicy for the relay. Defaults to AtMostOnce.
	DeliveryPolicy DeliveryPolicy
	// MaxConcurrentCalls caps in-flight relay deliveries. 1 keeps delivery serial.
	MaxConcurrentCalls int
	// PollInterval is the wait between polls of an empty bus queue.
	PollInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.DeliveryPolicy == "" {
		o.DeliveryPolicy = AtMostOnce
	}
	if o.MaxConcurrentCalls <= 0 {
		o.MaxConcurrentCalls = DefaultMaxConcurrentCalls
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	return o
}

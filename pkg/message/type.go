package message

import (
	"strconv"

	"github.com/pkg/errors"
)

// ErrInvalidSnowflake is returned when a gateway identifier is not a decimal uint64.
var ErrInvalidSnowflake = errors.New("invalid snowflake")

// MessageSource classifies who produced a chat message. The numeric values are part of the
// queue payload format.
type MessageSource int

const (
	MessageSourceSystem MessageSource = iota
	MessageSourceUser
	MessageSourceBot
	MessageSourceWebhook
)

func (s MessageSource) String() string {
	switch s {
	case MessageSourceSystem:
		return "system"
	case MessageSourceUser:
		return "user"
	case MessageSourceBot:
		return "bot"
	case MessageSourceWebhook:
		return "webhook"
	default:
		return "unknown"
	}
}

// ParseSnowflake converts the gateway's string form of an identifier into a uint64.
func ParseSnowflake(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidSnowflake, "%q", s)
	}
	return id, nil
}

// FormatSnowflake is the inverse of ParseSnowflake.
func FormatSnowflake(id uint64) string {
	return strconv.FormatUint(id, 10)
}

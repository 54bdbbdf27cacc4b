package responder

import (
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpt/ping-relay/pkg/logger"
	"github.com/fpt/ping-relay/pkg/message"
)

func chatPayload(t *testing.T, channelID uint64, content string) string {
	t.Helper()
	body, err := message.Serialize(message.NewChatMessage(message.ChatMessageFields{
		MessageID: 1,
		AuthorID:  2,
		ChannelID: channelID,
		GuildID:   mo.Some[uint64](3),
		Source:    message.MessageSourceUser,
		Content:   content,
	}))
	require.NoError(t, err)
	return body
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    mo.Option[string]
	}{
		{"ping", "!ping", mo.Some(`{"ChannelId":42,"Content":"pong!"}`)},
		{"ping with suffix", "!ping please", mo.Some(`{"ChannelId":42,"Content":"pong!"}`)},
		{"plain text", "hello", mo.None[string]()},
		{"wrong case", "!Ping", mo.None[string]()},
		{"leading space", " !ping", mo.None[string]()},
		{"empty", "", mo.None[string]()},
	}

	r := New(logger.NewDiscardLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Handle(chatPayload(t, 42, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandleMalformedPayload(t *testing.T) {
	r := New(logger.NewDiscardLogger())

	bodies := []string{
		"",
		"not json",
		`{"ChannelId":"x"}`,
		"null",
		`{"ChannelId":42}`,
		`{"ChannelId":42,"Content":null}`,
	}
	for _, body := range bodies {
		out, err := r.Handle(body)
		assert.Error(t, err, body)
		assert.True(t, out.IsAbsent(), body)
	}
}

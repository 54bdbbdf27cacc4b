package gateway

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpt/ping-relay/internal/infra"
	"github.com/fpt/ping-relay/pkg/logger"
	"github.com/fpt/ping-relay/pkg/message"
)

func openTestStore(t *testing.T) *infra.QueueStore {
	t.Helper()
	store, err := infra.OpenQueueStore("sqlite://"+filepath.Join(t.TempDir(), "queues.db"), infra.QueueStoreOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestListenerForwardsMessage(t *testing.T) {
	ctx := context.Background()
	q := openTestStore(t).Queue("ping-inbound-queue")
	l := NewListener(&mockClient{}, q, Options{}, logger.NewDiscardLogger())

	l.HandleMessageCreate(ctx, &discordgo.MessageCreate{Message: sampleDiscordMessage()})

	item, err := q.Receive(ctx)
	require.NoError(t, err)

	msg, err := message.DeserializeChatMessage(item.Body)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), msg.ChannelID())
	assert.Equal(t, "!ping <#55> and again <#55>", msg.Content())
}

func TestListenerBotMessages(t *testing.T) {
	ctx := context.Background()
	bot := sampleDiscordMessage()
	bot.Author.Bot = true

	t.Run("forwarded by default", func(t *testing.T) {
		q := openTestStore(t).Queue("ping-inbound-queue")
		NewListener(&mockClient{}, q, Options{}, logger.NewDiscardLogger()).
			HandleMessageCreate(ctx, &discordgo.MessageCreate{Message: bot})

		depth, err := q.Depth(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, depth)
	})

	t.Run("dropped with IgnoreBots", func(t *testing.T) {
		q := openTestStore(t).Queue("ping-inbound-queue")
		NewListener(&mockClient{}, q, Options{IgnoreBots: true}, logger.NewDiscardLogger()).
			HandleMessageCreate(ctx, &discordgo.MessageCreate{Message: bot})

		depth, err := q.Depth(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, depth)
	})
}

func TestListenerLogsEnqueueFailure(t *testing.T) {
	store, err := infra.OpenQueueStore("sqlite://"+filepath.Join(t.TempDir(), "queues.db"), infra.QueueStoreOptions{})
	require.NoError(t, err)
	q := store.Queue("ping-inbound-queue")
	require.NoError(t, store.Close())

	var buf bytes.Buffer
	l := NewListener(&mockClient{}, q, Options{}, logger.NewLogger(logger.Options{Console: &buf}))

	assert.NotPanics(t, func() {
		l.HandleMessageCreate(context.Background(), &discordgo.MessageCreate{Message: sampleDiscordMessage()})
	})
	assert.Contains(t, buf.String(), "ERROR [listener] Failed to forward message")
}

func TestListenerLogsConversionFailure(t *testing.T) {
	q := openTestStore(t).Queue("ping-inbound-queue")
	var buf bytes.Buffer
	l := NewListener(&mockClient{}, q, Options{}, logger.NewLogger(logger.Options{Console: &buf}))

	m := sampleDiscordMessage()
	m.ID = "not-a-snowflake"
	l.HandleMessageCreate(context.Background(), &discordgo.MessageCreate{Message: m})

	depth, err := q.Depth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, depth)
	assert.Contains(t, buf.String(), "Failed to forward message")
}

func TestListenerReplay(t *testing.T) {
	ctx := context.Background()
	q := openTestStore(t).Queue("ping-inbound-queue")

	m := sampleDiscordMessage()
	m.GuildID = ""
	client := &mockClient{}
	client.On("Channel", uint64(42)).Return(&discordgo.Channel{ID: "42", GuildID: "381880193251409931", Type: discordgo.ChannelTypeGuildText}, nil)
	client.On("Message", uint64(42), uint64(1165798163542818816)).Return(m, nil)

	l := NewListener(client, q, Options{}, logger.NewDiscardLogger())
	item, err := l.Replay(ctx, 42, 1165798163542818816)
	require.NoError(t, err)

	msg, err := message.DeserializeChatMessage(item.Body)
	require.NoError(t, err)
	assert.Equal(t, uint64(381880193251409931), msg.GuildID().MustGet())
	client.AssertExpectations(t)
}

package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fpt/ping-relay/pkg/logger"
)

func TestGatewayRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := openTestStore(t)
	inbound := store.Queue("ping-inbound-queue")
	bus := store.Queue("pingqueue")

	var handlers []any
	client := &mockClient{}
	client.On("AddHandler", mock.Anything).Return(func() {}).Run(func(args mock.Arguments) {
		handlers = append(handlers, args.Get(0))
	})
	client.On("Close").Return(nil)
	client.On("Open").Return(nil).Run(func(mock.Arguments) {
		for _, h := range handlers {
			switch h := h.(type) {
			case func(*discordgo.Session, *discordgo.Ready):
				h(nil, &discordgo.Ready{User: &discordgo.User{Username: "pingbot"}})
			case func(*discordgo.Session, *discordgo.MessageCreate):
				h(nil, &discordgo.MessageCreate{Message: sampleDiscordMessage()})
			}
		}
	})

	gw := New(client, inbound, bus, Options{PollInterval: 10 * time.Millisecond}, logger.NewDiscardLogger())
	done := make(chan error, 1)
	go func() { done <- gw.Run(ctx) }()

	require.Eventually(t, func() bool { return gw.State() == StateConnected }, 5*time.Second, 10*time.Millisecond)

	depth, err := inbound.Depth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, depth)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, StateClosed, gw.State())
	client.AssertCalled(t, "Close")
}

func TestGatewayRunFailsWhenOpenFails(t *testing.T) {
	store := openTestStore(t)

	client := &mockClient{}
	client.On("AddHandler", mock.Anything).Return(func() {})
	client.On("Open").Return(errors.New("authentication failed"))

	gw := New(client, store.Queue("ping-inbound-queue"), store.Queue("pingqueue"), Options{}, logger.NewDiscardLogger())
	err := gw.Run(context.Background())

	assert.EqualError(t, err, "authentication failed")
	assert.Equal(t, StateDisconnected, gw.State())
	client.AssertNotCalled(t, "Close")
}

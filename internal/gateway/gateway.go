package gateway

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/fpt/ping-relay/internal/repository"
	"github.com/fpt/ping-relay/pkg/logger"
)

// Gateway owns the Discord connection and runs the listener and relay on it.
type Gateway struct {
	client   Client
	listener *Listener
	relay    *Relay
	conn     *connectionFSM
	logger   *logger.Logger
}

// New wires a listener that enqueues onto inbound and a relay that drains bus.
func New(client Client, inbound, bus repository.Queue, opts Options, log *logger.Logger) *Gateway {
	return &Gateway{
		client:   client,
		listener: NewListener(client, inbound, opts, log),
		relay:    NewRelay(client, bus, opts, log),
		conn:     newConnectionFSM(log.WithComponent("gateway")),
		logger:   log.WithComponent("gateway"),
	}
}

// Listener exposes the listener for one-off replays.
func (gw *Gateway) Listener() *Listener {
	return gw.listener
}

// State reports the current connection state.
func (gw *Gateway) State() ConnectionState {
	return gw.conn.state()
}

// Run opens the connection, then relays bus messages until ctx is cancelled. A failure to open
// is returned; everything after that is logged.
func (gw *Gateway) Run(ctx context.Context) error {
	removers := []func(){
		gw.client.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
			gw.listener.HandleMessageCreate(ctx, m)
		}),
		gw.client.AddHandler(func(_ *discordgo.Session, _ *discordgo.Connect) { gw.conn.fire(triggerConnect) }),
		gw.client.AddHandler(func(_ *discordgo.Session, _ *discordgo.Disconnect) { gw.conn.fire(triggerDisconnect) }),
		gw.client.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
			if r.User != nil {
				gw.logger.Info("Discord bot connected", "user", r.User.Username)
			}
			gw.conn.fire(triggerReady)
		}),
		gw.client.AddHandler(func(_ *discordgo.Session, _ *discordgo.Resumed) { gw.conn.fire(triggerResumed) }),
	}
	defer func() {
		for _, remove := range removers {
			remove()
		}
	}()

	gw.conn.fire(triggerOpen)
	if err := gw.client.Open(); err != nil {
		gw.conn.fire(triggerDisconnect)
		return err
	}
	defer func() {
		if err := gw.client.Close(); err != nil {
			gw.logger.Warn("Failed to close discord connection", "error", err)
		}
		gw.conn.fire(triggerClose)
	}()

	return gw.relay.Run(ctx)
}

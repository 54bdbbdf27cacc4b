package gateway

import (
	"context"
	"sync"

	"github.com/qmuntal/stateless"

	"github.com/fpt/ping-relay/pkg/logger"
)

// ConnectionState is the listener's view of its gateway connection.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateClosed       ConnectionState = "closed"
)

type connTrigger string

const (
	triggerOpen       connTrigger = "open"
	triggerConnect    connTrigger = "connect"
	triggerReady      connTrigger = "ready"
	triggerResumed    connTrigger = "resumed"
	triggerDisconnect connTrigger = "disconnect"
	triggerClose      connTrigger = "close"
)

// connectionFSM tracks the gateway lifecycle from discordgo's Connect, Disconnect, Ready and
// Resumed events. Events that arrive out of order are ignored rather than rejected.
type connectionFSM struct {
	mu     sync.Mutex
	fsm    *stateless.StateMachine
	logger *logger.Logger
}

func newConnectionFSM(log *logger.Logger) *connectionFSM {
	fsm := stateless.NewStateMachine(StateDisconnected)

	fsm.Configure(StateDisconnected).
		Permit(triggerOpen, StateConnecting).
		Permit(triggerConnect, StateConnecting).
		Permit(triggerReady, StateConnected).
		Permit(triggerResumed, StateConnected).
		Permit(triggerClose, StateClosed).
		Ignore(triggerDisconnect)

	fsm.Configure(StateConnecting).
		Permit(triggerReady, StateConnected).
		Permit(triggerResumed, StateConnected).
		Permit(triggerDisconnect, StateDisconnected).
		Permit(triggerClose, StateClosed).
		Ignore(triggerOpen).
		Ignore(triggerConnect)

	fsm.Configure(StateConnected).
		Permit(triggerDisconnect, StateDisconnected).
		Permit(triggerClose, StateClosed).
		Ignore(triggerOpen).
		Ignore(triggerConnect).
		Ignore(triggerReady).
		Ignore(triggerResumed)

	fsm.Configure(StateClosed).
		Ignore(triggerOpen).
		Ignore(triggerConnect).
		Ignore(triggerReady).
		Ignore(triggerResumed).
		Ignore(triggerDisconnect).
		Ignore(triggerClose)

	fsm.OnTransitioned(func(_ context.Context, t stateless.Transition) {
		log.Info("Gateway connection state changed", "from", t.Source, "to", t.Destination, "trigger", t.Trigger)
	})

	return &connectionFSM{fsm: fsm, logger: log}
}

func (c *connectionFSM) fire(t connTrigger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fsm.Fire(t); err != nil {
		c.logger.Warn("Unexpected gateway event", "trigger", t, "error", err)
	}
}

func (c *connectionFSM) state() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fsm.MustState().(ConnectionState)
}

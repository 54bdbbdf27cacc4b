package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fpt/ping-relay/pkg/logger"
)

func TestConnectionFSM(t *testing.T) {
	c := newConnectionFSM(logger.NewDiscardLogger())
	assert.Equal(t, StateDisconnected, c.state())

	steps := []struct {
		trigger connTrigger
		want    ConnectionState
	}{
		{triggerOpen, StateConnecting},
		{triggerConnect, StateConnecting},
		{triggerReady, StateConnected},
		{triggerReady, StateConnected},
		{triggerDisconnect, StateDisconnected},
		{triggerDisconnect, StateDisconnected},
		{triggerConnect, StateConnecting},
		{triggerResumed, StateConnected},
		{triggerClose, StateClosed},
		{triggerConnect, StateClosed},
		{triggerReady, StateClosed},
	}
	for _, step := range steps {
		c.fire(step.trigger)
		assert.Equal(t, step.want, c.state(), "after %s", step.trigger)
	}
}

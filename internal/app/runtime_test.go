package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpt/ping-relay/internal/config"
	"github.com/fpt/ping-relay/pkg/logger"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		StorageConnectionString: "sqlite://" + filepath.Join(t.TempDir(), "queues.db"),
		InboundQueue:            config.DefaultInboundQueue,
		BusQueue:                config.DefaultBusQueue,
		MaxDequeueCount:         5,
	}
}

func TestRuntimeSharesStore(t *testing.T) {
	rt, err := NewRuntime(testConfig(t), logger.NewDiscardLogger())
	require.NoError(t, err)
	defer rt.Close()

	assert.Len(t, rt.stores, 1)
	assert.Equal(t, "ping-inbound-queue", rt.Inbound.Name())
	assert.Equal(t, "pingqueue", rt.Bus.Name())

	names := make([]string, 0, 4)
	for _, q := range rt.Queues() {
		names = append(names, q.Name())
	}
	assert.Equal(t, []string{"ping-inbound-queue", "ping-inbound-queue-poison", "pingqueue", "pingqueue-poison"}, names)
}

func TestRuntimeSeparateBusStore(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.BusConnectionString = "sqlite://" + filepath.Join(t.TempDir(), "bus.db")

	rt, err := NewRuntime(cfg, logger.NewDiscardLogger())
	require.NoError(t, err)
	defer rt.Close()
	require.Len(t, rt.stores, 2)

	_, err = rt.Bus.Send(ctx, `{"ChannelId":42,"Content":"pong!"}`)
	require.NoError(t, err)

	// the storage database must not see bus traffic
	depth, err := rt.stores[0].Queue(cfg.BusQueue).Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, depth)

	depth, err = rt.Bus.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, depth)
}

func TestRuntimeFailsOnBadStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageConnectionString = "sqlite://"

	_, err := NewRuntime(cfg, logger.NewDiscardLogger())
	assert.Error(t, err)
}

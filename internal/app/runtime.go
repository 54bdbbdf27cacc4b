// Package app assembles the pieces both processes share: logging, the queue stores and the
// admin server.
package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fpt/ping-relay/internal/config"
	"github.com/fpt/ping-relay/internal/infra"
	"github.com/fpt/ping-relay/internal/repository"
	"github.com/fpt/ping-relay/internal/server"
	"github.com/fpt/ping-relay/pkg/logger"
)

// Runtime holds the open resources of a process.
type Runtime struct {
	Config  *config.Config
	Logger  *logger.Logger
	Inbound repository.Queue
	Bus     repository.Queue

	stores []*infra.QueueStore
}

// NewRuntime opens the queue stores named by cfg. When the storage and bus connection strings
// match, both queues live in one store.
func NewRuntime(cfg *config.Config, log *logger.Logger) (*Runtime, error) {
	opts := infra.QueueStoreOptions{
		VisibilityTimeout: cfg.VisibilityTimeout,
		MaxDeliveryCount:  cfg.MaxDequeueCount,
	}

	storage, err := infra.OpenQueueStore(cfg.StorageConnectionString, opts)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{Config: cfg, Logger: log, stores: []*infra.QueueStore{storage}}

	bus := storage
	if cfg.BusConnection() != cfg.StorageConnectionString {
		bus, err = infra.OpenQueueStore(cfg.BusConnection(), opts)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.stores = append(rt.stores, bus)
	}

	rt.Inbound = storage.Queue(cfg.InboundQueue)
	rt.Bus = bus.Queue(cfg.BusQueue)
	return rt, nil
}

// Queues lists the queues the admin server reports on, poison queues included.
func (rt *Runtime) Queues() []repository.Queue {
	return []repository.Queue{
		rt.Inbound,
		rt.storeFor(rt.Inbound).Queue(repository.PoisonQueueName(rt.Inbound.Name())),
		rt.Bus,
		rt.storeFor(rt.Bus).Queue(repository.PoisonQueueName(rt.Bus.Name())),
	}
}

func (rt *Runtime) storeFor(q repository.Queue) *infra.QueueStore {
	if q == rt.Bus && len(rt.stores) > 1 {
		return rt.stores[1]
	}
	return rt.stores[0]
}

// ServeAdmin starts the admin server in the background when an address is configured.
func (rt *Runtime) ServeAdmin(ctx context.Context, service string, gatewayState func() string) {
	if rt.Config.HTTPAddr == "" {
		return
	}
	go func() {
		opts := server.Options{Service: service, Queues: rt.Queues(), GatewayState: gatewayState}
		if err := server.Start(ctx, rt.Config.HTTPAddr, opts, rt.Logger); err != nil {
			rt.Logger.Error("Admin server failed", "error", err)
		}
	}()
}

// Close closes every store.
func (rt *Runtime) Close() {
	for _, s := range rt.stores {
		if err := s.Close(); err != nil {
			rt.Logger.Warn("Failed to close queue store", "error", err)
		}
	}
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(log *logger.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// NewLogger builds the process logger from configuration.
func NewLogger(cfg *config.Config) *logger.Logger {
	return logger.NewLogger(logger.Options{
		Level:    cfg.Level(),
		Console:  os.Stdout,
		FilePath: cfg.LogFile,
	})
}

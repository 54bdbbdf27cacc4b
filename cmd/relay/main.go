package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/fpt/ping-relay/internal/app"
	"github.com/fpt/ping-relay/internal/config"
	"github.com/fpt/ping-relay/internal/gateway"
	"github.com/fpt/ping-relay/internal/infra"
)

type Options struct {
	Config      string `short:"c" long:"config" description:"Path to a YAML config file"`
	EnvFile     string `long:"env-file" description:"Path to a .env file" default:".env"`
	PrintConfig bool   `long:"print-config" description:"Print the effective configuration and exit"`
}

// EnqueueCommand replays a single message that the listener missed.
type EnqueueCommand struct {
	Channel uint64 `long:"channel" required:"true" description:"Channel ID of the message"`
	Message uint64 `long:"message" required:"true" description:"Message ID to enqueue"`
}

func main() {
	var opts Options
	var enqueue EnqueueCommand

	parser := flags.NewParser(&opts, flags.Default)
	parser.SubcommandsOptional = true
	if _, err := parser.AddCommand("enqueue", "Enqueue one message", "Fetch a message over REST and enqueue it as the listener would", &enqueue); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	cfg, err := config.Load(config.LoadOptions{ConfigFile: opts.Config, EnvFile: opts.EnvFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if opts.PrintConfig {
		out, err := cfg.Redacted()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(out)
		return
	}

	log := app.NewLogger(cfg)
	gateway.InstallLogHook(log)

	if cfg.BotToken == "" {
		log.Critical("Bot token is not configured", "env", "BOT_TOKEN")
		os.Exit(1)
	}

	rt, err := app.NewRuntime(cfg, log)
	if err != nil {
		log.Critical("Failed to open queue stores", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	client, err := gateway.NewDiscordClient(cfg.BotToken, cfg.Level())
	if err != nil {
		log.Critical("Failed to create gateway client", "error", err)
		os.Exit(1)
	}
	gw := gateway.New(client, rt.Inbound, rt.Bus, cfg.GatewayOptions(), log)

	ctx, cancel := app.SignalContext(log)
	defer cancel()

	if parser.Active != nil && parser.Active.Name == "enqueue" {
		item, err := gw.Listener().Replay(ctx, enqueue.Channel, enqueue.Message)
		if err != nil {
			log.Error("Failed to enqueue message", "channel_id", enqueue.Channel, "message_id", enqueue.Message, "error", err)
			os.Exit(1)
		}
		fmt.Printf("Enqueued message %d as %s on %s\n", enqueue.Message, item.ID, rt.Inbound.Name())
		return
	}

	lock, err := infra.NewConsumerLock(cfg.LockDir, cfg.BusQueue)
	if err == nil {
		err = lock.TryLock()
	}
	if err != nil {
		log.Critical("Failed to acquire relay lock", "queue", cfg.BusQueue, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("Failed to release relay lock", "error", err)
		}
	}()

	rt.ServeAdmin(ctx, "relay", func() string { return string(gw.State()) })

	log.Info("Relay starting",
		"inbound_queue", rt.Inbound.Name(),
		"bus_queue", rt.Bus.Name(),
		"delivery_policy", cfg.DeliveryPolicy,
		"max_concurrent_calls", cfg.MaxConcurrentCalls)

	if err := gw.Run(ctx); err != nil {
		log.Critical("Gateway failed", "error", err)
		cancel()
		rt.Close()
		os.Exit(1)
	}
	log.Info("Relay stopped")
}

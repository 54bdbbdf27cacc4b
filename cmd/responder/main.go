package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/fpt/ping-relay/internal/app"
	"github.com/fpt/ping-relay/internal/config"
	"github.com/fpt/ping-relay/internal/responder"
)

type Options struct {
	Config      string `short:"c" long:"config" description:"Path to a YAML config file"`
	EnvFile     string `long:"env-file" description:"Path to a .env file" default:".env"`
	PrintConfig bool   `long:"print-config" description:"Print the effective configuration and exit"`
}

func main() {
	var opts Options
	if _, err := flags.Parse(&opts); err != nil {
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

	rt, err := app.NewRuntime(cfg, log)
	if err != nil {
		log.Critical("Failed to open queue stores", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	ctx, cancel := app.SignalContext(log)
	defer cancel()

	rt.ServeAdmin(ctx, "responder", nil)

	host := responder.NewHost(responder.New(log), rt.Inbound, rt.Bus, responder.HostOptions{
		BatchSize:    cfg.BatchSize,
		PollInterval: cfg.PollInterval,
	}, log)

	log.Info("Responder starting",
		"inbound_queue", rt.Inbound.Name(),
		"bus_queue", rt.Bus.Name(),
		"batch_size", cfg.BatchSize,
		"max_dequeue_count", cfg.MaxDequeueCount)

	if err := host.Run(ctx); err != nil {
		log.Error("Responder host failed", "error", err)
	}
	log.Info("Responder stopped")
}

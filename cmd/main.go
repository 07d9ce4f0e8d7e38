package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zing-dev/pm2005-sdk"
)

var (
	configPath = flag.String("config", "", "YAML config file")
	port       = flag.String("port", "", "Serial port (overrides config)")
	backend    = flag.String("backend", "", "Serial backend: goburrow or bugst (overrides config)")
	interval   = flag.Duration("interval", 0, "Measurement interval (overrides config)")
	count      = flag.Int("count", -1, "Number of measurements, 0 runs until interrupted (overrides config)")
	debug      = flag.Bool("debug", false, "Echo raw replies to stderr")
	verbose    = flag.Bool("v", false, "Log serial traffic")
	list       = flag.Bool("list", false, "List serial ports and exit")
)

func main() {
	flag.Parse()

	if *list {
		ports, err := pm2005.ListPorts()
		if err != nil {
			log.Fatalf("list ports: %v", err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	settings, err := loadSettings()
	if err != nil {
		log.Fatal(err)
	}

	var logger *log.Logger
	if *verbose {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}

	handle := settings.Handler(logger)
	if err := handle.Connect(); err != nil {
		log.Fatal("Connect: ", err)
	}
	defer handle.Close()

	client := pm2005.New(handle, settings.Options(logger, os.Stderr)...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := client.Initialize(ctx); err != nil {
		log.Fatalf("failed to initialize sensor: %v", err)
	}
	log.Printf("initialized PM2005 on %s (driver %s)", settings.Port, pm2005.Version)

	if err := run(ctx, client, settings); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}

func loadSettings() (pm2005.Settings, error) {
	settings := pm2005.DefaultSettings()
	if *configPath != "" {
		var err error
		if settings, err = pm2005.LoadSettings(*configPath); err != nil {
			return settings, err
		}
	}
	if *port != "" {
		settings.Port = *port
	}
	if *backend != "" {
		settings.Backend = *backend
	}
	if *interval > 0 {
		settings.Interval = *interval
	}
	if *count >= 0 {
		settings.Count = *count
	}
	if *debug {
		settings.Debug = true
	}
	return settings.Normalize()
}

func run(ctx context.Context, client *pm2005.Client, settings pm2005.Settings) error {
	ticker := time.NewTicker(settings.Interval)
	defer ticker.Stop()

	for i := 0; settings.Count == 0 || i < settings.Count; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}

		r, err := client.Measure(ctx)
		if err != nil {
			if errors.Is(err, pm2005.ErrTimeout) || errors.Is(err, pm2005.ErrDesync) {
				log.Printf("sensor did not answer: %v", err)
				continue
			}
			return err
		}
		if err := r.Fault(); err != nil {
			log.Printf("warning: %v", err)
		}
		pm2005.PrintReading(os.Stdout, r)
		pm2005.PrintStatus(os.Stdout, r)
	}
	return nil
}

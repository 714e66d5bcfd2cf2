package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"heavensgate/internal/config"
	"heavensgate/internal/frame"
	"heavensgate/internal/raycast"
	"heavensgate/internal/threading"
)

// The worker speaks newline-delimited JSON: requests on stdin, replies on
// stdout, logs on stderr.
func main() {
	log.SetOutput(os.Stderr)

	cfg, err := config.LoadOrDefault("config.yaml")
	if err != nil {
		log.Printf("Warning: Failed to load config, using defaults: %v", err)
	}

	var scene *raycast.Scene
	if s, md, err := raycast.LoadScene(cfg); err != nil {
		log.Printf("Warning: Failed to load map, waiting for init: %v", err)
	} else {
		log.Printf("Loaded map %s (%dx%d)", md.Name, md.Grid.Width, md.Grid.Height)
		scene = &s
	}

	comps := threading.NewComponents(cfg.Raycasting.Workers)
	defer comps.Shutdown()

	svc, err := frame.NewService(cfg, comps, scene)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := svc.Serve(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		log.Printf("Warning: worker stopped: %v", err)
	}
	for _, alert := range comps.CheckPerformanceAlerts() {
		log.Printf("Warning: %s: %s", alert.Type, alert.Message)
	}
}

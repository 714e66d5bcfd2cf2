package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"heavensgate/internal/config"
	"heavensgate/internal/frame"
	"heavensgate/internal/raycast"
	"heavensgate/internal/server"
	"heavensgate/internal/threading"
)

func main() {
	configPath := flag.String("config", "config.yaml", "configuration file")
	addr := flag.String("addr", "", "listen address (overrides server.addr)")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config, using defaults: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	var scene *raycast.Scene
	if s, _, err := raycast.LoadScene(cfg); err != nil {
		log.Printf("Warning: Failed to load map, waiting for init: %v", err)
	} else {
		scene = &s
	}

	comps := threading.NewComponents(cfg.Raycasting.Workers)
	defer comps.Shutdown()

	svc, err := frame.NewService(cfg, comps, scene)
	if err != nil {
		log.Fatal(err)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.SetupRoutes(svc),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Warning: shutdown: %v", err)
		}
	}()

	log.Printf("raycastd: listening on %s", cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("raycastd: listen failed: %v", err)
	}
}

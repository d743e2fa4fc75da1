package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ahrdadan/browsemd/internal/api"
	"github.com/ahrdadan/browsemd/internal/browser"
	"github.com/ahrdadan/browsemd/internal/config"
	"github.com/ahrdadan/browsemd/internal/events"
	"github.com/ahrdadan/browsemd/internal/markdown"
	"github.com/ahrdadan/browsemd/internal/mcpserver"
	"github.com/ahrdadan/browsemd/internal/nats"
	"github.com/ahrdadan/browsemd/internal/tools"
)

func main() {
	// stdout belongs to the MCP stdio transport
	log.SetOutput(os.Stderr)

	// Parse CLI flags
	cfg := config.ParseFlags()

	// Handle --version and --help
	config.HandleFlags(cfg)

	log.Printf("Starting %s v%s (transport: %s)", config.AppName, config.Version, cfg.Transport)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Chrome setup
	chromeOpts := cfg.ChromeOptions()
	if cfg.InstallChrome && chromeOpts.Bin == "" {
		bin, err := browser.InstallChrome(ctx, cfg.ChromeRevision)
		if err != nil {
			log.Fatalf("Failed to install Chrome: %v", err)
		}
		chromeOpts.Bin = bin
		log.Printf("Chrome installed at %s", bin)
	}
	manager := browser.NewManager(browser.NewChromeFactory(chromeOpts))

	// Best-effort session teardown on every exit path, including panics
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Fatal: %v", r)
			manager.Shutdown()
			os.Exit(1)
		}
		manager.Shutdown()
	}()

	converter, err := markdown.New(cfg.MarkdownOptions())
	if err != nil {
		log.Fatalf("Failed to create markdown converter: %v", err)
	}

	// Lifecycle events
	hub := events.NewHub()
	defer hub.Close()

	if cfg.NatsURL != "" {
		client, err := nats.Connect(ctx, nats.Config{
			URL:     cfg.NatsURL,
			Subject: cfg.NatsSubject,
			Stream:  cfg.NatsStream,
		})
		if err != nil {
			log.Printf("Warning: NATS disabled: %v", err)
		} else {
			defer client.Close()
			hub.AddSink(events.NewNATSPublisher(client, cfg.NatsSubject))
		}
	}

	service := tools.NewService(manager, converter, hub, cfg.ToolOptions())

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	if cfg.ServesHTTP() {
		app := fiber.New(fiber.Config{
			AppName:               config.AppName,
			ErrorHandler:          api.ErrorHandler,
			DisableStartupMessage: cfg.ServesStdio(),
		})

		// Middleware
		app.Use(fiberrecover.New())
		app.Use(logger.New(logger.Config{Output: os.Stderr}))
		app.Use(cors.New())

		limiter := api.SetupRoutes(app, service, hub, api.RouteConfig{
			RateLimitRequests: cfg.RateLimitRequests,
			RateLimitWindow:   cfg.RateLimitWindow,
			BurstMax:          api.DefaultRouteConfig().BurstMax,
			MaxBodyBytes:      api.DefaultRouteConfig().MaxBodyBytes,
			AllowedIPs:        cfg.AllowedIPs,
		})
		defer limiter.Stop()

		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Printf("Starting HTTP server on %s", cfg.Addr())
			if err := app.Listen(cfg.Addr()); err != nil {
				errCh <- err
			}
		}()

		go func() {
			<-ctx.Done()
			log.Println("Shutting down HTTP server...")
			// Close subscriptions first so event streams end
			hub.Close()
			if err := app.Shutdown(); err != nil {
				log.Printf("Error during shutdown: %v", err)
			}
		}()
	}

	if cfg.ServesStdio() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			srv := mcpserver.New(service, config.Version)
			log.Printf("Serving MCP over stdio")
			if err := mcpserver.Serve(ctx, srv); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- err
				return
			}
			// Client disconnected
			stop()
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Printf("Transport stopped: %v", err)
		stop()
	}

	wg.Wait()
	log.Println("Server stopped")
}

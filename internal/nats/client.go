package nats

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// publishTimeout bounds a JetStream publish waiting for its ack.
const publishTimeout = 5 * time.Second

// Config holds connection settings for the event bus
type Config struct {
	URL string
	// Subject is the prefix events are published under.
	Subject string
	// Stream, when set, is created or updated to retain event subjects.
	Stream string
	MaxAge time.Duration
}

// Client publishes to an external NATS server
type Client struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	stream jetstream.Stream
	mu     sync.Mutex
}

// Connect dials cfg.URL and, when cfg.Stream is set, ensures the stream exists.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	if err := validateURL(cfg.URL); err != nil {
		return nil, err
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name("browsemd"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("Warning: NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Printf("NATS reconnected to %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	c := &Client{nc: nc}
	if cfg.Stream == "" {
		log.Printf("Connected to NATS at %s", cfg.URL)
		return c, nil
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	c.js = js

	if err := c.setupStream(ctx, cfg); err != nil {
		nc.Close()
		return nil, err
	}

	log.Printf("Connected to NATS at %s with stream %s", cfg.URL, cfg.Stream)
	return c, nil
}

// setupStream creates or updates the JetStream stream
func (c *Client) setupStream(ctx context.Context, cfg Config) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}

	stream, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        cfg.Stream,
		Description: "browsemd lifecycle events",
		Subjects:    StreamSubjects(cfg.Subject),
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      maxAge,
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	c.stream = stream
	return nil
}

// Publish sends data on subject. With a stream the publish waits for the ack.
func (c *Client) Publish(subject string, data []byte) error {
	c.mu.Lock()
	nc, js := c.nc, c.js
	c.mu.Unlock()

	if nc == nil {
		return fmt.Errorf("NATS connection closed")
	}

	if js == nil {
		return nc.Publish(subject, data)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if _, err := js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}
	return nil
}

// Close drains and closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.nc == nil {
		return
	}
	if err := c.nc.Drain(); err != nil {
		log.Printf("Warning: failed to drain NATS connection: %v", err)
		c.nc.Close()
	}
	c.nc = nil
	c.js = nil
	c.stream = nil
}

// StreamSubjects returns the subjects a stream must bind to capture every event under prefix.
func StreamSubjects(prefix string) []string {
	return []string{strings.TrimSuffix(prefix, ".") + ".>"}
}

func validateURL(natsURL string) error {
	if natsURL == "" {
		return fmt.Errorf("NATS URL is empty")
	}
	for _, u := range strings.Split(natsURL, ",") {
		if !strings.Contains(strings.TrimSpace(u), "://") && !strings.Contains(u, ":") {
			return fmt.Errorf("invalid NATS URL format: %s", natsURL)
		}
	}
	return nil
}

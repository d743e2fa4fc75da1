package api

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/ahrdadan/browsemd/internal/events"
)

func parseTypes(raw string) []events.Type {
	var out []events.Type
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, events.Type(t))
		}
	}
	return out
}

// StreamEvents streams lifecycle events via SSE
// GET /events?type=session.started,tool.failed
func (h *Handler) StreamEvents(c *fiber.Ctx) error {
	ch := h.hub.Subscribe(parseTypes(c.Query("type"))...)

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer h.hub.Unsubscribe(ch)

		fmt.Fprint(w, ": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for event := range ch {
			data, _ := json.Marshal(event)
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			if err := w.Flush(); err != nil {
				return
			}
		}
	})

	return nil
}

// HandleWebSocket streams lifecycle events over a WebSocket connection
// GET /ws/events?type=...
func (h *Handler) HandleWebSocket(c *websocket.Conn) {
	ch := h.hub.Subscribe(parseTypes(c.Query("type"))...)
	defer h.hub.Unsubscribe(ch)

	for event := range ch {
		if err := c.WriteJSON(event); err != nil {
			return
		}
	}
}

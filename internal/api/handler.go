package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ahrdadan/browsemd/internal/events"
	"github.com/ahrdadan/browsemd/internal/toolerr"
	"github.com/ahrdadan/browsemd/internal/tools"
)

// Handler handles API requests
type Handler struct {
	service *tools.Service
	hub     *events.Hub
}

// NewHandler creates a new handler
func NewHandler(service *tools.Service, hub *events.Hub) *Handler {
	return &Handler{
		service: service,
		hub:     hub,
	}
}

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Kind    string      `json:"kind,omitempty"`
}

// StatusFor maps a tool error kind to an HTTP status code
func StatusFor(kind toolerr.Kind) int {
	switch kind {
	case toolerr.KindInvalidParams, toolerr.KindSnippetInvalid:
		return fiber.StatusBadRequest
	case toolerr.KindElementNotFound:
		return fiber.StatusNotFound
	case toolerr.KindSessionNotActive, toolerr.KindSessionAlreadyActive:
		return fiber.StatusConflict
	case toolerr.KindConversionFailure:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler is the custom error handler for Fiber
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	kind := ""

	var te *toolerr.Error
	var fe *fiber.Error
	switch {
	case errors.As(err, &te):
		code = StatusFor(te.Kind)
		kind = string(te.Kind)
	case errors.As(err, &fe):
		code = fe.Code
	}

	return c.Status(code).JSON(Response{
		Success: false,
		Error:   err.Error(),
		Kind:    kind,
	})
}

// HealthCheck returns health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(Response{
		Success: true,
		Data: map[string]interface{}{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// BrowserStatus returns browser session status
func (h *Handler) BrowserStatus(c *fiber.Ctx) error {
	return c.JSON(Response{
		Success: true,
		Data:    h.service.Manager().Status(),
	})
}

// ListTools returns the tool catalog
func (h *Handler) ListTools(c *fiber.Ctx) error {
	catalog := tools.Catalog()
	if catalog == nil {
		catalog = []tools.Tool{}
	}
	return c.JSON(Response{
		Success: true,
		Data: map[string]interface{}{
			"tools": catalog,
			"count": len(catalog),
		},
	})
}

// CallTool runs a tool with the JSON request body as its arguments
// POST /tools/:name
func (h *Handler) CallTool(c *fiber.Ctx) error {
	name := c.Params("name")
	if _, ok := tools.Lookup(name); !ok {
		return fiber.NewError(fiber.StatusNotFound, "Tool not found: "+name)
	}

	body := append([]byte(nil), c.Body()...)
	result, err := h.service.Call(c.UserContext(), name, body)
	if err != nil {
		return err
	}

	return c.JSON(Response{
		Success: true,
		Data:    result,
	})
}

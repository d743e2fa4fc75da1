// Package events carries session and tool lifecycle notifications to
// in-process subscribers and external sinks.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies what happened.
type Type string

const (
	SessionStarted  Type = "session.started"
	SessionClosed   Type = "session.closed"
	ToolSucceeded   Type = "tool.succeeded"
	ToolFailed      Type = "tool.failed"
	CaptchaDetected Type = "captcha.detected"
)

// Event is a single lifecycle notification
type Event struct {
	ID      string    `json:"id"`
	Type    Type      `json:"type"`
	Tool    string    `json:"tool,omitempty"`
	Message string    `json:"message,omitempty"`
	Time    time.Time `json:"time"`
}

// New stamps an event with an ID and the current time.
func New(typ Type, tool, message string) Event {
	return Event{
		ID:      uuid.NewString(),
		Type:    typ,
		Tool:    tool,
		Message: message,
		Time:    time.Now().UTC(),
	}
}

// Emitter accepts events. Implementations must not block the caller for long
// and must not fail it.
type Emitter interface {
	Emit(Event)
}

// Discard drops every event.
var Discard Emitter = discard{}

type discard struct{}

func (discard) Emit(Event) {}

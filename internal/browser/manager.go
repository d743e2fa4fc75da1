package browser

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ahrdadan/browsemd/internal/toolerr"
)

// Manager owns the single process-wide browser session slot.
type Manager struct {
	factory   Factory
	mu        sync.Mutex
	session   Session
	startedAt time.Time
}

// Status describes the session slot.
type Status struct {
	Active    bool      `json:"active"`
	Endpoint  string    `json:"endpoint,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
}

// NewManager creates a manager that launches sessions with factory.
func NewManager(factory Factory) *Manager {
	return &Manager{factory: factory}
}

// Start fills the slot. It fails if a session is already live.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		return toolerr.New(toolerr.KindSessionAlreadyActive, "browser session already exists")
	}

	session, err := m.factory(ctx)
	if err != nil {
		return toolerr.Wrap(toolerr.KindInternal, "failed to start browser", err)
	}

	m.session = session
	m.startedAt = time.Now()
	log.Printf("Browser session started")
	return nil
}

// Session returns the live session or a session_not_active error.
func (m *Manager) Session() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil, toolerr.New(toolerr.KindSessionNotActive, "browser session has not been started")
	}
	return m.session, nil
}

// Close quits the live session and empties the slot. The slot is emptied even
// when quit fails, since the driver cannot be reused afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return toolerr.New(toolerr.KindSessionNotActive, "no active browser session")
	}

	err := m.session.Quit()
	m.session = nil
	m.startedAt = time.Time{}
	if err != nil {
		return toolerr.Wrap(toolerr.KindInternal, "failed to close browser", err)
	}

	log.Printf("Browser session closed")
	return nil
}

// Shutdown is the best-effort teardown used on termination paths.
func (m *Manager) Shutdown() {
	if !m.IsActive() {
		return
	}
	if err := m.Close(); err != nil {
		log.Printf("Warning: failed to tear down browser session: %v", err)
	}
}

// IsActive reports whether a session is live.
func (m *Manager) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil
}

// Status returns a snapshot of the slot.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return Status{}
	}
	st := Status{Active: true, StartedAt: m.startedAt}
	if e, ok := m.session.(endpointer); ok {
		st.Endpoint = e.Endpoint()
	}
	return st
}

// Wait pauses for a fixed duration. It is a stand-in for page readiness and
// returns early only when ctx is done.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package browser_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ahrdadan/browsemd/internal/browser"
	"github.com/ahrdadan/browsemd/internal/browser/browsertest"
	"github.com/ahrdadan/browsemd/internal/toolerr"
)

func TestManagerSingleSlot(t *testing.T) {
	factory := browsertest.NewFactory(browsertest.NewSession())
	m := browser.NewManager(factory.Func())
	ctx := context.Background()

	if _, err := m.Session(); !toolerr.Is(err, toolerr.KindSessionNotActive) {
		t.Fatalf("Session() before start: expected session_not_active, got %v", err)
	}

	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if !m.IsActive() {
		t.Fatal("expected manager to be active")
	}

	if err := m.Start(ctx); !toolerr.Is(err, toolerr.KindSessionAlreadyActive) {
		t.Fatalf("second Start(): expected session_already_active, got %v", err)
	}
	if factory.Launches != 1 {
		t.Errorf("expected 1 launch, got %d", factory.Launches)
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if !factory.Session.Quitted {
		t.Error("expected session to be quit")
	}
	if err := m.Close(); !toolerr.Is(err, toolerr.KindSessionNotActive) {
		t.Fatalf("second Close(): expected session_not_active, got %v", err)
	}

	if err := m.Start(ctx); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if factory.Launches != 2 {
		t.Errorf("expected 2 launches, got %d", factory.Launches)
	}
}

func TestManagerStartFailure(t *testing.T) {
	factory := browsertest.NewFactory(nil)
	factory.Err = errors.New("no chrome binary")
	m := browser.NewManager(factory.Func())

	err := m.Start(context.Background())
	if toolerr.KindOf(err) != toolerr.KindInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
	if m.IsActive() {
		t.Error("slot must stay empty after a failed start")
	}
}

func TestManagerCloseClearsSlotOnQuitError(t *testing.T) {
	session := browsertest.NewSession()
	session.QuitErr = errors.New("connection reset")
	m := browser.NewManager(browsertest.NewFactory(session).Func())

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if err := m.Close(); toolerr.KindOf(err) != toolerr.KindInternal {
		t.Fatalf("expected internal error from Close, got %v", err)
	}
	if m.IsActive() {
		t.Error("slot must be empty after Close even when quit fails")
	}
}

func TestManagerShutdown(t *testing.T) {
	session := browsertest.NewSession()
	m := browser.NewManager(browsertest.NewFactory(session).Func())

	// No session: nothing to do.
	m.Shutdown()

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	session.QuitErr = errors.New("already gone")
	m.Shutdown()

	if !session.Quitted || m.IsActive() {
		t.Error("expected Shutdown to quit and release the session")
	}
}

func TestManagerStatus(t *testing.T) {
	session := browsertest.NewSession()
	session.EndpointURL = "ws://127.0.0.1:9222/devtools"
	m := browser.NewManager(browsertest.NewFactory(session).Func())

	if st := m.Status(); st.Active {
		t.Error("expected inactive status")
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	st := m.Status()
	if !st.Active || st.Endpoint != session.EndpointURL || st.StartedAt.IsZero() {
		t.Errorf("unexpected status: %+v", st)
	}
}

func TestWait(t *testing.T) {
	start := time.Now()
	if err := browser.Wait(context.Background(), 20*time.Millisecond); err != nil {
		t.Fatalf("Wait() failed: %v", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("expected Wait to pause for the full duration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := browser.Wait(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	if err := browser.Wait(context.Background(), 0); err != nil {
		t.Errorf("zero wait should return nil, got %v", err)
	}
}

func TestHasCaptcha(t *testing.T) {
	session := browsertest.NewSession()
	ctx := context.Background()

	found, err := browser.HasCaptcha(ctx, session)
	if err != nil || found {
		t.Fatalf("expected no captcha, got %v, %v", found, err)
	}

	session.SetCurrent(browsertest.Page{Counts: map[string]int{browser.CaptchaSelector: 1}})
	found, err = browser.HasCaptcha(ctx, session)
	if err != nil || !found {
		t.Fatalf("expected captcha, got %v, %v", found, err)
	}
}

func TestHasCaptchaSequence(t *testing.T) {
	session := browsertest.NewSession()
	session.SetCurrent(browsertest.Page{
		Sequences: map[string][]int{browser.CaptchaSelector: {0, 1}},
	})
	ctx := context.Background()

	for i, want := range []bool{false, true, true} {
		found, err := browser.HasCaptcha(ctx, session)
		if err != nil {
			t.Fatalf("probe %d: %v", i, err)
		}
		if found != want {
			t.Errorf("probe %d: expected %v, got %v", i, want, found)
		}
	}
}

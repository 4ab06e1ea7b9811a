package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/hodie-labs/hodie-platform/pkg/logging"
)

func newService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewMemorySessionStore(), logging.New("error"), nil)
}

func TestServiceStartOpensAtChoose(t *testing.T) {
	svc := newService(t)

	session, err := svc.Start(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if session.Step != StepChoose {
		t.Errorf("expected choose, got %s", session.Step)
	}
	if session.ID == "" {
		t.Error("session must get an id")
	}
	if session.UserID != "u1" {
		t.Errorf("expected owner u1, got %s", session.UserID)
	}
}

func TestServiceTransitionsPersist(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, "u1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := svc.SelectMethod(ctx, session.ID, MethodLab, "essential"); err != nil {
		t.Fatalf("SelectMethod: %v", err)
	}
	if _, err := svc.Continue(ctx, session.ID); err != nil {
		t.Fatalf("Continue: %v", err)
	}

	loaded, err := svc.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if loaded.Step != StepLocation {
		t.Errorf("transition must be persisted, got %s", loaded.Step)
	}
	if loaded.Selection.Method != MethodLab {
		t.Errorf("selection must be persisted, got %q", loaded.Selection.Method)
	}
}

func TestServiceBlockedTransitionDoesNotPersist(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, "u1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := svc.Continue(ctx, session.ID); !errors.Is(err, ErrMethodRequired) {
		t.Fatalf("expected ErrMethodRequired, got %v", err)
	}

	loaded, err := svc.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if loaded.Step != StepChoose {
		t.Errorf("blocked continue must leave the session at choose, got %s", loaded.Step)
	}
}

func TestServiceCloseDiscardsExactlyOnce(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, "u1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := svc.Close(ctx, session.ID); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := svc.Close(ctx, session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Close must report a missing session, got %v", err)
	}
	if _, err := svc.Get(ctx, session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Error("closed session must vanish")
	}
}

func TestServiceFullFlow(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, "u1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	id := session.ID

	steps := []func() (*Session, error){
		func() (*Session, error) { return svc.SelectMethod(ctx, id, MethodHome, "premium") },
		func() (*Session, error) { return svc.Continue(ctx, id) },
		func() (*Session, error) { return svc.SetLocation(ctx, id, "1 Main St", "", TimeSlots[2]) },
		func() (*Session, error) { return svc.Continue(ctx, id) },
		func() (*Session, error) { return svc.SetPayment(ctx, id, Payment{Name: "Pat"}) },
		func() (*Session, error) { return svc.Complete(ctx, id) },
	}
	var last *Session
	for i, step := range steps {
		if last, err = step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	if last.Step != StepConfirmation {
		t.Fatalf("expected confirmation, got %s", last.Step)
	}
	if last.Total() != 420 {
		t.Errorf("home total must be 420, got %d", last.Total())
	}

	if err := svc.Close(ctx, id); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := svc.Get(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Error("no booking record may survive Close")
	}
}

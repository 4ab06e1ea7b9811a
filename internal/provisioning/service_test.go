package provisioning

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hodie-labs/hodie-platform/internal/userstore"
	"github.com/hodie-labs/hodie-platform/pkg/logging"
)

type stubChecker struct {
	valid bool
	err   error
	calls int
}

func (s *stubChecker) HasValidAccess(context.Context, string) (bool, error) {
	s.calls++
	return s.valid, s.err
}

func testDefaults() Defaults {
	return Defaults{
		APIKey:          "sk-test-injected",
		APIKeyID:        "default",
		AIProvider:      "kimi-k2",
		MaxTokensPerDay: 100000,
	}
}

func newProvisioning(t *testing.T, checker AccessChecker) (*Service, *userstore.MemoryStore) {
	t.Helper()
	store := userstore.NewMemoryStore()
	return NewService(store, checker, testDefaults(), logging.New("error"), nil), store
}

func loadAssignmentRecord(t *testing.T, store *userstore.MemoryStore, userID string) Assignment {
	t.Helper()
	raw, err := store.Get(context.Background(), userstore.APIAssignmentKey(userID))
	if err != nil {
		t.Fatalf("load assignment: %v", err)
	}
	var a Assignment
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		t.Fatalf("unmarshal assignment: %v", err)
	}
	return a
}

func TestEnsureAccessRemoteValidIsNoOp(t *testing.T) {
	checker := &stubChecker{valid: true}
	svc, store := newProvisioning(t, checker)

	granted, err := svc.EnsureAccess(context.Background(), "u1")
	if err != nil || !granted {
		t.Fatalf("expected granted, got %v (err %v)", granted, err)
	}
	if checker.calls != 1 {
		t.Errorf("expected one remote check, got %d", checker.calls)
	}
	if _, err := store.Get(context.Background(), userstore.APIAssignmentKey("u1")); !errors.Is(err, userstore.ErrNotFound) {
		t.Error("remote-valid user must not get a new assignment")
	}
}

func TestEnsureAccessExistingSettingsIsNoOp(t *testing.T) {
	svc, store := newProvisioning(t, &stubChecker{valid: false})
	ctx := context.Background()

	manual, _ := json.Marshal(Settings{KimiK2APIKey: "sk-manual", EnableAI: true, AIProvider: "kimi-k2"})
	if err := store.Set(ctx, userstore.AISettingsKey("u1"), string(manual)); err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	granted, err := svc.EnsureAccess(ctx, "u1")
	if err != nil || !granted {
		t.Fatalf("expected granted, got %v (err %v)", granted, err)
	}
	if _, err := store.Get(ctx, userstore.APIAssignmentKey("u1")); !errors.Is(err, userstore.ErrNotFound) {
		t.Error("manually configured user must not get an assignment")
	}
}

func TestEnsureAccessDisabledSettingsTriggerSetup(t *testing.T) {
	svc, store := newProvisioning(t, nil)
	ctx := context.Background()

	disabled, _ := json.Marshal(Settings{KimiK2APIKey: "sk-manual", EnableAI: false})
	if err := store.Set(ctx, userstore.AISettingsKey("u1"), string(disabled)); err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	granted, err := svc.EnsureAccess(ctx, "u1")
	if err != nil || !granted {
		t.Fatalf("expected instant setup, got %v (err %v)", granted, err)
	}
	a := loadAssignmentRecord(t, store, "u1")
	if a.APIKey != "sk-test-injected" {
		t.Errorf("assignment must carry the injected key, got %q", a.APIKey)
	}
}

func TestEnsureAccessInstantSetupWritesBothRecords(t *testing.T) {
	svc, store := newProvisioning(t, nil)
	ctx := context.Background()

	granted, err := svc.EnsureAccess(ctx, "u1")
	if err != nil || !granted {
		t.Fatalf("expected granted, got %v (err %v)", granted, err)
	}

	a := loadAssignmentRecord(t, store, "u1")
	if a.UserID != "u1" || a.Status != StatusActive || a.APIKey != "sk-test-injected" {
		t.Errorf("unexpected assignment %+v", a)
	}
	if a.UsageStats.TotalRequests != 0 || a.UsageStats.TodayRequests != 0 {
		t.Errorf("usage counters must start at zero, got %+v", a.UsageStats)
	}

	raw, err := store.Get(ctx, userstore.AISettingsKey("u1"))
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	var settings Settings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		t.Fatalf("unmarshal settings: %v", err)
	}
	if !settings.EnableAI || settings.KimiK2APIKey != "sk-test-injected" || settings.MaxTokensPerDay != 100000 {
		t.Errorf("unexpected settings %+v", settings)
	}
}

func TestEnsureAccessIsIdempotent(t *testing.T) {
	svc, store := newProvisioning(t, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		granted, err := svc.EnsureAccess(ctx, "u1")
		if err != nil || !granted {
			t.Fatalf("call %d: expected granted, got %v (err %v)", i+1, granted, err)
		}
	}

	first := loadAssignmentRecord(t, store, "u1")

	if _, err := svc.EnsureAccess(ctx, "u1"); err != nil {
		t.Fatalf("third call: %v", err)
	}
	second := loadAssignmentRecord(t, store, "u1")

	if first.APIKey != second.APIKey || first.APIKeyID != second.APIKeyID {
		t.Errorf("repeated calls must keep the same stored key: %+v vs %+v", first, second)
	}
}

func TestEnsureAccessCheckErrorFallsThroughToSetup(t *testing.T) {
	checker := &stubChecker{err: errors.New("service unreachable")}
	svc, store := newProvisioning(t, checker)

	granted, err := svc.EnsureAccess(context.Background(), "u1")
	if err != nil || !granted {
		t.Fatalf("check errors are treated as needs-setup, got %v (err %v)", granted, err)
	}
	if a := loadAssignmentRecord(t, store, "u1"); a.APIKey == "" {
		t.Error("expected instant setup despite check error")
	}
}

func TestEnsureAccessRequiresInjectedKey(t *testing.T) {
	store := userstore.NewMemoryStore()
	svc := NewService(store, nil, Defaults{}, logging.New("error"), nil)

	granted, err := svc.EnsureAccess(context.Background(), "u1")
	if !errors.Is(err, ErrDefaultKeyMissing) {
		t.Fatalf("expected ErrDefaultKeyMissing, got %v", err)
	}
	if granted {
		t.Error("no access may be granted without an injected key")
	}
}

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"ruserwation/core"
	"ruserwation/webui"
)

type managerFixture struct {
	m      *SessionManager
	admins *fakeAdmins
	clock  *testClock
	store  *webui.MemorySessionStore
}

func newTestManager(t *testing.T, opts ...ManagerOption) managerFixture {
	t.Helper()
	admins := newFakeAdmins()
	admins.addAdmin(t, 1, "admin", "right-pw")
	clock := newTestClock()
	store := webui.NewMemorySessionStore(clock.Now)
	verifier := NewCredentialVerifier(admins, zap.NewNop())
	opts = append([]ManagerOption{WithManagerClock(clock.Now)}, opts...)
	return managerFixture{
		m:      NewSessionManager(verifier, store, zap.NewNop(), opts...),
		admins: admins,
		clock:  clock,
		store:  store,
	}
}

// failingCreateStore is a MemorySessionStore whose Create always fails.
type failingCreateStore struct {
	*webui.MemorySessionStore
}

func (s failingCreateStore) Create(ctx context.Context, username string, ttl time.Duration) (string, error) {
	return "", errBackend
}

func TestSessionManager_LoginCurrentUserLogout(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t).m

	id, err := m.Login(ctx, "admin", "right-pw")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if id == "" {
		t.Fatal("Login() returned an empty session id")
	}

	user, err := m.CurrentUser(ctx, id)
	if err != nil {
		t.Fatalf("CurrentUser() error = %v", err)
	}
	if user != core.Username("admin") {
		t.Errorf("CurrentUser() = %q, want admin", user)
	}

	m.Logout(ctx, id)
	if _, err := m.CurrentUser(ctx, id); !errors.Is(err, core.ErrSessionNotFound) {
		t.Errorf("CurrentUser() after Logout() error = %v, want ErrSessionNotFound", err)
	}

	// Logout is idempotent.
	m.Logout(ctx, id)
}

func TestSessionManager_UniformInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	f := newTestManager(t)
	m := f.m
	if _, err := m.Login(ctx, "admin", "right-pw"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name, username, password string
	}{
		{"wrong password", "admin", "wrong-pw"},
		{"unknown user", "nobody", "right-pw"},
		{"empty password", "admin", ""},
		{"empty username", "", "right-pw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.store.Count()
			id, err := m.Login(ctx, tt.username, tt.password)
			if got := f.store.Count(); got != before {
				t.Errorf("store size = %d after rejected Login(), want %d", got, before)
			}
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
			}
			if id != "" {
				t.Errorf("Login() id = %q, want empty", id)
			}
		})
	}
}

func TestSessionManager_LookupFailure(t *testing.T) {
	f := newTestManager(t)
	m := f.m
	f.admins.failOn = errBackend

	_, err := m.Login(context.Background(), "admin", "right-pw")
	if !errors.Is(err, errBackend) {
		t.Errorf("Login() error = %v, want wrapped backend error", err)
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Error("a backend failure must not look like bad credentials")
	}
}

func TestSessionManager_SessionCreationError(t *testing.T) {
	admins := newFakeAdmins()
	admins.addAdmin(t, 1, "admin", "right-pw")
	store := failingCreateStore{webui.NewMemorySessionStore(nil)}
	m := NewSessionManager(NewCredentialVerifier(admins, nil), store, nil)

	_, err := m.Login(context.Background(), "admin", "right-pw")
	if store.Count() != 0 {
		t.Errorf("store size = %d after failed Login(), want 0", store.Count())
	}
	var sce *SessionCreationError
	if !errors.As(err, &sce) {
		t.Fatalf("Login() error = %v, want *SessionCreationError", err)
	}
	if sce.Reason == "" || !errors.Is(err, errBackend) {
		t.Errorf("SessionCreationError = %+v", sce)
	}
}

func TestSessionManager_ExpiredSessionIsNotFound(t *testing.T) {
	ctx := context.Background()
	obs, logs := observer.New(zapcore.InfoLevel)
	admins := newFakeAdmins()
	admins.addAdmin(t, 1, "admin", "right-pw")
	clock := newTestClock()
	store := webui.NewMemorySessionStore(clock.Now)
	m := NewSessionManager(NewCredentialVerifier(admins, nil), store, zap.New(obs), WithSessionTTL(time.Minute))

	id, err := m.Login(ctx, "admin", "right-pw")
	if err != nil {
		t.Fatal(err)
	}
	clock.Advance(2 * time.Minute)

	if _, err := m.CurrentUser(ctx, id); !errors.Is(err, core.ErrSessionNotFound) {
		t.Errorf("CurrentUser() error = %v, want ErrSessionNotFound", err)
	}
	if logs.FilterMessage("session expired").Len() != 1 {
		t.Error("expiry was not logged")
	}
}

func TestSessionManager_CurrentUserUnknown(t *testing.T) {
	m := newTestManager(t).m
	if _, err := m.CurrentUser(context.Background(), "never-issued"); !errors.Is(err, core.ErrSessionNotFound) {
		t.Errorf("CurrentUser() error = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionManager_CurrentUserStoreFailure(t *testing.T) {
	m := NewSessionManager(nil, &stubStore{getErr: errBackend}, nil)
	_, err := m.CurrentUser(context.Background(), "id")
	if !errors.Is(err, errBackend) || errors.Is(err, core.ErrSessionNotFound) {
		t.Errorf("CurrentUser() error = %v, want wrapped backend error", err)
	}
}

func TestSessionManager_EmptyUsernamePanics(t *testing.T) {
	store := &stubStore{get: core.Session{ID: "id"}}
	m := NewSessionManager(nil, store, zap.NewNop())

	defer func() {
		if recover() == nil {
			t.Error("CurrentUser() did not panic on a session without a username")
		}
	}()
	m.CurrentUser(context.Background(), "id")
}

func TestSessionManager_LogoutSwallowsStoreErrors(t *testing.T) {
	obs, logs := observer.New(zapcore.WarnLevel)
	store := &stubStore{destroyErr: errBackend}
	m := NewSessionManager(nil, store, zap.New(obs))

	m.Logout(context.Background(), "some-session-id")
	if len(store.destroyed) != 1 {
		t.Errorf("Destroy called %d times, want 1", len(store.destroyed))
	}
	if logs.FilterMessage("failed to destroy session").Len() != 1 {
		t.Error("store failure was not logged")
	}
}

func TestSessionManager_LoginRecorder(t *testing.T) {
	var gotID int64
	var gotAt time.Time
	f := newTestManager(t, WithLoginRecorder(func(a *core.Admin, at time.Time) {
		gotID, gotAt = a.ID, at
	}))
	m, clock := f.m, f.clock

	if _, err := m.Login(context.Background(), "admin", "right-pw"); err != nil {
		t.Fatal(err)
	}
	if gotID != 1 || !gotAt.Equal(clock.Now()) {
		t.Errorf("recorder got (%d, %v)", gotID, gotAt)
	}
}

func TestSessionManager_DefaultTTL(t *testing.T) {
	m := NewSessionManager(nil, &stubStore{}, nil, WithSessionTTL(-time.Second))
	if m.TTL() != core.DefaultSessionTTL {
		t.Errorf("TTL() = %v, want %v", m.TTL(), core.DefaultSessionTTL)
	}
}

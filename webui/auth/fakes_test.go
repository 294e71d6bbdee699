package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ruserwation/core"
)

// fakeAdmins is an in-memory AdminLookup and AdminStore.
type fakeAdmins struct {
	mu     sync.Mutex
	byID   map[int64]*core.Admin
	failOn error
}

func newFakeAdmins() *fakeAdmins {
	return &fakeAdmins{byID: make(map[int64]*core.Admin)}
}

// addAdmin stores an admin whose password hashes with the fast test params.
func (f *fakeAdmins) addAdmin(t *testing.T, id int64, username, password string) *core.Admin {
	t.Helper()
	hash, err := HashPasswordWithParams(password, testParams)
	if err != nil {
		t.Fatalf("HashPasswordWithParams() error = %v", err)
	}
	a := &core.Admin{ID: id, Username: username, PasswordHash: hash, Email: username + "@example.com"}
	f.mu.Lock()
	f.byID[id] = a
	f.mu.Unlock()
	return a
}

func (f *fakeAdmins) FindByID(ctx context.Context, id int64) (*core.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != nil {
		return nil, f.failOn
	}
	a, ok := f.byID[id]
	if !ok {
		return nil, core.ErrAdminNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAdmins) FindByUsername(ctx context.Context, username string) (*core.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != nil {
		return nil, f.failOn
	}
	for _, a := range f.byID {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, core.ErrAdminNotFound
}

func (f *fakeAdmins) Save(ctx context.Context, a *core.Admin) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != nil {
		return 0, f.failOn
	}
	cp := *a
	f.byID[a.ID] = &cp
	return a.ID, nil
}

// stubStore is a core.SessionStore whose calls can be made to fail.
type stubStore struct {
	createErr  error
	destroyErr error
	get        core.Session
	getErr     error
	destroyed  []string
}

func (s *stubStore) Create(ctx context.Context, username string, ttl time.Duration) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	return "stub-session-id", nil
}

func (s *stubStore) Get(ctx context.Context, id string) (core.Session, error) {
	return s.get, s.getErr
}

func (s *stubStore) Destroy(ctx context.Context, id string) error {
	s.destroyed = append(s.destroyed, id)
	return s.destroyErr
}

var errBackend = errors.New("backend unavailable")

// testClock is a settable core.Clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

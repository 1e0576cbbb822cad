package identity

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dentwise/dentwise/internal/platform/auth"
)

// -- Mocks --

type mockUserRepo struct {
	mu      sync.Mutex
	byExt   map[string]*User
	failAll bool
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byExt: make(map[string]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return errors.New("db down")
	}
	if _, exists := m.byExt[u.ExternalID]; exists {
		return ErrDuplicateExternalID
	}
	u.ID = uuid.New()
	cp := *u
	m.byExt[u.ExternalID] = &cp
	return nil
}

func (m *mockUserRepo) GetByExternalID(_ context.Context, externalID string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return nil, errors.New("db down")
	}
	u, ok := m.byExt[externalID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type mockProfileFetcher struct {
	mu      sync.Mutex
	calls   int
	profile auth.Profile
	err     error
}

func (m *mockProfileFetcher) FetchProfile(_ context.Context, _ string) (*auth.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	p := m.profile
	return &p, nil
}

func (m *mockProfileFetcher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func newTestService(repo *mockUserRepo, fetcher *mockProfileFetcher) *Service {
	return NewService(repo, fetcher, zerolog.Nop())
}

// -- Tests --

func TestEnsureUser_CreatesOnFirstSight(t *testing.T) {
	repo := newMockUserRepo()
	fetcher := &mockProfileFetcher{profile: auth.Profile{Email: "a@b.c", FirstName: "Ada", LastName: "Lovelace"}}
	svc := newTestService(repo, fetcher)

	u, err := svc.EnsureUser(context.Background(), "ext_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ExternalID != "ext_1" || u.Email != "a@b.c" || u.FirstName != "Ada" {
		t.Errorf("unexpected user: %+v", u)
	}
	if fetcher.callCount() != 1 {
		t.Errorf("expected 1 profile fetch, got %d", fetcher.callCount())
	}
}

func TestEnsureUser_ShortCircuitsForExistingUser(t *testing.T) {
	repo := newMockUserRepo()
	fetcher := &mockProfileFetcher{}
	svc := newTestService(repo, fetcher)

	if _, err := svc.EnsureUser(context.Background(), "ext_1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := fetcher.callCount()

	u, err := svc.EnsureUser(context.Background(), "ext_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u == nil {
		t.Fatal("expected user")
	}
	if fetcher.callCount() != first {
		t.Errorf("expected no additional profile fetch for existing user, got %d", fetcher.callCount()-first)
	}
}

func TestEnsureUser_DuplicateRaceReturnsSurvivingRow(t *testing.T) {
	repo := newMockUserRepo()
	fetcher := &mockProfileFetcher{}
	_ = newTestService(repo, fetcher)

	// Simulate losing the race: another writer inserts between the lookup
	// and the create.
	winner := &User{ExternalID: "ext_1", Email: "winner@b.c"}
	loserRepo := &racingRepo{inner: repo, winner: winner}
	racySvc := NewService(loserRepo, fetcher, zerolog.Nop())

	u, err := racySvc.EnsureUser(context.Background(), "ext_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Email != "winner@b.c" {
		t.Errorf("expected the surviving row, got %+v", u)
	}
}

// racingRepo reports not-found on the first lookup, then lets a concurrent
// winner insert before the create attempt.
type racingRepo struct {
	inner  *mockUserRepo
	winner *User
	raced  bool
}

func (r *racingRepo) Create(ctx context.Context, u *User) error {
	if !r.raced {
		r.raced = true
		if err := r.inner.Create(ctx, r.winner); err != nil {
			return err
		}
	}
	return r.inner.Create(ctx, u)
}

func (r *racingRepo) GetByExternalID(ctx context.Context, externalID string) (*User, error) {
	return r.inner.GetByExternalID(ctx, externalID)
}

func TestEnsureUser_ConcurrentCallsYieldOneRow(t *testing.T) {
	repo := newMockUserRepo()
	fetcher := &mockProfileFetcher{}
	svc := newTestService(repo, fetcher)

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := svc.EnsureUser(context.Background(), "ext_1"); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if len(repo.byExt) != 1 {
		t.Errorf("expected exactly one persisted row, got %d", len(repo.byExt))
	}
}

func TestEnsureUser_EmptyExternalID(t *testing.T) {
	svc := newTestService(newMockUserRepo(), &mockProfileFetcher{})
	if _, err := svc.EnsureUser(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty external id")
	}
}

func TestEnsureUser_ProfileFetchFailurePropagates(t *testing.T) {
	repo := newMockUserRepo()
	fetcher := &mockProfileFetcher{err: errors.New("provider unreachable")}
	svc := newTestService(repo, fetcher)

	if _, err := svc.EnsureUser(context.Background(), "ext_1"); err == nil {
		t.Fatal("expected error when profile fetch fails")
	}
	if len(repo.byExt) != 0 {
		t.Error("expected no row created when profile fetch fails")
	}
}

func TestGetUser_DoesNotCreate(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestService(repo, &mockProfileFetcher{})

	_, err := svc.GetUser(context.Background(), "ext_unknown")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(repo.byExt) != 0 {
		t.Error("expected no row created by GetUser")
	}
}

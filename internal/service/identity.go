package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/msomdec/swirl-rewards/internal/domain"
)

const (
	// AdminStartingPoints is the balance given to admins at login.
	AdminStartingPoints = 9999
	// WelcomeBonus is the balance given to new accounts at signup.
	WelcomeBonus = 50
	// DefaultAdminEmail is the email that signs in with the admin role
	// unless configured otherwise.
	DefaultAdminEmail = "admin@duopenotti.com"
)

// RoleForEmail returns RoleAdmin when email matches adminEmail and RoleUser
// otherwise.
func RoleForEmail(adminEmail, email string) domain.Role {
	if adminEmail != "" && email == adminEmail {
		return domain.RoleAdmin
	}
	return domain.RoleUser
}

// RestoreAccount loads the persisted account from storage. A missing or
// malformed record yields nil; malformed records are logged and ignored.
func RestoreAccount(ctx context.Context, storage domain.LocalStorage) *domain.Account {
	raw, err := storage.Get(ctx, domain.AccountStorageKey)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Warn("read persisted account", "error", err)
		}
		return nil
	}

	var account domain.Account
	if err := json.Unmarshal([]byte(raw), &account); err != nil {
		slog.Warn("discard malformed persisted account", "error", err)
		return nil
	}
	if account.ID == "" {
		slog.Warn("discard persisted account without id")
		return nil
	}
	if account.Role != domain.RoleAdmin {
		account.Role = domain.RoleUser
	}
	return &account
}

// IdentityStore holds the signed-in account of one client and is the only
// way to change its point balance. Every change is persisted before it
// becomes visible.
type IdentityStore struct {
	mu        sync.Mutex
	storage   domain.LocalStorage
	account   *domain.Account
	listeners listeners[*domain.Account]
}

// NewIdentityStore creates an IdentityStore. restored is the account found
// at startup, typically from RestoreAccount, or nil.
func NewIdentityStore(storage domain.LocalStorage, restored *domain.Account) *IdentityStore {
	s := &IdentityStore{storage: storage}
	if restored != nil {
		a := *restored
		s.account = &a
	}
	return s
}

// Current returns a copy of the signed-in account, or nil.
func (s *IdentityStore) Current() *domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Subscribe registers fn to receive the account after every change. A nil
// account means signed out. fn must not block or call back into the
// stores. The returned func unsubscribes.
func (s *IdentityStore) Subscribe(fn func(*domain.Account)) func() {
	return s.listeners.add(fn)
}

// Login signs in as a freshly created account. No credentials are checked.
// An empty role means RoleUser. Any previous session is replaced.
func (s *IdentityStore) Login(ctx context.Context, email string, role domain.Role) (*domain.Account, error) {
	if email == "" {
		return nil, domain.Fail(domain.ErrInvalidInput, "Email is required.")
	}
	switch role {
	case "":
		role = domain.RoleUser
	case domain.RoleUser, domain.RoleAdmin:
	default:
		return nil, domain.Fail(domain.ErrInvalidInput, fmt.Sprintf("Unknown role %q.", role))
	}

	name, _, _ := strings.Cut(email, "@")
	points := 0
	if role == domain.RoleAdmin {
		points = AdminStartingPoints
	}

	return s.replace(ctx, &domain.Account{
		ID:     uuid.NewString(),
		Name:   name,
		Email:  email,
		Points: points,
		Role:   role,
	})
}

// Signup creates a new user account with the welcome bonus. The password is
// accepted but neither stored nor checked.
func (s *IdentityStore) Signup(ctx context.Context, name, email, _ string) (*domain.Account, error) {
	if name == "" || email == "" {
		return nil, domain.Fail(domain.ErrInvalidInput, "Name and email are required.")
	}

	return s.replace(ctx, &domain.Account{
		ID:     uuid.NewString(),
		Name:   name,
		Email:  email,
		Points: WelcomeBonus,
		Role:   domain.RoleUser,
	})
}

// Logout clears the account and its persisted copy.
func (s *IdentityStore) Logout(ctx context.Context) error {
	s.mu.Lock()
	if err := s.storage.Delete(ctx, domain.AccountStorageKey); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("delete persisted account: %w", err)
	}
	s.account = nil
	s.mu.Unlock()

	s.listeners.notify(nil)
	return nil
}

// UpdatePoints adds delta to the balance, clamping at zero. It returns nil
// and does nothing when no account is signed in.
func (s *IdentityStore) UpdatePoints(ctx context.Context, delta int) (*domain.Account, error) {
	s.mu.Lock()
	if s.account == nil {
		s.mu.Unlock()
		return nil, nil
	}
	next := *s.account
	next.Points = max(0, next.Points+delta)
	updated, err := s.commitLocked(ctx, &next)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.listeners.notify(updated)
	return updated, nil
}

// Debit atomically checks that the balance covers amount and subtracts it.
func (s *IdentityStore) Debit(ctx context.Context, amount int) (*domain.Account, error) {
	if amount < 0 {
		return nil, domain.Fail(domain.ErrInvalidInput, "Amount must not be negative.")
	}

	s.mu.Lock()
	if s.account == nil {
		s.mu.Unlock()
		return nil, domain.Fail(domain.ErrNotAuthenticated, "Please login first")
	}
	if s.account.Points < amount {
		s.mu.Unlock()
		return nil, domain.Fail(domain.ErrInsufficientPoints, "Not enough points!")
	}
	next := *s.account
	next.Points -= amount
	updated, err := s.commitLocked(ctx, &next)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.listeners.notify(updated)
	return updated, nil
}

func (s *IdentityStore) replace(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	s.mu.Lock()
	updated, err := s.commitLocked(ctx, account)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.listeners.notify(updated)
	return updated, nil
}

// commitLocked persists account and makes it current. The caller holds s.mu.
func (s *IdentityStore) commitLocked(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	data, err := json.Marshal(account)
	if err != nil {
		return nil, fmt.Errorf("encode account: %w", err)
	}
	if err := s.storage.Set(ctx, domain.AccountStorageKey, string(data)); err != nil {
		return nil, fmt.Errorf("persist account: %w", err)
	}
	s.account = account
	return s.snapshot(), nil
}

func (s *IdentityStore) snapshot() *domain.Account {
	if s.account == nil {
		return nil
	}
	a := *s.account
	return &a
}

package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/msomdec/swirl-rewards/internal/domain"
	"github.com/msomdec/swirl-rewards/internal/metrics"
)

// Session is the in-memory state of one client: its local storage, its
// signed-in account and its cart.
type Session struct {
	ID       string
	Storage  domain.LocalStorage
	Identity *IdentityStore
	Loyalty  *LoyaltyStore
}

// StorageFactory returns the local storage for a client namespace.
type StorageFactory func(namespace string) domain.LocalStorage

type sessionEntry struct {
	session  *Session
	lastSeen time.Time
}

// SessionRegistry creates client sessions on first use and drops them from
// memory after they sit idle. Dropping a session loses its cart and code
// ledger; the persisted account is restored the next time it is used.
type SessionRegistry struct {
	storage StorageFactory
	rewards domain.RewardRepository
	idleTTL time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// NewSessionRegistry creates a SessionRegistry. Sessions idle for longer
// than idleTTL are removed by EvictIdle.
func NewSessionRegistry(storage StorageFactory, rewards domain.RewardRepository, idleTTL time.Duration) *SessionRegistry {
	return &SessionRegistry{
		storage:  storage,
		rewards:  rewards,
		idleTTL:  idleTTL,
		now:      time.Now,
		sessions: make(map[string]*sessionEntry),
	}
}

// Get returns the session with the given ID, creating it and restoring its
// persisted account if it is not in memory.
func (r *SessionRegistry) Get(ctx context.Context, id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.sessions[id]; ok {
		e.lastSeen = r.now()
		return e.session
	}

	storage := r.storage(id)
	identity := NewIdentityStore(storage, RestoreAccount(ctx, storage))
	s := &Session{
		ID:       id,
		Storage:  storage,
		Identity: identity,
		Loyalty:  NewLoyaltyStore(identity, r.rewards),
	}
	r.sessions[id] = &sessionEntry{session: s, lastSeen: r.now()}
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	return s
}

// Touch marks the session as used without creating it.
func (r *SessionRegistry) Touch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[id]; ok {
		e.lastSeen = r.now()
	}
}

// Len returns the number of sessions held in memory.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// EvictIdle removes sessions not used within the idle TTL and returns how
// many were removed.
func (r *SessionRegistry) EvictIdle() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleTTL)
	evicted := 0
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			evicted++
		}
	}
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	return evicted
}

// Run evicts idle sessions every interval until ctx is cancelled.
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.EvictIdle(); n > 0 {
				slog.Debug("evicted idle sessions", "count", n)
			}
		}
	}
}

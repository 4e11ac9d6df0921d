package company

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/joaofarinelli/we-crm-sub002/pkg/tenant"
)

// Resolver resolves the company membership of a user. Resolution
// happens once per login and once per token refresh; every request in
// between trusts the company and role baked into the access token.
//
// Resolve never fails a caller: a lookup error is logged and collapsed
// into "no membership", which downstream reads as onboarding state.
type Resolver struct {
	repo   *Repository
	logger zerolog.Logger

	mu    sync.RWMutex
	cache map[string]cachedMembership
	ttl   time.Duration
}

type cachedMembership struct {
	membership *tenant.Membership
	expiresAt  time.Time
}

// NewResolver creates a new membership resolver
func NewResolver(repo *Repository, logger zerolog.Logger) *Resolver {
	return &Resolver{
		repo:   repo,
		logger: logger.With().Str("component", "company_resolver").Logger(),
		cache:  make(map[string]cachedMembership),
		ttl:    30 * time.Second,
	}
}

// Resolve returns the membership of a user, or (nil, nil) when the user
// belongs to no active company.
func (r *Resolver) Resolve(ctx context.Context, userID string) (*tenant.Membership, error) {
	r.mu.RLock()
	entry, ok := r.cache[userID]
	r.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.membership, nil
	}

	membership, err := r.repo.GetMembership(ctx, userID)
	if err == sql.ErrNoRows {
		r.store(userID, nil)
		return nil, nil
	}
	if err != nil {
		// Treat infrastructure failures as "no membership" rather than
		// blocking login; the user lands on onboarding and can retry.
		r.logger.Error().Err(err).Str("user_id", userID).Msg("membership lookup failed")
		return nil, nil
	}

	r.store(userID, membership)
	return membership, nil
}

// Invalidate drops the cached membership of a user. Called when the
// user is added to or removed from a company so the next refresh sees
// the change immediately.
func (r *Resolver) Invalidate(userID string) {
	r.mu.Lock()
	delete(r.cache, userID)
	r.mu.Unlock()
}

func (r *Resolver) store(userID string, m *tenant.Membership) {
	r.mu.Lock()
	r.cache[userID] = cachedMembership{membership: m, expiresAt: time.Now().Add(r.ttl)}
	r.mu.Unlock()
}

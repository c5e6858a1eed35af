package auth

import (
	"context"
	"sync"
	"time"
)

// TokenDenylist records revoked token IDs until their natural expiry. Logout
// and refresh revoke the presented token's jti; the auth middleware consults
// the denylist on every authenticated request.
type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemoryDenylist keeps revoked IDs in process memory. Suitable for a single
// instance and for tests; entries are dropped once the token they belong to
// would have expired anyway.
type MemoryDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewMemoryDenylist creates an empty in-process denylist.
func NewMemoryDenylist() *MemoryDenylist {
	return &MemoryDenylist{revoked: make(map[string]time.Time)}
}

// Revoke marks the token ID revoked until the given time.
func (d *MemoryDenylist) Revoke(_ context.Context, jti string, until time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sweepLocked(time.Now())
	d.revoked[jti] = until
	return nil
}

// IsRevoked reports whether the token ID is currently revoked.
func (d *MemoryDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	until, ok := d.revoked[jti]
	if !ok {
		return false, nil
	}
	if time.Now().After(until) {
		delete(d.revoked, jti)
		return false, nil
	}
	return true, nil
}

func (d *MemoryDenylist) sweepLocked(now time.Time) {
	for jti, until := range d.revoked {
		if now.After(until) {
			delete(d.revoked, jti)
		}
	}
}

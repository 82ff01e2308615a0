package r2client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LockInfo is the JSON body of a lock object.
type LockInfo struct {
	Owner     string    `json:"owner"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Lock is a lease stored as an object. Only the owner that created the
// object (or took over an expired one) holds it.
type Lock struct {
	store Store
	key   string
	ttl   time.Duration
	owner string
	etag  string
	now   func() time.Time
}

// NewLock creates a Lock on key with a fresh owner ID.
func NewLock(store Store, key string, ttl time.Duration) *Lock {
	return &Lock{
		store: store,
		key:   key,
		ttl:   ttl,
		owner: uuid.NewString(),
		now:   time.Now,
	}
}

// SetClock replaces the clock used for lease expiry.
func (l *Lock) SetClock(now func() time.Time) {
	if now != nil {
		l.now = now
	}
}

// Owner returns the lock's owner ID.
func (l *Lock) Owner() string {
	return l.owner
}

func (l *Lock) body() ([]byte, error) {
	return json.Marshal(LockInfo{Owner: l.owner, ExpiresAt: l.now().Add(l.ttl)})
}

// Acquire takes the lock. It returns false without error when another
// owner holds an unexpired lease.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	body, err := l.body()
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}

	created, etag, err := l.store.PutIfAbsent(ctx, l.key, body, "application/json")
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	if created {
		l.etag = etag
		return true, nil
	}

	current, currentETag, err := l.store.Get(ctx, l.key)
	if errors.Is(err, ErrNotFound) {
		// Released between our put and get; the next run will take it.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("acquire lock: read: %w", err)
	}

	var info LockInfo
	if json.Unmarshal(current, &info) == nil && l.now().Before(info.ExpiresAt) {
		return false, nil
	}

	// Expired or unreadable: take it over unless someone else already did.
	took, etag, err := l.store.PutIfMatch(ctx, l.key, body, currentETag, "application/json")
	if err != nil {
		return false, fmt.Errorf("acquire lock: take over: %w", err)
	}
	if took {
		l.etag = etag
	}
	return took, nil
}

// Renew extends the lease. It returns false when the lock was lost.
func (l *Lock) Renew(ctx context.Context) (bool, error) {
	if l.etag == "" {
		return false, nil
	}
	body, err := l.body()
	if err != nil {
		return false, fmt.Errorf("renew lock: %w", err)
	}
	ok, etag, err := l.store.PutIfMatch(ctx, l.key, body, l.etag, "application/json")
	if err != nil {
		return false, fmt.Errorf("renew lock: %w", err)
	}
	if !ok {
		l.etag = ""
		return false, nil
	}
	l.etag = etag
	return true, nil
}

// Release deletes the lock object if this owner still holds it.
func (l *Lock) Release(ctx context.Context) error {
	if l.etag == "" {
		return nil
	}
	defer func() { l.etag = "" }()

	current, _, err := l.store.Get(ctx, l.key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}

	var info LockInfo
	if err := json.Unmarshal(current, &info); err == nil && info.Owner != l.owner {
		return nil
	}
	return l.store.Delete(ctx, l.key)
}

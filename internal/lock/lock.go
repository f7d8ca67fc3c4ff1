// Package lock serializes ingestion cycles, in-process or across processes.
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrNotObtained is returned when another holder owns the lock.
var ErrNotObtained = errors.New("lock not obtained")

// Lease is a held lock.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker hands out a single lease at a time. Acquire never blocks waiting for
// the current holder; it returns ErrNotObtained instead.
type Locker interface {
	Acquire(ctx context.Context) (Lease, error)
}

// Local is an in-process Locker.
type Local struct {
	mu sync.Mutex
}

// NewLocal creates an in-process locker.
func NewLocal() *Local {
	return &Local{}
}

// Acquire obtains the lock or returns ErrNotObtained.
func (l *Local) Acquire(_ context.Context) (Lease, error) {
	if !l.mu.TryLock() {
		return nil, ErrNotObtained
	}
	return &localLease{l: l}, nil
}

type localLease struct {
	once sync.Once
	l    *Local
}

func (ll *localLease) Release(_ context.Context) error {
	ll.once.Do(ll.l.mu.Unlock)
	return nil
}

var _ Locker = (*Local)(nil)

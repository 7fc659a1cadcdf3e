package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/flowplan/pkg/ports"
)

// Locker implements ports.DistributedLocker within a single process.
// The ttl is ignored: a lock is held until released.
type Locker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocker creates a new in-process locker.
func NewLocker() *Locker {
	return &Locker{slots: make(map[string]chan struct{})}
}

func (l *Locker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

// Lock blocks until key is free or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, _ time.Duration) (ports.UnlockFunc, error) {
	ch := l.slot(key)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() { <-ch })
		return nil
	}, nil
}

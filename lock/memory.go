package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryBackend keeps leases in process. It coordinates goroutines only.
type MemoryBackend struct {
	mu     sync.Mutex
	leases map[string]Lease
	fences map[string]int64
	now    func() time.Time
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		leases: make(map[string]Lease),
		fences: make(map[string]int64),
		now:    time.Now,
	}
}

func (b *MemoryBackend) Acquire(_ context.Context, name, owner string, lease time.Duration) (Lease, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if held, ok := b.leases[name]; ok && now.Before(held.ExpiresAt) {
		return Lease{}, ErrLockHeld
	}

	b.fences[name]++
	l := Lease{
		Name:         name,
		Owner:        owner,
		Token:        uuid.NewString(),
		FencingToken: b.fences[name],
		ExpiresAt:    now.Add(lease),
	}
	b.leases[name] = l
	return l, nil
}

func (b *MemoryBackend) Renew(_ context.Context, l Lease, lease time.Duration) (Lease, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	held, ok := b.leases[l.Name]
	if !ok || held.Token != l.Token {
		return Lease{}, ErrLockLost
	}
	held.ExpiresAt = b.now().Add(lease)
	b.leases[l.Name] = held
	return held, nil
}

func (b *MemoryBackend) Release(_ context.Context, l Lease) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	held, ok := b.leases[l.Name]
	if !ok || held.Token != l.Token {
		return ErrLockLost
	}
	delete(b.leases, l.Name)
	return nil
}

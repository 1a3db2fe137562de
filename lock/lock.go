package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Lease is a granted lock as recorded by a Backend.
type Lease struct {
	Name  string
	Owner string

	// Token identifies this grant. Renew and Release only succeed while the
	// backend still records it.
	Token string

	// FencingToken increases with every acquisition of the same name.
	FencingToken int64

	ExpiresAt time.Time
}

// Backend stores leases in a coordination service.
type Backend interface {
	// Acquire grants name to owner for lease if it is free or its lease expired.
	// It returns ErrLockHeld otherwise.
	Acquire(ctx context.Context, name, owner string, lease time.Duration) (Lease, error)

	// Renew extends l by the duration it was granted for, returning ErrLockLost
	// if l is no longer current.
	Renew(ctx context.Context, l Lease, lease time.Duration) (Lease, error)

	// Release frees l, returning ErrLockLost if l is no longer current.
	Release(ctx context.Context, l Lease) error
}

// Manager acquires named locks with a background heartbeat.
type Manager struct {
	backend Backend
	config  Config
	logger  zerolog.Logger
}

// NewManager creates a Manager. Zero config values take their defaults.
func NewManager(backend Backend, config Config, logger zerolog.Logger) *Manager {
	config.validate()
	return &Manager{
		backend: backend,
		config:  config,
		logger:  logger,
	}
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.config
}

// Lock acquires name, retrying while it is held by someone else. The returned
// Lock renews its lease until released.
//
// Locks are advisory: if renewal fails the lease may be taken over at any time.
// Watch Lost to find out.
func (m *Manager) Lock(ctx context.Context, name string) (*Lock, error) {
	var (
		lease Lease
		err   error
	)
	for attempt := 0; ; attempt++ {
		lease, err = m.backend.Acquire(ctx, name, m.config.Owner, m.config.LeaseDuration)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrLockHeld) || attempt >= m.config.Retries {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.config.RetryInterval):
		}
	}

	l := &Lock{
		backend: m.backend,
		logger:  m.logger,
		lease:   lease,
		period:  m.config.HeartbeatPeriod,
		ttl:     m.config.LeaseDuration,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		lost:    make(chan struct{}),
	}
	go l.heartbeat()

	m.logger.Debug().
		Str("lock", name).
		Int64("fencing_token", lease.FencingToken).
		Msg("lock acquired")
	return l, nil
}

// Lock is a held lock. It is safe for concurrent use.
type Lock struct {
	backend Backend
	logger  zerolog.Logger
	period  time.Duration
	ttl     time.Duration

	mu       sync.Mutex
	lease    Lease
	released bool

	stop     chan struct{}
	done     chan struct{}
	lost     chan struct{}
	lostOnce sync.Once
}

// Name returns the lock name.
func (l *Lock) Name() string {
	return l.current().Name
}

// FencingToken returns the fencing token of the acquisition.
func (l *Lock) FencingToken() int64 {
	return l.current().FencingToken
}

// Lost is closed when a renewal fails. The lock must then be assumed taken.
func (l *Lock) Lost() <-chan struct{} {
	return l.lost
}

// Release stops the heartbeat and frees the lock.
func (l *Lock) Release(ctx context.Context) error {
	l.mu.Lock()
	if l.released {
		l.mu.Unlock()
		return ErrReleased
	}
	l.released = true
	l.mu.Unlock()

	close(l.stop)
	<-l.done

	return l.backend.Release(ctx, l.current())
}

func (l *Lock) current() Lease {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lease
}

func (l *Lock) heartbeat() {
	defer close(l.done)

	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
		}

		lease := l.current()
		ctx, cancel := context.WithTimeout(context.Background(), l.period)
		next, err := l.backend.Renew(ctx, lease, l.ttl)
		cancel()
		if err != nil {
			l.logger.Error().
				Err(err).
				Str("lock", lease.Name).
				Msgf("failed to renew heartbeat for lock %s", lease.Name)
			l.lostOnce.Do(func() { close(l.lost) })
			return
		}

		l.mu.Lock()
		l.lease = next
		l.mu.Unlock()
	}
}

package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of a go-redis client used by RedisBackend.
type RedisClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

var (
	renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)
)

// RedisBackend stores each lock as a key holding the lease token, expiring with
// the lease. A separate counter key supplies fencing tokens.
type RedisBackend struct {
	client RedisClient
	prefix string
	now    func() time.Time
}

// NewRedisBackend creates a backend whose keys start with prefix.
func NewRedisBackend(client RedisClient, prefix string) *RedisBackend {
	return &RedisBackend{client: client, prefix: prefix, now: time.Now}
}

func (b *RedisBackend) key(name string) string {
	return b.prefix + name
}

func (b *RedisBackend) fenceKey(name string) string {
	return b.prefix + name + ":fence"
}

func (b *RedisBackend) Acquire(ctx context.Context, name, owner string, lease time.Duration) (Lease, error) {
	token := uuid.NewString()

	ok, err := b.client.SetNX(ctx, b.key(name), token, lease).Result()
	if err != nil {
		return Lease{}, err
	}
	if !ok {
		return Lease{}, ErrLockHeld
	}

	fence, err := b.client.Incr(ctx, b.fenceKey(name)).Result()
	if err != nil {
		// Give the key back so the lock is not held until the lease expires.
		if relErr := releaseScript.Run(ctx, b.client, []string{b.key(name)}, token).Err(); relErr != nil {
			return Lease{}, errors.Join(err, relErr)
		}
		return Lease{}, err
	}

	return Lease{
		Name:         name,
		Owner:        owner,
		Token:        token,
		FencingToken: fence,
		ExpiresAt:    b.now().Add(lease),
	}, nil
}

func (b *RedisBackend) Renew(ctx context.Context, l Lease, lease time.Duration) (Lease, error) {
	n, err := renewScript.Run(ctx, b.client, []string{b.key(l.Name)}, l.Token, lease.Milliseconds()).Int()
	if err != nil {
		return Lease{}, err
	}
	if n == 0 {
		return Lease{}, ErrLockLost
	}
	l.ExpiresAt = b.now().Add(lease)
	return l, nil
}

func (b *RedisBackend) Release(ctx context.Context, l Lease) error {
	n, err := releaseScript.Run(ctx, b.client, []string{b.key(l.Name)}, l.Token).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLockLost
	}
	return nil
}

package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/suggestbox/internal/domain"
)

var (
	renewScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

	releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
)

// LeaderElection lets one instance at a time own the periodic sweeps. The
// holder keeps a key with a TTL; a crashed holder loses it when it expires.
type LeaderElection struct {
	rdb        goredis.Cmdable
	instanceID string
	key        string
	ttl        time.Duration
}

var _ domain.LeaderElector = (*LeaderElection)(nil)

func NewLeaderElection(rdb goredis.Cmdable, instanceID, key string, ttl time.Duration) *LeaderElection {
	return &LeaderElection{rdb: rdb, instanceID: instanceID, key: key, ttl: ttl}
}

// TryAcquire takes the lock if it is free and renews it if this instance
// already holds it.
func (l *LeaderElection) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, l.key, l.instanceID, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire leader lock: %w", err)
	}
	if ok {
		return true, nil
	}

	renewed, err := renewScript.Run(ctx, l.rdb, []string{l.key}, l.instanceID, l.ttl.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to renew leader lock: %w", err)
	}
	return renewed == 1, nil
}

// Release gives up the lock. Returns domain.ErrNotLeader if another instance holds it.
func (l *LeaderElection) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, l.rdb, []string{l.key}, l.instanceID).Int64()
	if err != nil {
		return fmt.Errorf("failed to release leader lock: %w", err)
	}
	if n == 0 {
		return domain.ErrNotLeader
	}
	return nil
}

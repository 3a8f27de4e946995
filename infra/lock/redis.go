// Package lock provides lock managers backed by shared infrastructure, so
// several ledger processes can serialize on the same accounts.
package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/amirasaad/ledger/pkg/domain"
	ledgerlock "github.com/amirasaad/ledger/pkg/lock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes a key only if it still holds our token, so an expired
// lease taken over by someone else is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisConfig tunes a Redis lock manager.
type RedisConfig struct {
	Prefix        string
	Timeout       time.Duration
	TTL           time.Duration
	RetryInterval time.Duration
}

// Redis is a Manager built on SET NX PX leases.
type Redis struct {
	client redis.UniversalClient
	cfg    RedisConfig
	logger *slog.Logger
}

// NewRedis creates a Redis lock manager on client.
func NewRedis(client redis.UniversalClient, cfg RedisConfig, logger *slog.Logger) *Redis {
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 10 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, cfg: cfg, logger: logger.With("lock", "redis")}
}

// NewRedisFromURL parses a redis:// URL and creates the client and manager.
func NewRedisFromURL(url string, cfg RedisConfig, logger *slog.Logger) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedis(redis.NewClient(opt), cfg, logger), nil
}

func (r *Redis) key(id uuid.UUID) string {
	return r.cfg.Prefix + id.String()
}

// Acquire takes a lease on every id in canonical order.
func (r *Redis) Acquire(ctx context.Context, ids ...uuid.UUID) (ledgerlock.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := &redisHandle{r: r, token: uuid.NewString()}
	deadline := time.Now().Add(r.cfg.Timeout)

	for _, id := range ledgerlock.Canonical(ids) {
		key := r.key(id)
		for {
			ok, err := r.client.SetNX(ctx, key, h.token, r.cfg.TTL).Result()
			if err != nil {
				h.Release()
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				return nil, domain.StorageError(err)
			}
			if ok {
				h.keys = append(h.keys, key)
				break
			}
			wait := time.Until(deadline)
			if wait <= 0 {
				h.Release()
				return nil, fmt.Errorf("%w: timed out after %s waiting for account %s", domain.ErrBusy, r.cfg.Timeout, id)
			}
			t := time.NewTimer(min(wait, r.cfg.RetryInterval))
			select {
			case <-ctx.Done():
				t.Stop()
				h.Release()
				return nil, ctx.Err()
			case <-t.C:
			}
		}
	}
	return h, nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}

var _ ledgerlock.Manager = (*Redis)(nil)

type redisHandle struct {
	r     *Redis
	token string
	keys  []string
	once  sync.Once
}

func (h *redisHandle) Release() {
	h.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for i := len(h.keys) - 1; i >= 0; i-- {
			if err := releaseScript.Run(ctx, h.r.client, []string{h.keys[i]}, h.token).Err(); err != nil {
				// the lease expires on its own after TTL
				h.r.logger.Error("Failed to release lock", "key", h.keys[i], "error", err)
			}
		}
		h.keys = nil
	})
}

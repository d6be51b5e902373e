package service

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// issueScript повторяет MemoryRegistry.Issue атомарно.
// KEYS: clients (client->token), owners (token->client), tokens (set).
// ARGV: client, token.
var issueScript = redis.NewScript(`
local old = redis.call('HGET', KEYS[1], ARGV[1])
if old and old ~= ARGV[2] and redis.call('HGET', KEYS[2], old) == ARGV[1] then
	redis.call('HDEL', KEYS[2], old)
	redis.call('SREM', KEYS[3], old)
end
local prev = redis.call('HGET', KEYS[2], ARGV[2])
if prev and prev ~= ARGV[1] then
	redis.call('HDEL', KEYS[1], prev)
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
redis.call('HSET', KEYS[2], ARGV[2], ARGV[1])
redis.call('SADD', KEYS[3], ARGV[2])
return 1
`)

// RedisRegistry — то же, что MemoryRegistry, но переживает рестарт и
// делится между репликами.
type RedisRegistry struct {
	rdb        redis.UniversalClient
	clientsKey string
	ownersKey  string
	tokensKey  string
}

func NewRedisRegistry(rdb redis.UniversalClient, prefix string) *RedisRegistry {
	return &RedisRegistry{
		rdb:        rdb,
		clientsKey: prefix + ":clients",
		ownersKey:  prefix + ":owners",
		tokensKey:  prefix + ":tokens",
	}
}

func (r *RedisRegistry) Issue(ctx context.Context, client, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	keys := []string{r.clientsKey, r.ownersKey, r.tokensKey}
	if err := issueScript.Run(ctx, r.rdb, keys, client, token).Err(); err != nil {
		return fmt.Errorf("redis issue token: %w", err)
	}
	return nil
}

func (r *RedisRegistry) IsAuthorized(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	ok, err := r.rdb.SIsMember(ctx, r.tokensKey, token).Result()
	if err != nil {
		return false, fmt.Errorf("redis sismember: %w", err)
	}
	return ok, nil
}

func (r *RedisRegistry) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

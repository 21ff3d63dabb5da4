package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// JournalStore keeps the ordered list of successful mutating statements
// of each sandbox, so the sandbox can be rebuilt by replaying them.
type JournalStore interface {
	Append(ctx context.Context, sandboxID uuid.UUID, statement string) error
	Statements(ctx context.Context, sandboxID uuid.UUID) ([]string, error)
	Touch(ctx context.Context, sandboxID uuid.UUID) error
	Delete(ctx context.Context, sandboxID uuid.UUID) error
}

type RedisRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisRepository(rdb *redis.Client, ttl time.Duration) *RedisRepository {
	return &RedisRepository{rdb: rdb, ttl: ttl}
}

func journalKey(sandboxID uuid.UUID) string {
	return "journal:" + sandboxID.String()
}

func (r *RedisRepository) Append(ctx context.Context, sandboxID uuid.UUID, statement string) error {
	key := journalKey(sandboxID)
	pipe := r.rdb.TxPipeline()
	pipe.RPush(ctx, key, statement)
	pipe.Expire(ctx, key, r.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisRepository) Statements(ctx context.Context, sandboxID uuid.UUID) ([]string, error) {
	return r.rdb.LRange(ctx, journalKey(sandboxID), 0, -1).Result()
}

func (r *RedisRepository) Touch(ctx context.Context, sandboxID uuid.UUID) error {
	return r.rdb.Expire(ctx, journalKey(sandboxID), r.ttl).Err()
}

func (r *RedisRepository) Delete(ctx context.Context, sandboxID uuid.UUID) error {
	return r.rdb.Del(ctx, journalKey(sandboxID)).Err()
}

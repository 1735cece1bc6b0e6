package state

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"jobscout/models"
)

// RedisVisitedStore keeps the visited set in a Redis set. Since IDs are never
// removed, Save only has to add members.
type RedisVisitedStore struct {
	client *redis.Client
	key    string
}

// NewRedisVisitedStore initializes a Redis-backed VisitedStore
func NewRedisVisitedStore(addr, key string) *RedisVisitedStore {
	return &RedisVisitedStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		key:    key,
	}
}

// Close closes the Redis client
func (s *RedisVisitedStore) Close() error {
	return s.client.Close()
}

// Load reads every member of the set
func (s *RedisVisitedStore) Load(ctx context.Context) (models.IDSet, bool, error) {
	members, err := s.client.SMembers(ctx, s.key).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read visited set: %w", err)
	}
	ids := make(models.IDSet, len(members))
	for _, m := range members {
		ids.Add(models.ItemID(m))
	}
	return ids, false, nil
}

// Save adds every id to the set
func (s *RedisVisitedStore) Save(ctx context.Context, ids models.IDSet) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]interface{}, 0, len(ids))
	for _, id := range ids.Sorted() {
		members = append(members, string(id))
	}
	if err := s.client.SAdd(ctx, s.key, members...).Err(); err != nil {
		return fmt.Errorf("failed to write visited set: %w", err)
	}
	return nil
}

package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// PresenceStore keeps one TTL record per user in redis. Absence of the key
// means offline; expiry is lazy, there is no background sweep.
type PresenceStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewPresenceStore(rdb *redis.Client, ttl time.Duration) *PresenceStore {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &PresenceStore{rdb: rdb, ttl: ttl}
}

// presence key: linkup:presence:<user>
func presenceKey(user string) string { return "linkup:presence:" + user }

func (s *PresenceStore) TTL() time.Duration { return s.ttl }

// MarkOnline sets the user online and renews the TTL. Idempotent; a refresh
// of a live record is a plain SET (last writer wins on reconnect races).
func (s *PresenceStore) MarkOnline(ctx context.Context, user string) error {
	return errors.Wrap(s.rdb.Set(ctx, presenceKey(user), "online", s.ttl).Err(), "presence set")
}

// MarkOffline explicitly clears the record (clean disconnect).
func (s *PresenceStore) MarkOffline(ctx context.Context, user string) error {
	return errors.Wrap(s.rdb.Del(ctx, presenceKey(user)).Err(), "presence del")
}

// IsOnline reports whether a non-expired record exists.
func (s *PresenceStore) IsOnline(ctx context.Context, user string) (bool, error) {
	val, err := s.rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "presence get")
	}
	return val == "online", nil
}

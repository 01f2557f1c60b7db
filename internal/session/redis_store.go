package session

import (
    "context"
    "encoding/json"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisStore keeps session records in Redis so multiple server instances can
// share them.  Records are stored as JSON under a namespaced key with an
// expiry slightly past the session max age; Redis-side expiry is a cleanup
// mechanism only, the middleware still checks CreatedAt itself so the 24h
// cutoff is exact.
type RedisStore struct {
    rdb    *redis.Client
    prefix string
    ttl    time.Duration
}

// NewRedisStore wraps a connected Redis client.  maxAge should match the
// session lifetime enforced by the middleware.
func NewRedisStore(rdb *redis.Client, maxAge time.Duration) *RedisStore {
    return &RedisStore{rdb: rdb, prefix: "session:", ttl: maxAge + time.Hour}
}

func (r *RedisStore) key(id string) string { return r.prefix + id }

// Get fetches and decodes a session record.  A missing key is reported as
// (zero, false, nil), mirroring the memory store.
func (r *RedisStore) Get(ctx context.Context, id string) (Session, bool, error) {
    raw, err := r.rdb.Get(ctx, r.key(id)).Bytes()
    if err == redis.Nil {
        return Session{}, false, nil
    }
    if err != nil {
        return Session{}, false, err
    }
    var s Session
    if err := json.Unmarshal(raw, &s); err != nil {
        return Session{}, false, err
    }
    return s, true, nil
}

// Put encodes and stores a session record with the store TTL.
func (r *RedisStore) Put(ctx context.Context, s Session) error {
    raw, err := json.Marshal(s)
    if err != nil {
        return err
    }
    return r.rdb.Set(ctx, r.key(s.ID), raw, r.ttl).Err()
}

// Delete removes a session record.  Redis DEL on a missing key succeeds, so
// logout stays idempotent here too.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
    return r.rdb.Del(ctx, r.key(id)).Err()
}

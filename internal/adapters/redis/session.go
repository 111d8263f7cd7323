package redisad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"travel_genie/internal/adapters/observability"
	"travel_genie/internal/domain"
)

const cacheLabel = "session"

// Sessions keeps each chat's live state under chat:{id}:*. The message log
// is a list of JSON messages, the in-flight flag a SET NX key with a TTL, and
// the active profile a plain string. Log and profile expire after ttl of
// inactivity.
type Sessions struct {
	c   redis.UniversalClient
	ttl time.Duration
}

func New(addr, pass string, db int, ttl time.Duration) *Sessions {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}), ttl)
}

func NewWithClient(c redis.UniversalClient, ttl time.Duration) *Sessions {
	return &Sessions{c: c, ttl: ttl}
}

func (s *Sessions) Ping(ctx context.Context) error { return s.c.Ping(ctx).Err() }

func (s *Sessions) Close() error { return s.c.Close() }

func logKey(id string) string      { return "chat:" + id + ":log" }
func inflightKey(id string) string { return "chat:" + id + ":inflight" }
func profileKey(id string) string  { return "chat:" + id + ":profile" }

func (s *Sessions) Append(ctx context.Context, m domain.Message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	key := logKey(m.SessionID)
	_, err = s.c.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, key, b)
		p.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	observability.ObserveCache(cacheLabel, "set")
	return nil
}

func (s *Sessions) Messages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	raw, err := s.c.LRange(ctx, logKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}
	if len(raw) == 0 {
		observability.ObserveCache(cacheLabel, "miss")
	} else {
		observability.ObserveCache(cacheLabel, "hit")
	}
	out := make([]domain.Message, 0, len(raw))
	for _, r := range raw {
		var m domain.Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}

// Reset drops the log and the profile selection. The in-flight flag is left
// alone; callers hold it while resetting.
func (s *Sessions) Reset(ctx context.Context, sessionID string) error {
	observability.ObserveCache(cacheLabel, "del")
	return s.c.Del(ctx, logKey(sessionID), profileKey(sessionID)).Err()
}

// releaseScript deletes KEYS[1] only while it holds ARGV[1].
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Begin takes the in-flight flag for token. The flag expires after ttl so a
// crashed holder cannot block the session forever.
func (s *Sessions) Begin(ctx context.Context, sessionID, token string, ttl time.Duration) (bool, error) {
	ok, err := s.c.SetNX(ctx, inflightKey(sessionID), token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("begin request: %w", err)
	}
	if !ok {
		observability.ObserveCache(cacheLabel, "busy")
	}
	return ok, nil
}

// End releases the flag if token still holds it. A flag that expired and
// was taken by another request is left alone.
func (s *Sessions) End(ctx context.Context, sessionID, token string) error {
	n, err := releaseScript.Run(ctx, s.c, []string{inflightKey(sessionID)}, token).Int()
	if err != nil {
		return fmt.Errorf("end request: %w", err)
	}
	if n == 0 {
		observability.ObserveCache(cacheLabel, "stale")
	}
	return nil
}

func (s *Sessions) SetProfile(ctx context.Context, sessionID, profileID string) error {
	observability.ObserveCache(cacheLabel, "set")
	return s.c.Set(ctx, profileKey(sessionID), profileID, s.ttl).Err()
}

// Profile returns the stored selection, or "" when none was made.
func (s *Sessions) Profile(ctx context.Context, sessionID string) (string, error) {
	v, err := s.c.Get(ctx, profileKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		observability.ObserveCache(cacheLabel, "miss")
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read profile: %w", err)
	}
	observability.ObserveCache(cacheLabel, "hit")
	return v, nil
}

package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/nntexpressinc/safetybot/internal/domain"
)

// Lua script for the monotonic cursor guard. Compares and sets in one round
// trip so a stale advance can never clobber a newer cursor.
// 1. Read the current cursor (nil when the category was never ingested)
// 2. If the candidate id is higher, store it and return the candidate
// 3. Otherwise leave the cursor untouched and return the current value
var advanceScript = redis.NewScript(`
local key = KEYS[1]
local id = tonumber(ARGV[1])
local cur = tonumber(redis.call('GET', key))

if cur == nil or id > cur then
    redis.call('SET', key, id)
    return id
end

return cur
`)

// CursorStore persists, per category, the highest source-assigned event id
// successfully processed. Cursors are monotonically non-decreasing and
// survive restarts.
type CursorStore struct {
	client *redis.Client
	logger *slog.Logger
}

func NewCursorStore(rs *RedisStore, logger *slog.Logger) *CursorStore {
	return &CursorStore{client: rs.Client(), logger: logger}
}

func cursorKey(category domain.Category) string {
	return fmt.Sprintf("cursor:%s", category)
}

// Last returns the cursor for a category, or 0 if the category has never
// been ingested.
func (s *CursorStore) Last(ctx context.Context, category domain.Category) (int64, error) {
	val, err := s.client.Get(ctx, cursorKey(category)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: reading cursor for %s: %v", ErrStorageUnavailable, category, err)
	}
	return val, nil
}

// Advance moves the cursor for a category up to id. A no-op when id is at
// or below the stored value.
func (s *CursorStore) Advance(ctx context.Context, category domain.Category, id int64) error {
	stored, err := advanceScript.Run(ctx, s.client, []string{cursorKey(category)}, id).Int64()
	if err != nil {
		return fmt.Errorf("%w: advancing cursor for %s: %v", ErrStorageUnavailable, category, err)
	}

	if stored != id {
		s.logger.Debug("cursor advance ignored",
			"category", category,
			"candidate", id,
			"cursor", stored,
		)
	}
	return nil
}

package reservationRepo

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tripcart/models"
	"tripcart/utils"

	"github.com/go-redis/redis/v8"
)

// ExpiryIndex tracks one entry per live hold so the reaper can find due holds
// without scanning the store. Entries exist only while the hold is Held.
type ExpiryIndex interface {
	Add(ctx context.Context, entry models.ExpiryEntry) error
	Remove(ctx context.Context, sessionID string, key models.UnitKey) error
	Due(ctx context.Context, now time.Time, limit int64) ([]models.ExpiryEntry, error)
}

// RedisExpiryIndex keeps the entries in a sorted set scored by unix expiry.
type RedisExpiryIndex struct {
	client *redis.Client
}

func NewRedisExpiryIndex(client *redis.Client) *RedisExpiryIndex {
	return &RedisExpiryIndex{client: client}
}

func indexMember(sessionID string, key models.UnitKey) string {
	return sessionID + "|" + key.String()
}

func parseIndexMember(member string) (string, models.UnitKey, error) {
	sessionID, keyStr, found := strings.Cut(member, "|")
	if !found {
		return "", models.UnitKey{}, fmt.Errorf("malformed expiry entry %q", member)
	}
	key, err := models.ParseUnitKey(keyStr)
	if err != nil {
		return "", models.UnitKey{}, err
	}
	return sessionID, key, nil
}

func (idx *RedisExpiryIndex) Add(ctx context.Context, entry models.ExpiryEntry) error {
	err := idx.client.ZAdd(ctx, utils.ExpiryIndexKey, &redis.Z{
		Score:  float64(entry.ExpiresAt.Unix()),
		Member: indexMember(entry.SessionID, entry.Unit),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to add expiry entry: %w", err)
	}
	return nil
}

func (idx *RedisExpiryIndex) Remove(ctx context.Context, sessionID string, key models.UnitKey) error {
	err := idx.client.ZRem(ctx, utils.ExpiryIndexKey, indexMember(sessionID, key)).Err()
	if err != nil {
		return fmt.Errorf("failed to remove expiry entry: %w", err)
	}
	return nil
}

// Due returns entries whose expiry instant is at or before now, earliest
// first. Entries are not removed here; the reaper removes them after the
// store transition succeeds.
func (idx *RedisExpiryIndex) Due(ctx context.Context, now time.Time, limit int64) ([]models.ExpiryEntry, error) {
	results, err := idx.client.ZRangeByScoreWithScores(ctx, utils.ExpiryIndexKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: limit,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read due expiry entries: %w", err)
	}

	entries := make([]models.ExpiryEntry, 0, len(results))
	for _, z := range results {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		sessionID, key, err := parseIndexMember(member)
		if err != nil {
			// A corrupt member would block the sweep forever; drop it.
			idx.client.ZRem(ctx, utils.ExpiryIndexKey, member)
			continue
		}
		entries = append(entries, models.ExpiryEntry{
			SessionID: sessionID,
			Unit:      key,
			ExpiresAt: time.Unix(int64(z.Score), 0).UTC(),
		})
	}
	return entries, nil
}

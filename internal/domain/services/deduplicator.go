package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aegis-secure/internal/domain/models"
	"aegis-secure/pkg/logger"
)

// SeenCache is the fast-path store for natural keys already ingested
type SeenCache interface {
	Exists(ctx context.Context, keys ...string) (int64, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) (int64, error)
}

// ExistenceCheck asks the persistence layer whether a natural key is stored
type ExistenceCheck func(ctx context.Context) (bool, error)

// Deduplicator guards the pipeline against re-processing a message.
// The persistence layer is authoritative; the cache only short-circuits repeats.
type Deduplicator struct {
	cache    SeenCache
	logger   *logger.Logger
	cacheTTL time.Duration
}

// NewDeduplicator creates a new Deduplicator; cache may be nil
func NewDeduplicator(cache SeenCache, cacheTTL time.Duration, log *logger.Logger) *Deduplicator {
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &Deduplicator{
		cache:    cache,
		logger:   log.WithComponent("deduplicator"),
		cacheTTL: cacheTTL,
	}
}

// segmentEscaper percent-encodes the key separator and the Redis glob
// metacharacters so caller-supplied segments never span or match across keys.
var segmentEscaper = strings.NewReplacer(
	"%", "%25",
	":", "%3A",
	"*", "%2A",
	"?", "%3F",
	"[", "%5B",
	"]", "%5D",
	"\\", "%5C",
)

func keySegment(s string) string {
	return segmentEscaper.Replace(s)
}

// EmailKey is the natural key of a mailbox message
func EmailKey(userID, gmailID string) string {
	return fmt.Sprintf("mail:%s:%s", keySegment(userID), keySegment(gmailID))
}

// SMSKey is the natural key of a device SMS
func SMSKey(userID, address string, dateMs int64) string {
	return fmt.Sprintf("sms:%s:%s:%d", keySegment(userID), keySegment(address), dateMs)
}

func dedupKey(key string) string {
	return "dedup:" + key
}

// IsDuplicate reports whether key was already ingested. A cache failure falls
// through to the store; a store failure is returned to the caller.
func (d *Deduplicator) IsDuplicate(ctx context.Context, key string, stored ExistenceCheck) (bool, error) {
	if d.cache != nil {
		count, err := d.cache.Exists(ctx, dedupKey(key))
		if err != nil {
			d.logger.Warn().Err(err).Str("key", key).Msg("dedup cache check failed")
		} else if count > 0 {
			return true, nil
		}
	}

	exists, err := stored(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check existing message: %w", err)
	}
	if exists {
		d.MarkSeen(ctx, key)
	}
	return exists, nil
}

// MarkSeen records key in the fast-path cache
func (d *Deduplicator) MarkSeen(ctx context.Context, key string) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Set(ctx, dedupKey(key), "1", d.cacheTTL); err != nil {
		d.logger.Warn().Err(err).Str("key", key).Msg("failed to mark key as seen in cache")
	}
}

// Forget drops cached keys for a user's channel after a bulk clear. A stale
// entry would report a re-submitted message as duplicate, so failures are
// returned rather than swallowed.
func (d *Deduplicator) Forget(ctx context.Context, channel models.Channel, userID string) error {
	if d.cache == nil {
		return nil
	}
	removed, err := d.cache.DeleteByPattern(ctx, dedupKey(fmt.Sprintf("%s:%s:*", channel, keySegment(userID))))
	if err != nil {
		return fmt.Errorf("failed to clear dedup cache for %s: %w", channel, err)
	}
	d.logger.Debug().Int64("removed", removed).Str("user_id", userID).Str("channel", string(channel)).Msg("dedup cache cleared")
	return nil
}

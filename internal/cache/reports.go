package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dakthi/venuebook/internal/booking"
)

// ReportCache stores availability reports in Redis under a short TTL.
// Cache failures are logged and swallowed: availability always falls back to
// a fresh computation.
type ReportCache struct {
	rdb    *redis.Client
	logger *slog.Logger
	ttl    time.Duration
	prefix string
}

func NewReportCache(rdb *redis.Client, logger *slog.Logger, ttl time.Duration) *ReportCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ReportCache{rdb: rdb, logger: logger, ttl: ttl, prefix: "availability"}
}

func (c *ReportCache) key(facilityID, date string) string {
	return c.prefix + ":" + facilityID + ":" + date
}

func (c *ReportCache) Get(ctx context.Context, facilityID, date string) (*booking.Report, bool) {
	raw, err := c.rdb.Get(ctx, c.key(facilityID, date)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("report cache read failed", "err", err)
		return nil, false
	}
	var report booking.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		c.logger.Warn("report cache entry corrupt, dropping", "key", c.key(facilityID, date), "err", err)
		_ = c.rdb.Del(ctx, c.key(facilityID, date)).Err()
		return nil, false
	}
	return &report, true
}

func (c *ReportCache) Set(ctx context.Context, facilityID, date string, r *booking.Report) {
	raw, err := json.Marshal(r)
	if err != nil {
		c.logger.Warn("report cache encode failed", "err", err)
		return
	}
	if err := c.rdb.Set(ctx, c.key(facilityID, date), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("report cache write failed", "err", err)
	}
}

func (c *ReportCache) Invalidate(ctx context.Context, facilityID string, dates ...string) {
	if len(dates) == 0 {
		return
	}
	keys := make([]string, 0, len(dates))
	for _, d := range dates {
		keys = append(keys, c.key(facilityID, d))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("report cache invalidate failed", "err", err)
	}
}

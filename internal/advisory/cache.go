// internal/advisory/cache.go
package advisory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"smartbharat-functions/internal/common/logger"
	"smartbharat-functions/internal/models"

	"github.com/redis/go-redis/v9"
)

// CacheGateway persists normalized advisory results keyed by
// (function, subject, region). Redis holds a fast-path copy with a TTL equal
// to the freshness window; Postgres is the durable, append-only record.
// Rows are never updated or deleted; the most recent row wins at read time.
type CacheGateway struct {
	db     *sql.DB
	redis  *redis.Client
	window time.Duration
	logger logger.Logger
	now    func() time.Time
}

func NewCacheGateway(db *sql.DB, rdb *redis.Client, window time.Duration, log logger.Logger) *CacheGateway {
	return &CacheGateway{
		db:     db,
		redis:  rdb,
		window: window,
		logger: log.WithFields(map[string]interface{}{"component": "advisory-cache"}),
		now:    time.Now,
	}
}

func cacheKey(function, subject, region string) string {
	return fmt.Sprintf("advisory:%s:%s:%s", function, subject, region)
}

// Read returns the most recent entry for the key, or nil if absent.
// Store failures degrade to a miss; the caller still gets a fresh result
// from the model even when the cache is down.
func (g *CacheGateway) Read(ctx context.Context, function, subject, region string) *models.CacheEntry {
	if entry := g.readRedis(ctx, function, subject, region); entry != nil {
		return entry
	}
	return g.readPostgres(ctx, function, subject, region)
}

func (g *CacheGateway) readRedis(ctx context.Context, function, subject, region string) *models.CacheEntry {
	if g.redis == nil {
		return nil
	}

	val, err := g.redis.Get(ctx, cacheKey(function, subject, region)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			g.logger.Warn("redis cache read failed", map[string]interface{}{
				"function": function,
				"error":    err.Error(),
			})
		}
		return nil
	}

	var entry models.CacheEntry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		g.logger.Warn("redis cache entry undecodable", map[string]interface{}{
			"function": function,
			"error":    err.Error(),
		})
		return nil
	}
	return &entry
}

func (g *CacheGateway) readPostgres(ctx context.Context, function, subject, region string) *models.CacheEntry {
	if g.db == nil {
		return nil
	}

	row := g.db.QueryRowContext(ctx, `
		SELECT payload, created_at
		FROM advisory_cache
		WHERE function = $1 AND subject = $2 AND region = $3
		ORDER BY created_at DESC
		LIMIT 1`, function, subject, region)

	entry := models.CacheEntry{Function: function, Subject: subject, Region: region}
	if err := row.Scan(&entry.Payload, &entry.CreatedAt); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			g.logger.Warn("postgres cache read failed", map[string]interface{}{
				"function": function,
				"error":    err.Error(),
			})
		}
		return nil
	}
	return &entry
}

// Write appends a new entry. Best effort: failures are logged, never
// surfaced to the surrounding request. Concurrent writers racing on the same
// key simply produce multiple rows; readers pick the newest.
func (g *CacheGateway) Write(ctx context.Context, function, subject, region string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		g.logger.Warn("cache payload marshal failed", map[string]interface{}{
			"function": function,
			"error":    err.Error(),
		})
		return
	}

	entry := models.CacheEntry{
		Function:  function,
		Subject:   subject,
		Region:    region,
		Payload:   raw,
		CreatedAt: g.now().UTC(),
	}

	if g.db != nil {
		_, err := g.db.ExecContext(ctx, `
			INSERT INTO advisory_cache (function, subject, region, payload, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			entry.Function, entry.Subject, entry.Region, entry.Payload, entry.CreatedAt)
		if err != nil {
			g.logger.Warn("postgres cache write failed", map[string]interface{}{
				"function": function,
				"error":    err.Error(),
			})
		}
	}

	if g.redis != nil {
		data, _ := json.Marshal(entry)
		if err := g.redis.Set(ctx, cacheKey(function, subject, region), data, g.window).Err(); err != nil {
			g.logger.Warn("redis cache write failed", map[string]interface{}{
				"function": function,
				"error":    err.Error(),
			})
		}
	}
}

// Window returns the freshness window the gateway was built with.
func (g *CacheGateway) Window() time.Duration {
	return g.window
}

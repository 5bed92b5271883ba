// internal/advisory/cache_test.go
package advisory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"smartbharat-functions/internal/common/logger"
	"smartbharat-functions/internal/models"
)

func TestCacheReadPrefersRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	entry := models.CacheEntry{
		Function:  "ai-market-advisory",
		Subject:   "wheat",
		Region:    "Punjab",
		Payload:   json.RawMessage(`{"trend":"rising"}`),
		CreatedAt: time.Now().UTC(),
	}
	data, _ := json.Marshal(entry)
	mr.Set("advisory:ai-market-advisory:wheat:Punjab", string(data))

	// No postgres wired at all: a redis hit must be enough.
	gateway := NewCacheGateway(nil, rdb, 6*time.Hour, logger.NewTestLogger(t))

	got := gateway.Read(context.Background(), "ai-market-advisory", "wheat", "Punjab")
	assert.NotNil(t, got)
	assert.JSONEq(t, `{"trend":"rising"}`, string(got.Payload))
}

func TestCacheReadRedisOutageFallsThroughToPostgres(t *testing.T) {
	rdb, redisMock := redismock.NewClientMock()
	redisMock.ExpectGet("advisory:ai-market-advisory:wheat:Punjab").
		SetErr(errors.New("connection refused"))

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT payload, created_at").
		WillReturnRows(sqlmock.NewRows([]string{"payload", "created_at"}).
			AddRow([]byte(`{"trend":"stable"}`), time.Now().UTC()))

	gateway := NewCacheGateway(db, rdb, 6*time.Hour, logger.NewTestLogger(t))

	got := gateway.Read(context.Background(), "ai-market-advisory", "wheat", "Punjab")
	assert.NotNil(t, got)
	assert.JSONEq(t, `{"trend":"stable"}`, string(got.Payload))
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestCacheReadFallsBackToPostgres(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	createdAt := time.Now().UTC().Add(-time.Hour)
	mock.ExpectQuery("SELECT payload, created_at").
		WithArgs("ai-market-advisory", "wheat", "Punjab").
		WillReturnRows(sqlmock.NewRows([]string{"payload", "created_at"}).
			AddRow([]byte(`{"trend":"stable"}`), createdAt))

	gateway := NewCacheGateway(db, rdb, 6*time.Hour, logger.NewTestLogger(t))

	got := gateway.Read(context.Background(), "ai-market-advisory", "wheat", "Punjab")
	assert.NotNil(t, got)
	assert.JSONEq(t, `{"trend":"stable"}`, string(got.Payload))
	assert.Equal(t, createdAt, got.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheReadMissReturnsNil(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT payload, created_at").
		WillReturnRows(sqlmock.NewRows([]string{"payload", "created_at"}))

	gateway := NewCacheGateway(db, nil, 6*time.Hour, logger.NewTestLogger(t))

	got := gateway.Read(context.Background(), "ai-market-advisory", "wheat", "Punjab")
	assert.Nil(t, got)
}

func TestCacheReadFailureDegradesToMiss(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT payload, created_at").
		WillReturnError(assert.AnError)

	gateway := NewCacheGateway(db, nil, 6*time.Hour, logger.NewTestLogger(t))

	got := gateway.Read(context.Background(), "ai-market-advisory", "wheat", "Punjab")
	assert.Nil(t, got)
}

func TestCacheWriteAppendsAndSetsRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO advisory_cache").
		WithArgs("ai-market-advisory", "wheat", "Punjab", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	gateway := NewCacheGateway(db, rdb, 6*time.Hour, logger.NewTestLogger(t))

	gateway.Write(context.Background(), "ai-market-advisory", "wheat", "Punjab",
		map[string]interface{}{"trend": "rising"})

	assert.NoError(t, mock.ExpectationsWereMet())

	val, err := mr.Get("advisory:ai-market-advisory:wheat:Punjab")
	assert.NoError(t, err)

	var entry models.CacheEntry
	assert.NoError(t, json.Unmarshal([]byte(val), &entry))
	assert.JSONEq(t, `{"trend":"rising"}`, string(entry.Payload))

	ttl := mr.TTL("advisory:ai-market-advisory:wheat:Punjab")
	assert.Equal(t, 6*time.Hour, ttl)
}

func TestCacheWriteFailureIsSilent(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO advisory_cache").
		WillReturnError(assert.AnError)

	gateway := NewCacheGateway(db, nil, 6*time.Hour, logger.NewTestLogger(t))

	// Must not panic or surface anything.
	gateway.Write(context.Background(), "ai-market-advisory", "wheat", "Punjab", "payload")
}

func TestCacheEntryFreshness(t *testing.T) {
	now := time.Now().UTC()
	window := 6 * time.Hour

	fresh := models.CacheEntry{CreatedAt: now.Add(-5 * time.Hour)}
	stale := models.CacheEntry{CreatedAt: now.Add(-7 * time.Hour)}

	assert.True(t, fresh.Fresh(now, window))
	assert.False(t, stale.Fresh(now, window))
}

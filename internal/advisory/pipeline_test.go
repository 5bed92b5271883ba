// internal/advisory/pipeline_test.go
package advisory

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"smartbharat-functions/internal/common/logger"
	"smartbharat-functions/internal/models"
)

type stubInvoker struct {
	mu      sync.Mutex
	calls   int32
	text    string
	err     error
	block   chan struct{}
	prompts []string
}

func (s *stubInvoker) GenerateText(ctx context.Context, prompt string) (string, error) {
	atomic.AddInt32(&s.calls, 1)
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
	if s.block != nil {
		<-s.block
	}
	return s.text, s.err
}

func seedCache(t *testing.T, mr *miniredis.Miniredis, function, subject, region string, payload string, age time.Duration) {
	t.Helper()
	entry := models.CacheEntry{
		Function:  function,
		Subject:   subject,
		Region:    region,
		Payload:   json.RawMessage(payload),
		CreatedAt: time.Now().UTC().Add(-age),
	}
	data, err := json.Marshal(entry)
	assert.NoError(t, err)
	mr.Set(cacheKey(function, subject, region), string(data))
}

func TestPipelineFreshCacheHitSkipsInvoker(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	seedCache(t, mr, "ai-market-advisory", "wheat", "Punjab", `{"trend":"rising"}`, time.Hour)

	invoker := &stubInvoker{text: `{"trend":"falling"}`}
	gateway := NewCacheGateway(nil, rdb, 6*time.Hour, logger.NewTestLogger(t))
	pipeline, err := NewPipeline("ai-market-advisory", invoker, gateway, "", logger.NewTestLogger(t))
	assert.NoError(t, err)

	result, err := pipeline.Run(context.Background(),
		models.AdvisoryRequest{Subject: "wheat", Region: "Punjab"}, "prompt")
	assert.NoError(t, err)
	assert.True(t, result.FromCache)
	assert.False(t, result.Raw)
	assert.Equal(t, map[string]interface{}{"trend": "rising"}, result.Payload)
	assert.Equal(t, int32(0), atomic.LoadInt32(&invoker.calls))
}

func TestPipelineStaleEntryInvokesAndWrites(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	seedCache(t, mr, "ai-market-advisory", "wheat", "Punjab", `{"trend":"old"}`, 7*time.Hour)

	invoker := &stubInvoker{text: `{"trend":"rising"}`}
	gateway := NewCacheGateway(nil, rdb, 6*time.Hour, logger.NewTestLogger(t))
	pipeline, err := NewPipeline("ai-market-advisory", invoker, gateway, "", logger.NewTestLogger(t))
	assert.NoError(t, err)

	result, err := pipeline.Run(context.Background(),
		models.AdvisoryRequest{Subject: "wheat", Region: "Punjab"}, "prompt")
	assert.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, map[string]interface{}{"trend": "rising"}, result.Payload)
	assert.Equal(t, int32(1), atomic.LoadInt32(&invoker.calls))

	// The fresh result replaced the stale redis entry.
	val, err := mr.Get(cacheKey("ai-market-advisory", "wheat", "Punjab"))
	assert.NoError(t, err)
	var entry models.CacheEntry
	assert.NoError(t, json.Unmarshal([]byte(val), &entry))
	assert.JSONEq(t, `{"trend":"rising"}`, string(entry.Payload))
}

func TestPipelineFreshnessOverrideBypassesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	seedCache(t, mr, "ai-market-advisory", "wheat", "Punjab", `{"trend":"cached"}`, time.Hour)

	invoker := &stubInvoker{text: `{"trend":"fresh"}`}
	gateway := NewCacheGateway(nil, rdb, 6*time.Hour, logger.NewTestLogger(t))
	pipeline, err := NewPipeline("ai-market-advisory", invoker, gateway, "", logger.NewTestLogger(t))
	assert.NoError(t, err)

	result, err := pipeline.Run(context.Background(),
		models.AdvisoryRequest{Subject: "wheat", Region: "Punjab", FreshnessOverride: true}, "prompt")
	assert.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, map[string]interface{}{"trend": "fresh"}, result.Payload)
	assert.Equal(t, int32(1), atomic.LoadInt32(&invoker.calls))
}

func TestPipelineInvokerErrorPropagates(t *testing.T) {
	invoker := &stubInvoker{err: errors.New("upstream down")}
	pipeline, err := NewPipeline("ai-market-advisory", invoker, nil, "", logger.NewTestLogger(t))
	assert.NoError(t, err)

	result, err := pipeline.Run(context.Background(),
		models.AdvisoryRequest{Subject: "wheat", Region: "Punjab"}, "prompt")
	assert.Nil(t, result)
	assert.EqualError(t, err, "upstream down")
}

func TestPipelineRawFallback(t *testing.T) {
	invoker := &stubInvoker{text: "the market looks promising this week"}
	pipeline, err := NewPipeline("ai-market-advisory", invoker, nil, "", logger.NewTestLogger(t))
	assert.NoError(t, err)

	result, err := pipeline.Run(context.Background(),
		models.AdvisoryRequest{Subject: "wheat", Region: "Punjab"}, "prompt")
	assert.NoError(t, err)
	assert.True(t, result.Raw)
	assert.Equal(t, map[string]interface{}{"raw": "the market looks promising this week"}, result.Payload)
}

func TestPipelineShapeMismatchIsTolerated(t *testing.T) {
	schema := `{"type":"object","required":["trend"],"properties":{"trend":{"type":"string"}}}`
	invoker := &stubInvoker{text: `{"advice":"hold"}`}
	pipeline, err := NewPipeline("ai-market-advisory", invoker, nil, schema, logger.NewTestLogger(t))
	assert.NoError(t, err)

	// The payload misses a required field; the caller still gets it.
	result, err := pipeline.Run(context.Background(),
		models.AdvisoryRequest{Subject: "wheat", Region: "Punjab"}, "prompt")
	assert.NoError(t, err)
	assert.False(t, result.Raw)
	assert.Equal(t, map[string]interface{}{"advice": "hold"}, result.Payload)
}

func TestPipelineBadSchemaFailsConstruction(t *testing.T) {
	_, err := NewPipeline("ai-market-advisory", &stubInvoker{}, nil, `{"type":`, logger.NewTestLogger(t))
	assert.Error(t, err)
}

func TestPipelineCoalescesConcurrentInvocations(t *testing.T) {
	invoker := &stubInvoker{text: `{"trend":"rising"}`, block: make(chan struct{})}
	pipeline, err := NewPipeline("ai-market-advisory", invoker, nil, "", logger.NewTestLogger(t))
	assert.NoError(t, err)

	const workers = 5
	var wg sync.WaitGroup
	results := make([]*Result, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = pipeline.Run(context.Background(),
				models.AdvisoryRequest{Subject: "wheat", Region: "Punjab"}, "prompt")
		}(i)
	}

	// Let every goroutine reach the singleflight gate, then release the one
	// in-flight invocation.
	time.Sleep(50 * time.Millisecond)
	close(invoker.block)
	wg.Wait()

	for i := 0; i < workers; i++ {
		assert.NoError(t, errs[i])
		assert.Equal(t, map[string]interface{}{"trend": "rising"}, results[i].Payload)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&invoker.calls))
}

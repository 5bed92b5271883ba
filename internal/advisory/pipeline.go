// internal/advisory/pipeline.go
package advisory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"smartbharat-functions/internal/common/logger"
	"smartbharat-functions/internal/common/metrics"
	"smartbharat-functions/internal/models"

	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/sync/singleflight"
)

// Invoker produces one free-text completion for a prompt.
type Invoker interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Result is what a pipeline run hands back to the endpoint handler.
type Result struct {
	Payload   interface{}
	FromCache bool
	Raw       bool
	CreatedAt time.Time
}

// Pipeline is the shared build-prompt/invoke/normalize/envelope flow,
// instantiated once per advisory type. The per-type parts are the prompt
// (built by the endpoint, which owns its input shape), the expected-shape
// schema, and whether results are cached.
type Pipeline struct {
	name    string
	invoker Invoker
	cache   *CacheGateway
	schema  *gojsonschema.Schema
	group   singleflight.Group
	logger  logger.Logger
}

// NewPipeline builds a pipeline. cache may be nil for uncached advisory
// types; schemaJSON may be empty to skip shape checking.
func NewPipeline(name string, invoker Invoker, cache *CacheGateway, schemaJSON string, log logger.Logger) (*Pipeline, error) {
	p := &Pipeline{
		name:    name,
		invoker: invoker,
		cache:   cache,
		logger:  log.WithFields(map[string]interface{}{"function": name}),
	}

	if schemaJSON != "" {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", name, err)
		}
		p.schema = schema
	}

	return p, nil
}

// Run executes the pipeline for one request. Exactly one conditional fork:
// a fresh cached entry skips the invoker, anything else invokes the model.
func (p *Pipeline) Run(ctx context.Context, req models.AdvisoryRequest, prompt string) (*Result, error) {
	if p.cache != nil && !req.FreshnessOverride {
		if entry := p.cache.Read(ctx, p.name, req.Subject, req.Region); entry != nil {
			if entry.Fresh(time.Now(), p.cache.Window()) {
				var payload interface{}
				if err := json.Unmarshal(entry.Payload, &payload); err == nil {
					metrics.CacheReads.WithLabelValues(p.name, "hit").Inc()
					return &Result{Payload: payload, FromCache: true, CreatedAt: entry.CreatedAt}, nil
				}
			}
		}
		metrics.CacheReads.WithLabelValues(p.name, "miss").Inc()
	}

	// Coalesce concurrent same-key invocations within this process. Other
	// processes may still invoke redundantly; the append-only store
	// tolerates that.
	key := fmt.Sprintf("%s|%s|%s", p.name, req.Subject, req.Region)
	value, err, _ := p.group.Do(key, func() (interface{}, error) {
		return p.invoke(ctx, req, prompt)
	})
	if err != nil {
		return nil, err
	}
	return value.(*Result), nil
}

func (p *Pipeline) invoke(ctx context.Context, req models.AdvisoryRequest, prompt string) (*Result, error) {
	text, err := p.invoker.GenerateText(ctx, prompt)
	if err != nil {
		metrics.ModelInvocations.WithLabelValues(p.name, "error").Inc()
		return nil, err
	}
	metrics.ModelInvocations.WithLabelValues(p.name, "ok").Inc()

	payload, structured := Normalize(text)
	if !structured {
		metrics.NormalizerFallbacks.WithLabelValues(p.name).Inc()
		p.logger.Warn("model output did not parse, returning raw fallback", map[string]interface{}{
			"subject": req.Subject,
			"region":  req.Region,
		})
	} else {
		p.checkShape(payload)
	}

	if p.cache != nil {
		p.cache.Write(ctx, p.name, req.Subject, req.Region, payload)
	}

	return &Result{Payload: payload, Raw: !structured, CreatedAt: time.Now().UTC()}, nil
}

// checkShape validates the payload against the advisory type's expected
// shape. A mismatch is logged and counted but never surfaced: the upstream
// model drifts, and callers already optional-chain every field.
func (p *Pipeline) checkShape(payload interface{}) {
	if p.schema == nil {
		return
	}

	result, err := p.schema.Validate(gojsonschema.NewGoLoader(payload))
	if err != nil {
		return
	}
	if !result.Valid() {
		metrics.SchemaMismatches.WithLabelValues(p.name).Inc()
		issues := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			issues = append(issues, e.String())
		}
		p.logger.Warn("payload shape mismatch", map[string]interface{}{
			"issues": issues,
		})
	}
}

// internal/functions/market-advisory/handler.go
package marketadvisory

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"smartbharat-functions/internal/advisory"
	commonerrors "smartbharat-functions/internal/common/errors"
	"smartbharat-functions/internal/common/logger"
	"smartbharat-functions/internal/models"
)

// advisorySchema is the shape the prompt asks for. Mismatches are logged,
// never rejected.
const advisorySchema = `{
	"type": "object",
	"required": ["price_band", "trend", "advice"],
	"properties": {
		"price_band": {"type": "object"},
		"trend": {"type": "string"},
		"top_mandis": {"type": "array"},
		"export_opportunities": {"type": "array"},
		"advice": {"type": "array"},
		"confidence": {"type": "number"}
	}
}`

type Handler struct {
	config   *Config
	pipeline *advisory.Pipeline
	errors   *commonerrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, pipeline *advisory.Pipeline, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		pipeline: pipeline,
		errors:   commonerrors.NewErrorHandler(log),
		logger:   log.WithFields(map[string]interface{}{"function": FunctionName}),
	}
}

// NewPipeline wires this function's pipeline. cache may be nil when caching
// is disabled for the function.
func NewPipeline(invoker advisory.Invoker, cache *advisory.CacheGateway, log logger.Logger) (*advisory.Pipeline, error) {
	return advisory.NewPipeline(FunctionName, invoker, cache, advisorySchema, log)
}

func (h *Handler) Handle(c *gin.Context) {
	var input Input
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			h.errors.Respond(c, commonerrors.NewInvalidInputError("request body must be a JSON object"))
			return
		}
	}
	h.applyDefaults(&input)

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.config.Timeout)
	defer cancel()

	req := models.AdvisoryRequest{
		Subject:           input.Crop,
		Region:            input.State,
		FreshnessOverride: input.BypassCache,
	}
	result, err := h.pipeline.Run(ctx, req, h.buildPrompt(&input))
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	h.logger.Info("market advisory served", map[string]interface{}{
		"crop":      input.Crop,
		"state":     input.State,
		"fromCache": result.FromCache,
	})

	c.JSON(http.StatusOK, Output{
		Crop:      input.Crop,
		State:     input.State,
		Advisory:  result.Payload,
		FromCache: result.FromCache,
	})
}

func (h *Handler) applyDefaults(input *Input) {
	if input.Crop == "" {
		input.Crop = h.config.DefaultCrop
	}
	// The state drives the prompt and the cache key. A missing state always
	// defaults to the nationwide scope; the region field is accepted but
	// does not substitute for it.
	if input.State == "" {
		input.State = h.config.DefaultState
	}
}

func (h *Handler) buildPrompt(input *Input) string {
	return fmt.Sprintf(`You are an agricultural market analyst for India. Provide AI-generated market advisory for the crop below.
Crop: %s
Region/State: %s
Return STRICT JSON (no markdown) with this structure:
{
  "price_band": { "min": number, "max": number, "unit": "₹/quintal" },
  "trend": "rising|stable|falling",
  "top_mandis": [ { "name": "string", "state": "string", "notes": "string" } ],
  "export_opportunities": [ { "country": "string", "demand_level": "low|medium|high", "port": "string" } ],
  "advice": ["string", "string"],
  "confidence": 0-100
}`, input.Crop, input.State)
}

// internal/functions/crop-advisories/handler.go
package cropadvisories

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

const advisoriesSchema = `{
	"type": "object",
	"required": ["agrimind_ai", "agripredict", "seedsense_ai", "farmsage"],
	"properties": {
		"agrimind_ai": {"type": "object"},
		"agripredict": {"type": "object"},
		"seedsense_ai": {"type": "object"},
		"farmsage": {"type": "object"}
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

func NewPipeline(invoker advisory.Invoker, cache *advisory.CacheGateway, log logger.Logger) (*advisory.Pipeline, error) {
	return advisory.NewPipeline(FunctionName, invoker, cache, advisoriesSchema, log)
}

func (h *Handler) Handle(c *gin.Context) {
	var input Input
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			h.errors.Respond(c, commonerrors.NewInvalidInputError("request body must be a JSON object"))
			return
		}
	}
	if input.Crop == "" {
		input.Crop = h.config.DefaultCrop
	}
	if input.Region == "" {
		input.Region = h.config.DefaultRegion
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.config.Timeout)
	defer cancel()

	req := models.AdvisoryRequest{
		Subject:           input.Crop,
		Region:            input.Region,
		FreshnessOverride: input.BypassCache,
	}
	result, err := h.pipeline.Run(ctx, req, h.buildPrompt(&input))
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	h.logger.Info("crop advisories served", map[string]interface{}{
		"crop":      input.Crop,
		"region":    input.Region,
		"fromCache": result.FromCache,
	})

	c.JSON(http.StatusOK, Output{
		Crop:       input.Crop,
		Region:     input.Region,
		Advisories: result.Payload,
		FromCache:  result.FromCache,
	})
}

func (h *Handler) buildPrompt(input *Input) string {
	return fmt.Sprintf(`Generate AI advisory for Indian agriculture based on the scanned crop.
Crop: %s
Region: %s
Return STRICT JSON with this structure (no markdown):
{
  "agrimind_ai": {
    "seasonal_crop_demand_prediction": "short summary",
    "risk_factors": ["string", "string"],
    "timeframe": "e.g., next 3 months"
  },
  "agripredict": {
    "export_markets": [ { "country": "string", "demand_level": "low|medium|high", "notes": "string" } ],
    "price_trend": "rising|stable|falling",
    "recommendations": ["string", "string"]
  },
  "seedsense_ai": {
    "seed_varieties": [ { "name": "string", "trait": "disease resistant|early maturing|drought tolerant" } ],
    "fertilizer_plan": {
      "basal": { "product": "string", "dose_per_acre": "string" },
      "top_dressings": [ { "timing": "string", "product": "string", "dose_per_acre": "string" } ]
    }
  },
  "farmsage": {
    "local_demand_forecast": "short summary",
    "export_demand_forecast": "short summary",
    "storage_advice": ["string", "string"],
    "logistics_tips": ["string", "string"]
  }
}`, input.Crop, input.Region)
}

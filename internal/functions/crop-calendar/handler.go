// internal/functions/crop-calendar/handler.go
package cropcalendar

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

const calendarSchema = `{
	"type": "object",
	"required": ["calendar"],
	"properties": {
		"calendar": {"type": "object"},
		"irrigation_schedule": {"type": "array"},
		"fertilizer_plan": {"type": "object"},
		"pest_management": {"type": "array"}
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

// NewPipeline wires the calendar pipeline. Calendars are not cached: the
// prompt varies with optional coordinates, so no stable key exists.
func NewPipeline(invoker advisory.Invoker, log logger.Logger) (*advisory.Pipeline, error) {
	return advisory.NewPipeline(FunctionName, invoker, nil, calendarSchema, log)
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
		Subject: input.Crop,
		Region:  input.Region,
		Lat:     input.Lat,
		Lon:     input.Lon,
	}
	result, err := h.pipeline.Run(ctx, req, h.buildPrompt(&input))
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	resp := gin.H{
		"crop":   input.Crop,
		"region": input.Region,
		"lat":    input.Lat,
		"lon":    input.Lon,
	}

	// A parsed calendar is merged into the echo; anything else degrades to
	// an empty skeleton carrying the raw model text.
	payload, structured := result.Payload.(map[string]interface{})
	if structured && !result.Raw {
		for k, v := range payload {
			resp[k] = v
		}
	} else {
		resp["calendar"] = gin.H{"months": []interface{}{}}
		resp["irrigation_schedule"] = []interface{}{}
		resp["fertilizer_plan"] = gin.H{}
		resp["pest_management"] = []interface{}{}
		if payload != nil {
			if raw, ok := payload["raw"]; ok {
				resp["raw"] = raw
			}
		}
	}

	h.logger.Info("crop calendar served", map[string]interface{}{
		"crop":   input.Crop,
		"region": input.Region,
		"raw":    result.Raw,
	})

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) buildPrompt(input *Input) string {
	return fmt.Sprintf(`You are an agronomy expert. Generate a detailed JSON crop calendar for Indian farming.
Crop: %s
Region: %s
Coordinates (optional): %s, %s

Return STRICT JSON with this exact structure:
{
  "calendar": {
    "months": [
      {
        "month": "January",
        "tasks": [
          { "type": "irrigation|fertilizer|pest|weed|sowing|harvest|maintenance", "title": "string", "description": "string", "priority": "low|medium|high", "window": "date-range or week", "tips": ["string", "string"] }
        ]
      }
    ]
  },
  "irrigation_schedule": [ { "stage": "CRI/Vegetative/etc", "when": "string", "notes": "string" } ],
  "fertilizer_plan": {
    "basal": { "product": "string", "dose_per_acre": "string" },
    "top_dressings": [ { "timing": "string", "product": "string", "dose_per_acre": "string" } ]
  },
  "pest_management": [ { "pest": "string", "monitor_from": "month", "threshold": "string", "treatment": "string" } ]
}

Ensure valid JSON only (no markdown). Keep culturally and regionally appropriate recommendations for India.`,
		input.Crop, input.Region, formatCoord(input.Lat), formatCoord(input.Lon))
}

func formatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%g", *v)
}

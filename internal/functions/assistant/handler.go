// internal/functions/assistant/handler.go
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"smartbharat-functions/internal/advisory"
	commonerrors "smartbharat-functions/internal/common/errors"
	"smartbharat-functions/internal/common/logger"
	"smartbharat-functions/internal/models"
)

const answerSchema = `{
	"type": "object",
	"required": ["language", "answer"],
	"properties": {
		"language": {"type": "string"},
		"answer": {"type": "string"}
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

// NewPipeline wires the assistant pipeline. Assistant answers are never
// cached: free-text queries have no reusable key.
func NewPipeline(invoker advisory.Invoker, log logger.Logger) (*advisory.Pipeline, error) {
	return advisory.NewPipeline(FunctionName, invoker, nil, answerSchema, log)
}

func (h *Handler) Handle(c *gin.Context) {
	var input Input
	if err := c.ShouldBindJSON(&input); err != nil {
		h.errors.Respond(c, commonerrors.NewInvalidInputError("request body must be a JSON object"))
		return
	}
	if strings.TrimSpace(input.Query) == "" {
		h.errors.Respond(c, commonerrors.NewInvalidInputError("'query' is required as a string"))
		return
	}
	if input.Section == "" {
		input.Section = h.config.DefaultSection
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.config.Timeout)
	defer cancel()

	req := models.AdvisoryRequest{Subject: input.Query, Region: input.UserLocale}
	result, err := h.pipeline.Run(ctx, req, h.buildPrompt(&input))
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	h.logger.Info("assistant answer served", map[string]interface{}{
		"section": input.Section,
		"raw":     result.Raw,
	})

	if result.Raw {
		c.JSON(http.StatusOK, Fallback{
			Language: h.fallbackLanguage(&input),
			Answer:   rawText(result.Payload),
		})
		return
	}
	c.JSON(http.StatusOK, result.Payload)
}

func (h *Handler) fallbackLanguage(input *Input) string {
	if input.TargetLang != "" {
		return input.TargetLang
	}
	if input.UserLocale != "" {
		return input.UserLocale
	}
	return "en-US"
}

func rawText(payload interface{}) string {
	if m, ok := payload.(map[string]interface{}); ok {
		if raw, ok := m["raw"].(string); ok {
			return raw
		}
	}
	return ""
}

func (h *Handler) buildPrompt(input *Input) string {
	system := fmt.Sprintf(`You are Smart Bharat's agricultural AI assistant. Answer with high precision, grounded in agronomy best practices.
- Respect the user's intent and the section context: %s.
- Be concise, answer the asked question only. If critical info is missing, ask a single clarifying question.
- Prefer metric units. Include safe, practical steps a farmer can follow.
- If targetLang provided, respond in that language. Else detect language from the user's query and respond in that language.
- Never fabricate data; say you don't know if uncertain.
Return strictly JSON with keys: { "language": "<BCP-47 like hi-IN>", "answer": "<final reply>" }.`, input.Section)

	userText := strings.Join([]string{
		fmt.Sprintf("User locale: %s", orDefault(input.UserLocale, "unknown")),
		fmt.Sprintf("Target language (optional): %s", orDefault(input.TargetLang, "not provided")),
		fmt.Sprintf("Section: %s", input.Section),
		fmt.Sprintf("Context: %s", serializeContext(input.Context)),
		fmt.Sprintf("\nUser query: %s", input.Query),
		"\nRespond with JSON only.",
	}, "\n")

	return system + "\n\n" + userText
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// serializeContext flattens the caller's page context to JSON, truncated so
// one oversized screen state cannot blow the prompt budget.
func serializeContext(ctx interface{}) string {
	if ctx == nil {
		ctx = map[string]interface{}{}
	}
	data, err := json.Marshal(ctx)
	if err != nil {
		return "{}"
	}
	if len(data) > maxContextChars {
		data = data[:maxContextChars]
	}
	return string(data)
}

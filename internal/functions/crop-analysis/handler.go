// internal/functions/crop-analysis/handler.go
package cropanalysis

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"smartbharat-functions/internal/advisory"
	commonerrors "smartbharat-functions/internal/common/errors"
	"smartbharat-functions/internal/common/logger"
	"smartbharat-functions/internal/gemini"
	"smartbharat-functions/internal/models"
)

// VisionInvoker performs one multimodal completion.
type VisionInvoker interface {
	GenerateWithImage(ctx context.Context, prompt, imageB64 string, gen *gemini.GenerationConfig) (string, error)
}

// AnalysisStore is the slice of the datastore this handler touches.
type AnalysisStore interface {
	LatestWeather(ctx context.Context, lat, lon float64) (*models.WeatherData, error)
	InsertCropAnalysis(ctx context.Context, analysis *models.CropAnalysis) error
	InsertNotifications(ctx context.Context, notifications []models.Notification) error
}

// AlertDispatcher forwards high-priority notifications. May be nil when
// alerting is disabled.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, notifications []models.Notification) int
}

type Handler struct {
	config     *Config
	invoker    VisionInvoker
	store      AnalysisStore
	dispatcher AlertDispatcher
	errors     *commonerrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, invoker VisionInvoker, store AnalysisStore, dispatcher AlertDispatcher, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		invoker:    invoker,
		store:      store,
		dispatcher: dispatcher,
		errors:     commonerrors.NewErrorHandler(log),
		logger:     log.WithFields(map[string]interface{}{"function": FunctionName}),
	}
}

func (h *Handler) Handle(c *gin.Context) {
	var input Input
	if err := c.ShouldBindJSON(&input); err != nil {
		h.errors.Respond(c, commonerrors.NewInvalidInputError("request body must be a JSON object"))
		return
	}
	if input.Image == "" {
		h.errors.Respond(c, commonerrors.NewInvalidInputError("Image data is required"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	prompt := h.buildPrompt(h.weatherContext(ctx, input))

	text, err := h.invoker.GenerateWithImage(ctx, prompt, input.Image, &gemini.GenerationConfig{
		Temperature:     h.config.Temperature,
		TopK:            h.config.TopK,
		TopP:            h.config.TopP,
		MaxOutputTokens: h.config.MaxOutputTokens,
	})
	if err != nil {
		return nil, err
	}

	analysis := h.parseAnalysis(text)

	h.storeAnalysis(ctx, input, analysis)

	notifications := buildNotifications(analysis, input)
	if len(notifications) > 0 {
		if err := h.store.InsertNotifications(ctx, notifications); err != nil {
			h.logger.Warn("storing analysis notifications failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		if h.dispatcher != nil {
			h.dispatcher.Dispatch(ctx, notifications)
		}
	}

	h.logger.Info("crop analysis completed", map[string]interface{}{
		"healthStatus":  analysis.HealthStatus(),
		"confidence":    analysis.Confidence(),
		"notifications": len(notifications),
	})

	return &Output{
		Success:       true,
		Analysis:      analysis,
		Notifications: notifications,
		Confidence:    analysis.Confidence(),
	}, nil
}

// weatherContext folds the latest stored reading for the coordinate into the
// prompt. Missing coordinates or a store miss simply yield no context.
func (h *Handler) weatherContext(ctx context.Context, input *Input) string {
	if input.Lat == nil || input.Lon == nil {
		return ""
	}
	weather, err := h.store.LatestWeather(ctx, *input.Lat, *input.Lon)
	if err != nil {
		h.logger.Warn("weather context lookup failed", map[string]interface{}{
			"error": err.Error(),
		})
		return ""
	}
	if weather == nil {
		return ""
	}
	return fmt.Sprintf(
		"Current weather conditions: Temperature: %g°C, Humidity: %g%%, Weather: %s, Soil Type: %s, Soil Moisture: %d%%",
		weather.CurrentTemp, weather.Humidity, weather.WeatherCondition, weather.SoilType, weather.SoilMoisture,
	)
}

func (h *Handler) buildPrompt(weatherContext string) string {
	var b strings.Builder
	b.WriteString("You are an expert agricultural AI assistant. Analyze this crop field image and provide detailed insights.\n\n")
	if weatherContext != "" {
		b.WriteString("Context: " + weatherContext + "\n\n")
	}
	b.WriteString(`Please analyze the image and provide:
1. Crop identification (what crop is this?)
2. Health assessment (healthy, stressed, diseased, etc.)
3. Any visible diseases or pests
4. Growth stage assessment
5. Recommendations for care and treatment
6. Predicted yield potential
7. Immediate actions needed

Format your response as a JSON object with the following structure:
{
  "crop_type": "identified crop name",
  "health_status": "healthy/stressed/diseased/unknown",
  "diseases_detected": ["list of diseases if any"],
  "pests_detected": ["list of pests if any"],
  "growth_stage": "seedling/vegetative/flowering/fruiting/mature",
  "overall_score": "score from 1-100",
  "recommendations": [
    "specific actionable recommendations"
  ],
  "immediate_actions": [
    "urgent actions needed"
  ],
  "yield_prediction": "predicted yield assessment",
  "confidence_level": "percentage confidence in analysis"
}`)
	return b.String()
}

// parseAnalysis reuses the advisory normalizer chain; anything that is not a
// JSON object degrades to the fixed fallback shape carrying the raw text.
func (h *Handler) parseAnalysis(text string) Analysis {
	payload, structured := advisory.Normalize(text)
	if structured {
		if m, ok := payload.(map[string]interface{}); ok {
			return Analysis(m)
		}
	}
	h.logger.Warn("vision output did not parse, using fallback analysis", nil)
	return fallbackAnalysis(text)
}

func (h *Handler) storeAnalysis(ctx context.Context, input *Input, analysis Analysis) {
	record := &models.CropAnalysis{
		UserID:          input.UserID,
		ImageURL:        input.Image,
		AnalysisResult:  analysis,
		HealthStatus:    analysis.HealthStatus(),
		DiseaseDetected: strings.Join(analysis.Diseases(), ", "),
		Recommendations: strings.Join(analysis.Recommendations(), "; "),
		ConfidenceScore: analysis.Confidence(),
		Lat:             input.Lat,
		Lon:             input.Lon,
	}
	if err := h.store.InsertCropAnalysis(ctx, record); err != nil {
		h.logger.Warn("storing crop analysis failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func buildNotifications(analysis Analysis, input *Input) []models.Notification {
	var notifications []models.Notification
	add := func(kind, title, message, priority string) {
		notifications = append(notifications, models.Notification{
			Type:     kind,
			Title:    title,
			Message:  message,
			Priority: priority,
			UserID:   input.UserID,
			Lat:      input.Lat,
			Lon:      input.Lon,
		})
	}

	if diseases := analysis.Diseases(); len(diseases) > 0 {
		add("disease_alert", "Disease Detected",
			fmt.Sprintf("Detected diseases: %s. Immediate treatment recommended.", strings.Join(diseases, ", ")),
			models.PriorityHigh)
	}
	if pests := analysis.Pests(); len(pests) > 0 {
		add("pest_alert", "Pest Detected",
			fmt.Sprintf("Detected pests: %s. Take preventive measures.", strings.Join(pests, ", ")),
			models.PriorityHigh)
	}
	if status := analysis.HealthStatus(); status == "stressed" || status == "diseased" {
		add("health_alert", "Crop Health Concern",
			fmt.Sprintf("Crop health status: %s. Review recommendations for improvement.", status),
			models.PriorityMedium)
	}
	if analysis.Confidence() < 60 {
		add("analysis_alert", "Low Confidence Analysis",
			"Analysis confidence is low. Consider taking additional photos or consulting an expert.",
			models.PriorityMedium)
	}
	if actions := analysis.ImmediateActions(); len(actions) > 0 {
		add("action_required", "Immediate Action Required",
			fmt.Sprintf("Actions needed: %s", strings.Join(actions, ", ")),
			models.PriorityHigh)
	}

	return notifications
}

// internal/functions/weather/handler.go
package weather

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	commonerrors "smartbharat-functions/internal/common/errors"
	"smartbharat-functions/internal/common/logger"
	"smartbharat-functions/internal/models"
	"smartbharat-functions/internal/openweather"
)

// Provider is the weather upstream.
type Provider interface {
	HasKey() bool
	CurrentWeather(ctx context.Context, lat, lon float64) (*openweather.Current, error)
	FiveDayForecast(ctx context.Context, lat, lon float64) (*openweather.Forecast, error)
	UVIndex(ctx context.Context, lat, lon float64) *openweather.UV
}

// WeatherStore is the slice of the datastore this handler appends to.
type WeatherStore interface {
	InsertWeatherData(ctx context.Context, data *models.WeatherData) error
	InsertForecast(ctx context.Context, entries []models.ForecastEntry) error
	InsertCropSuggestions(ctx context.Context, lat, lon float64, soilType string, suggestions []models.CropSuggestion) error
	InsertNotifications(ctx context.Context, notifications []models.Notification) error
}

// AlertDispatcher forwards high-priority notifications. May be nil.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, notifications []models.Notification) int
}

// Soil readings are simulated until a soil sensor integration lands.
var soilTypes = []string{"clay", "sandy", "loamy", "silt", "peaty"}

type Handler struct {
	config     *Config
	provider   Provider
	store      WeatherStore
	dispatcher AlertDispatcher
	errors     *commonerrors.ErrorHandler
	logger     logger.Logger
	randIntn   func(n int) int
}

func NewHandler(config *Config, provider Provider, store WeatherStore, dispatcher AlertDispatcher, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		provider:   provider,
		store:      store,
		dispatcher: dispatcher,
		errors:     commonerrors.NewErrorHandler(log),
		logger:     log.WithFields(map[string]interface{}{"function": FunctionName}),
		randIntn:   rand.Intn,
	}
}

func (h *Handler) Handle(c *gin.Context) {
	var input Input
	if err := c.ShouldBindJSON(&input); err != nil {
		h.errors.Respond(c, commonerrors.NewInvalidInputError("request body must be a JSON object"))
		return
	}
	if input.Lat == nil || input.Lon == nil {
		h.errors.Respond(c, commonerrors.NewInvalidInputError("Latitude and longitude are required"))
		return
	}
	if !h.provider.HasKey() {
		h.errors.Respond(c, commonerrors.NewMissingAPIKeyError("OPENWEATHER_API_KEY"))
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
	lat, lon := *input.Lat, *input.Lon

	current, err := h.provider.CurrentWeather(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	forecast, err := h.provider.FiveDayForecast(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	uv := h.provider.UVIndex(ctx, lat, lon)

	soilType := soilTypes[h.randIntn(len(soilTypes))]
	soilMoisture := h.randIntn(100)

	locationName := input.Location
	if locationName == "" {
		locationName = current.Name
	}

	data := models.WeatherData{
		Lat:              lat,
		Lon:              lon,
		LocationName:     locationName,
		CurrentTemp:      current.Main.Temp,
		Humidity:         current.Main.Humidity,
		WindSpeed:        current.Wind.Speed,
		WeatherCondition: current.Condition(),
		UVIndex:          int(math.Round(uv.Value)),
		SoilType:         soilType,
		SoilMoisture:     soilMoisture,
	}
	if err := h.store.InsertWeatherData(ctx, &data); err != nil {
		h.logger.Warn("storing weather data failed", map[string]interface{}{"error": err.Error()})
	}

	entries := forecastEntries(lat, lon, forecast)
	if err := h.store.InsertForecast(ctx, entries); err != nil {
		h.logger.Warn("storing forecast failed", map[string]interface{}{"error": err.Error()})
	}

	suggestions := suggestCrops(current.Main.Temp, current.Main.Humidity, soilType)
	if err := h.store.InsertCropSuggestions(ctx, lat, lon, soilType, suggestions); err != nil {
		h.logger.Warn("storing crop suggestions failed", map[string]interface{}{"error": err.Error()})
	}

	notifications := buildNotifications(current, forecast, uv, lat, lon)
	if len(notifications) > 0 {
		if err := h.store.InsertNotifications(ctx, notifications); err != nil {
			h.logger.Warn("storing weather notifications failed", map[string]interface{}{"error": err.Error()})
		}
		if h.dispatcher != nil {
			h.dispatcher.Dispatch(ctx, notifications)
		}
	}

	h.logger.Info("weather served", map[string]interface{}{
		"location":      locationName,
		"temp":          current.Main.Temp,
		"suggestions":   len(suggestions),
		"notifications": len(notifications),
	})

	return &Output{
		Current:         Current{WeatherData: data, UVValue: uv.Value},
		Forecast:        entries,
		CropSuggestions: suggestions,
		Notifications:   notifications,
	}, nil
}

func forecastEntries(lat, lon float64, forecast *openweather.Forecast) []models.ForecastEntry {
	list := forecast.List
	if len(list) > forecastDays {
		list = list[:forecastDays]
	}
	entries := make([]models.ForecastEntry, 0, len(list))
	for _, item := range list {
		entries = append(entries, models.ForecastEntry{
			Lat:                 lat,
			Lon:                 lon,
			ForecastDate:        time.Unix(item.Dt, 0).UTC().Format("2006-01-02"),
			MinTemp:             item.Main.TempMin,
			MaxTemp:             item.Main.TempMax,
			Humidity:            item.Main.Humidity,
			PrecipitationChance: int(math.Round(item.Pop * 100)),
			WeatherCondition:    item.Condition(),
		})
	}
	return entries
}

// suggestCrops applies fixed agronomy rules over temperature, humidity and
// soil type. Always returns at least one suggestion.
func suggestCrops(temp, humidity float64, soilType string) []models.CropSuggestion {
	var suggestions []models.CropSuggestion

	if temp >= 20 && temp <= 35 && humidity >= 50 && soilType == "clay" {
		suggestions = append(suggestions, models.CropSuggestion{
			Name: "Rice", Type: "cereal",
			PlantingSeason: "Monsoon", HarvestSeason: "Winter",
			WaterRequirement: "High", TemperatureRange: "20-35°C",
			ConfidenceScore: 85,
		})
	}
	if temp >= 15 && temp <= 25 && humidity >= 30 && soilType == "loamy" {
		suggestions = append(suggestions, models.CropSuggestion{
			Name: "Wheat", Type: "cereal",
			PlantingSeason: "Winter", HarvestSeason: "Spring",
			WaterRequirement: "Medium", TemperatureRange: "15-25°C",
			ConfidenceScore: 80,
		})
	}
	if temp >= 18 && temp <= 30 && humidity >= 40 {
		suggestions = append(suggestions, models.CropSuggestion{
			Name: "Maize", Type: "cereal",
			PlantingSeason: "Spring", HarvestSeason: "Summer",
			WaterRequirement: "Medium", TemperatureRange: "18-30°C",
			ConfidenceScore: 75,
		})
	}
	if temp >= 20 && temp <= 35 && humidity >= 30 && soilType == "sandy" {
		suggestions = append(suggestions, models.CropSuggestion{
			Name: "Cotton", Type: "fiber",
			PlantingSeason: "Summer", HarvestSeason: "Winter",
			WaterRequirement: "High", TemperatureRange: "20-35°C",
			ConfidenceScore: 70,
		})
	}
	if temp >= 18 && temp <= 28 && humidity >= 40 {
		suggestions = append(suggestions, models.CropSuggestion{
			Name: "Tomato", Type: "vegetable",
			PlantingSeason: "Spring", HarvestSeason: "Summer",
			WaterRequirement: "Medium", TemperatureRange: "18-28°C",
			ConfidenceScore: 78,
		})
	}

	if len(suggestions) == 0 {
		suggestions = append(suggestions, models.CropSuggestion{
			Name: "Mixed Vegetables", Type: "vegetable",
			PlantingSeason: "All seasons", HarvestSeason: "Depends on crop",
			WaterRequirement: "Medium", TemperatureRange: "Adaptable",
			ConfidenceScore: 60,
		})
	}
	return suggestions
}

func buildNotifications(current *openweather.Current, forecast *openweather.Forecast, uv *openweather.UV, lat, lon float64) []models.Notification {
	var notifications []models.Notification
	add := func(kind, title, message, priority, condition string) {
		notifications = append(notifications, models.Notification{
			Type:             kind,
			Title:            title,
			Message:          message,
			Priority:         priority,
			WeatherCondition: condition,
			Lat:              &lat,
			Lon:              &lon,
		})
	}

	temp := current.Main.Temp
	if temp > heatAlertTemp {
		add("weather_alert", "High Temperature Alert",
			fmt.Sprintf("Temperature is %g°C. Ensure adequate irrigation and shade for crops.", temp),
			models.PriorityHigh, "hot")
	}
	if temp < frostAlertTemp {
		add("weather_alert", "Frost Warning",
			fmt.Sprintf("Temperature is %g°C. Protect crops from frost damage.", temp),
			models.PriorityHigh, "cold")
	}
	if uv.Value > uvAlertIndex {
		add("uv_alert", "High UV Index",
			fmt.Sprintf("UV Index is %g. Avoid field work during peak sun hours.", uv.Value),
			models.PriorityMedium, "sunny")
	}
	for _, item := range forecast.List {
		if item.Condition() == "Rain" {
			add("weather_forecast", "Rain Expected",
				"Rain is forecasted in the next few days. Plan irrigation accordingly.",
				models.PriorityMedium, "rain")
			break
		}
	}
	if current.Wind.Speed > windAlertSpeed {
		add("weather_alert", "High Wind Alert",
			fmt.Sprintf("Wind speed is %g m/s. Secure loose structures and protect tall crops.", current.Wind.Speed),
			models.PriorityMedium, "windy")
	}

	return notifications
}

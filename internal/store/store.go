// internal/store/store.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"smartbharat-functions/internal/common/logger"
	"smartbharat-functions/internal/models"
)

// Store wraps the Postgres tables the weather and crop-analysis routines
// append to. Every write here is best effort from the caller's point of
// view: the surrounding request succeeds even when an insert fails.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func New(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "store"}),
	}
}

// LatestWeather returns the most recent stored reading for a coordinate,
// or nil if none exists.
func (s *Store) LatestWeather(ctx context.Context, lat, lon float64) (*models.WeatherData, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT location_name, current_temp, humidity, wind_speed,
		       weather_condition, uv_index, soil_type, soil_moisture
		FROM weather_data
		WHERE location_lat = $1 AND location_lon = $2
		ORDER BY created_at DESC
		LIMIT 1`, lat, lon)

	data := models.WeatherData{Lat: lat, Lon: lon}
	err := row.Scan(
		&data.LocationName, &data.CurrentTemp, &data.Humidity, &data.WindSpeed,
		&data.WeatherCondition, &data.UVIndex, &data.SoilType, &data.SoilMoisture,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// InsertWeatherData appends one current-conditions reading.
func (s *Store) InsertWeatherData(ctx context.Context, data *models.WeatherData) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO weather_data
			(location_lat, location_lon, location_name, current_temp, humidity,
			 wind_speed, weather_condition, uv_index, soil_type, soil_moisture)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		data.Lat, data.Lon, data.LocationName, data.CurrentTemp, data.Humidity,
		data.WindSpeed, data.WeatherCondition, data.UVIndex, data.SoilType, data.SoilMoisture,
	)
	return err
}

// InsertForecast appends the given forecast days.
func (s *Store) InsertForecast(ctx context.Context, entries []models.ForecastEntry) error {
	for _, e := range entries {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO weather_forecast
				(location_lat, location_lon, forecast_date, min_temp, max_temp,
				 humidity, precipitation_chance, weather_condition)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			e.Lat, e.Lon, e.ForecastDate, e.MinTemp, e.MaxTemp,
			e.Humidity, e.PrecipitationChance, e.WeatherCondition,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// InsertCropSuggestions appends rule-derived suggestions for a coordinate.
func (s *Store) InsertCropSuggestions(ctx context.Context, lat, lon float64, soilType string, suggestions []models.CropSuggestion) error {
	for _, c := range suggestions {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO crop_suggestions
				(location_lat, location_lon, crop_name, crop_type, planting_season,
				 harvest_season, water_requirement, soil_type, temperature_range, confidence_score)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			lat, lon, c.Name, c.Type, c.PlantingSeason,
			c.HarvestSeason, c.WaterRequirement, soilType, c.TemperatureRange, c.ConfidenceScore,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// InsertNotifications appends notification records.
func (s *Store) InsertNotifications(ctx context.Context, notifications []models.Notification) error {
	for _, n := range notifications {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO weather_notifications
				(user_id, notification_type, title, message, priority,
				 weather_condition, location_lat, location_lon)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			nullIfEmpty(n.UserID), n.Type, n.Title, n.Message, n.Priority,
			nullIfEmpty(n.WeatherCondition), n.Lat, n.Lon,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// InsertCropAnalysis appends one image-analysis result.
func (s *Store) InsertCropAnalysis(ctx context.Context, analysis *models.CropAnalysis) error {
	result, err := json.Marshal(analysis.AnalysisResult)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO crop_analysis
			(user_id, image_url, analysis_result, crop_health_status,
			 disease_detected, recommendations, confidence_score, location_lat, location_lon)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		nullIfEmpty(analysis.UserID), analysis.ImageURL, result, analysis.HealthStatus,
		nullIfEmpty(analysis.DiseaseDetected), nullIfEmpty(analysis.Recommendations),
		analysis.ConfidenceScore, analysis.Lat, analysis.Lon,
	)
	return err
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

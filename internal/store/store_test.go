// internal/store/store_test.go
package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"smartbharat-functions/internal/common/logger"
	"smartbharat-functions/internal/models"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, logger.NewTestLogger(t)), mock
}

func TestLatestWeatherReturnsNewestRow(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery("SELECT location_name, current_temp").
		WithArgs(28.6, 77.2).
		WillReturnRows(sqlmock.NewRows([]string{
			"location_name", "current_temp", "humidity", "wind_speed",
			"weather_condition", "uv_index", "soil_type", "soil_moisture",
		}).AddRow("Delhi", 31.5, 62.0, 4.2, "Clear", 6, "loamy", 45))

	data, err := s.LatestWeather(context.Background(), 28.6, 77.2)
	assert.NoError(t, err)
	assert.NotNil(t, data)
	assert.Equal(t, "Delhi", data.LocationName)
	assert.Equal(t, 31.5, data.CurrentTemp)
	assert.Equal(t, "loamy", data.SoilType)
	assert.Equal(t, 28.6, data.Lat)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestWeatherNoRowsIsNotAnError(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery("SELECT location_name, current_temp").
		WillReturnRows(sqlmock.NewRows([]string{
			"location_name", "current_temp", "humidity", "wind_speed",
			"weather_condition", "uv_index", "soil_type", "soil_moisture",
		}))

	data, err := s.LatestWeather(context.Background(), 28.6, 77.2)
	assert.NoError(t, err)
	assert.Nil(t, data)
}

func TestInsertWeatherData(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec("INSERT INTO weather_data").
		WithArgs(28.6, 77.2, "Delhi", 31.5, 62.0, 4.2, "Clear", 6, "loamy", 45).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.InsertWeatherData(context.Background(), &models.WeatherData{
		Lat: 28.6, Lon: 77.2, LocationName: "Delhi",
		CurrentTemp: 31.5, Humidity: 62, WindSpeed: 4.2,
		WeatherCondition: "Clear", UVIndex: 6,
		SoilType: "loamy", SoilMoisture: 45,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertForecastOneRowPerDay(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec("INSERT INTO weather_forecast").
		WithArgs(28.6, 77.2, "2026-08-31", 22.0, 33.0, 60.0, 40, "Rain").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO weather_forecast").
		WithArgs(28.6, 77.2, "2026-09-01", 23.0, 34.0, 55.0, 10, "Clear").
		WillReturnResult(sqlmock.NewResult(2, 1))

	err := s.InsertForecast(context.Background(), []models.ForecastEntry{
		{Lat: 28.6, Lon: 77.2, ForecastDate: "2026-08-31", MinTemp: 22, MaxTemp: 33, Humidity: 60, PrecipitationChance: 40, WeatherCondition: "Rain"},
		{Lat: 28.6, Lon: 77.2, ForecastDate: "2026-09-01", MinTemp: 23, MaxTemp: 34, Humidity: 55, PrecipitationChance: 10, WeatherCondition: "Clear"},
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertForecastStopsOnFirstFailure(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec("INSERT INTO weather_forecast").
		WillReturnError(assert.AnError)

	err := s.InsertForecast(context.Background(), []models.ForecastEntry{
		{ForecastDate: "2026-08-31"},
		{ForecastDate: "2026-09-01"},
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertCropSuggestionsCarriesSoilType(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec("INSERT INTO crop_suggestions").
		WithArgs(28.6, 77.2, "Rice", "Cereal", "June-July", "November-December", "High", "clay", "20-35°C", 85).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.InsertCropSuggestions(context.Background(), 28.6, 77.2, "clay", []models.CropSuggestion{
		{Name: "Rice", Type: "Cereal", PlantingSeason: "June-July", HarvestSeason: "November-December",
			WaterRequirement: "High", TemperatureRange: "20-35°C", ConfidenceScore: 85},
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertNotificationsNullsEmptyUser(t *testing.T) {
	s, mock := newTestStore(t)
	lat, lon := 28.6, 77.2

	mock.ExpectExec("INSERT INTO weather_notifications").
		WithArgs(nil, "heat_alert", "High Temperature Alert", "msg", "high", "Clear", &lat, &lon).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.InsertNotifications(context.Background(), []models.Notification{
		{Type: "heat_alert", Title: "High Temperature Alert", Message: "msg",
			Priority: "high", WeatherCondition: "Clear", Lat: &lat, Lon: &lon},
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertCropAnalysisMarshalsResult(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec("INSERT INTO crop_analysis").
		WithArgs("user-1", "inline", []byte(`{"health_status":"healthy"}`), "healthy",
			nil, "water regularly", 82, nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.InsertCropAnalysis(context.Background(), &models.CropAnalysis{
		UserID:          "user-1",
		ImageURL:        "inline",
		AnalysisResult:  map[string]interface{}{"health_status": "healthy"},
		HealthStatus:    "healthy",
		Recommendations: "water regularly",
		ConfidenceScore: 82,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// internal/functions/weather/models.go
package weather

import "smartbharat-functions/internal/models"

type Input struct {
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
	Location string   `json:"location"`
}

// Current echoes the stored reading but keeps the unrounded UV value.
type Current struct {
	models.WeatherData
	UVValue float64 `json:"uv_index"`
}

type Output struct {
	Current         Current                 `json:"current"`
	Forecast        []models.ForecastEntry  `json:"forecast"`
	CropSuggestions []models.CropSuggestion `json:"cropSuggestions"`
	Notifications   []models.Notification   `json:"notifications"`
}

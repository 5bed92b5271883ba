// internal/models/weather.go
package models

// WeatherData is one stored current-conditions reading for a coordinate.
type WeatherData struct {
	Lat              float64 `json:"location_lat"`
	Lon              float64 `json:"location_lon"`
	LocationName     string  `json:"location_name"`
	CurrentTemp      float64 `json:"current_temp"`
	Humidity         float64 `json:"humidity"`
	WindSpeed        float64 `json:"wind_speed"`
	WeatherCondition string  `json:"weather_condition"`
	UVIndex          int     `json:"uv_index"`
	SoilType         string  `json:"soil_type"`
	SoilMoisture     int     `json:"soil_moisture"`
}

// ForecastEntry is one stored day of forecast for a coordinate.
type ForecastEntry struct {
	Lat                 float64 `json:"location_lat"`
	Lon                 float64 `json:"location_lon"`
	ForecastDate        string  `json:"forecast_date"`
	MinTemp             float64 `json:"min_temp"`
	MaxTemp             float64 `json:"max_temp"`
	Humidity            float64 `json:"humidity"`
	PrecipitationChance int     `json:"precipitation_chance"`
	WeatherCondition    string  `json:"weather_condition"`
}

// CropSuggestion is a rule-derived planting suggestion for a coordinate.
type CropSuggestion struct {
	Name             string `json:"name"`
	Type             string `json:"type"`
	PlantingSeason   string `json:"planting_season"`
	HarvestSeason    string `json:"harvest_season"`
	WaterRequirement string `json:"water_requirement"`
	TemperatureRange string `json:"temperature_range"`
	ConfidenceScore  int    `json:"confidence_score"`
}

// CropAnalysis is the stored result of one image analysis.
type CropAnalysis struct {
	UserID          string      `json:"user_id,omitempty"`
	ImageURL        string      `json:"image_url"`
	AnalysisResult  interface{} `json:"analysis_result"`
	HealthStatus    string      `json:"crop_health_status"`
	DiseaseDetected string      `json:"disease_detected,omitempty"`
	Recommendations string      `json:"recommendations,omitempty"`
	ConfidenceScore int         `json:"confidence_score"`
	Lat             *float64    `json:"location_lat,omitempty"`
	Lon             *float64    `json:"location_lon,omitempty"`
}

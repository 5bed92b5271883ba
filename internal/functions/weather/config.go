// internal/functions/weather/config.go
package weather

import "time"

const FunctionName = "weather-api"

// Alert thresholds, matching the advisory copy shown to farmers.
const (
	heatAlertTemp  = 35.0 // °C
	frostAlertTemp = 5.0  // °C
	uvAlertIndex   = 8.0
	windAlertSpeed = 15.0 // m/s
)

// forecastDays is how many forecast entries are stored and returned.
const forecastDays = 7

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}

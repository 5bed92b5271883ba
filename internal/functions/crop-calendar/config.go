// internal/functions/crop-calendar/config.go
package cropcalendar

import "time"

const FunctionName = "ai-crop-calendar"

type Config struct {
	Timeout       time.Duration
	DefaultCrop   string
	DefaultRegion string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		DefaultCrop:   "wheat",
		DefaultRegion: "uttar-pradesh",
	}
}

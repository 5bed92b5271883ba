// internal/functions/crop-advisories/config.go
package cropadvisories

import "time"

const FunctionName = "ai-crop-advisories"

type Config struct {
	Timeout       time.Duration
	DefaultCrop   string
	DefaultRegion string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		DefaultCrop:   "wheat",
		DefaultRegion: "india",
	}
}

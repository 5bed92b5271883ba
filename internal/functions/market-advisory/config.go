// internal/functions/market-advisory/config.go
package marketadvisory

import "time"

const FunctionName = "ai-market-advisory"

type Config struct {
	Timeout      time.Duration
	DefaultCrop  string
	DefaultState string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		DefaultCrop:  "wheat",
		DefaultState: "All India",
	}
}

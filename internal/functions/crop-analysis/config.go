// internal/functions/crop-analysis/config.go
package cropanalysis

import "time"

const FunctionName = "gemini-crop-analysis"

type Config struct {
	Timeout time.Duration

	// Vision calls use a tighter generation profile than the text
	// advisories.
	Temperature     float64
	TopK            int
	TopP            float64
	MaxOutputTokens int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         60 * time.Second,
		Temperature:     0.4,
		TopK:            32,
		TopP:            1,
		MaxOutputTokens: 2048,
	}
}

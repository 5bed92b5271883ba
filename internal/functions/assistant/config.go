// internal/functions/assistant/config.go
package assistant

import "time"

const FunctionName = "ai-generate"

// maxContextChars bounds the serialized page context folded into the prompt.
const maxContextChars = 2000

type Config struct {
	Timeout        time.Duration
	DefaultSection string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        30 * time.Second,
		DefaultSection: "General",
	}
}

// internal/openweather/client.go
package openweather

import (
	"context"
	"fmt"
	"strings"
	"time"

	commonerrors "smartbharat-functions/internal/common/errors"
	commonhttp "smartbharat-functions/internal/common/http"
	"smartbharat-functions/internal/common/logger"
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Current mirrors the fields we read from the current-weather response.
type Current struct {
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
}

// Condition returns the primary weather condition, or empty.
func (c *Current) Condition() string {
	if len(c.Weather) == 0 {
		return ""
	}
	return c.Weather[0].Main
}

// Forecast mirrors the 5-day/3-hour forecast response.
type Forecast struct {
	List []ForecastItem `json:"list"`
}

type ForecastItem struct {
	Dt   int64 `json:"dt"`
	Main struct {
		TempMin  float64 `json:"temp_min"`
		TempMax  float64 `json:"temp_max"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Pop     float64 `json:"pop"`
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
}

func (f *ForecastItem) Condition() string {
	if len(f.Weather) == 0 {
		return ""
	}
	return f.Weather[0].Main
}

// UV mirrors the UV-index response.
type UV struct {
	Value float64 `json:"value"`
}

// Client wraps the OpenWeather REST API. The API key is injected at
// construction time.
type Client struct {
	config     Config
	httpClient *commonhttp.Client
	logger     logger.Logger
}

func NewClient(config Config, log logger.Logger) *Client {
	return &Client{
		config:     config,
		httpClient: commonhttp.NewClient(config.Timeout),
		logger:     log.WithFields(map[string]interface{}{"component": "openweather"}),
	}
}

// HasKey reports whether a credential was configured.
func (c *Client) HasKey() bool {
	return c.config.APIKey != ""
}

func (c *Client) CurrentWeather(ctx context.Context, lat, lon float64) (*Current, error) {
	var current Current
	url := fmt.Sprintf("%s/data/2.5/weather?lat=%g&lon=%g&appid=%s&units=metric",
		strings.TrimSuffix(c.config.BaseURL, "/"), lat, lon, c.config.APIKey)
	if err := c.get(ctx, url, &current); err != nil {
		return nil, err
	}
	return &current, nil
}

func (c *Client) FiveDayForecast(ctx context.Context, lat, lon float64) (*Forecast, error) {
	var forecast Forecast
	url := fmt.Sprintf("%s/data/2.5/forecast?lat=%g&lon=%g&appid=%s&units=metric",
		strings.TrimSuffix(c.config.BaseURL, "/"), lat, lon, c.config.APIKey)
	if err := c.get(ctx, url, &forecast); err != nil {
		return nil, err
	}
	return &forecast, nil
}

// UVIndex is tolerant: a failed UV lookup degrades to zero, matching how
// the callers treat it as optional context.
func (c *Client) UVIndex(ctx context.Context, lat, lon float64) *UV {
	var uv UV
	url := fmt.Sprintf("%s/data/2.5/uvi?lat=%g&lon=%g&appid=%s",
		strings.TrimSuffix(c.config.BaseURL, "/"), lat, lon, c.config.APIKey)
	if err := c.get(ctx, url, &uv); err != nil {
		c.logger.Warn("uv index lookup failed", map[string]interface{}{"error": err.Error()})
		return &UV{}
	}
	return &uv
}

func (c *Client) get(ctx context.Context, url string, out interface{}) error {
	if err := c.httpClient.GetJSON(ctx, url, out); err != nil {
		return commonerrors.NewWeatherAPIError(err)
	}
	return nil
}

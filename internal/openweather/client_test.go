// internal/openweather/client_test.go
package openweather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	commonerrors "smartbharat-functions/internal/common/errors"
	"smartbharat-functions/internal/common/logger"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(Config{
		BaseURL: baseURL,
		APIKey:  "ow-key",
		Timeout: 5 * time.Second,
	}, logger.NewTestLogger(t))
}

func TestCurrentWeather(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{
			"name": "Delhi",
			"main": {"temp": 31.5, "humidity": 62},
			"wind": {"speed": 4.2},
			"weather": [{"main": "Clear"}]
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	current, err := client.CurrentWeather(context.Background(), 28.6, 77.2)
	assert.NoError(t, err)
	assert.Equal(t, "Delhi", current.Name)
	assert.Equal(t, 31.5, current.Main.Temp)
	assert.Equal(t, "Clear", current.Condition())

	assert.Equal(t, "/data/2.5/weather", gotPath)
	assert.Equal(t, "lat=28.6&lon=77.2&appid=ow-key&units=metric", gotQuery)
}

func TestCurrentWeatherUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.CurrentWeather(context.Background(), 28.6, 77.2)
	assert.Error(t, err)

	var stdErr *commonerrors.StandardError
	assert.ErrorAs(t, err, &stdErr)
	assert.Equal(t, commonerrors.ErrCodeWeatherAPIFailed, stdErr.Code)
	assert.Contains(t, stdErr.Details, "Invalid API key")
}

func TestFiveDayForecast(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"list": [
			{"dt": 1756627200, "main": {"temp_min": 22, "temp_max": 33, "humidity": 60}, "pop": 0.4, "weather": [{"main": "Rain"}]},
			{"dt": 1756713600, "main": {"temp_min": 23, "temp_max": 34, "humidity": 55}, "pop": 0.1, "weather": [{"main": "Clear"}]}
		]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	forecast, err := client.FiveDayForecast(context.Background(), 28.6, 77.2)
	assert.NoError(t, err)
	assert.Equal(t, "/data/2.5/forecast", gotPath)
	assert.Len(t, forecast.List, 2)
	assert.Equal(t, "Rain", forecast.List[0].Condition())
	assert.Equal(t, 0.4, forecast.List[0].Pop)
}

func TestUVIndexDegradesToZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	uv := client.UVIndex(context.Background(), 28.6, 77.2)
	assert.NotNil(t, uv)
	assert.Zero(t, uv.Value)
}

func TestUVIndexOmitsUnits(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"value": 7.2}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	uv := client.UVIndex(context.Background(), 28.6, 77.2)
	assert.Equal(t, 7.2, uv.Value)
	assert.NotContains(t, gotQuery, "units")
}

func TestHasKey(t *testing.T) {
	withKey := NewClient(Config{APIKey: "k"}, logger.NewNoOpLogger())
	assert.True(t, withKey.HasKey())

	without := NewClient(Config{}, logger.NewNoOpLogger())
	assert.False(t, without.HasKey())
}

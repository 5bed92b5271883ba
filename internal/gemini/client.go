// internal/gemini/client.go
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	commonerrors "smartbharat-functions/internal/common/errors"
	"smartbharat-functions/internal/common/logger"
)

// Config holds the settings for the generative-language endpoint.
// The API key is injected at construction time, never read from the
// process environment inside the client.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	MaxRetries int
	Timeout    time.Duration
}

// GenerationConfig mirrors the generationConfig block of the REST API.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Client performs one-shot completions against the generative-language API.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     logger.Logger
}

func NewClient(config Config, log logger.Logger) *Client {
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: log.WithFields(map[string]interface{}{
			"component": "gemini",
			"model":     config.Model,
		}),
	}
}

// GenerateText sends a single user prompt and returns the first candidate's text.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, []content{
		{Role: "user", Parts: []part{{Text: prompt}}},
	}, nil)
}

// GenerateWithImage sends a prompt plus an inline base64 JPEG part.
// A data-URI prefix on the image is stripped before sending.
func (c *Client) GenerateWithImage(ctx context.Context, prompt, imageB64 string, gen *GenerationConfig) (string, error) {
	return c.generate(ctx, []content{
		{Parts: []part{
			{Text: prompt},
			{InlineData: &inlineData{MimeType: "image/jpeg", Data: stripDataURI(imageB64)}},
		}},
	}, gen)
}

func (c *Client) generate(ctx context.Context, contents []content, gen *GenerationConfig) (string, error) {
	if c.config.APIKey == "" {
		return "", commonerrors.NewMissingAPIKeyError("GEMINI_API_KEY")
	}

	body, err := json.Marshal(generateRequest{Contents: contents, GenerationConfig: gen})
	if err != nil {
		return "", commonerrors.NewInternalError(err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimSuffix(c.config.BaseURL, "/"), c.config.Model, c.config.APIKey)

	var lastStatus int
	var lastBody string
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff before the retry
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", commonerrors.NewUpstreamTimeoutError(ctx.Err())
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return "", commonerrors.NewInternalError(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			if err == nil {
				resp.Body.Close()
			}
			return "", commonerrors.NewUpstreamTimeoutError(ctx.Err())
		}
		if err != nil {
			lastErr = err
			lastStatus = 0
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			lastStatus = 0
			continue
		}

		if resp.StatusCode == http.StatusOK {
			return firstCandidateText(respBody)
		}

		lastStatus = resp.StatusCode
		lastBody = string(respBody)
		lastErr = fmt.Errorf("status %d", resp.StatusCode)

		// Client errors are final; only 5xx is worth retrying
		if resp.StatusCode < 500 {
			break
		}

		c.logger.Warn("upstream returned server error, retrying", map[string]interface{}{
			"status":  resp.StatusCode,
			"attempt": attempt + 1,
		})
	}

	if lastStatus > 0 {
		return "", commonerrors.NewUpstreamError(lastStatus, lastBody)
	}
	return "", &commonerrors.StandardError{
		Code:      commonerrors.ErrCodeUpstreamFailed,
		Message:   "Gemini request failed",
		Details:   lastErr.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func firstCandidateText(body []byte) (string, error) {
	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", commonerrors.NewUpstreamError(http.StatusOK, "undecodable response body")
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

func stripDataURI(image string) string {
	if strings.HasPrefix(image, "data:") {
		if idx := strings.Index(image, "base64,"); idx >= 0 {
			return image[idx+len("base64,"):]
		}
	}
	return image
}

// cmd/tools/function-generator/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"smartbharat-functions/pkg/registry"
)

// FunctionData holds data for templates
type FunctionData struct {
	Name          string `json:"name"`
	PackageName   string `json:"packageName"`
	DisplayName   string `json:"displayName"`
	Description   string `json:"description"`
	Cacheable     bool   `json:"cacheable"`
	CacheTTLHours int    `json:"cacheTtlHours"`
	TimeoutMs     int    `json:"timeoutMs"`
	MaxRetries    int    `json:"maxRetries"`
}

const configTemplate = `package {{ .PackageName }}

import "time"

const FunctionName = "{{ .Name }}"

// Config holds settings specific to the {{ .DisplayName }} endpoint.
type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: {{ .TimeoutMs }} * time.Millisecond,
	}
}
`

const modelsTemplate = `package {{ .PackageName }}

// Input is the request body for the {{ .DisplayName }} endpoint.
type Input struct {
	// TODO({{ .Name }}): add request fields
{{- if .Cacheable }}
	BypassCache bool ` + "`json:\"bypassCache\"`" + `
{{- end }}
}

// Output is the response body.
type Output struct {
	// TODO({{ .Name }}): add response fields
{{- if .Cacheable }}
	FromCache bool ` + "`json:\"fromCache\"`" + `
{{- end }}
}
`

const handlerTemplate = `package {{ .PackageName }}

import (
	"context"

	"github.com/gin-gonic/gin"

	"smartbharat-functions/internal/advisory"
	commonerrors "smartbharat-functions/internal/common/errors"
	"smartbharat-functions/internal/common/logger"
	"smartbharat-functions/internal/models"
)

// Handler serves the {{ .DisplayName }} endpoint.
// {{ .Description }}
type Handler struct {
	config   *Config
	pipeline *advisory.Pipeline
	errors   *commonerrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, pipeline *advisory.Pipeline, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		pipeline: pipeline,
		errors:   commonerrors.NewErrorHandler(log),
		logger:   log.WithFields(map[string]interface{}{"function": FunctionName}),
	}
}

func NewPipeline(invoker advisory.Invoker{{ if .Cacheable }}, cache *advisory.CacheGateway{{ end }}, log logger.Logger) (*advisory.Pipeline, error) {
	return advisory.NewPipeline(FunctionName, invoker, {{ if .Cacheable }}cache{{ else }}nil{{ end }}, "", log)
}

func (h *Handler) Handle(c *gin.Context) {
	var input Input
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			h.errors.Respond(c, commonerrors.NewInvalidInputError("request body must be a JSON object"))
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.config.Timeout)
	defer cancel()

	req := models.AdvisoryRequest{
		// TODO({{ .Name }}): map input fields onto subject and region
{{- if .Cacheable }}
		FreshnessOverride: input.BypassCache,
{{- end }}
	}

	result, err := h.pipeline.Run(ctx, req, h.buildPrompt(input))
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	c.JSON(200, Output{
{{- if .Cacheable }}
		FromCache: result.FromCache,
{{- end }}
	})
	_ = result
}

func (h *Handler) buildPrompt(input Input) string {
	// TODO({{ .Name }}): build the model prompt from the input
	return ""
}
`

const testTemplate = `package {{ .PackageName }}

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"smartbharat-functions/internal/common/logger"
)

type fakeInvoker struct {
	response string
	err      error
	calls    int
}

func (f *fakeInvoker) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.response, f.err
}

func newTestRouter(t *testing.T, invoker *fakeInvoker) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewTestLogger(t)
	pipeline, err := NewPipeline(invoker{{ if .Cacheable }}, nil{{ end }}, log)
	assert.NoError(t, err)

	handler := NewHandler(LoadConfig(), pipeline, log)

	router := gin.New()
	router.POST("/functions/"+FunctionName, handler.Handle)
	return router
}

func TestHandleMalformedBody(t *testing.T) {
	invoker := &fakeInvoker{}
	router := newTestRouter(t, invoker)

	req := httptest.NewRequest(http.MethodPost, "/functions/"+FunctionName, strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, invoker.calls)
}
`

func main() {
	name := flag.String("function", "", "Function name from registry (e.g., ai-market-advisory)")
	outputDir := flag.String("output", "./internal/functions/", "Output directory for the generated package")
	registryPath := flag.String("registry", "configs/function-registry.json", "Path to the function registry JSON file")
	flag.Parse()

	if *name == "" {
		fmt.Println("Usage: function-generator --function <name> [--output <dir>] [--registry <path>]")
		fmt.Println("\nExample:")
		fmt.Println("  go run cmd/tools/function-generator/main.go --function ai-market-advisory")
		os.Exit(1)
	}

	reg, err := registry.Load(*registryPath)
	if err != nil {
		fmt.Printf("Error loading registry from %s: %v\n", *registryPath, err)
		os.Exit(1)
	}

	fn := reg.Find(*name)
	if fn == nil {
		fmt.Printf("Function '%s' not found in registry %s\n", *name, *registryPath)
		os.Exit(1)
	}

	data := FunctionData{
		Name:          fn.Name,
		PackageName:   packageName(fn.Name),
		DisplayName:   fn.DisplayName,
		Description:   fn.Description,
		Cacheable:     fn.Cacheable,
		CacheTTLHours: fn.CacheTTLHours,
		TimeoutMs:     fn.TimeoutMs,
		MaxRetries:    fn.MaxRetries,
	}

	functionDir := filepath.Join(*outputDir, directoryName(fn.Name))
	if err := os.MkdirAll(functionDir, 0755); err != nil {
		fmt.Printf("Error creating directory: %v\n", err)
		os.Exit(1)
	}

	templates := map[string]string{
		"config.go":       configTemplate,
		"models.go":       modelsTemplate,
		"handler.go":      handlerTemplate,
		"handler_test.go": testTemplate,
	}

	for filename, tmplStr := range templates {
		tmpl, err := template.New(filename).Parse(tmplStr)
		if err != nil {
			fmt.Printf("Error parsing template %s: %v\n", filename, err)
			continue
		}

		filePath := filepath.Join(functionDir, filename)
		file, err := os.Create(filePath)
		if err != nil {
			fmt.Printf("Error creating file %s: %v\n", filePath, err)
			continue
		}

		if err := tmpl.Execute(file, data); err != nil {
			fmt.Printf("Error executing template for %s: %v\n", filename, err)
		}
		file.Close()

		fmt.Printf("Generated %s\n", filePath)
	}

	fmt.Printf("\nFunction scaffold generated at: %s\n", functionDir)
	fmt.Printf("\nNext steps:\n")
	fmt.Printf("  1. Fill in Input/Output fields in models.go\n")
	fmt.Printf("  2. Build the prompt and request mapping in handler.go\n")
	fmt.Printf("  3. Register the handler in cmd/advisory-server/main.go\n")
	fmt.Printf("  4. Add a functions.%s block to configs/config.yaml\n", configKey(fn.Name))
}

// directoryName strips the common prefixes so ai-market-advisory lands in
// internal/functions/market-advisory.
func directoryName(name string) string {
	trimmed := strings.TrimPrefix(name, "ai-")
	trimmed = strings.TrimPrefix(trimmed, "gemini-")
	return strings.TrimSuffix(trimmed, "-api")
}

func packageName(name string) string {
	return strings.ReplaceAll(directoryName(name), "-", "")
}

func configKey(name string) string {
	return strings.ReplaceAll(directoryName(name), "-", "_")
}

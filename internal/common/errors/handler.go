// internal/common/errors/handler.go
package errors

import (
	"github.com/gin-gonic/gin"
)

// ErrorHandler converts any handler failure into the uniform error envelope.
// Every caller branches on one thing only: did `error` appear in the body.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Respond writes the `{ "error": message }` envelope with the mapped status.
func (h *ErrorHandler) Respond(c *gin.Context, err error) {
	stdErr := Normalize(err)

	fields := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"errorCategory": GetErrorCategory(stdErr.Code),
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"path":          c.FullPath(),
	}

	status := HTTPStatus(stdErr.Code)
	if status >= 500 {
		h.logger.Error("request failed", fields)
	} else {
		h.logger.Warn("request rejected", fields)
	}

	c.JSON(status, gin.H{"error": stdErr.Message})
}

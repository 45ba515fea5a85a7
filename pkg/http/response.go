package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// ErrorBody is the uniform error envelope. Every non-2xx response carries a
// description and a timestamp for correlation with server-side logs.
type ErrorBody struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// SuccessResponse writes a 200 response with the given body.
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// ErrorResponse writes the uniform error envelope with the given status.
func ErrorResponse(c echo.Context, status int, message string) error {
	return c.JSON(status, ErrorBody{
		Error:     message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// AppErrorResponse writes an AppError using its status and client-safe
// message. Unknown errors collapse to a generic 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.RetryAfter > 0 {
			c.Response().Header().Set(echo.HeaderRetryAfter, retryAfterSeconds(appErr.RetryAfter))
		}
		return ErrorResponse(c, appErr.Status, appErr.Message)
	}
	return ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
}

func retryAfterSeconds(d time.Duration) string {
	secs := int64(d.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}

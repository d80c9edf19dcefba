package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoicehub/internal/core/apperror"
	"invoicehub/pkg/logger"
)

// ErrorBody is the JSON shape of every failed response.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// ErrorHandler renders the last error a handler registered with c.Error.
// Errors that are not AppErrors are reported as INTERNAL_ERROR without their text.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		status, body := errorResponse(c, last.Err)
		failIdempotency(c, status, body)
		c.JSON(status, body)
	}
}

func errorResponse(c *gin.Context, err error) (int, ErrorBody) {
	ctx := c.Request.Context()

	appErr, ok := apperror.AsAppError(err)
	if !ok {
		logger.Error(ctx, "unhandled error", "error", err)
		return http.StatusInternalServerError, ErrorBody{
			Code:    apperror.CodeInternal,
			Message: "Internal server error",
			Details: map[string]any{"request_id": c.GetString("request_id")},
		}
	}

	if appErr.Err != nil || appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Error(ctx, "request failed", "code", appErr.Code, "cause", appErr.Err)
	}
	details := appErr.Details
	if details == nil {
		details = map[string]any{}
	}
	return appErr.HTTPStatus, ErrorBody{Code: appErr.Code, Message: appErr.Message, Details: details}
}

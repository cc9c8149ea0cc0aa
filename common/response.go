package common

import (
	"net/http"
	"strconv"
	"time"

	"auction-market/domain"
	"auction-market/validator"

	"github.com/gin-gonic/gin"
)

type ResponseT[T any] struct {
	Status      int    `json:"status"`
	Code        string `json:"code"`
	Data        T      `json:"data"`
	Description string `json:"description"`
	RequestID   string `json:"request_id,omitempty"`
}

var logger Logger

// SetLogger sets the logger for response logging
func SetLogger(l Logger) {
	logger = l
}

func Response[T any](c *gin.Context, status int, code string, data T, desc string) {
	if status >= http.StatusBadRequest && logger != nil {
		keyvals := []any{
			"status", status,
			"code", code,
			"description", desc,
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"request_id", GetRequestIDFromCtx(c),
		}
		if status >= http.StatusInternalServerError {
			logger.Error("API error", keyvals...)
		} else {
			logger.Warn("API error", keyvals...)
		}
	}

	c.AbortWithStatusJSON(status, ResponseT[T]{
		Status:      status,
		Code:        code,
		Data:        data,
		Description: desc,
		RequestID:   GetRequestIDFromCtx(c),
	})
}

func ResponseOK[T any](c *gin.Context, data T, desc string) {
	Response(c, http.StatusOK, "SUCCESS", data, desc)
}

func ResponseCreated[T any](c *gin.Context, data T, desc string) {
	Response(c, http.StatusCreated, "SUCCESS", data, desc)
}

func ResponseNoContent(c *gin.Context) {
	c.AbortWithStatus(http.StatusNoContent)
}

func ResponseBadRequest(c *gin.Context, desc string) {
	responseDetailed(c, domain.ErrBadRequest.WithReason(desc))
}

// ResponseBindError reports binding failures, with per-field messages when
// the failure came from validation tags.
func ResponseBindError(c *gin.Context, err error) {
	if fields := validator.DefaultValidator().TranslateError(err); fields != nil {
		responseDetailed(c, domain.ErrBadRequest.WithDetail("fields", fields))
		return
	}
	responseDetailed(c, domain.ErrBadRequest.WithReason(err.Error()))
}

func ResponseUnauthorized(c *gin.Context, desc string) {
	responseDetailed(c, domain.ErrUnauthorized.WithReason(desc))
}

func ResponseForbidden(c *gin.Context, desc string) {
	responseDetailed(c, domain.ErrForbidden.WithReason(desc))
}

func ResponseNotFound(c *gin.Context, desc string) {
	responseDetailed(c, domain.ErrNotFound.WithReason(desc))
}

func ResponseError(c *gin.Context, err error) {
	dErr, ok := IsDetailError(err)
	if !ok {
		dErr = domain.ErrInternalServerError.WithWrap(err)
		if logger != nil {
			logger.Error("Unhandled error", "error", err.Error(), "request_id", GetRequestIDFromCtx(c))
		}
	}
	responseDetailed(c, dErr)
}

func responseDetailed(c *gin.Context, dErr *domain.DetailedError) {
	dErr = dErr.WithRequestID(GetRequestIDFromCtx(c))
	data := map[string]any{}
	if dErr.ReasonField != "" {
		data["reason"] = dErr.ReasonField
	}
	for k, v := range dErr.DetailsField {
		data[k] = v
	}
	Response[any](c, dErr.StatusCode(), dErr.IDField, data, dErr.ErrorField)
}

func ResponseTooManyRequests(c *gin.Context, desc string, retryAt time.Time) {
	retryAfterSeconds := int64(0)
	retryAtISO := ""

	if !retryAt.IsZero() {
		retryAfterSeconds = int64(time.Until(retryAt).Seconds())
		if retryAfterSeconds > 0 {
			c.Header("Retry-After", strconv.FormatInt(retryAfterSeconds, 10))
		}
		retryAtISO = retryAt.Format(time.RFC3339)
	}

	Response(c, http.StatusTooManyRequests, domain.ErrTooManyRequests.IDField, map[string]any{
		"retry_at":            retryAtISO,
		"retry_after_seconds": retryAfterSeconds,
	}, desc)
}

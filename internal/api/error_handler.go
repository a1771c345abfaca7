package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/deferral-gin/internal/report"
	"github.com/mautops/deferral-gin/internal/review"
	"github.com/mautops/deferral-gin/internal/service"
	"github.com/mautops/deferral-gin/internal/utils"
)

// APIError API 错误
type APIError struct {
	Code    int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	return e.Message
}

// ErrorHandlerMiddleware 把 handler 通过 ctx.Error 挂上的错误写成统一响应
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		var apiErr *APIError
		if errors.As(err, &apiErr) {
			Error(c, apiErr.Code, apiErr.Message, apiErr.Detail)
			return
		}
		code, key := classifyError(err)
		Error(c, code, T(c, key), err.Error())
	}
}

// WrapError 包装错误
func WrapError(err error, code int, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Detail:  err.Error(),
	}
}

// classifyError 服务层错误到 HTTP 状态码与消息键的映射
func classifyError(err error) (int, string) {
	var reviewErr *review.ValidationError
	var inputErr *utils.ValidationError
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "error.not_found"
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrInvalidToken):
		return http.StatusForbidden, "error.forbidden"
	case errors.Is(err, review.ErrInvalidTransition):
		return http.StatusConflict, "error.invalid_transition"
	case errors.Is(err, report.ErrExportInProgress):
		return http.StatusConflict, "error.export_in_progress"
	case errors.As(err, &reviewErr):
		return http.StatusUnprocessableEntity, "error.validation"
	case errors.As(err, &inputErr):
		return http.StatusBadRequest, "error.bad_request"
	}
	return http.StatusInternalServerError, "error.internal_error"
}

// handleServiceError 统一处理服务层错误,返回 false 表示已写入错误响应
func handleServiceError(ctx *gin.Context, err error, operation string) bool {
	if err == nil {
		return true
	}
	code, key := classifyError(err)
	if code == http.StatusInternalServerError {
		GetLogger().WithError(err).
			WithField("request_id", ctx.GetString("request_id")).
			Error("failed to " + operation)
	}
	Error(ctx, code, T(ctx, key), err.Error())
	return false
}

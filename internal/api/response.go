package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/deferral-gin/internal/service"
)

// Response 统一响应格式
// @Description 统一响应格式,包含状态码、消息和数据
type Response struct {
	Code    int         `json:"code" example:"0"`          // 0 表示成功
	Message string      `json:"message" example:"success"` // 响应消息
	Data    interface{} `json:"data"`
}

// ErrorResponse 错误响应格式
// @Description 错误响应格式,门禁失败时 detail 为原因
type ErrorResponse struct {
	Code    int    `json:"code" example:"422"`
	Message string `json:"message" example:"submission blocked"`
	Detail  string `json:"detail,omitempty" example:"All documents must be approved before final approval"`
}

// PaginatedResponse 分页响应
// @Description 分页响应格式,包含数据列表和分页信息
type PaginatedResponse struct {
	Code       int            `json:"code" example:"0"`
	Message    string         `json:"message" example:"success"`
	Data       interface{}    `json:"data"`
	Pagination PaginationInfo `json:"pagination"`
}

// PaginationInfo 分页信息
type PaginationInfo struct {
	Page      int   `json:"page" example:"1"`
	PageSize  int   `json:"page_size" example:"20"`
	Total     int64 `json:"total" example:"100"`
	TotalPage int   `json:"total_page" example:"5"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应,code 不是合法 HTTP 状态码时返回 500
func Error(c *gin.Context, code int, message string, detail string) {
	statusCode := http.StatusInternalServerError
	if code >= 400 && code < 600 {
		statusCode = code
	}

	c.JSON(statusCode, ErrorResponse{
		Code:    code,
		Message: message,
		Detail:  detail,
	})
}

// Paginated 分页响应
func Paginated(c *gin.Context, data interface{}, pagination PaginationInfo) {
	c.JSON(http.StatusOK, PaginatedResponse{
		Code:       0,
		Message:    "success",
		Data:       data,
		Pagination: pagination,
	})
}

func toPagination(p service.PaginationInfo) PaginationInfo {
	return PaginationInfo{
		Page:      p.Page,
		PageSize:  p.PageSize,
		Total:     p.Total,
		TotalPage: p.TotalPage,
	}
}

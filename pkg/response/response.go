// Package response 提供统一的 JSON 响应信封 {code, message, data}
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Success 返回 200 与数据
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response[any]{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

// ErrorWithStatus 以指定 HTTP 状态码返回错误
func ErrorWithStatus(c *gin.Context, status int, message, detail string) {
	c.AbortWithStatusJSON(status, Response[any]{
		Code:    status,
		Message: message,
		Detail:  detail,
	})
}

// Error 以 500 返回错误
func Error(c *gin.Context, err error) {
	ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
}

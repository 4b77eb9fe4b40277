package response

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// 业务错误码
// 1xxxx 通用请求错误，15xxx 反馈模块，16xxx AI 分析模块
const (
	CodeInvalidParams    = 10001 // 参数或请求体格式错误
	CodeRateLimited      = 10004 // AI 接口限流
	CodeBodyTooLarge     = 10005 // 请求体超过 server.max_body_bytes
	CodeFeedbackNotFound = 15001
	CodeFeedbackInvalid  = 15002 // 字段约束校验失败
	CodeNothingToExport  = 15003
	CodeTextRequired     = 16001
	CodeLLMNotConfigured = 16002
	CodeUpstreamError    = 16003 // 文本补全服务调用失败
	CodeInternal         = 50000
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Details string      `json:"details,omitempty"`
}

// ── 成功响应 ──

// OK 200 成功响应
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 201 创建成功
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// ── 错误响应 ──

// Error 通用错误响应
func Error(c *gin.Context, httpStatus int, code int, message string) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
	})
}

// ErrorWithDetails 带详情的错误响应
func ErrorWithDetails(c *gin.Context, httpStatus int, code int, message, details string) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// ── 常见快捷方式 ──

// BadRequest 400
func BadRequest(c *gin.Context, code int, message string) {
	Error(c, http.StatusBadRequest, code, message)
}

// NotFound 404
func NotFound(c *gin.Context, code int, message string) {
	Error(c, http.StatusNotFound, code, message)
}

// PayloadTooLarge 413，details 中给出上限
func PayloadTooLarge(c *gin.Context, limit int64) {
	ErrorWithDetails(c, http.StatusRequestEntityTooLarge, CodeBodyTooLarge, "请求体过大",
		fmt.Sprintf("最大允许 %d 字节", limit))
}

// TooManyRequests 429
func TooManyRequests(c *gin.Context, code int, message string) {
	Error(c, http.StatusTooManyRequests, code, message)
}

// InternalError 500
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, CodeInternal, "服务器内部错误")
}

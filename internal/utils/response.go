package utils

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// APIResponse 统一API响应结构
type APIResponse struct {
	Code    int         `json:"code"`    // 状态码
	Message string      `json:"message"` // 消息
	Data    interface{} `json:"data"`    // 数据
	Success bool        `json:"success"` // 是否成功
}

// Success 返回成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, APIResponse{
		Code:    200,
		Message: "success",
		Data:    data,
		Success: true,
	})
}

// SuccessWithMessage 返回成功响应并自定义消息
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(200, APIResponse{
		Code:    200,
		Message: message,
		Data:    data,
		Success: true,
	})
}

// Error 返回错误响应
func Error(c *gin.Context, code int, message string) {
	ErrorWithData(c, code, message, nil)
}

// ErrorWithData 返回带附加数据的错误响应
func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, APIResponse{
		Code:    code,
		Message: message,
		Data:    data,
		Success: false,
	})
}

// BadRequest 返回400错误
func BadRequest(c *gin.Context, message string) {
	Error(c, 400, message)
}

// Unauthorized 返回401错误
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "authentication required"
	}
	Error(c, 401, message)
}

// InternalServerError 返回500错误
func InternalServerError(c *gin.Context, message string) {
	if message == "" {
		message = "internal server error"
	}
	Error(c, 500, message)
}

// NotFound 返回404错误
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "not found"
	}
	Error(c, 404, message)
}

// ValidationFailed 返回字段级校验错误（400），data 为 字段 -> 提示
func ValidationFailed(c *gin.Context, err error) {
	ErrorWithData(c, 400, "invalid request", FieldErrors(err))
}

// FieldErrors 将 validator 错误转换为字段提示
func FieldErrors(err error) map[string]string {
	fields := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields["_"] = err.Error()
		return fields
	}
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			fields[name] = name + " is required"
		case "email":
			fields[name] = "must be a valid email address"
		case "min":
			fields[name] = name + " must be at least " + fe.Param() + " characters"
		case "max":
			fields[name] = name + " must be at most " + fe.Param() + " characters"
		default:
			fields[name] = name + " is invalid"
		}
	}
	return fields
}

// file: utils/response.go
package utils

import (
	"github.com/gin-gonic/gin"
	"net/http"
)

// Response 所有接口统一的返回结构，业务错误也返回 200，由 code 区分
type Response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Msg: msg, Data: data})
}

func Error(c *gin.Context, code int, msg string) {
	c.JSON(http.StatusOK, Response{Code: code, Msg: msg})
}

// Abort 写入错误并终止后续 handler，供中间件使用
func Abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(http.StatusOK, Response{Code: code, Msg: msg})
}

// Forbidden 权限不足，HTTP 状态码为 403
func Forbidden(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusForbidden, Response{Code: 4003, Msg: msg})
}

package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the unified response envelope
type Response struct {
	Code    int         `json:"code"` // 0 on success, HTTP status on failure
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// Success writes a 200 response with data
func Success(c *gin.Context, data interface{}) {
	if data == nil {
		data = struct{}{}
	}
	c.JSON(http.StatusOK, Response{
		Code: 0,
		Data: data,
	})
}

// Created writes a 201 response with data
func Created(c *gin.Context, data interface{}) {
	if data == nil {
		data = struct{}{}
	}
	c.JSON(http.StatusCreated, Response{
		Code: 0,
		Data: data,
	})
}

// Error writes an error response with the given HTTP status
func Error(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, Response{
		Code:    httpStatus,
		Message: message,
		Data:    struct{}{},
	})
}

// BadRequest writes a 400 error
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// NotFound writes a 404 error
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// Conflict writes a 409 error
func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message)
}

// InternalError writes a 500 error
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

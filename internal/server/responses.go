package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tordrt/dbdesigner/internal/schema"
)

// APIResponse is the envelope every JSON endpoint answers with
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func success(c *gin.Context, statusCode int, data any, message string) {
	c.JSON(statusCode, APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

func fail(c *gin.Context, statusCode int, err error, message string) {
	resp := APIResponse{
		Status:  "error",
		Message: message,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(statusCode, resp)
}

// statusFor maps the designer's error kinds onto HTTP status codes
func statusFor(err error) int {
	switch {
	case schema.IsNotFound(err):
		return http.StatusNotFound
	case schema.IsValidation(err):
		return http.StatusBadRequest
	case schema.IsConflict(err):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func failWith(c *gin.Context, err error, message string) {
	fail(c, statusFor(err), err, message)
}

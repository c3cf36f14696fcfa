// Package handlers implements the gin request handlers for the API server.
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/clauselens/clauselens/pkg/errors"
)

// errorResponse is the standard error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondError maps application errors to their HTTP status. Server-side
// codes are masked so internals do not leak.
func respondError(c *gin.Context, err error) {
	code := apperrors.GetCode(err)
	status := code.HTTPStatus()

	message := err.Error()
	if status >= 500 {
		message = "internal server error"
	}
	c.AbortWithStatusJSON(status, errorResponse{Code: string(code), Message: message})
}

// pagination extracts limit/offset query parameters with sane bounds.
func pagination(c *gin.Context) (limit, offset int) {
	limit = 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/salus-hms/salus-api/internal/service"
	"github.com/salus-hms/salus-api/internal/store"
	"github.com/salus-hms/salus-api/pkg/auth"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// respondServiceError maps service failures onto status codes. Raw store
// errors never reach the response body; callers get a failure they can
// format, not transport prose.
func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	switch {
	case store.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "record not found"})

	case store.IsConflict(err):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "record already exists"})

	case errors.Is(err, auth.ErrInvalidPasskey):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid passkey"})

	case errors.Is(err, auth.ErrTokenExpired), errors.Is(err, auth.ErrTokenInvalid):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid session"})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "operation failed"})
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}

	return true
}

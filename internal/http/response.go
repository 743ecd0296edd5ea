package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"inventory/internal/logger"
	"inventory/internal/service"
)

// Envelope общий формат всех ответов API
type Envelope struct {
	Success bool                 `json:"success"`
	Message string               `json:"message,omitempty"`
	Data    any                  `json:"data,omitempty"`
	Errors  []service.FieldError `json:"errors,omitempty"`
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Success: true, Message: message})
}

// fail writes the error envelope and aborts the chain. 500s hide the cause.
func fail(c *gin.Context, err error) {
	status := mapErrorToStatus(err)
	body := Envelope{Success: false, Message: err.Error()}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		body.Message = service.ErrInvalidInput.Error()
		body.Errors = verr.Fields
	}
	if status == http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		body.Message = "internal server error"
	}
	c.AbortWithStatusJSON(status, body)
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidPayment),
		errors.Is(err, service.ErrInsufficientStock):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// bindJSON decodes the body; field rules are checked by the services.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, bodyError(err))
		return false
	}
	return true
}

func bodyError(err error) error {
	var (
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
	)
	switch {
	case errors.Is(err, io.EOF):
		return &service.ValidationError{Fields: []service.FieldError{{Field: "body", Message: "is required"}}}
	case errors.As(err, &typeErr):
		return &service.ValidationError{Fields: []service.FieldError{{Field: typeErr.Field, Message: "has the wrong type"}}}
	case errors.As(err, &syntaxErr):
		return &service.ValidationError{Fields: []service.FieldError{{Field: "body", Message: "is not valid JSON"}}}
	default:
		return &service.ValidationError{Fields: []service.FieldError{{Field: "body", Message: err.Error()}}}
	}
}

func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		fail(c, &service.ValidationError{Fields: []service.FieldError{{Field: name, Message: "must be a valid id"}}})
		return uuid.Nil, false
	}
	return id, true
}

package middlewares

import (
	"ClinicDesk/services"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response is the envelope of every API response.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// RespondJSON writes a successful envelope.
func RespondJSON(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

// HttpError writes a failed envelope and aborts the chain.
func HttpError(c *gin.Context, status int, message string, details interface{}) {
	c.AbortWithStatusJSON(status, Response{Success: false, Message: message, Errors: details})
}

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	kind, ok := services.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindInvalidState:
		return http.StatusConflict
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// RespondError renders a service error. Domain errors show their message;
// anything else is logged and answered with a generic 500.
func RespondError(c *gin.Context, log *zap.Logger, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		HttpError(c, status, "An unexpected error occurred", nil)
		return
	}

	var fields validation.Errors
	if errors.As(err, &fields) {
		HttpError(c, status, "Validation failed", fields)
		return
	}
	var insufficient *services.InsufficientFundsError
	if errors.As(err, &insufficient) {
		HttpError(c, status, err.Error(), gin.H{
			"available": insufficient.Available.StringFixed(2),
			"required":  insufficient.Required.StringFixed(2),
		})
		return
	}
	HttpError(c, status, err.Error(), nil)
}

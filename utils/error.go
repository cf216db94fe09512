package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON shape of failed requests. EntityID carries the id
// of the affected record when the route names one, so gateway refund or
// payout failures can be correlated back to the appointment they hit.
type ErrorResponse struct {
	Message  string `json:"message"`
	Details  string `json:"details,omitempty"`
	EntityID string `json:"entity_id,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				Logger := GetLogger()
				Logger.Error("Unhandled panic",
					zap.Any("error", err),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.String("entity_id", c.Param("id")),
				)

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Message:  "Internal Server Error",
					Details:  "An unexpected error occurred. Please try again later.",
					EntityID: c.Param("id"),
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	Logger := GetLogger()
	Logger.Warn(message,
		zap.String("details", details),
		zap.String("path", c.Request.URL.Path),
		zap.String("entity_id", c.Param("id")),
	)
	c.JSON(status, ErrorResponse{Message: message, Details: details, EntityID: c.Param("id")})
}

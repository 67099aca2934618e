package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/kodemy-backend/internal/response"
	"github.com/stemsi/kodemy-backend/internal/validator"
)

// ErrorHandler turns the last error a handler attached with c.Error into the
// JSON envelope. Handlers that already wrote a response are left alone.
func ErrorHandler(log zerolog.Logger) gin.HandlerFunc {
	log = log.With().Str("component", "error_handler").Logger()

	return func(c *gin.Context) {
		c.Next()

		ginErr := c.Errors.Last()
		if ginErr == nil || c.Writer.Written() {
			return
		}
		err := ginErr.Err

		var appErr *response.AppError
		switch {
		case errors.As(err, &appErr):
			if appErr.Kind.Status() >= http.StatusInternalServerError {
				log.Error().
					Err(err).
					Str("request_id", response.RequestID(c)).
					Str("path", c.FullPath()).
					Msg("Request failed")
			}
			response.FailWithMessage(c, appErr.Kind.Status(), appErr.Code, appErr.Message)

		case validator.IsValidationError(err):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, validator.TranslateErrors(err))

		default:
			log.Error().
				Err(err).
				Str("request_id", response.RequestID(c)).
				Str("path", c.FullPath()).
				Msg("Unhandled error")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
	}
}

package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"chirp/apperror"
)

type errorBody struct {
	Status  string                `json:"status"`
	Message string                `json:"message"`
	Errors  []apperror.FieldError `json:"errors,omitempty"`
}

// ErrorReporter writes the last error recorded on the context as
// {status, message, errors?}. Unknown errors become a generic 500.
func ErrorReporter(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil {
			return
		}

		appErr := apperror.From(last.Err)
		if appErr.Kind == apperror.KindInternal {
			log.Error().
				Str("request_id", c.GetString(requestIDKey)).
				Str("path", c.Request.URL.Path).
				Err(appErr.Err).
				Msg("internal error")
		}

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(appErr.StatusCode(), errorBody{
			Status:  appErr.Status(),
			Message: appErr.Message,
			Errors:  appErr.Fields,
		})
	}
}

// Recovery turns a panic into an internal error for ErrorReporter.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		_ = c.Error(apperror.Internal(errors.New(fmt.Sprint("panic: ", recovered))))
		c.Abort()
	})
}

package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "lasyfinance/internal/errors"
	"lasyfinance/internal/logger"
)

// ErrorHandler renders the last error recorded on the context with c.Error
// once the rest of the chain has run. Handlers and middleware record the
// error and abort; this is the only place error bodies are written.
//
// AppErrors keep their status, code and message. Anything else is logged and
// answered with a generic internal error so details do not leak.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := toAppError(c, c.Errors.Last().Err)
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
	}
}

// toAppError resolves err to the AppError that is sent to the client,
// logging server-side causes with the request id.
func toAppError(c *gin.Context, err error) *apperrors.AppError {
	log := logger.Get().With(
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", c.GetString(requestIDKey),
	)

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		log.Errorw("unexpected error", "error", err.Error())
		return apperrors.ErrInternalServer
	}

	switch {
	case appErr.Internal != nil:
		log.Errorw("app error", "code", appErr.Code, "internal", appErr.Internal.Error())
	case appErr.StatusCode >= http.StatusInternalServerError:
		log.Errorw("app error", "code", appErr.Code)
	}
	return appErr
}

// abortWithAppError stops the chain and leaves the response to ErrorHandler.
func abortWithAppError(c *gin.Context, appErr *apperrors.AppError) {
	_ = c.Error(appErr)
	c.Abort()
}

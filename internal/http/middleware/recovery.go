package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	errx "github.com/jolly-agents/server/internal/core/error"
	logx "github.com/jolly-agents/server/pkg/logger"
)

// Recovery turns a handler panic into a JSON 500 and logs the stack.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logx.Error().
					Interface("panic", rec).
					Str("request_id", c.GetString(RequestIDKey)).
					Bytes("stack", debug.Stack()).
					Msg("Handler panicked")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": errx.SystemErrorMessage})
			}
		}()
		c.Next()
	}
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	errx "github.com/jolly-agents/server/internal/core/error"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeAppError maps err onto its AppError status. Client errors carry the
// underlying detail; server errors only the safe message.
func writeAppError(c *gin.Context, err error) {
	_ = c.Error(err)

	var appErr *errx.AppError
	if !errors.As(err, &appErr) {
		writeError(c, http.StatusInternalServerError, errx.SystemErrorMessage)
		return
	}
	status := errx.StatusOf(err)
	if status < http.StatusInternalServerError && appErr.Err != nil {
		writeError(c, status, appErr.Err.Error())
		return
	}
	writeError(c, status, appErr.Message)
}

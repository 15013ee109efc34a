package server

import (
	"errors"
	"net/http"

	"pointer/internal/apply"
	"pointer/internal/chat"
	"pointer/internal/client"
	"pointer/internal/snapshot"
	"pointer/internal/terminal"
	"pointer/internal/undo"
	"pointer/internal/workspace"

	"github.com/gin-gonic/gin"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var upstream *client.UpstreamError
	switch {
	case errors.Is(err, client.ErrMissingCredential),
		errors.Is(err, client.ErrUnknownProvider),
		errors.Is(err, snapshot.ErrInvalidPath),
		errors.Is(err, workspace.ErrEmptyMessage),
		errors.Is(err, chat.ErrUnknownSuggestion):
		return http.StatusBadRequest
	case errors.Is(err, snapshot.ErrNotFound),
		errors.Is(err, terminal.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, snapshot.ErrExists),
		errors.Is(err, snapshot.ErrStale),
		errors.Is(err, terminal.ErrLastSession),
		errors.Is(err, chat.ErrBusy),
		errors.Is(err, chat.ErrOutOfOrder),
		errors.Is(err, undo.ErrNothingToUndo),
		errors.Is(err, undo.ErrNothingToRedo):
		return http.StatusConflict
	case errors.Is(err, apply.ErrInvalidInstruction),
		errors.Is(err, apply.ErrUnsupportedFormat):
		return http.StatusUnprocessableEntity
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

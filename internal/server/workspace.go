package server

import (
	"errors"
	"net/http"
	"strconv"

	"pointer/internal/apply"
	"pointer/internal/workspace"

	"github.com/gin-gonic/gin"
)

type applyRequest struct {
	Path     string `json:"path" binding:"required"`
	Code     string `json:"code"`
	Decision string `json:"decision"`
}

// turn runs one chat-to-edit turn. A turn that ran but failed still returns its
// result, with the status of the failure.
func (s *Server) turn(c *gin.Context) {
	var req workspace.TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	res, err := s.deps.Workspace.Turn(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	if res.Err != nil {
		c.JSON(statusFor(res.Err), gin.H{"error": res.Err.Error(), "result": res})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) applyBlock(c *gin.Context) {
	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	res, err := s.deps.Workspace.ApplyBlock(c.Request.Context(), req.Path, req.Code, req.Decision)
	if err != nil {
		var unsupported *apply.UnsupportedFormatError
		if errors.As(err, &unsupported) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":         err.Error(),
				"needsDecision": true,
				"addedLines":    unsupported.AddedLines,
			})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) undo(c *gin.Context) {
	res, err := s.deps.Workspace.Undo(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) redo(c *gin.Context) {
	res, err := s.deps.Workspace.Redo(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) editHistory(c *gin.Context) {
	n, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || n <= 0 {
		badRequest(c, "limit must be a positive integer")
		return
	}
	c.JSON(http.StatusOK, gin.H{"changes": s.deps.Workspace.History(n)})
}

func (s *Server) messages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"messages": s.deps.Workspace.Messages()})
}

func (s *Server) clearMessages(c *gin.Context) {
	s.deps.Workspace.ClearHistory(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func (s *Server) markTyped(c *gin.Context) {
	if !s.deps.Workspace.MarkTyped(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) suggestion(c *gin.Context) {
	text, err := s.deps.Workspace.Suggestion(c.Param("action"), c.Query("file"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

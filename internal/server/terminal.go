package server

import (
	"net/http"

	"pointer/internal/terminal"

	"github.com/gin-gonic/gin"
)

type executeRequest struct {
	Session string `json:"session"`
	Command string `json:"command"`
}

func (s *Server) terminalSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": s.deps.Terminal.List()})
}

// terminalExecute runs a command in the simulated terminal. An empty session
// means the first one.
func (s *Server) terminalExecute(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	lines, err := s.deps.Terminal.Execute(req.Session, req.Command)
	if err != nil {
		writeError(c, err)
		return
	}
	if lines == nil {
		lines = []terminal.Line{}
	}
	c.JSON(http.StatusOK, gin.H{"lines": lines})
}

func (s *Server) terminalOpen(c *gin.Context) {
	c.JSON(http.StatusCreated, s.deps.Terminal.Open())
}

func (s *Server) terminalClose(c *gin.Context) {
	if err := s.deps.Terminal.Close(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

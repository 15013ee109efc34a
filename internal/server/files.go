package server

import (
	"net/http"
	"strings"

	"pointer/internal/logging"
	"pointer/internal/snapshot"

	"github.com/gin-gonic/gin"
)

type fileEntry struct {
	Path  string `json:"path"`
	Lines int    `json:"lines"`
}

type createFileRequest struct {
	Path    string  `json:"path" binding:"required"`
	Content *string `json:"content"`
}

type renameRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

type putFileRequest struct {
	Content string `json:"content"`
}

func (s *Server) listFiles(c *gin.Context) {
	snap := s.deps.Workspace.Snapshot()
	counts := snap.LineCounts()
	files := make([]fileEntry, 0, len(counts))
	for _, p := range snap.Paths() {
		files = append(files, fileEntry{Path: p, Lines: counts[p]})
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

// createFile seeds the file from its extension template unless content is given.
func (s *Server) createFile(c *gin.Context) {
	var req createFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	snap := s.deps.Workspace.Snapshot()

	var (
		f   snapshot.File
		err error
	)
	if req.Content != nil {
		f, err = snap.Create(req.Path, *req.Content)
	} else {
		f, err = snap.CreateFromTemplate(req.Path)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	s.deps.Workspace.PersistSnapshot(c.Request.Context())
	c.JSON(http.StatusCreated, f)
}

func (s *Server) renameFile(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	f, err := s.deps.Workspace.Snapshot().Rename(req.From, req.To)
	if err != nil {
		writeError(c, err)
		return
	}
	s.deps.Workspace.PersistSnapshot(c.Request.Context())
	c.JSON(http.StatusOK, f)
}

func (s *Server) getFile(c *gin.Context) {
	f, err := s.deps.Workspace.Snapshot().Get(filePath(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// putFile is a user edit. It creates the file when missing.
func (s *Server) putFile(c *gin.Context) {
	var req putFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	f, err := s.deps.Workspace.Snapshot().Set(filePath(c), req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	s.deps.Workspace.PersistSnapshot(c.Request.Context())
	c.JSON(http.StatusOK, f)
}

func (s *Server) deleteFile(c *gin.Context) {
	p := filePath(c)
	if err := s.deps.Workspace.Snapshot().Delete(p); err != nil {
		writeError(c, err)
		return
	}
	s.deps.Workspace.PersistSnapshot(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func (s *Server) exportProject(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="pointer-project.json"`)
	c.JSON(http.StatusOK, s.deps.Workspace.Snapshot().Export())
}

func (s *Server) importProject(c *gin.Context) {
	e, err := snapshot.ReadExport(c.Request.Body)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	n, err := s.deps.Workspace.Snapshot().Import(e)
	if err != nil {
		writeError(c, err)
		return
	}
	logging.Info("project imported", "files", n)
	s.deps.Workspace.PersistSnapshot(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"files": n})
}

func filePath(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("path"), "/")
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) listDiagrams(c *gin.Context) {
	list, err := s.store.List()
	if err != nil {
		failWith(c, err, "failed to list diagrams")
		return
	}
	success(c, http.StatusOK, list, "")
}

type createDiagramRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// createDiagram saves the current design as a new diagram and makes it the open one
func (s *Server) createDiagram(c *gin.Context) {
	var req createDiagramRequest
	if err := bindOptional(c, &req); err != nil {
		fail(c, http.StatusBadRequest, err, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.store.Create(req.Name, req.Description, s.session.Schema())
	if err != nil {
		failWith(c, err, "failed to save diagram")
		return
	}
	s.diagramID = d.ID
	success(c, http.StatusCreated, d, "diagram saved")
}

func (s *Server) saveDiagram(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, changed, err := s.store.SaveSchema(c.Param("id"), s.session.Schema())
	if err != nil {
		failWith(c, err, "failed to save diagram")
		return
	}
	s.diagramID = d.ID
	if !changed {
		success(c, http.StatusOK, d, "no changes")
		return
	}
	success(c, http.StatusOK, d, "diagram saved")
}

// openDiagram loads a saved design into the session. Opening is an import,
// so it can be undone.
func (s *Server) openDiagram(c *gin.Context) {
	d, err := s.store.Get(c.Param("id"))
	if err != nil {
		failWith(c, err, "failed to open diagram")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.Import(*d.Schema); err != nil {
		failWith(c, err, "failed to open diagram")
		return
	}
	s.diagramID = d.ID
	success(c, http.StatusOK, s.view(""), "diagram opened")
}

type starRequest struct {
	Starred bool `json:"starred"`
}

func (s *Server) starDiagram(c *gin.Context) {
	var req starRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err, "invalid request body")
		return
	}
	if err := s.store.SetStarred(c.Param("id"), req.Starred); err != nil {
		failWith(c, err, "failed to star diagram")
		return
	}
	success(c, http.StatusOK, nil, "diagram updated")
}

func (s *Server) deleteDiagram(c *gin.Context) {
	id := c.Param("id")
	if err := s.store.Delete(id); err != nil {
		failWith(c, err, "failed to delete diagram")
		return
	}
	s.mu.Lock()
	if s.diagramID == id {
		s.diagramID = ""
	}
	s.mu.Unlock()
	success(c, http.StatusOK, nil, "diagram deleted")
}

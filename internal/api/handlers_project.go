package api

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/estima/internal/domain"
	"github.com/alexanderramin/estima/internal/estimate"
	"github.com/alexanderramin/estima/internal/graph"
)

// workspace opens the workspace of the :id project, writing the error
// response when it cannot.
func (s *Server) workspace(c *gin.Context) (*graph.Workspace, bool) {
	ws, err := s.reg.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	return ws, true
}

// bind decodes the JSON body into v, answering 400 on failure.
func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		badRequest(c, err)
		return false
	}
	return true
}

func (s *Server) listProjects(c *gin.Context) {
	projects, err := s.svc.ListProjects(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(projects))
}

type createProjectRequest struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	UncertaintyLevel string `json:"uncertainty_level"`
	UIUXLevel        string `json:"uiux_level"`
	LegacyCode       bool   `json:"legacy_code"`
}

func (s *Server) createProject(c *gin.Context) {
	var req createProjectRequest
	if !bind(c, &req) {
		return
	}
	p := domain.NewProject("", req.Name, req.Description)
	p.UncertaintyLevel = domain.CoalesceStr(req.UncertaintyLevel, p.UncertaintyLevel)
	p.UIUXLevel = domain.CoalesceStr(req.UIUXLevel, p.UIUXLevel)
	p.LegacyCode = req.LegacyCode
	if err := s.svc.CreateProject(c.Request.Context(), p); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) getProject(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ws.Project())
}

func (s *Server) deleteProject(c *gin.Context) {
	id := c.Param("id")
	if err := s.svc.DeleteProject(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	s.reg.Close(id)
	c.Status(http.StatusNoContent)
}

func (s *Server) updateSettings(c *gin.Context) {
	var req domain.ProjectSettings
	if !bind(c, &req) {
		return
	}
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	p, err := ws.UpdateSettings(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) listProjectModules(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, nonNil(ws.State().ProjectModules))
}

func (s *Server) addProjectModule(c *gin.Context) {
	var pm domain.ProjectModule
	if !bind(c, &pm) {
		return
	}
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	created, err := ws.AddProjectModule(c.Request.Context(), pm)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) updateProjectModule(c *gin.Context) {
	var pm domain.ProjectModule
	if !bind(c, &pm) {
		return
	}
	pm.ID = c.Param("pmid")
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	updated, err := ws.UpdateProjectModule(c.Request.Context(), pm)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) removeProjectModule(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	if err := ws.RemoveProjectModule(c.Request.Context(), c.Param("pmid")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listConnections(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, nonNil(ws.Connections()))
}

// replaceConnections takes the complete connection set as a JSON array.
func (s *Server) replaceConnections(c *gin.Context) {
	var conns []domain.ProjectConnection
	if !bind(c, &conns) {
		return
	}
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	stored, err := ws.ReplaceConnections(c.Request.Context(), conns)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(stored))
}

func (s *Server) listAssignments(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, nonNil(ws.State().Assignments))
}

func (s *Server) upsertAssignment(c *gin.Context) {
	var a domain.Assignment
	if !bind(c, &a) {
		return
	}
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	saved, err := ws.UpsertAssignment(c.Request.Context(), a)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (s *Server) deleteAssignment(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	if err := ws.DeleteAssignment(c.Request.Context(), c.Param("aid")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listCoefficients(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, nonNil(ws.State().Coefficients))
}

func (s *Server) upsertCoefficients(c *gin.Context) {
	var coefs []domain.Coefficient
	if !bind(c, &coefs) {
		return
	}
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	saved, err := ws.UpsertCoefficients(c.Request.Context(), coefs)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (s *Server) listProjectInfrastructure(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, nonNil(ws.State().Infrastructure))
}

func (s *Server) upsertProjectInfrastructure(c *gin.Context) {
	var pi domain.ProjectInfrastructure
	if !bind(c, &pi) {
		return
	}
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	saved, err := ws.UpsertInfrastructure(c.Request.Context(), pi)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (s *Server) summary(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ws.Summary())
}

// export buffers the file so a failure still produces a JSON error.
func (s *Server) export(c *gin.Context) {
	id := c.Param("id")
	format := c.DefaultQuery("format", estimate.FormatCSV)
	var buf bytes.Buffer
	if err := s.svc.Export(c.Request.Context(), id, format, &buf); err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+estimate.Filename(id, format)+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

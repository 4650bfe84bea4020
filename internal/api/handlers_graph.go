package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/estima/internal/domain"
	"github.com/alexanderramin/estima/internal/graph"
)

// replaceResponse reports the outcome of a merge or version apply.
type replaceResponse struct {
	KeyToID      map[string]string `json:"key_to_id"`
	NodesCreated int               `json:"nodes_created"`
	EdgesCreated int               `json:"edges_created"`
	EdgesDropped int               `json:"edges_dropped"`
	NotesCreated int               `json:"notes_created"`
}

func newReplaceResponse(r graph.Result) replaceResponse {
	if r.KeyToID == nil {
		r.KeyToID = map[string]string{}
	}
	return replaceResponse{
		KeyToID:      r.KeyToID,
		NodesCreated: r.NodesCreated,
		EdgesCreated: r.EdgesCreated,
		EdgesDropped: r.EdgesDropped,
		NotesCreated: r.NotesCreated,
	}
}

type edgesRequest struct {
	Edges []domain.GraphEdge `json:"edges"`
}

type versionRequest struct {
	Title    string           `json:"title"`
	Snapshot *domain.Snapshot `json:"snapshot"`
}

func (s *Server) listNodes(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, nonNil(ws.Nodes()))
}

func (s *Server) createNode(c *gin.Context) {
	var attrs domain.NodeAttrs
	if !bind(c, &attrs) {
		return
	}
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	n, err := ws.CreateNode(c.Request.Context(), attrs)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (s *Server) updateNode(c *gin.Context) {
	var attrs domain.NodeAttrs
	if !bind(c, &attrs) {
		return
	}
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	node := domain.GraphNode{ID: c.Param("nid"), ProjectID: ws.ProjectID(), NodeAttrs: attrs}
	n, err := ws.UpdateNode(c.Request.Context(), node)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (s *Server) deleteNode(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	if err := ws.DeleteNode(c.Request.Context(), c.Param("nid")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listEdges(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, nonNil(ws.Edges()))
}

func (s *Server) replaceEdges(c *gin.Context) {
	var req edgesRequest
	if !bind(c, &req) {
		return
	}
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	dropped, err := ws.ReplaceEdges(c.Request.Context(), req.Edges)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dropped": dropped})
}

func (s *Server) listNotes(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, nonNil(ws.Notes()))
}

func (s *Server) createNote(c *gin.Context) {
	var attrs domain.NoteAttrs
	if !bind(c, &attrs) {
		return
	}
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	n, err := ws.CreateNote(c.Request.Context(), attrs)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (s *Server) updateNote(c *gin.Context) {
	var attrs domain.NoteAttrs
	if !bind(c, &attrs) {
		return
	}
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	note := domain.GraphNote{ID: c.Param("nid"), ProjectID: ws.ProjectID(), NoteAttrs: attrs}
	n, err := ws.UpdateNote(c.Request.Context(), note)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (s *Server) deleteNote(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	if err := ws.DeleteNote(c.Request.Context(), c.Param("nid")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listVersions(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, nonNil(ws.ListVersions()))
}

// saveVersion snapshots the live graph, or stores the snapshot supplied by
// a remote client that already captured it.
func (s *Server) saveVersion(c *gin.Context) {
	var req versionRequest
	if !bind(c, &req) {
		return
	}
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if req.Snapshot == nil {
		rec, err := ws.SaveVersion(ctx, req.Title)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, rec.Header())
		return
	}
	rec := domain.VersionRecord{ProjectID: ws.ProjectID(), Title: req.Title, Snapshot: req.Snapshot}
	if err := s.svc.CreateVersion(ctx, &rec); err != nil {
		s.fail(c, err)
		return
	}
	if err := ws.Notify(ctx, graph.EventVersionSaved); err != nil {
		s.logger.Warn("refresh after version save failed", "project_id", ws.ProjectID(), "error", err)
	}
	c.JSON(http.StatusCreated, rec.Header())
}

func (s *Server) getVersion(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	rec, err := ws.VersionDetail(c.Request.Context(), c.Param("vid"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) applyVersion(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	res, err := ws.ApplyVersion(c.Request.Context(), c.Param("vid"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newReplaceResponse(res))
}

func (s *Server) mergeProposal(c *gin.Context) {
	var p domain.Proposal
	if !bind(c, &p) {
		return
	}
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	res, err := ws.MergeProposal(c.Request.Context(), p)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newReplaceResponse(res))
}

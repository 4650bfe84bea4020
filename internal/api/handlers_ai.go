package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type promptRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) aiParse(c *gin.Context) {
	var req promptRequest
	if !bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	catalog, err := s.svc.ListModules(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	res, err := s.parser.Parse(ctx, req.Prompt, catalog)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// aiMindmap only generates a proposal; merging it is a separate call.
func (s *Server) aiMindmap(c *gin.Context) {
	var req promptRequest
	if !bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	catalog, err := s.svc.ListModules(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	p, err := s.proposals.Mindmap(ctx, req.Prompt, catalog)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

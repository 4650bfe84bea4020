package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/estima/internal/domain"
	"github.com/alexanderramin/estima/internal/graph"
)

// broadcast refreshes every open workspace after a catalog change. The
// mutation already succeeded, so a refresh failure is only logged.
func (s *Server) broadcast(c *gin.Context, ev graph.Event) {
	if err := s.reg.Broadcast(c.Request.Context(), ev); err != nil {
		s.logger.Warn("catalog refresh failed", "event", string(ev), "error", err)
	}
}

func (s *Server) listModules(c *gin.Context) {
	modules, err := s.svc.ListModules(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(modules))
}

func (s *Server) createModule(c *gin.Context) {
	var m domain.Module
	if !bind(c, &m) {
		return
	}
	if err := s.svc.CreateModule(c.Request.Context(), &m); err != nil {
		s.fail(c, err)
		return
	}
	s.broadcast(c, graph.EventModuleCatalogChanged)
	c.JSON(http.StatusCreated, m)
}

func (s *Server) updateModule(c *gin.Context) {
	var m domain.Module
	if !bind(c, &m) {
		return
	}
	m.ID = c.Param("mid")
	if err := s.svc.UpdateModule(c.Request.Context(), &m); err != nil {
		s.fail(c, err)
		return
	}
	s.broadcast(c, graph.EventModuleCatalogChanged)
	c.JSON(http.StatusOK, m)
}

func (s *Server) deleteModule(c *gin.Context) {
	if err := s.svc.DeleteModule(c.Request.Context(), c.Param("mid")); err != nil {
		s.fail(c, err)
		return
	}
	s.broadcast(c, graph.EventModuleCatalogChanged)
	c.Status(http.StatusNoContent)
}

func (s *Server) listRates(c *gin.Context) {
	rates, err := s.svc.ListRates(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(rates))
}

func (s *Server) upsertRate(c *gin.Context) {
	var r domain.Rate
	if !bind(c, &r) {
		return
	}
	saved, err := s.reg.UpsertRate(c.Request.Context(), r)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (s *Server) listInfrastructureItems(c *gin.Context) {
	items, err := s.svc.ListInfrastructureItems(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(items))
}

func (s *Server) createInfrastructureItem(c *gin.Context) {
	var item domain.InfrastructureItem
	if !bind(c, &item) {
		return
	}
	if err := s.svc.CreateInfrastructureItem(c.Request.Context(), &item); err != nil {
		s.fail(c, err)
		return
	}
	s.broadcast(c, graph.EventInfrastructureCatalogChanged)
	c.JSON(http.StatusCreated, item)
}

func (s *Server) updateInfrastructureItem(c *gin.Context) {
	var item domain.InfrastructureItem
	if !bind(c, &item) {
		return
	}
	item.ID = c.Param("iid")
	if err := s.svc.UpdateInfrastructureItem(c.Request.Context(), &item); err != nil {
		s.fail(c, err)
		return
	}
	s.broadcast(c, graph.EventInfrastructureCatalogChanged)
	c.JSON(http.StatusOK, item)
}

func (s *Server) deleteInfrastructureItem(c *gin.Context) {
	if err := s.svc.DeleteInfrastructureItem(c.Request.Context(), c.Param("iid")); err != nil {
		s.fail(c, err)
		return
	}
	s.broadcast(c, graph.EventInfrastructureCatalogChanged)
	c.Status(http.StatusNoContent)
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes sets up every API route on the router.
func registerRoutes(router *gin.Engine, s *Server) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	api.GET("/projects", s.listProjects)
	api.POST("/projects", s.createProject)

	p := api.Group("/projects/:id")
	p.GET("", s.getProject)
	p.DELETE("", s.deleteProject)
	p.PUT("/settings", s.updateSettings)

	p.GET("/modules", s.listProjectModules)
	p.POST("/modules", s.addProjectModule)
	p.PUT("/modules/:pmid", s.updateProjectModule)
	p.DELETE("/modules/:pmid", s.removeProjectModule)

	p.GET("/connections", s.listConnections)
	p.PUT("/connections", s.replaceConnections)

	p.GET("/assignments", s.listAssignments)
	p.PUT("/assignments", s.upsertAssignment)
	p.DELETE("/assignments/:aid", s.deleteAssignment)

	p.GET("/coefficients", s.listCoefficients)
	p.PUT("/coefficients", s.upsertCoefficients)

	p.GET("/infrastructure", s.listProjectInfrastructure)
	p.PUT("/infrastructure", s.upsertProjectInfrastructure)

	p.GET("/nodes", s.listNodes)
	p.POST("/nodes", s.createNode)
	p.PUT("/nodes/:nid", s.updateNode)
	p.DELETE("/nodes/:nid", s.deleteNode)

	p.GET("/edges", s.listEdges)
	p.PUT("/edges", s.replaceEdges)

	p.GET("/notes", s.listNotes)
	p.POST("/notes", s.createNote)
	p.PUT("/notes/:nid", s.updateNote)
	p.DELETE("/notes/:nid", s.deleteNote)

	p.GET("/versions", s.listVersions)
	p.POST("/versions", s.saveVersion)
	p.GET("/versions/:vid", s.getVersion)
	p.POST("/versions/:vid/apply", s.applyVersion)

	p.POST("/mindmap/merge", s.mergeProposal)
	p.GET("/summary", s.summary)
	p.GET("/export", s.export)

	api.GET("/modules", s.listModules)
	api.POST("/modules", s.createModule)
	api.PUT("/modules/:mid", s.updateModule)
	api.DELETE("/modules/:mid", s.deleteModule)

	api.GET("/rates", s.listRates)
	api.PUT("/rates", s.upsertRate)

	api.GET("/infrastructure-items", s.listInfrastructureItems)
	api.POST("/infrastructure-items", s.createInfrastructureItem)
	api.PUT("/infrastructure-items/:iid", s.updateInfrastructureItem)
	api.DELETE("/infrastructure-items/:iid", s.deleteInfrastructureItem)

	api.POST("/ai/parse", s.aiParse)
	api.POST("/ai/mindmap", s.aiMindmap)
}

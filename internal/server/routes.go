package server

import "github.com/gin-gonic/gin"

func (s *Server) registerRoutes(router *gin.RouterGroup) {
	router.GET("/meta", s.meta)
	router.GET("/schema", s.getSchema)
	router.PUT("/schema", s.importSchema)
	router.PATCH("/database", s.updateDatabase)

	tables := router.Group("/tables")
	{
		tables.POST("", s.addTable)
		tables.PATCH("/:id", s.updateTable)
		tables.DELETE("/:id", s.deleteTable)
		tables.POST("/:id/columns", s.addColumn)
		tables.PATCH("/:id/columns/:columnId", s.updateColumn)
		tables.DELETE("/:id/columns/:columnId", s.deleteColumn)
	}

	relationships := router.Group("/relationships")
	{
		relationships.POST("", s.addRelationship)
		relationships.PATCH("/:id", s.updateRelationship)
		relationships.DELETE("/:id", s.deleteRelationship)
	}

	router.PUT("/selection", s.setSelection)
	router.POST("/undo", s.undo)
	router.POST("/redo", s.redo)
	router.GET("/export/:format", s.export)

	if s.store != nil {
		diagrams := router.Group("/diagrams")
		{
			diagrams.GET("", s.listDiagrams)
			diagrams.POST("", s.createDiagram)
			diagrams.PUT("/:id", s.saveDiagram)
			diagrams.POST("/:id/open", s.openDiagram)
			diagrams.PUT("/:id/star", s.starDiagram)
			diagrams.DELETE("/:id", s.deleteDiagram)
		}
	}
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the handler onto a gin engine
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/sdt", h.Compute)
		v1.POST("/sdt/pool", h.Pool)
		v1.POST("/sdt/scale", h.Scale)
		v1.POST("/sdt/roc", h.ROC)
		v1.POST("/sdt/density", h.Density)
		v1.POST("/summary", h.Summary)

		v1.POST("/blocks", h.CreateBlock)
		v1.GET("/blocks", h.ListBlocks)
		v1.GET("/blocks/:id", h.GetBlock)
		v1.GET("/blocks/:id/report", h.BlockReport)
		v1.DELETE("/blocks/:id", h.DeleteBlock)
	}

	return r
}

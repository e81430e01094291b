package httpapi

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// NewRouter wires the API routes onto a gin engine.
func NewRouter(s *Server) *gin.Engine {
	if os.Getenv("APP_ENV") != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		c.Next()
		log.Info().
			Str("m", c.Request.Method).
			Str("p", c.FullPath()).
			Int("s", c.Writer.Status()).
			Msg("http")
	})

	h := NewHandlers(s)

	r.GET("/healthz", h.Healthz)
	api := r.Group("/api")
	{
		api.GET("/items", h.Items)
		api.GET("/summary", h.Summary)
		api.GET("/throughput", h.Throughput)
		api.GET("/cfd", h.CumulativeFlow)
		api.GET("/burndown", h.Burndown)
		api.GET("/burnup", h.Burnup)
		api.GET("/forecast", h.Forecast)
		api.GET("/wip-aging", h.WIPAging)
		api.GET("/required-throughput", h.RequiredThroughput)
	}
	r.POST("/admin/refresh", h.RefreshNow)

	return r
}

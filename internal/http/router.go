// Package http exposes both pipelines over a gin JSON API.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jolly-agents/server/internal/agent/graph"
	"github.com/jolly-agents/server/internal/agent/graph/conversations"
	"github.com/jolly-agents/server/internal/core"
	"github.com/jolly-agents/server/internal/http/handlers"
	httpmiddleware "github.com/jolly-agents/server/internal/http/middleware"
)

type RouterDeps struct {
	Environment core.Environment
	Config      Config
	Trips       graph.TripRunner
	Nutrition   graph.NutritionRunner
	Sessions    *conversations.SessionManager
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Environment.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(httpmiddleware.RequestID(), httpmiddleware.Logging(), httpmiddleware.Recovery())
	r.MaxMultipartMemory = deps.Config.MaxImageBytes + 1<<20

	tripHandler := handlers.NewTripHandler(deps.Trips, deps.Config.RequestTimeout)
	r.POST("/api/trips/plan", tripHandler.Plan)

	nutritionHandler := handlers.NewNutritionHandler(deps.Sessions, deps.Nutrition, deps.Config.RequestTimeout, deps.Config.MaxImageBytes)
	sessions := r.Group("/api/nutrition/sessions")
	sessions.POST("", nutritionHandler.Create)
	sessions.GET("/:id", nutritionHandler.Get)
	sessions.DELETE("/:id", nutritionHandler.End)
	sessions.POST("/:id/messages", nutritionHandler.Send)
	sessions.POST("/:id/reset", nutritionHandler.Reset)

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}

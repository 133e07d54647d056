package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"dumpwatch/internal/api/handlers"
	"dumpwatch/internal/api/middleware"
)

type Router struct {
	reportHandler *handlers.ReportHandler
	voteHandler   *handlers.VoteHandler
}

func NewRouter(reportHandler *handlers.ReportHandler, voteHandler *handlers.VoteHandler) *Router {
	return &Router{
		reportHandler: reportHandler,
		voteHandler:   voteHandler,
	}
}

func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(cors.Default())

	// Health check endpoint
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Read endpoints: map display and the on-device alert loop both consume
	// nearby search without a session.
	engine.GET("/reports/nearby", r.reportHandler.FindNearby)
	engine.GET("/reports/:id", r.reportHandler.GetReport)

	// Write endpoints need an authenticated user id.
	authed := engine.Group("/")
	authed.Use(middleware.BearerAuth())
	{
		authed.POST("/reports", r.reportHandler.CreateReport)
		authed.POST("/reports/:id/votes", r.voteHandler.SubmitVote)
	}
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/assessment-engine/internal/services"
	"github.com/SAP-F-2025/assessment-engine/internal/utils"
)

type HandlerManager struct {
	sessionHandler *SessionHandler
	logger         utils.Logger
}

func NewHandlerManager(sessionService services.SessionService, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		sessionHandler: NewSessionHandler(sessionService, logger),
		logger:         logger,
	}
}

// NewRouter builds a gin engine with recovery, request ids, request logging
// and every route registered.
func (hm *HandlerManager) NewRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), utils.RequestIDMiddleware(), utils.LoggerMiddleware(hm.logger))
	hm.SetupRoutes(router)
	return router
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	{
		sessions := v1.Group("/sessions", RequireUser())
		{
			sessions.POST("", hm.sessionHandler.StartSession)
			sessions.GET("", hm.sessionHandler.ListSessions)
			sessions.GET("/:id/question", hm.sessionHandler.GetCurrentQuestion)
			sessions.POST("/:id/answers", hm.sessionHandler.SubmitAnswer)
			sessions.POST("/:id/pause", hm.sessionHandler.PauseSession)
			sessions.POST("/:id/resume", hm.sessionHandler.ResumeSession)
			sessions.POST("/:id/abandon", hm.sessionHandler.AbandonSession)
			sessions.POST("/:id/complete", hm.sessionHandler.CompleteSession)
			sessions.GET("/:id/progress", hm.sessionHandler.GetProgress)

			// Results of completed sessions
			sessions.GET("/:id/report", hm.sessionHandler.GetReport)
			sessions.GET("/:id/export", hm.sessionHandler.ExportResult)
		}
	}
}

package server

import (
	"time"

	"social-relay/domain/repository"
	"social-relay/infrastructure/realtime"
	httpHandler "social-relay/interfaces/http"
	"social-relay/interfaces/middleware"
	"social-relay/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

func InitiateRouter(
	frontendURL string,
	cookies sessions.Store,
	sessionStore repository.ISessionStore,
	registry *usecase.ProviderRegistry,
	authHandler httpHandler.IAuthHandler,
	postHandler httpHandler.IPostHandler,
	healthHandler httpHandler.IHealthHandler,
	hub *realtime.PostHub,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{frontendURL},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", healthHandler.Healthz)

	app := router.Group("/")
	app.Use(middleware.Session(cookies, sessionStore))

	for _, name := range registry.Names() {
		auth := app.Group("/auth/" + name)
		{
			auth.GET("", authHandler.Begin(name))
			auth.GET("/callback", authHandler.Callback(name))
			auth.GET("/me", authHandler.Me(name))
			auth.POST("/logout", authHandler.Logout(name))
		}
		app.POST("/"+name+"/post", postHandler.Publish(name))
		app.GET("/"+name+"/posts", postHandler.History(name))
	}

	app.GET("/providers", authHandler.Providers)
	if hub != nil {
		app.GET("/events/stream", hub.Serve)
	}

	return router
}

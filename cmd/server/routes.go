package main

import (
	"codeberg.org/thecookflow/server/api/rest/auth"
	"codeberg.org/thecookflow/server/api/rest/billing"
	"codeberg.org/thecookflow/server/api/rest/freemium"
	"codeberg.org/thecookflow/server/api/rest/health"
	"codeberg.org/thecookflow/server/api/rest/menus"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// sets up all API routes and middleware
func RegisterRoutes(router *gin.Engine, server *Server) {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{server.config.BaseURL, "https://thecookflow.com"}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")

	router.Use(cors.New(corsConfig))
	router.GET("/health", health.Handler)

	v1 := router.Group("/api/v1")

	{
		v1.GET("/ping", health.PingHandler)

		auth.RegisterRoutes(v1, server.userRepo)
		freemium.RegisterRoutes(v1, server.services.Resolver, server.services.Enforcer)
		billing.RegisterRoutes(v1, server.services.Billing, server.purchaseRepo)
		menus.RegisterRoutes(v1, server.services.Resolver, server.services.Enforcer, server.services.Menus)
	}
}

package menus

import (
	"codeberg.org/thecookflow/server/internal/auth"
	"codeberg.org/thecookflow/server/internal/entitlement"
	"codeberg.org/thecookflow/server/internal/menus"
	"codeberg.org/thecookflow/server/internal/quota"
	"github.com/gin-gonic/gin"
)

// registers the menu generation routes
func RegisterRoutes(
	router *gin.RouterGroup,
	resolver *entitlement.Resolver,
	enforcer *quota.Enforcer,
	generator menus.Generator,
) {
	group := router.Group("/menus")
	group.Use(auth.AuthMiddleware())
	{
		group.POST("/generate", GenerateHandler(resolver, enforcer, generator))
	}
}

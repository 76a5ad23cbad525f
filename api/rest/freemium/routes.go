package freemium

import (
	"time"

	"codeberg.org/thecookflow/server/internal/auth"
	"codeberg.org/thecookflow/server/internal/entitlement"
	"codeberg.org/thecookflow/server/internal/quota"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// registers the freemium routes. The unlock endpoint carries its own
// rate limit as a cooldown between rewarded-ad grants; the per-day grant
// cap itself is enforced by the quota core.
func RegisterRoutes(router *gin.RouterGroup, resolver *entitlement.Resolver, enforcer *quota.Enforcer) {
	adCooldown := mgin.NewMiddleware(limiter.New(
		memory.NewStore(),
		limiter.Rate{Period: 30 * time.Minute, Limit: 2},
	))

	group := router.Group("/freemium")
	group.Use(auth.AuthMiddleware())
	{
		group.GET("/status", StatusHandler(resolver, enforcer))
		group.POST("/start-trial", StartTrialHandler(resolver))
		group.POST("/consume", ConsumeHandler(resolver, enforcer))
		group.POST("/unlock-after-ad", adCooldown, UnlockAfterAdHandler(resolver, enforcer))
		group.POST("/cancel", CancelHandler(resolver))
	}
}

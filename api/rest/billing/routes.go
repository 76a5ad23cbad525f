package billing

import (
	"time"

	"codeberg.org/thecookflow/server/cookflow/purchases"
	"codeberg.org/thecookflow/server/internal/auth"
	"codeberg.org/thecookflow/server/internal/billing"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// registers the billing routes with a rate limit against token-guessing
func RegisterRoutes(router *gin.RouterGroup, service *billing.Service, purchaseRepo *purchases.Repository) {
	verifyLimit := mgin.NewMiddleware(limiter.New(
		memory.NewStore(),
		limiter.Rate{Period: time.Minute, Limit: 10},
	))

	group := router.Group("/billing")
	group.Use(auth.AuthMiddleware())
	{
		group.POST("/verify", verifyLimit, VerifyPurchaseHandler(service))
		group.POST("/cancel", verifyLimit, CancelSubscriptionHandler(service))
		group.GET("/purchases", ListPurchasesHandler(purchaseRepo))
	}
}

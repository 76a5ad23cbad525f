package billing

import (
	gerrors "errors"
	"net/http"

	"codeberg.org/thecookflow/server/cookflow/entitlements"
	"codeberg.org/thecookflow/server/cookflow/purchases"
	"codeberg.org/thecookflow/server/internal/auth"
	"codeberg.org/thecookflow/server/internal/billing"
	"codeberg.org/thecookflow/server/internal/errors"
	"github.com/gin-gonic/gin"
)

// VerifyPurchaseHandler godoc
// @Summary Verify a Google Play purchase
// @Description Validates a client-reported purchase token with Google Play and activates pro on success. Replaying an already-verified token returns the recorded outcome.
// @Tags billing
// @Accept json
// @Produce json
// @Param request body VerifyPurchaseRequest true "Purchase data"
// @Success 200 {object} VerifyPurchaseResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 402 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /api/v1/billing/verify [post]
// @Security BearerAuth
func VerifyPurchaseHandler(service *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := auth.GetUserID(c)
		if !exists {
			errors.Unauthorized(c, "")
			return
		}

		var req VerifyPurchaseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		result, err := service.VerifyPurchase(c.Request.Context(), userID, req.PurchaseToken, req.ProductID)
		if err != nil {
			switch {
			case gerrors.Is(err, billing.ErrEmptyToken):
				errors.InvalidInput(c, "purchaseToken is required")
			case gerrors.Is(err, billing.ErrTokenOwnership):
				errors.Conflict(c, "purchase token is registered to another account")
			case gerrors.Is(err, billing.ErrVerificationUnavailable):
				errors.VerificationUnavailable(c, err)
			default:
				errors.InternalError(c, "failed to verify purchase", err)
			}
			return
		}

		if !result.Success {
			errors.VerificationRejected(c, "")
			return
		}

		c.JSON(http.StatusOK, VerifyPurchaseResponse{
			Success:      true,
			Plan:         entitlements.PlanPro,
			ExpiryTime:   result.ExpiryTime,
			AutoRenewing: result.AutoRenewing,
		})
	}
}

// ListPurchasesHandler godoc
// @Summary List verified purchases
// @Description Returns the user's verified purchase history, newest first
// @Tags billing
// @Produce json
// @Success 200 {object} PurchasesResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/billing/purchases [get]
// @Security BearerAuth
func ListPurchasesHandler(purchaseRepo *purchases.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := auth.GetUserID(c)
		if !exists {
			errors.Unauthorized(c, "")
			return
		}

		records, err := purchaseRepo.ListByUser(c.Request.Context(), userID)
		if err != nil {
			errors.InternalError(c, "failed to list purchases", err)
			return
		}

		c.JSON(http.StatusOK, PurchasesResponse{Purchases: records})
	}
}

// CancelSubscriptionHandler godoc
// @Summary Cancel a Google Play subscription
// @Description Stops renewal with Google Play and reverts the account to the free plan
// @Tags billing
// @Accept json
// @Produce json
// @Param request body CancelSubscriptionRequest true "Purchase token"
// @Success 200 {object} CancelSubscriptionResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /api/v1/billing/cancel [post]
// @Security BearerAuth
func CancelSubscriptionHandler(service *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := auth.GetUserID(c)
		if !exists {
			errors.Unauthorized(c, "")
			return
		}

		var req CancelSubscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		if err := service.CancelSubscription(c.Request.Context(), userID, req.PurchaseToken); err != nil {
			switch {
			case gerrors.Is(err, billing.ErrEmptyToken):
				errors.InvalidInput(c, "purchaseToken is required")
			case gerrors.Is(err, billing.ErrUnknownToken):
				errors.NotFound(c, "purchase")
			case gerrors.Is(err, billing.ErrTokenOwnership):
				errors.Conflict(c, "purchase token is registered to another account")
			case gerrors.Is(err, billing.ErrVerificationUnavailable):
				errors.VerificationUnavailable(c, err)
			default:
				errors.InternalError(c, "failed to cancel subscription", err)
			}
			return
		}

		c.JSON(http.StatusOK, CancelSubscriptionResponse{
			Success: true,
			Plan:    entitlements.PlanFree,
		})
	}
}

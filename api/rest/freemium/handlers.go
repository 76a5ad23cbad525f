package freemium

import (
	gerrors "errors"
	"net/http"

	"codeberg.org/thecookflow/server/internal/auth"
	"codeberg.org/thecookflow/server/internal/entitlement"
	"codeberg.org/thecookflow/server/internal/errors"
	"codeberg.org/thecookflow/server/internal/quota"
	"github.com/gin-gonic/gin"
)

// StatusHandler godoc
// @Summary Get freemium status
// @Description Returns the user's effective plan together with today's usage against the plan quota
// @Tags freemium
// @Produce json
// @Success 200 {object} StatusResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/freemium/status [get]
// @Security BearerAuth
func StatusHandler(resolver *entitlement.Resolver, enforcer *quota.Enforcer) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := auth.GetUserID(c)
		if !exists {
			errors.Unauthorized(c, "")
			return
		}

		status, err := resolver.Resolve(c.Request.Context(), userID)
		if err != nil {
			errors.InternalError(c, "failed to resolve entitlement", err)
			return
		}

		limits, err := enforcer.Status(c.Request.Context(), userID, status.Plan)
		if err != nil {
			errors.InternalError(c, "failed to load usage limits", err)
			return
		}

		c.JSON(http.StatusOK, StatusResponse{
			Plan:               status.Plan,
			IsPremium:          status.IsPremium,
			TrialActive:        status.TrialActive,
			TrialDaysLeft:      status.TrialDaysLeft,
			AutoRenewing:       status.AutoRenewing,
			DailyMenusUsed:     limits.DailyMenusUsed,
			DailyMenusLimit:    limits.DailyMenusLimit,
			AdUnlocksAvailable: limits.AdUnlocksAvailable,
			CanGenerateMenu:    limits.CanGenerateMenu,
		})
	}
}

// StartTrialHandler godoc
// @Summary Start the 7-day trial
// @Description Begins the one-time trial; a consumed trial cannot restart
// @Tags freemium
// @Produce json
// @Success 200 {object} StartTrialResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/freemium/start-trial [post]
// @Security BearerAuth
func StartTrialHandler(resolver *entitlement.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := auth.GetUserID(c)
		if !exists {
			errors.Unauthorized(c, "")
			return
		}

		status, err := resolver.StartTrial(c.Request.Context(), userID)
		if err != nil {
			switch {
			case gerrors.Is(err, entitlement.ErrTrialAlreadyUsed):
				errors.TrialAlreadyUsed(c)
			case gerrors.Is(err, entitlement.ErrSubscriptionActive):
				errors.Conflict(c, "a subscription is already active")
			default:
				errors.InternalError(c, "failed to start trial", err)
			}
			return
		}

		c.JSON(http.StatusOK, StartTrialResponse{
			Success:       true,
			Plan:          status.Plan,
			TrialDaysLeft: status.TrialDaysLeft,
		})
	}
}

// ConsumeHandler godoc
// @Summary Consume one menu generation
// @Description Checks the day's quota and consumes one generation unit when allowed; exceeding quota is a normal {allowed:false} result
// @Tags freemium
// @Produce json
// @Success 200 {object} ConsumeResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/freemium/consume [post]
// @Security BearerAuth
func ConsumeHandler(resolver *entitlement.Resolver, enforcer *quota.Enforcer) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := auth.GetUserID(c)
		if !exists {
			errors.Unauthorized(c, "")
			return
		}

		status, err := resolver.Resolve(c.Request.Context(), userID)
		if err != nil {
			errors.InternalError(c, "failed to resolve entitlement", err)
			return
		}

		decision, err := enforcer.CheckAndConsume(c.Request.Context(), userID, status.Plan)
		if err != nil {
			errors.InternalError(c, "failed to check usage quota", err)
			return
		}

		c.JSON(http.StatusOK, ConsumeResponse{
			Allowed:            decision.Allowed,
			Reason:             decision.Reason,
			Remaining:          decision.Remaining,
			AdUnlocksAvailable: decision.AdUnlocksAvailable,
		})
	}
}

// UnlockAfterAdHandler godoc
// @Summary Unlock one generation after a rewarded ad
// @Description Grants one extra generation for today after the client reports a completed rewarded ad
// @Tags freemium
// @Produce json
// @Success 200 {object} UnlockResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} UnlockResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/freemium/unlock-after-ad [post]
// @Security BearerAuth
func UnlockAfterAdHandler(resolver *entitlement.Resolver, enforcer *quota.Enforcer) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := auth.GetUserID(c)
		if !exists {
			errors.Unauthorized(c, "")
			return
		}

		status, err := resolver.Resolve(c.Request.Context(), userID)
		if err != nil {
			errors.InternalError(c, "failed to resolve entitlement", err)
			return
		}

		granted, err := enforcer.GrantAdUnlock(c.Request.Context(), userID, status.Plan)
		if err != nil {
			errors.InternalError(c, "failed to grant ad unlock", err)
			return
		}

		if !granted {
			c.JSON(http.StatusForbidden, UnlockResponse{
				Success: false,
				Message: "daily ad unlock limit reached",
			})
			return
		}

		c.JSON(http.StatusOK, UnlockResponse{
			Success:         true,
			CanGenerateMenu: true,
			Message:         "menu unlocked after ad",
		})
	}
}

// CancelHandler godoc
// @Summary Cancel the subscription
// @Description Reverts the user to the free plan immediately
// @Tags freemium
// @Produce json
// @Success 200 {object} CancelResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/freemium/cancel [post]
// @Security BearerAuth
func CancelHandler(resolver *entitlement.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := auth.GetUserID(c)
		if !exists {
			errors.Unauthorized(c, "")
			return
		}

		status, err := resolver.Cancel(c.Request.Context(), userID)
		if err != nil {
			errors.InternalError(c, "failed to cancel subscription", err)
			return
		}

		c.JSON(http.StatusOK, CancelResponse{
			Success: true,
			Plan:    status.Plan,
		})
	}
}

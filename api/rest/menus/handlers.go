package menus

import (
	"net/http"

	"codeberg.org/thecookflow/server/internal/auth"
	"codeberg.org/thecookflow/server/internal/entitlement"
	"codeberg.org/thecookflow/server/internal/errors"
	"codeberg.org/thecookflow/server/internal/logger"
	"codeberg.org/thecookflow/server/internal/menus"
	"codeberg.org/thecookflow/server/internal/quota"
	"github.com/gin-gonic/gin"
)

// GenerateHandler godoc
// @Summary Generate a weekly menu
// @Description Consumes one generation unit and produces a menu shaped to the plan quota. A denied request returns the ad-unlock/paywall choice.
// @Tags menus
// @Accept json
// @Produce json
// @Param request body GenerateRequest true "Menu shape"
// @Success 200 {object} GenerateResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} QuotaExceededResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/menus/generate [post]
// @Security BearerAuth
func GenerateHandler(
	resolver *entitlement.Resolver,
	enforcer *quota.Enforcer,
	generator menus.Generator,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := auth.GetUserID(c)
		if !exists {
			errors.Unauthorized(c, "")
			return
		}

		var req GenerateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
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

		if !decision.Allowed {
			c.JSON(http.StatusForbidden, QuotaExceededResponse{
				Allowed:            false,
				Reason:             decision.Reason,
				AdUnlocksAvailable: decision.AdUnlocksAvailable,
				UpgradeURL:         "/pricing",
			})
			return
		}

		menu, err := generator.Generate(c.Request.Context(), clamp(req, quota.ForPlan(status.Plan)))
		if err != nil {
			// the consumed unit paid for nothing, return it
			if refundErr := enforcer.Refund(c.Request.Context(), userID); refundErr != nil {
				logger.ErrorErr(refundErr, "failed to refund generation unit", "user_id", userID)
			}

			errors.InternalError(c, "failed to generate menu", err)
			return
		}

		c.JSON(http.StatusOK, GenerateResponse{
			Menu:      menu,
			Remaining: decision.Remaining,
		})
	}
}

// bounds the requested menu shape by the plan quota
func clamp(req GenerateRequest, q quota.Quota) menus.Request {
	out := menus.Request{
		Servings:    req.Servings,
		Days:        req.Days,
		MealsPerDay: req.MealsPerDay,
		Preferences: req.Preferences,
		Exclusions:  req.Exclusions,
	}

	if out.Servings < 1 || out.Servings > q.MaxServings {
		out.Servings = q.MaxServings
	}

	if out.Days < 1 || out.Days > q.MaxDays {
		out.Days = q.MaxDays
	}

	if out.MealsPerDay < 1 || out.MealsPerDay > q.MealsPerDay {
		out.MealsPerDay = q.MealsPerDay
	}

	return out
}

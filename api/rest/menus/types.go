package menus

import "codeberg.org/thecookflow/server/internal/menus"

type GenerateRequest struct {
	Servings    int      `json:"servings" binding:"omitempty,min=1"`
	Days        int      `json:"days" binding:"omitempty,min=1"`
	MealsPerDay int      `json:"mealsPerDay" binding:"omitempty,min=1"`
	Preferences []string `json:"preferences"`
	Exclusions  []string `json:"exclusions"`
}

type GenerateResponse struct {
	Menu      *menus.Menu `json:"menu"`
	Remaining int         `json:"remaining"`
}

// returned when the quota is exhausted; the client chooses between the
// rewarded ad and the paywall
type QuotaExceededResponse struct {
	Allowed            bool   `json:"allowed"`
	Reason             string `json:"reason"`
	AdUnlocksAvailable int    `json:"adUnlocksAvailable"`
	UpgradeURL         string `json:"upgradeUrl"`
}

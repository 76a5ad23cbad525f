package freemium

import "codeberg.org/thecookflow/server/cookflow/entitlements"

// combined entitlement and usage snapshot for the client
type StatusResponse struct {
	Plan               entitlements.Plan `json:"plan"`
	IsPremium          bool              `json:"isPremium"`
	TrialActive        bool              `json:"trialActive"`
	TrialDaysLeft      int               `json:"trialDaysLeft"`
	AutoRenewing       bool              `json:"autoRenewing"`
	DailyMenusUsed     int               `json:"dailyMenusUsed"`
	DailyMenusLimit    int               `json:"dailyMenusLimit"`
	AdUnlocksAvailable int               `json:"adUnlocksAvailable"`
	CanGenerateMenu    bool              `json:"canGenerateMenu"`
}

type StartTrialResponse struct {
	Success       bool              `json:"success"`
	Plan          entitlements.Plan `json:"plan"`
	TrialDaysLeft int               `json:"trialDaysLeft"`
}

type ConsumeResponse struct {
	Allowed            bool   `json:"allowed"`
	Reason             string `json:"reason"`
	Remaining          int    `json:"remaining"`
	AdUnlocksAvailable int    `json:"adUnlocksAvailable"`
}

type UnlockResponse struct {
	Success         bool   `json:"success"`
	CanGenerateMenu bool   `json:"canGenerateMenu"`
	Message         string `json:"message,omitempty"`
}

type CancelResponse struct {
	Success bool              `json:"success"`
	Plan    entitlements.Plan `json:"plan"`
}

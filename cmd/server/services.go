package main

import (
	"codeberg.org/thecookflow/server/cookflow/entitlements"
	"codeberg.org/thecookflow/server/cookflow/purchases"
	"codeberg.org/thecookflow/server/cookflow/usage"
	"codeberg.org/thecookflow/server/internal/billing"
	"codeberg.org/thecookflow/server/internal/config"
	"codeberg.org/thecookflow/server/internal/entitlement"
	"codeberg.org/thecookflow/server/internal/menus"
	"codeberg.org/thecookflow/server/internal/quota"
)

// creates the core services on top of the repositories
func InitializeServices(
	cfg *config.Config,
	entitlementRepo *entitlements.Repository,
	usageRepo *usage.Repository,
	purchaseRepo *purchases.Repository,
) *Services {
	playClient := billing.NewGooglePlayClient(
		cfg.GooglePlayPackageName,
		cfg.GooglePlayAccessToken,
		cfg.GooglePlayBaseURL,
	)

	return &Services{
		Resolver: entitlement.NewResolver(entitlementRepo),
		Enforcer: quota.NewEnforcer(usageRepo),
		Billing:  billing.NewService(playClient, purchaseRepo, entitlementRepo, cfg.GooglePlayPackageName),
		Menus:    menus.NewClient(cfg.MenuAPIKey, ""),
	}
}

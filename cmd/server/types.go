package main

import (
	"codeberg.org/thecookflow/server/cookflow/entitlements"
	"codeberg.org/thecookflow/server/cookflow/purchases"
	"codeberg.org/thecookflow/server/cookflow/usage"
	"codeberg.org/thecookflow/server/cookflow/users"
	"codeberg.org/thecookflow/server/internal/billing"
	"codeberg.org/thecookflow/server/internal/config"
	"codeberg.org/thecookflow/server/internal/entitlement"
	"codeberg.org/thecookflow/server/internal/menus"
	"codeberg.org/thecookflow/server/internal/quota"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// holds all dependencies and state for the API server
type Server struct {
	db              *pgxpool.Pool
	config          *config.Config
	userRepo        *users.Repository
	entitlementRepo *entitlements.Repository
	usageRepo       *usage.Repository
	purchaseRepo    *purchases.Repository
	services        *Services
	router          *gin.Engine
	cleanupService  *usage.CleanupService
}

// holds the core services and external clients
type Services struct {
	Resolver *entitlement.Resolver
	Enforcer *quota.Enforcer
	Billing  *billing.Service
	Menus    menus.Generator
}

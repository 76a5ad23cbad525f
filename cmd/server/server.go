package main

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/thecookflow/server/cookflow/entitlements"
	"codeberg.org/thecookflow/server/cookflow/purchases"
	"codeberg.org/thecookflow/server/cookflow/usage"
	"codeberg.org/thecookflow/server/cookflow/users"
	"codeberg.org/thecookflow/server/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// how often the cleanup service checks for stale usage counters
	cleanupCheckInterval = 6 * time.Hour

	// counter rows older than this are garbage-collected
	usageRetention = 90 * 24 * time.Hour
)

// creates and configures a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	ctx := context.Background()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// managed Postgres poolers keep few server connections, so stay small
	poolConfig.MaxConns = 5
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	// PgBouncer in transaction mode does not support prepared statements
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	userRepo := users.NewRepository(db)
	entitlementRepo := entitlements.NewRepository(db)
	usageRepo := usage.NewRepository(db)
	purchaseRepo := purchases.NewRepository(db)

	services := InitializeServices(cfg, entitlementRepo, usageRepo, purchaseRepo)

	router := gin.Default()

	cleanupService := usage.NewCleanupService(usageRepo, cleanupCheckInterval, usageRetention)

	server := &Server{
		db:              db,
		config:          cfg,
		userRepo:        userRepo,
		entitlementRepo: entitlementRepo,
		usageRepo:       usageRepo,
		purchaseRepo:    purchaseRepo,
		services:        services,
		router:          router,
		cleanupService:  cleanupService,
	}

	RegisterRoutes(router, server)

	return server, nil
}

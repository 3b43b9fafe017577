package main

import (
	"github.com/rsolano/tracklio/backend/internal/config"
	"github.com/rsolano/tracklio/backend/internal/handlers"
	"github.com/rsolano/tracklio/backend/internal/models"
	"github.com/rsolano/tracklio/backend/internal/utils"
	"github.com/rsolano/tracklio/backend/pkg/logger"
)

// appServices holds all initialized handlers needed by the application.
type appServices struct {
	healthHandler  *handlers.HealthHandler
	tenantHandler  *handlers.TenantHandler
	authHandler    *handlers.AuthHandler
	userHandler    *handlers.UserHandler
	projectHandler *handlers.ProjectHandler
	taskHandler    *handlers.TaskHandler
}

// bootstrap initializes all application dependencies: database and handlers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	db := models.GetDB()
	return &appServices{
		healthHandler:  handlers.NewHealthHandler(),
		tenantHandler:  handlers.NewTenantHandler(db),
		authHandler:    handlers.NewAuthHandler(db, cfg),
		userHandler:    handlers.NewUserHandler(db),
		projectHandler: handlers.NewProjectHandler(db),
		taskHandler:    handlers.NewTaskHandler(db),
	}
}

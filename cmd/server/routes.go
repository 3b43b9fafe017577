package main

import (
	"github.com/gin-gonic/gin"
	"github.com/rsolano/tracklio/backend/internal/middleware"
	"github.com/rsolano/tracklio/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for unauthenticated onboarding and login routes
	authLimiter := middleware.NewRateLimiter(5, 10)

	// Health check
	r.GET("/health", svc.healthHandler.CheckHealth)

	api := r.Group("/api")
	{
		// Public routes (tenant onboarding and login)
		public := api.Group("", authLimiter.Middleware())
		{
			public.POST("/tenants", svc.tenantHandler.Register)
			public.POST("/auth/login", svc.authHandler.Login)
			public.POST("/auth/refresh", svc.authHandler.Refresh)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Tenants (super_admin administration)
			protected.GET("/tenants", svc.tenantHandler.List)
			protected.PUT("/tenants/:id/status", svc.tenantHandler.SetStatus)

			// Users (role checks live in the service layer)
			protected.GET("/users", svc.userHandler.List)
			protected.GET("/users/assignable", svc.userHandler.ListAssignable)
			protected.POST("/users", svc.userHandler.Create)
			protected.PUT("/users/:id", svc.userHandler.Update)
			protected.DELETE("/users/:id", svc.userHandler.Delete)

			// Projects
			protected.GET("/projects", svc.projectHandler.List)
			protected.GET("/projects/:id", svc.projectHandler.GetByID)
			protected.POST("/projects", svc.projectHandler.Create)
			protected.PUT("/projects/:id", svc.projectHandler.Update)
			protected.DELETE("/projects/:id", svc.projectHandler.Delete)

			// Tasks
			protected.GET("/projects/:id/tasks", svc.taskHandler.ListByProject)
			protected.POST("/projects/:id/tasks", svc.taskHandler.Create)
			protected.GET("/tasks/:id", svc.taskHandler.GetByID)
			protected.PUT("/tasks/:id", svc.taskHandler.Update)
			protected.PATCH("/tasks/:id/status", svc.taskHandler.ChangeStatus)
			protected.DELETE("/tasks/:id", svc.taskHandler.Delete)
		}
	}
}

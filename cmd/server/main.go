// Package main is the entry point for the ApexBoard server.
// It initializes the database, security components, services, and all HTTP
// routes.
package main

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/mirifridman/apexboard/internal/database"
	"github.com/mirifridman/apexboard/internal/events"
	"github.com/mirifridman/apexboard/internal/handlers"
	"github.com/mirifridman/apexboard/internal/middleware"
	"github.com/mirifridman/apexboard/internal/repository"
	"github.com/mirifridman/apexboard/internal/security"
	"github.com/mirifridman/apexboard/internal/services"
)

func main() {
	// ========================================
	// Database
	// ========================================
	if err := database.Connect(nil); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// ========================================
	// Security components
	// ========================================
	securityConfig := security.DefaultConfig()
	securityLogger := security.NewLogger()
	validator := security.NewValidationService(securityConfig)
	securityMiddleware := middleware.NewSecurityMiddleware(securityLogger, securityConfig)

	loginLimiter := security.NewRateLimiter(securityConfig.RateLimitLogin, time.Minute/time.Duration(securityConfig.RateLimitLogin))
	defer loginLimiter.Stop()

	respondLimiter := security.NewRateLimiter(securityConfig.RateLimitRespond, time.Minute/time.Duration(securityConfig.RateLimitRespond))
	defer respondLimiter.Stop()

	lookupLimiter := security.NewRateLimiter(securityConfig.RateLimitTokenLookup, time.Minute/time.Duration(securityConfig.RateLimitTokenLookup))
	defer lookupLimiter.Stop()

	inviteLimiter := security.NewRateLimiter(securityConfig.RateLimitInvite, time.Hour/time.Duration(securityConfig.RateLimitInvite))
	defer inviteLimiter.Stop()

	// ========================================
	// Repositories, broker, services
	// ========================================
	taskRepo := repository.NewTaskRepository()
	assigneeRepo := repository.NewAssigneeRepository()
	approvalRepo := repository.NewApprovalRepository()
	employeeRepo := repository.NewEmployeeRepository()
	projectRepo := repository.NewProjectRepository()
	permRepo := repository.NewPermissionRepository()
	statsRepo := repository.NewStatsRepository()
	userRepo := repository.NewUserRepository()

	broker := events.NewBroker()

	taskService := services.NewTaskService(taskRepo, assigneeRepo, statsRepo, validator, securityLogger, broker)
	approvalService := services.NewApprovalService(approvalRepo, taskRepo, employeeRepo, securityConfig, validator, securityLogger, broker)
	permService := services.NewPermissionService(permRepo)
	authService := services.NewAuthService(userRepo, securityConfig, securityLogger)
	userService := services.NewUserService(userRepo, employeeRepo, authService, validator, securityLogger)

	// ========================================
	// HTTP server
	// ========================================
	store := session.New(session.Config{
		Expiration:     securityConfig.SessionTimeout,
		KeyLookup:      "cookie:" + securityConfig.SessionCookieName,
		CookieSecure:   securityConfig.SessionSecure,
		CookieHTTPOnly: securityConfig.SessionHTTPOnly,
		CookieSameSite: securityConfig.SessionSameSite,
	})

	app := fiber.New(fiber.Config{
		AppName:      "ApexBoard",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	app.Use(recover.New())
	app.Use(securityMiddleware.RequestLogger())
	app.Use(securityMiddleware.SecureHeaders())

	authHandler := handlers.NewAuthHandler(store, authService, securityLogger)
	taskHandler := handlers.NewTaskHandler(taskService, approvalService)
	approvalHandler := handlers.NewApprovalHandler(approvalService, permService)
	adminHandler := handlers.NewAdminHandler(employeeRepo, projectRepo, permService, userService, securityLogger)
	eventsHandler := handlers.NewEventsHandler(broker)

	// Public endpoints: login and the approval-by-link flow
	app.Post("/api/login", securityMiddleware.RateLimit(loginLimiter, "/api/login"), authHandler.Login)
	app.Post("/api/logout", authHandler.Logout)
	app.Get("/approve/:token", securityMiddleware.RateLimit(lookupLimiter, "/approve"), approvalHandler.Lookup)
	app.Post("/approve/:token", securityMiddleware.RateLimit(respondLimiter, "/approve"), approvalHandler.Respond)

	// Everything else requires a session
	api := app.Group("/api", middleware.AuthRequired(store))
	api.Get("/me", authHandler.Me)
	api.Get("/events/:topic", eventsHandler.Stream)

	canView := func(c services.Capabilities) bool { return c.CanViewTasks }
	canCreate := func(c services.Capabilities) bool { return c.CanCreateTasks }
	canEdit := func(c services.Capabilities) bool { return c.CanEditTasks }
	canDelete := func(c services.Capabilities) bool { return c.CanDeleteTasks }

	tasks := api.Group("/tasks")
	tasks.Get("/", middleware.RequireCapability(permService, canView), taskHandler.List)
	tasks.Get("/stats", middleware.RequireCapability(permService, canView), taskHandler.Stats)
	tasks.Post("/", middleware.RequireCapability(permService, canCreate), taskHandler.Create)
	tasks.Post("/bulk-approve", middleware.RequireCapability(permService, canEdit), taskHandler.BulkApprove)
	tasks.Get("/:id", middleware.RequireCapability(permService, canView), taskHandler.Get)
	tasks.Patch("/:id", middleware.RequireCapability(permService, canEdit), taskHandler.Update)
	tasks.Delete("/:id", middleware.RequireCapability(permService, canDelete), taskHandler.Delete)
	tasks.Post("/:id/approve", middleware.RequireCapability(permService, canEdit), taskHandler.Approve)
	tasks.Post("/:id/assignees/:employeeId/toggle", middleware.RequireCapability(permService, canEdit), taskHandler.ToggleAssignee)
	tasks.Get("/:id/approval-requests", middleware.RequireCapability(permService, canView), approvalHandler.ListForTask)
	tasks.Post("/:id/approval-requests", middleware.RequireCapability(permService, canEdit), approvalHandler.Issue)

	api.Delete("/approval-requests/:id", approvalHandler.Cancel)

	employees := api.Group("/employees")
	employees.Get("/", middleware.RequireCapability(permService, func(c services.Capabilities) bool { return c.CanViewTeam }), adminHandler.ListEmployees)
	employees.Post("/", middleware.RequireCapability(permService, func(c services.Capabilities) bool { return c.CanManageTeam }), adminHandler.CreateEmployee)
	employees.Put("/:id", middleware.RequireCapability(permService, func(c services.Capabilities) bool { return c.CanManageTeam }), adminHandler.UpdateEmployee)
	employees.Delete("/:id", middleware.RequireCapability(permService, func(c services.Capabilities) bool { return c.CanManageTeam }), adminHandler.DeactivateEmployee)

	projects := api.Group("/projects")
	projects.Get("/", middleware.RequireCapability(permService, func(c services.Capabilities) bool { return c.CanViewProjects }), adminHandler.ListProjects)
	projects.Post("/", middleware.RequireCapability(permService, func(c services.Capabilities) bool { return c.CanCreateProjects }), adminHandler.CreateProject)
	projects.Put("/:id", middleware.RequireCapability(permService, func(c services.Capabilities) bool { return c.CanEditProjects }), adminHandler.UpdateProject)
	projects.Delete("/:id", middleware.RequireCapability(permService, func(c services.Capabilities) bool { return c.CanDeleteProjects }), adminHandler.DeleteProject)

	admin := api.Group("/admin")
	admin.Get("/permissions", middleware.RequireCapability(permService, func(c services.Capabilities) bool { return c.CanManagePermissions }), adminHandler.GetPermissions)
	admin.Put("/permissions/:role", middleware.RequireCapability(permService, func(c services.Capabilities) bool { return c.CanManagePermissions }), adminHandler.SavePermissions)
	admin.Delete("/permissions/:role", middleware.RequireCapability(permService, func(c services.Capabilities) bool { return c.CanManagePermissions }), adminHandler.ResetPermissions)
	admin.Get("/users", adminHandler.ListUsers)
	admin.Post("/users", securityMiddleware.RateLimit(inviteLimiter, "/api/admin/users"), adminHandler.InviteUser)
	admin.Put("/users/:id/role", adminHandler.UpdateUserRole)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	securityLogger.Info("ApexBoard listening on :" + port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

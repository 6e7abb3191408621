package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/lexflow/backend/internal/application/services"
	"github.com/lexflow/backend/internal/domain"
	"github.com/lexflow/backend/internal/interfaces/middleware"
	"github.com/lexflow/backend/internal/interfaces/rest"
)

func main() {
	// Load .env if present; real environment wins
	if err := godotenv.Load(); err == nil {
		log.Println("📁 Loaded .env")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	escalationCron := os.Getenv("ESCALATION_CRON")
	if escalationCron == "" {
		escalationCron = "0 * * * *" // hourly
	}

	// Permissive policy is the default lifecycle contract; set
	// LIFECYCLE_POLICY=strict to enforce the review pipeline.
	var policy domain.LifecyclePolicy = domain.PermissiveLifecyclePolicy{}
	if os.Getenv("LIFECYCLE_POLICY") == "strict" {
		policy = domain.NewStrictLifecyclePolicy()
		log.Println("🔒 Strict document lifecycle policy enabled")
	}

	// Initialize service manager
	svcMgr, err := services.NewServiceManager(policy, escalationCron)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	log.Println("🔧 Service manager initialized")

	// Seed the admin actor
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@lexflow.local"
	}
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "admin"
		log.Println("⚠️  ADMIN_PASSWORD not set, using default")
	}
	svcMgr.Auth.SeedActor(context.Background(), "Administrator", adminEmail, adminPassword, "admin")

	// Create Gin router
	router := gin.Default()

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"server": "golang",
		})
	})

	// Initialize handlers
	authHandler := rest.NewAuthHandler(svcMgr.Auth)
	documentHandler := rest.NewDocumentHandler(svcMgr.Documents)
	workflowHandler := rest.NewWorkflowHandler(svcMgr.Workflows)
	notificationHandler := rest.NewNotificationHandler(svcMgr.Notification)

	// Initialize middleware
	requireAuth := middleware.RequireAuth(svcMgr.Auth)

	// API routes
	api := router.Group("/api")
	{
		// Public Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", requireAuth, authHandler.Register)
			auth.GET("/me", requireAuth, authHandler.GetMe)
		}

		// Protected Document routes
		documents := api.Group("/documents")
		documents.Use(requireAuth)
		{
			documents.POST("", documentHandler.Create)
			documents.GET("", documentHandler.List)
			documents.POST("/search", documentHandler.Search)
			documents.GET("/:id", documentHandler.Get)
			documents.PATCH("/:id/status", documentHandler.UpdateStatus)
			documents.GET("/:id/workflow", workflowHandler.GetForDocument)
		}

		// Protected Workflow routes
		workflows := api.Group("/workflows")
		workflows.Use(requireAuth)
		{
			workflows.POST("", workflowHandler.Create)
			workflows.GET("/:id", workflowHandler.Get)
			workflows.PATCH("/:id/steps/:stepId", workflowHandler.UpdateStepStatus)
			workflows.POST("/:id/advance", workflowHandler.Advance)
		}

		// Protected Notification routes
		notifications := api.Group("/notifications")
		notifications.Use(requireAuth)
		{
			notifications.GET("", notificationHandler.GetNotifications)
			notifications.POST("/:id/read", notificationHandler.MarkAsRead)
		}
	}

	// Start background workers
	svcMgr.StartEscalationWorker()

	log.Println("🚀 LexFlow workflow backend started")
	log.Printf("📍 Server:       http://localhost:%s", port)
	log.Printf("📄 Documents:    http://localhost:%s/api/documents", port)
	log.Printf("🔁 Workflows:    http://localhost:%s/api/workflows", port)
	log.Printf("💚 Health check: http://localhost:%s/health", port)

	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down with a 5s timeout
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	svcMgr.StopEscalationWorker()
	log.Println("🛑 Escalation worker stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server exiting")
}

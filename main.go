package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/wineprocure/procurement-api/config"
	"github.com/wineprocure/procurement-api/controllers"
	"github.com/wineprocure/procurement-api/middleware"
	"github.com/wineprocure/procurement-api/models"
	"github.com/wineprocure/procurement-api/services"
)

func main() {
	log.Println("Starting Wine Procurement API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.IsProduction() && cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := config.ConnectDatabase(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(&models.User{}, &models.RFQ{}, &models.Quote{}, &models.Offender{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	notifier, err := services.NewNotifier(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize notifier: %v", err)
	}

	cache, err := services.NewListingCache(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	store, err := services.NewFileStore(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize file storage: %v", err)
	}

	services.InitRFQService(db, notifier, cache)
	services.InitAttachmentService(store)

	router := setupRouter(cfg, middleware.EnsureValidToken(cfg))

	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter wires every route; auth guards the secured group
func setupRouter(cfg *config.Config, auth gin.HandlerFunc) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AddAllowHeaders("Authorization")
	router.Use(cors.New(corsConfig))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)

		secured := v1.Group("")
		secured.Use(auth)
		{
			secured.POST("/users", controllers.CreateUser)
			secured.GET("/users/me", controllers.GetMyProfile)
			secured.PUT("/users/me", controllers.UpdateMyProfile)

			secured.POST("/rfqs", controllers.CreateRFQ)
			secured.GET("/rfqs", controllers.ListRFQs)
			secured.GET("/rfqs/:id", controllers.GetRFQ)
			secured.POST("/rfqs/:id/quotes", controllers.SubmitQuote)
			secured.POST("/rfqs/:id/decision", controllers.DecideRFQ)
			secured.POST("/rfqs/:id/attachment", controllers.UploadRFQAttachment)

			// Locally stored attachments; S3 attachments are served by presigned URL
			secured.GET("/uploads/:filename", controllers.GetUploadedFile)

			secured.POST("/offenders", controllers.CreateOffender)
			secured.GET("/offenders", controllers.ListOffenders)
			secured.DELETE("/offenders/:id", controllers.DeleteOffender)

			admin := secured.Group("/admin")
			admin.Use(middleware.RequireScope("admin:users"))
			{
				admin.GET("/users", controllers.ListUsers)
				admin.PUT("/users/:id/role", controllers.UpdateUserRole)
			}
		}
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Wine Procurement API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	// Works for both postgres and sqlite
	tables, err := db.Migrator().GetTables()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}

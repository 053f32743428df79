package main

import (
	"log"
	"os"

	_ "tem-backend/api/swagger" // swagger docs
	"tem-backend/internal/database"
	"tem-backend/internal/handler"
	"tem-backend/internal/logger"
	"tem-backend/internal/middleware"
	"tem-backend/internal/repository"
	"tem-backend/internal/service"
	"tem-backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// @title           Travel and Expense Management API
// @version         1.0
// @description     Role-based travel request and expense claim approval backend with a two-tier manager/admin review chain.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	logger.Initialize(envOr("LOG_LEVEL", "info"), envOr("LOG_FORMAT", "text"))

	dbHost := envOr("DB_HOST", "localhost")
	dbPort := envOr("DB_PORT", "5432")
	dbUser := envOr("DB_USER", "postgres")
	dbPassword := envOr("DB_PASSWORD", "postgres")
	dbName := envOr("DB_NAME", "postgres")
	dbSslMode := envOr("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Outbound email is optional; with no SMTP host configured sends are logged and skipped
	emailSender := service.NewEmailSender(
		os.Getenv("SMTP_HOST"),
		envOr("SMTP_PORT", "587"),
		os.Getenv("SMTP_USER"),
		os.Getenv("SMTP_PASSWORD"),
		envOr("SMTP_FROM", "noreply@tem.local"),
	)

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(db)
	travelRepo := repository.NewTravelRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)

	notifier := service.NewNotifier(notifRepo, userRepo, auditRepo, wsHub, emailSender)
	userService := service.NewUserService(userRepo, auditRepo, notifier, emailSender, middleware.GetJWTSecret())
	travelService := service.NewTravelService(travelRepo, userRepo, auditRepo, txManager, notifier)
	expenseService := service.NewExpenseService(expenseRepo, travelRepo, userRepo, auditRepo, txManager, notifier)
	notificationService := service.NewNotificationService(notifRepo)
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	travelHandler := handler.NewTravelHandler(travelService)
	expenseHandler := handler.NewExpenseHandler(expenseService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:3000"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	authed := middleware.Authenticate(userRepo)
	userHandler.RegisterRoutes(router.Group(""), authed)
	travelHandler.RegisterRoutes(router.Group(""), authed)
	expenseHandler.RegisterRoutes(router.Group(""), authed)
	notificationHandler.RegisterRoutes(router.Group(""), authed)
	auditHandler.RegisterRoutes(router.Group(""), authed)

	port := envOr("PORT", "8080")

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

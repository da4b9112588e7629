package main

import (
	"context"
	"log"

	_ "tussles/api/swagger" // swagger docs
	"tussles/internal/config"
	"tussles/internal/database"
	"tussles/internal/handler"
	"tussles/internal/middleware"
	"tussles/internal/repository"
	"tussles/internal/service"
	"tussles/internal/storage"
	"tussles/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Tussles API
// @version         1.0
// @description     Manufacturing order tracking: orders, approvals, companies and finance reports.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()
	for _, warning := range cfg.Warnings() {
		log.Printf("WARNING: %s", warning)
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, degraded, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Database handle could not be created: %v", err)
	}
	if degraded {
		log.Println("WARNING: running without a database, data requests will fail")
	} else {
		log.Println("Connected to PostgreSQL successfully.")
	}

	objectStore := newObjectStore(cfg)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	orderRepo := repository.NewOrderRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	revenueRepo := repository.NewRevenueRepository(db)
	txManager := repository.NewTransactionManager(db)

	userService := service.NewUserService(userRepo)
	orderService := service.NewOrderService(orderRepo, companyRepo, revenueRepo, auditRepo, txManager,
		storage.NewImageUploader(objectStore), wsHub)
	companyService := service.NewCompanyService(companyRepo, auditRepo, txManager)
	financeService := service.NewFinanceService(orderRepo, userRepo, companyRepo)
	auditService := service.NewAuditService(auditRepo)

	auth := middleware.NewAuthenticator(cfg.JWTSecret, userService)

	// Initialize Handlers
	orderHandler := handler.NewOrderHandler(orderService)
	companyHandler := handler.NewCompanyHandler(companyService)
	financeHandler := handler.NewFinanceHandler(financeService)
	auditHandler := handler.NewAuditHandler(auditService)
	userHandler := handler.NewUserHandler()
	healthHandler := handler.NewHealthHandler(db, cfg.StorageConfigured(), cfg.JWTSecret != "")

	// Set up Gin Router
	router := gin.Default()
	router.MaxMultipartMemory = 8 << 20

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	if cfg.AllowAllOrigins() {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	healthHandler.RegisterRoutes(router)

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, auth.UserFromToken)
	})

	// API Routing
	api := router.Group("/api", auth.Authenticate())
	orderHandler.RegisterRoutes(api)
	companyHandler.RegisterRoutes(api)
	financeHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)
	userHandler.RegisterRoutes(api)

	log.Printf("Server listening on :%s (%s)", cfg.Port, cfg.GoEnv)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func newObjectStore(cfg *config.Config) storage.ObjectStore {
	if !cfg.StorageConfigured() {
		log.Println("WARNING: image storage is not configured, uploads will fail")
		return storage.DisabledStore{}
	}

	store, err := storage.NewS3Store(context.Background(), storage.S3Config{
		Endpoint:        cfg.StorageEndpoint,
		Region:          cfg.StorageRegion,
		Bucket:          cfg.StorageBucket,
		AccessKeyID:     cfg.StorageAccessKeyID,
		SecretAccessKey: cfg.StorageSecretAccessKey,
		PublicURL:       cfg.StoragePublicURL,
	})
	if err != nil {
		log.Printf("WARNING: image storage unavailable: %v", err)
		return storage.DisabledStore{}
	}
	return store
}

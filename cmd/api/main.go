package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "opsportal/api/swagger" // swagger docs
	"opsportal/internal/auth"
	"opsportal/internal/config"
	"opsportal/internal/database"
	"opsportal/internal/handler"
	"opsportal/internal/mailer"
	"opsportal/internal/metrics"
	"opsportal/internal/middleware"
	"opsportal/internal/model"
	"opsportal/internal/repository"
	"opsportal/internal/service"
	"opsportal/internal/session"
	"opsportal/internal/storage"
	"opsportal/internal/websocket"
	"opsportal/pkg/logger"
	"opsportal/pkg/timefmt"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Operations Portal API
// @version         1.0
// @description     Project expenses, inspection reports, cost centers, messaging and file management.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load("configs/.env", "configs/config.yaml")
	if err != nil {
		panic(err)
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	timefmt.SetTimezone(cfg.App.Timezone)
	gin.SetMode(cfg.Server.Mode)

	db, err := database.NewConnection(cfg.Database.DSN(), log)
	if err != nil {
		log.Fatal("Database connection failed", zap.Error(err))
	}
	log.Info("Connected to PostgreSQL successfully", zap.String("host", cfg.Database.Host))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Token revocation
	var sessions session.Store = session.NoopStore{}
	if cfg.Redis.Addr != "" {
		client, err := session.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal("Redis connection failed", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		defer client.Close()
		sessions = session.NewRedisStore(client)
	} else {
		log.Warn("redis.addr is empty, logout will not revoke tokens")
	}

	// Approval notifications
	var notifier service.ExpenseNotifier
	if cfg.SMTP.Host != "" {
		notifier = mailer.NewNotifier(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
	}

	// File store: SFTP when configured, local disk otherwise
	var files storage.FileStore
	if cfg.SFTP.Host != "" {
		files, err = storage.DialSFTP(storage.SFTPConfig{
			Host:       cfg.SFTP.Host,
			Port:       cfg.SFTP.Port,
			User:       cfg.SFTP.User,
			Password:   cfg.SFTP.Password,
			Root:       cfg.SFTP.Root,
			Timeout:    cfg.SFTP.Timeout,
			KnownHosts: cfg.SFTP.KnownHosts,
		}, log)
	} else {
		files, err = storage.NewLocalStore(cfg.Files.LocalRoot, log)
	}
	if err != nil {
		log.Fatal("File store initialization failed", zap.Error(err))
	}
	defer files.Close()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatal("Metrics registration failed", zap.Error(err))
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(log)
	go wsHub.Run(ctx)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	costCenterRepo := repository.NewCostCenterRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	reportRepo := repository.NewReportRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	userService := service.NewUserService(userRepo, costCenterRepo, auditRepo, txManager, tokens, sessions, log)
	expenseService := service.NewExpenseService(expenseRepo, userRepo, auditRepo, txManager, notifier, metrics.ImportedRows, log)
	reportService := service.NewReportService(reportRepo, costCenterRepo, userRepo, auditRepo, txManager, log)
	costCenterService := service.NewCostCenterService(costCenterRepo, ledgerRepo, auditRepo, txManager)
	messageService := service.NewMessageService(messageRepo, userRepo, wsHub, log)
	fileService := service.NewFileService(files, auditRepo, log)
	auditService := service.NewAuditService(auditRepo)

	if err := bootstrapAdmin(ctx, cfg.Auth, userService, log); err != nil {
		log.Fatal("Failed to create the initial superAdmin", zap.Error(err))
	}

	// Initialize Handlers
	authMW := middleware.NewAuth(tokens, sessions, log, cfg.Server.Mode == gin.ReleaseMode)
	importUpload := middleware.SingleUpload("excelFile", cfg.Upload.Dir, cfg.Upload.MaxSize, middleware.SpreadsheetMIMETypes, log)

	userHandler := handler.NewUserHandler(userService, authMW)
	expenseHandler := handler.NewExpenseHandler(expenseService, authMW, importUpload)
	reportHandler := handler.NewReportHandler(reportService, authMW)
	costCenterHandler := handler.NewCostCenterHandler(costCenterService, authMW)
	messageHandler := handler.NewMessageHandler(messageService, authMW)
	fileHandler := handler.NewFileHandler(fileService, authMW, cfg.Upload.MaxSize)
	auditHandler := handler.NewAuditHandler(auditService, authMW)
	pageHandler := handler.NewPageHandler(authMW)
	wsHandler := websocket.NewHandler(wsHub, tokens, sessions, cfg.Server.AllowedOrigins, log)

	// Set up Gin Router
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.Metrics())
	router.MaxMultipartMemory = 8 << 20

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.LoadHTMLGlob(cfg.Server.TemplatesGlob)
	router.Static("/static", cfg.Server.StaticDir)

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", wsHandler.ServeWs)

	// Register API Routes
	root := router.Group("")
	userHandler.RegisterRoutes(root)
	expenseHandler.RegisterRoutes(root)
	reportHandler.RegisterRoutes(root)
	costCenterHandler.RegisterRoutes(root)
	messageHandler.RegisterRoutes(root)
	fileHandler.RegisterRoutes(root)
	auditHandler.RegisterRoutes(root)
	pageHandler.RegisterRoutes(root)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}

// bootstrapAdmin creates the configured superAdmin when no user exists yet
func bootstrapAdmin(ctx context.Context, cfg config.AuthConfig, users service.UserService, log *zap.Logger) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}
	_, total, err := users.ListUsers(ctx, 1, 1)
	if err != nil {
		return err
	}
	if total > 0 {
		return nil
	}

	if _, err := users.CreateUser(ctx, "", service.CreateUserRequest{
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
		Role:     model.RoleSuperAdmin,
	}); err != nil {
		return err
	}
	log.Info("Created initial superAdmin", zap.String("username", cfg.AdminUsername))
	return nil
}

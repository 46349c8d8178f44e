package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "abetcrm/docs"
	"abetcrm/internal/audit"
	"abetcrm/internal/config"
	"abetcrm/internal/customfields"
	"abetcrm/internal/database"
	"abetcrm/internal/handlers"
	"abetcrm/internal/middleware"
	"abetcrm/internal/obs"
	"abetcrm/internal/pdf"
	"abetcrm/internal/repositories"
	"abetcrm/internal/routes"
	"abetcrm/internal/services"
)

func Run() {
	cfg := config.LoadConfig()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === DB ===
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal("database connection failed: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("database close: %v", err)
		}
	}()

	// === Shared components ===
	customFieldRepo := repositories.NewCustomFieldRepository(db)
	validator := customfields.NewValidator(customFieldRepo)
	auditRepo := repositories.NewAuditLogRepository(db)
	recorder := audit.NewRecorder(auditRepo)

	// === Services ===
	authService := services.NewAuthService(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	var emailService services.EmailService
	if cfg.Email.SMTPHost != "" {
		emailService = services.NewEmailService(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
			cfg.Email.FromEmail,
		)
	} else {
		log.Printf("[app] SMTP host not configured, welcome emails disabled")
	}

	userService := services.NewUserService(db, emailService, authService, validator, recorder)
	roleService := services.NewRoleService(repositories.NewRoleRepository(db))
	leadService := services.NewLeadService(db, validator, recorder)
	contactService := services.NewContactService(db, validator, recorder)
	accountService := services.NewAccountService(db, validator, recorder)
	opportunityService := services.NewOpportunityService(db, validator, recorder)
	activityService := services.NewActivityService(db, validator, recorder)
	customFieldService := services.NewCustomFieldService(customFieldRepo)
	auditService := services.NewAuditService(auditRepo)
	fileService := services.NewFileService(repositories.NewFileRepository(db), cfg.Files.RootDir, cfg.Files.MaxUploadBytes)

	// falls back to Helvetica when the font is missing
	reports := pdf.NewReportGenerator("assets/fonts/DejaVuSans.ttf")

	// === Handlers ===
	handlers.SetProduction(cfg.IsProduction())
	h := routes.Handlers{
		Auth:        handlers.NewAuthHandler(userService),
		User:        handlers.NewUserHandler(userService),
		Role:        handlers.NewRoleHandler(roleService),
		Lead:        handlers.NewLeadHandler(leadService),
		Contact:     handlers.NewContactHandler(contactService),
		Account:     handlers.NewAccountHandler(accountService),
		Opportunity: handlers.NewOpportunityHandler(opportunityService, reports),
		Activity:    handlers.NewActivityHandler(activityService),
		CustomField: handlers.NewCustomFieldHandler(customFieldService),
		AuditLog:    handlers.NewAuditLogHandler(auditService),
		File:        handlers.NewFileHandler(fileService),
		Health:      handlers.NewHealthHandler(db),
	}

	// === Gin ===
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	obs.Init()
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		log.Fatalf("[app] trusted proxies: %v", err)
	}
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(obs.Instrument())
	router.Use(obs.RequestLogger())
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	router.Use(middleware.MaxBodyBytes(cfg.Server.MaxBodyBytes))
	if cfg.Server.RateLimit.PerSecond > 0 {
		router.Use(middleware.RateLimit(ctx, cfg.Server.RateLimit.PerSecond, cfg.Server.RateLimit.Burst))
	}

	router.GET("/metrics", gin.WrapH(obs.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(router, []byte(cfg.JWT.Secret), h)

	// === Run ===
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed: ", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	log.Printf("server stopped")
}

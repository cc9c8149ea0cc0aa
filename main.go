package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-market/bootstrap"
	"auction-market/common"
	"auction-market/config"
	"auction-market/database"
	"auction-market/domain"
	"auction-market/middleware"
	authAPI "auction-market/modules/auth/delivery/api"
	authRepo "auction-market/modules/auth/repository"
	authUC "auction-market/modules/auth/usecase"
	bidAPI "auction-market/modules/bid/delivery/api"
	bidRepo "auction-market/modules/bid/repository"
	bidUC "auction-market/modules/bid/usecase"
	emailAPI "auction-market/modules/email/delivery/api"
	emailRepo "auction-market/modules/email/repository"
	emailUC "auction-market/modules/email/usecase"
	notificationAPI "auction-market/modules/notification/delivery/api"
	notificationRepo "auction-market/modules/notification/repository"
	notificationUC "auction-market/modules/notification/usecase"
	productAPI "auction-market/modules/product/delivery/api"
	productRepo "auction-market/modules/product/repository"
	productUC "auction-market/modules/product/usecase"
	uploadAPI "auction-market/modules/upload/delivery/api"
	uploadRepo "auction-market/modules/upload/repository"
	uploadUC "auction-market/modules/upload/usecase"
	userAPI "auction-market/modules/user/delivery/api"
	userRepo "auction-market/modules/user/repository"
	userUC "auction-market/modules/user/usecase"
	"auction-market/pkg/cache"
	"auction-market/pkg/email"
	"auction-market/pkg/log"
	"auction-market/pkg/pagination"
	"auction-market/pkg/upload"
	"auction-market/validator"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	envPath := flag.String("env-file", "", "ENV config file path")
	yamlPath := flag.String("config", "./config/config.yml", "YAML config file path")
	flag.Parse()

	configPaths := []string{*yamlPath}
	if *envPath == "" {
		fmt.Printf("App is starting with config path is '%s' and no load env file\n", *yamlPath)
	} else {
		fmt.Printf("App is starting with config path is '%s' and env path is '%s'...\n", *yamlPath, *envPath)
		configPaths = append(configPaths, *envPath)
	}

	cfg, err := config.Load(configPaths...)
	if err != nil {
		panic(fmt.Errorf("failed to load config: %w", err))
	}

	logger, err := log.NewZapLogger(config.LogConfig(cfg))
	if err != nil {
		panic(fmt.Errorf("failed to create logger: %w", err))
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Printf("Failed to sync logger: %v\n", err)
		}
	}()

	loggerAdapter := common.NewLoggerAdapter(logger)
	common.SetLogger(loggerAdapter)
	log.SetDefaultLogger(logger)
	validator.RegisterValidatorWithGin()

	logger.Info("Application starting",
		log.String("name", cfg.App().Name()),
		log.String("version", cfg.App().Version()),
		log.String("environment", cfg.App().Environment()),
		log.String("config_path", *yamlPath),
	)

	db, err := database.Connect(cfg.Database(), logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", log.Error(err))
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Error("Failed to close database", log.Error(err))
		}
	}()
	if err = database.MigrateDB(db); err != nil {
		logger.Fatal("Failed to migrate database", log.Error(err))
	}
	if err = database.SeedRoles(db); err != nil {
		logger.Fatal("Failed to seed roles", log.Error(err))
	}
	logger.Info("Database connected and migrated successfully")

	cacheClient, err := cache.NewCacheFactory(loggerAdapter).CreateCache(cache.Provider(cfg.Cache().Provider()), &cache.Config{
		Host:       cfg.Redis().Host(),
		Port:       cfg.Redis().Port(),
		Password:   cfg.Redis().Password(),
		DB:         cfg.Redis().DB(),
		Prefix:     cfg.Redis().Prefix(),
		DefaultTTL: cfg.Cache().DefaultTTL(),
	})
	if err != nil {
		logger.Fatal("Failed to create cache", log.Error(err))
	}
	defer cacheClient.Close()
	logger.Info("Cache ready", log.String("provider", cfg.Cache().Provider()))

	emailCfg := cfg.Email()
	emailClient, err := email.NewEmailFactory(loggerAdapter).CreateClient(email.Provider(emailCfg.Provider()), &email.Config{
		DefaultFrom:     emailCfg.DefaultFrom(),
		DefaultFromName: emailCfg.DefaultFromName(),
		SMTPHost:        emailCfg.SMTPHost(),
		SMTPPort:        emailCfg.SMTPPort(),
		SMTPUsername:    emailCfg.SMTPUsername(),
		SMTPPassword:    emailCfg.SMTPPassword(),
		SESRegion:       emailCfg.SESRegion(),
		SESAccessKey:    emailCfg.SESAccessKey(),
		SESSecretKey:    emailCfg.SESSecretKey(),
		SendGridAPIKey:  emailCfg.SendGridAPIKey(),
		MaxRetries:      emailCfg.MaxRetries(),
		RetryDelay:      emailCfg.RetryDelay(),
	})
	if err != nil {
		logger.Fatal("Failed to create email client", log.Error(err))
	}
	defer emailClient.Close()

	uploadCfg := cfg.Upload()
	uploadClient, err := upload.New(upload.Provider(uploadCfg.Provider()), &upload.Config{
		LocalDir:      uploadCfg.LocalDir(),
		S3AccessKey:   uploadCfg.S3AccessKey(),
		S3SecretKey:   uploadCfg.S3SecretKey(),
		S3EndpointURL: uploadCfg.S3EndpointURL(),
		S3BucketName:  uploadCfg.S3BucketName(),
		S3PathPrefix:  uploadCfg.S3PathPrefix(),
		S3Region:      uploadCfg.S3Region(),
	})
	if err != nil {
		logger.Fatal("Failed to create upload client", log.Error(err))
	}

	paginator, err := pagination.NewPaginator(config.PaginationSettings(cfg))
	if err != nil {
		logger.Fatal("Invalid pagination settings", log.Error(err))
	}

	minIncrement, err := decimal.NewFromString(cfg.Auction().DefaultMinIncrement())
	if err != nil {
		logger.Fatal("Invalid default min increment", log.Error(err))
	}

	// Repositories
	userRepository := userRepo.NewUserRepository(db)
	sessionRepository := authRepo.NewPgUserSessionRepo(db)
	emailTemplateRepository := emailRepo.NewEmailTemplateRepository(db)
	emailLogRepository := emailRepo.NewEmailLogRepository(db)
	fileRepository := uploadRepo.NewFilePgRepository(db, cfg.Server().Domain(), uploadCfg.S3PresignURLTTL(), uploadClient)
	fileLinkRepository := uploadRepo.NewFileLinkPgRepository(db, cfg.Server().Domain(), uploadCfg.S3PresignURLTTL(), uploadClient)
	productRepository := productRepo.NewProductRepository(db)
	bidRepository := bidRepo.NewBidRepository(db)
	notificationRepository := notificationRepo.NewNotificationRepository(db)

	seeder := bootstrap.NewEmailTemplateSeeder(emailTemplateRepository, bootstrap.EmailTemplateConfig{
		SupportEmail: cfg.App().SupportEmail(),
	}, logger)
	if err := seeder.Seed(context.Background()); err != nil {
		// Templates can be fixed through the admin API, keep serving
		logger.Error("Failed to initialize email templates", log.Error(err))
	}

	// Usecases
	emailUsecase := emailUC.NewEmailUsecase(&emailUC.Deps{
		LogRepo:      emailLogRepository,
		TemplateRepo: emailTemplateRepository,
		Client:       emailClient,
		Renderer:     emailUC.NewTemplateRenderer(logger),
		Paginator:    paginator,
		Logger:       logger,
	})

	userUsecase := userUC.NewUserUsecase(userRepository, common.NewBcryptHasher(bcrypt.DefaultCost), paginator, logger)
	if err := bootstrap.SeedSystemAdmin(
		context.Background(),
		userUsecase,
		cfg.App().SystemAdminDefaultEmail(),
		cfg.App().SystemAdminDefaultPassword(),
		logger,
	); err != nil {
		logger.Error("Failed to seed system admin", log.Error(err))
	}

	jwtProvider := common.NewJWTProvider(cfg.App())
	authUsecase := authUC.NewAuthUsecase(&authUC.Deps{
		SessionRepo:   sessionRepository,
		UserUsecase:   userUsecase,
		EmailUsecase:  emailUsecase,
		TokenProvider: jwtProvider,
		Cache:         cacheClient,
		Logger:        logger,
		Config: authUC.Config{
			AppName:        cfg.App().Name(),
			BaseURL:        cfg.Server().Domain(),
			VerifyTokenTTL: cfg.App().EmailVerifyTokenTTL(),
		},
	})

	notificationUsecase := notificationUC.NewNotificationUsecase(&notificationUC.Deps{
		Repo:         notificationRepository,
		EmailUsecase: emailUsecase,
		Cache:        cacheClient,
		Paginator:    paginator,
		Logger:       logger,
	})

	uploadUsecase := uploadUC.NewUploadUsecase(&uploadUC.Deps{
		FileRepo:     fileRepository,
		FileLinkRepo: fileLinkRepository,
		Client:       uploadClient,
		Logger:       logger,
		Config: uploadUC.Config{
			MaxFileSize: uploadCfg.MaxFileSizeBytes(),
			MaxFiles:    uploadCfg.MaxFilesPerRequest(),
		},
	})

	productUsecase := productUC.NewProductUsecase(&productUC.Deps{
		Repo:                productRepository,
		UploadUsecase:       uploadUsecase,
		UserUsecase:         userUsecase,
		NotificationUsecase: notificationUsecase,
		Cache:               cacheClient,
		Paginator:           paginator,
		Logger:              logger,
		Config: productUC.Config{
			AppName:             cfg.App().Name(),
			BaseURL:             cfg.Server().Domain(),
			DefaultMinIncrement: minIncrement,
			ListCacheTTL:        cfg.Auction().ListCacheTTL(),
		},
	})

	bidUsecase := bidUC.NewBidUsecase(&bidUC.Deps{
		Repo:                bidRepository,
		Products:            productUsecase,
		UserUsecase:         userUsecase,
		NotificationUsecase: notificationUsecase,
		Cache:               cacheClient,
		Paginator:           paginator,
		Logger:              logger,
		Config: bidUC.Config{
			AppName: cfg.App().Name(),
			BaseURL: cfg.Server().Domain(),
			LockTTL: cfg.Auction().BidLockTTL(),
		},
	})

	middlewares := middleware.NewMiddlewares(middleware.Dependencies{
		Cache:                cacheClient,
		Logger:               logger,
		JwtProvider:          jwtProvider,
		SessionRepo:          sessionRepository,
		UserRepo:             userRepository,
		APIRequestsPerMinute: int64(cfg.Server().RateLimitPerMinute()),
	})

	gin.DisableConsoleColor()
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.MaxMultipartMemory = uploadCfg.MaxFileSizeBytes() * int64(max(uploadCfg.MaxFilesPerRequest(), 1))

	corsCfg := middleware.DefaultCORSConfig()
	if origins := cfg.Server().AllowedOrigins(); len(origins) > 0 {
		corsCfg.AllowOrigins = origins
	}
	r.Use(middlewares.CORS(corsCfg))
	r.Use(middlewares.RequestIDMiddleware())
	r.Use(middlewares.RateLimit(middleware.RateLimitConfig{
		WindowSize:  time.Minute,
		MaxRequests: 600,
		KeyPrefix:   "rate_limit:global:",
		SkipPaths:   []string{"/health"},
	}))
	r.Use(middlewares.LoggingMiddleware(middleware.LoggerConfig{
		SkipPaths:     []string{"/health"},
		SlowThreshold: 2 * time.Second,
	}))
	r.Use(middlewares.Recovery())

	if upload.Provider(uploadCfg.Provider()) == upload.Local {
		r.Static(upload.StaticsFsPath, uploadCfg.LocalDir())
	}

	apiGroup := r.Group("/api/v1")
	authAPI.NewAuthHandler(authUsecase, middlewares).RegisterRoutes(apiGroup)
	userAPI.NewUserHandler(userUsecase, middlewares).RegisterRoutes(apiGroup)
	emailAPI.NewEmailHandler(emailUsecase, logger, middlewares).RegisterRoutes(apiGroup)
	uploadAPI.NewUploadHandler(uploadUsecase, middlewares, uploadCfg.MaxFileSizeBytes()).RegisterRoutes(apiGroup)
	productAPI.NewProductHandler(productUsecase, middlewares).RegisterRoutes(apiGroup)
	bidAPI.NewBidHandler(bidUsecase, middlewares).RegisterRoutes(apiGroup)
	notificationAPI.NewNotificationHandler(notificationUsecase, middlewares).RegisterRoutes(apiGroup)

	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "ok", "database": "ok", "cache": "ok", "timestamp": time.Now().Unix()}
		code := http.StatusOK
		if err := database.Ping(ctx, db); err != nil {
			status["database"], status["status"] = "down", "degraded"
			code = http.StatusServiceUnavailable
		}
		if err := cacheClient.Ping(ctx); err != nil {
			status["cache"], status["status"] = "down", "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})

	closerCtx, stopCloser := context.WithCancel(context.Background())
	closerDone := make(chan struct{})
	go func() {
		defer close(closerDone)
		runAuctionCloser(closerCtx, productUsecase, cfg.Auction().CloseInterval(), logger)
	}()

	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server().Host(), cfg.Server().Port()),
		Handler:        r,
		ReadTimeout:    cfg.Server().ReadTimeout(),
		WriteTimeout:   cfg.Server().WriteTimeout(),
		IdleTimeout:    cfg.Server().IdleTimeout(),
		MaxHeaderBytes: cfg.Server().MaxHeaderBytes(),
	}

	go func() {
		logger.Info("Starting HTTP server",
			log.Int("port", cfg.Server().Port()),
			log.String("host", cfg.Server().Host()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", log.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	stopCloser()
	<-closerDone

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server().ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", log.Error(err))
	} else {
		logger.Info("Server exited gracefully")
	}
	// Handlers are done, so no new notifications can start.
	if err := bidUsecase.Drain(ctx); err != nil {
		logger.Warn("Bid notifications still pending at exit", log.Error(err))
	}
}

// runAuctionCloser settles expired auctions until ctx is cancelled.
func runAuctionCloser(ctx context.Context, products domain.ProductUsecase, interval time.Duration, logger log.Logger) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			closed, err := products.CloseExpired(ctx)
			if err != nil {
				logger.Error("Failed to close expired auctions", log.Error(err))
				continue
			}
			if closed > 0 {
				logger.Info("Closed expired auctions", log.Int("count", closed))
			}
		}
	}
}

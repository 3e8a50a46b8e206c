package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"identity-service/bootstrap"
	"identity-service/common"
	"identity-service/config"
	"identity-service/database"
	"identity-service/middleware"
	authAPI "identity-service/modules/auth/delivery/api"
	"identity-service/modules/auth/federated"
	authUC "identity-service/modules/auth/usecase"
	identityAPI "identity-service/modules/identity/delivery/api"
	identityRepo "identity-service/modules/identity/repository"
	identityUC "identity-service/modules/identity/usecase"
	moduleAPI "identity-service/modules/module/delivery/api"
	moduleRepo "identity-service/modules/module/repository"
	moduleUC "identity-service/modules/module/usecase"
	permissionRepo "identity-service/modules/permission/repository"
	roleAPI "identity-service/modules/role/delivery/api"
	roleRepo "identity-service/modules/role/repository"
	roleUC "identity-service/modules/role/usecase"
	"identity-service/pkg/cache"
	"identity-service/pkg/log"
	"identity-service/validator"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	envPath := flag.String("env-file", "", "ENV config file path")
	yamlPath := flag.String("config", "./config/config.yml", "YAML config file path")
	flag.Parse()

	configPaths := []string{*yamlPath}
	if *envPath != "" {
		configPaths = append(configPaths, *envPath)
	}

	cfg, err := config.Load(configPaths...)
	if err != nil {
		panic(fmt.Errorf("failed to load config: %w", err))
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic(fmt.Errorf("failed to create logger: %w", err))
	}
	defer func() {
		_ = logger.Sync()
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
		_ = database.Close(db)
	}()

	if err = database.MigrateDB(db); err != nil {
		logger.Fatal("Failed to migrate database", log.Error(err))
	}
	logger.Info("Database connected and migrated successfully")

	cacheFactory := cache.NewCacheFactory(loggerAdapter)
	cacheClient, err := cacheFactory.CreateCache(cache.Provider(cfg.Cache().Provider()), &cache.Config{
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

	txManager := database.NewTxManager(db)
	requestValidator := validator.DefaultValidator()
	hasher := common.NewBcryptHasher(bcrypt.DefaultCost)
	jwtProvider := common.NewJWTProvider(cfg.App())

	// Repositories
	modules := moduleRepo.NewModuleRepository(db)
	roles := roleRepo.NewRoleRepository(db)
	permissions := permissionRepo.NewPermissionRepository(db)
	identities := identityRepo.NewIdentityRepository(db)

	// Usecases
	moduleUsecase := moduleUC.NewModuleUsecase(modules, cacheClient, cfg.Cache().ModuleCatalogTTL(), logger)
	if err := bootstrap.NewModuleSeeder(moduleUsecase, cfg.Auth().Modules(), logger).Seed(context.Background()); err != nil {
		logger.Fatal("Failed to seed module catalog", log.Error(err))
	}

	roleUsecase := roleUC.NewRoleUsecase(roleUC.Dependencies{
		RoleRepo:       roles,
		PermissionRepo: permissions,
		IdentityRepo:   identities,
		Modules:        moduleUsecase,
		TxManager:      txManager,
		Validator:      requestValidator,
		Config:         cfg.Auth(),
		Logger:         logger,
	})

	identityUsecase := identityUC.NewIdentityUsecase(identityUC.Dependencies{
		IdentityRepo:  identities,
		RoleRepo:      roles,
		Roles:         roleUsecase,
		Hasher:        hasher,
		Validator:     requestValidator,
		AdminRoleName: cfg.Auth().AdminRoleName(),
		Logger:        logger,
	})

	authDeps := authUC.Dependencies{
		IdentityRepo:   identities,
		RoleRepo:       roles,
		PermissionRepo: permissions,
		Tokens:         jwtProvider,
		Hasher:         hasher,
		Validator:      requestValidator,
		Logger:         logger,
	}
	if cfg.Auth().FederatedLoginEnabled() {
		idTokens, err := federated.NewFromConfig(cfg.Auth())
		if err != nil {
			logger.Fatal("Failed to set up federated login", log.Error(err))
		}
		authDeps.Federated = idTokens
		logger.Info("Federated login enabled", log.String("issuer", cfg.Auth().OIDCIssuer()))
	}
	authUsecase := authUC.NewAuthUsecase(authDeps)

	middlewares := middleware.NewMiddlewares(middleware.Dependencies{
		Cache:                  cacheClient,
		Logger:                 logger,
		Verifier:               jwtProvider,
		AllowMissingCredential: cfg.Auth().AllowMissingCredential(),
		RateLimitPerMinute:     cfg.Server().RateLimitPerMinute(),
		AllowedOrigins:         cfg.Server().AllowedOrigins(),
	})
	rules := middleware.NewRouteRules()

	gin.DisableConsoleColor()
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(middlewares.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.Logging())
	r.Use(middlewares.CORS())
	r.Use(middlewares.Timeout(cfg.Server().RequestTimeout()))

	// The authorizer resolves rules at request time, so handlers may register
	// theirs after it is mounted.
	apiGroup := r.Group("/api/v1/auth")
	apiGroup.Use(middlewares.Authorizer(rules))

	authAPI.NewAuthHandler(authUsecase, middlewares).RegisterRoutes(apiGroup)
	roleAPI.NewRoleHandler(roleUsecase, middlewares, rules, cfg.Auth().RoleModuleID()).RegisterRoutes(apiGroup)
	moduleAPI.NewModuleHandler(moduleUsecase, middlewares, rules).RegisterRoutes(apiGroup)
	identityAPI.NewIdentityHandler(identityUsecase, middlewares).RegisterRoutes(apiGroup)

	for _, rule := range rules.All() {
		logger.Debug("Route rule",
			log.Method(rule.Method),
			log.String("path", rule.Path),
			log.ModuleID(rule.ModuleID),
			log.String("action", string(rule.Action)),
		)
	}

	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{"database": "ok", "cache": "ok"}
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status, checks["database"] = http.StatusServiceUnavailable, "unavailable"
		}
		if err := cacheClient.Ping(ctx); err != nil {
			status, checks["cache"] = http.StatusServiceUnavailable, "unavailable"
		}
		c.JSON(status, gin.H{"status": checks, "timestamp": time.Now().Unix()})
	})

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", log.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", log.Error(err))
	} else {
		logger.Info("Server exited gracefully")
	}
}

func newLogger(cfg config.Config) (log.Logger, error) {
	logCfg := log.DevelopmentConfig()
	if cfg.App().IsProduction() {
		logCfg = log.ProductionConfig(cfg.App().Name(), cfg.App().Version())
	}
	logCfg.Environment = cfg.App().Environment()
	if level := cfg.Logger().Level(); level != "" {
		logCfg.Level = level
	}
	if format := cfg.Logger().Format(); format != "" {
		logCfg.Format = format
	}
	if output := cfg.Logger().OutputPath(); output != "" {
		logCfg.OutputPath = output
		logCfg.FileMaxSizeInMB = cfg.Logger().MaxFileSizeMB()
		logCfg.FileMaxAgeInDays = cfg.Logger().MaxFileAgeDays()
		logCfg.FileMaxBackups = cfg.Logger().MaxBackupFiles()
		logCfg.CompressRotated = cfg.Logger().IsCompressEnabled()
	}
	return log.NewZapLogger(logCfg)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "dataridge/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"dataridge/internal/auth"
	"dataridge/internal/cache"
	"dataridge/internal/config"
	"dataridge/internal/db"
	"dataridge/internal/handler"
	"dataridge/internal/logger"
	"dataridge/internal/metrics"
	"dataridge/internal/repository"
	"dataridge/internal/router"
	"dataridge/internal/service"
)

// @title Dataridge Backend API
// @version 1.0
// @description User registration, JWT authentication and owner-scoped company records.
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if placeholders := cfg.PlaceholderSecrets(); len(placeholders) > 0 && !cfg.IsDevelopment() {
		log.Warn("secrets still use development defaults", zap.Strings("vars", placeholders))
	}

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatal("database init", zap.Error(err))
	}
	if cfg.ResetDB {
		log.Warn("RESET_DB=true detected, dropping all tables")
	}
	if err := db.Migrate(gormDB, cfg.ResetDB); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer func() { _ = cacheClient.Close() }()
	if err := cacheClient.Ping(context.Background()); err != nil {
		log.Warn("redis unavailable, running without cache", zap.Error(err))
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	companyRepo := repository.NewCompanyRepository(gormDB)

	// Initialize auth components
	tokens := auth.NewTokenIssuer(cfg.JWTAccessSecret, cfg.JWTRefreshSecret)
	session := auth.NewSessionTransport(cfg.CookieSecret, cfg.CookieSecure)

	// Initialize services
	authService := service.NewAuthService(userRepo, auth.NewBcryptHasher(), tokens, log, m)
	companyService := service.NewCompanyService(companyRepo, cacheClient, log)

	e := echo.New()
	router.Register(e, router.Deps{
		Log:            log,
		Metrics:        m,
		Tokens:         tokens,
		AuthHandler:    handler.NewAuthHandler(authService, session),
		CompanyHandler: handler.NewCompanyHandler(companyService),
		Health: func(c echo.Context) error {
			sqlDB, err := gormDB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(c.Request().Context())
		},
	})

	log.Info("swagger documentation available", zap.String("url", swaggerURL(cfg)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		addr := ":" + cfg.ServerPort
		log.Info("server listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
}

// swaggerURL builds the externally visible docs URL. SWAGGER_HOST may already carry a scheme.
func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	switch {
	case host == "":
		host = "http://localhost:" + cfg.ServerPort
	case !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://"):
		host = "http://" + host
	}
	return strings.TrimSuffix(host, "/") + "/swagger/index.html"
}

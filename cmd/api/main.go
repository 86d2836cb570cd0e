package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/gatesweb/emlak-directory/internal/auth"
	"github.com/gatesweb/emlak-directory/internal/config"
	"github.com/gatesweb/emlak-directory/internal/database"
	"github.com/gatesweb/emlak-directory/internal/handler"
	"github.com/gatesweb/emlak-directory/internal/logger"
	middlewarepkg "github.com/gatesweb/emlak-directory/internal/middleware"
	"github.com/gatesweb/emlak-directory/internal/repository"
	"github.com/gatesweb/emlak-directory/internal/router"
	"github.com/gatesweb/emlak-directory/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("failed to connect database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		zlog.Fatal("failed to apply schema", zap.Error(err))
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	usersRepo := repository.NewPGXUsersRepository(pool)
	companiesRepo := repository.NewPGXCompaniesRepository(pool)

	generator := service.NewGenerator()
	enricher := service.NewEnricher(cfg.ScrapeTimeout)
	verifier := service.NewVerifier(cfg.SendingDomain,
		service.WithVerifierConcurrency(cfg.VerifyConcurrency),
		service.WithVerifierPacing(cfg.VerifyPacing),
	)
	expander := service.NewExpander(generator, enricher, verifier)

	authService := service.NewAuthService(usersRepo, jwtManager)
	companiesService := service.NewCompaniesService(companiesRepo)
	pipelineService := service.NewPipelineService(companiesRepo, generator, enricher, verifier, expander, zlog)

	handlers := router.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Companies:   handler.NewCompaniesHandler(companiesService),
		AdminUpload: handler.NewAdminUploadHandler(companiesService),
		Pipeline:    handler.NewPipelineHandler(pipelineService),
		Users:       handler.NewUsersHandler(authService),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging(zlog))
	e.Use(echoMiddleware.Recover())

	router.Register(e, cfg, jwtManager, handlers)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(":" + cfg.Port)
	}()

	zlog.Info("server started", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		zlog.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server error", zap.Error(err))
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
}

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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"inventory/internal/auth"
	"inventory/internal/config"
	"inventory/internal/database"
	httpapi "inventory/internal/http"
	"inventory/internal/logger"
	"inventory/internal/metrics"
	"inventory/internal/repository"
	"inventory/internal/seed"
	"inventory/internal/service"

	_ "inventory/docs"
)

// @title Inventory API
// @version 1.0
// @description Inventory, clients and orders with per-resource permissions.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	seedOnly := flag.Bool("seed", false, "populate the store with demo data and exit")
	flag.Parse()

	if err := run(*seedOnly); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(seedOnly bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.App.Env,
		ServiceName: cfg.ServiceName,
	}); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if seedOnly {
		err := seed.Run(ctx, repos)
		if errors.Is(err, seed.ErrAlreadySeeded) {
			log.Info("seed skipped: data already present")
			return nil
		}
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(cfg.Metrics.Prefix, reg)

	tokens := auth.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpirationHours)*time.Hour)
	authz := service.NewAuthorizer(repos.Permissions, m)

	gin.SetMode(cfg.Server.GinMode)
	srv := httpapi.NewServer(httpapi.Services{
		Auth:        service.NewAuthService(repos.Users, repos.Permissions, tokens, m),
		Authz:       authz,
		Users:       service.NewUserService(repos.Users, repos.Permissions),
		Permissions: service.NewPermissionService(repos.Users, repos.Permissions, repos.Tx),
		Products:    service.NewProductService(repos.Products),
		Clients:     service.NewClientService(repos.Clients),
		Orders:      service.NewOrderService(repos.Products, repos.Clients, repos.Orders, repos.Tx, m),
		Comments:    service.NewCommentService(repos.Comments),
	}, m, cfg.CORS.Origins)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening",
			zap.String("addr", httpServer.Addr),
			zap.String("storage", cfg.Storage.Driver),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}

// openStore returns the repositories for the configured driver and a close func.
func openStore(ctx context.Context, cfg *config.Config) (*repository.Repositories, func(), error) {
	if cfg.Storage.Driver == config.StorageMemory {
		logger.Get().Warn("using in-memory storage; data is lost on exit")
		return repository.NewMemoryRepositories(), func() {}, nil
	}
	pool, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return repository.NewPostgresRepositories(pool), pool.Close, nil
}

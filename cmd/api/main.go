package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/organization-service/internal/api/http"
	"github.com/spec-kit/organization-service/internal/api/http/handlers"
	"github.com/spec-kit/organization-service/internal/auth"
	"github.com/spec-kit/organization-service/internal/config"
	"github.com/spec-kit/organization-service/internal/events"
	"github.com/spec-kit/organization-service/internal/observability"
	"github.com/spec-kit/organization-service/internal/persistence"
	"github.com/spec-kit/organization-service/internal/repository"
	"github.com/spec-kit/organization-service/internal/service"
	"github.com/spec-kit/organization-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	specialtyRepo := repository.NewSpecialtyRepository(pool)
	affiliationRepo := repository.NewAffiliationRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	auditService := service.NewAuditService(dispatcher, logger, cfg.Audit)
	worker.StartAuditWorker(auditService)

	orgService := service.NewOrganizationService(service.OrganizationDependencies{
		DepartmentRepo:  departmentRepo,
		SpecialtyRepo:   specialtyRepo,
		AffiliationRepo: affiliationRepo,
		Dispatcher:      dispatcher,
		Cache:           redis,
		Logger:          logger,
	})
	affiliationService := service.NewAffiliationService(service.AffiliationDependencies{
		AffiliationRepo: affiliationRepo,
		UserRepo:        userRepo,
		DepartmentRepo:  departmentRepo,
		SpecialtyRepo:   specialtyRepo,
		Dispatcher:      dispatcher,
		Cache:           redis,
		CacheTTL:        cfg.Audit.RosterCacheTTL,
		Logger:          logger,
	})

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokenManager, userRepo)

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Departments:    handlers.NewDepartmentsHandler(orgService),
		Specialties:    handlers.NewSpecialtiesHandler(orgService),
		Affiliations:   handlers.NewAffiliationsHandler(affiliationService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

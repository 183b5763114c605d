package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/registration-service/internal/api/http"
	"github.com/spec-kit/registration-service/internal/api/http/handlers"
	"github.com/spec-kit/registration-service/internal/auth"
	"github.com/spec-kit/registration-service/internal/config"
	"github.com/spec-kit/registration-service/internal/events"
	"github.com/spec-kit/registration-service/internal/observability"
	"github.com/spec-kit/registration-service/internal/persistence"
	"github.com/spec-kit/registration-service/internal/repository"
	"github.com/spec-kit/registration-service/internal/service"
	"github.com/spec-kit/registration-service/internal/token"
	"github.com/spec-kit/registration-service/internal/worker"
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

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	registrationRepo := repository.NewRegistrationRepository(pool)
	accountRepo := repository.NewAccountRepository(pool)
	affiliateRepo := repository.NewAffiliateRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)

	codec := token.NewCodec()
	store := token.NewStore(redis.Client)

	approvalService := service.NewApprovalService(cfg.Token.ApprovalTTL(), service.ApprovalDependencies{
		RegistrationRepo: registrationRepo,
		AccountRepo:      accountRepo,
		Store:            store,
		Codec:            codec,
		Dispatcher:       dispatcher,
		Metrics:          metrics,
		Logger:           logger,
	})

	resolver := service.NewUserTypeResolver(accountRepo, affiliateRepo)
	router := service.NewSubjectUpdateRouter(accountRepo, affiliateRepo)
	guard := service.NewAntiEnumerationGuard(cfg.Guard)

	recoveryService := service.NewRecoveryService(cfg.Token.RecoveryTTL(), service.RecoveryDependencies{
		Resolver:   resolver,
		Router:     router,
		Store:      store,
		Codec:      codec,
		Hasher:     auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		Guard:      guard,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})

	adminService := service.NewAdminService(cfg.Auth, service.AdminDependencies{
		AdminRepo:        adminRepo,
		RegistrationRepo: registrationRepo,
	})
	adminMiddleware := auth.NewAdminMiddleware(adminService.TokenManager(), adminRepo)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification, cfg.App.BaseURL)
	worker.StartNotificationWorker(notificationService)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(pg, redis),
		Registrations:   handlers.NewRegistrationsHandler(approvalService, adminService),
		Approvals:       handlers.NewApprovalsHandler(approvalService),
		Recovery:        handlers.NewRecoveryHandler(recoveryService),
		Admin:           handlers.NewAdminHandler(adminService),
		AdminMiddleware: adminMiddleware,
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

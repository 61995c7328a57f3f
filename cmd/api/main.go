package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/supercivilization/membership-service/internal/api/http"
	"github.com/supercivilization/membership-service/internal/api/http/handlers"
	"github.com/supercivilization/membership-service/internal/auth"
	"github.com/supercivilization/membership-service/internal/config"
	"github.com/supercivilization/membership-service/internal/events"
	"github.com/supercivilization/membership-service/internal/observability"
	"github.com/supercivilization/membership-service/internal/persistence"
	"github.com/supercivilization/membership-service/internal/ratelimit"
	"github.com/supercivilization/membership-service/internal/repository"
	"github.com/supercivilization/membership-service/internal/service"
	"github.com/supercivilization/membership-service/internal/worker"
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
	profileRepo := repository.NewProfileRepository(pool)
	inviteRepo := repository.NewInviteRepository(pool)
	verificationRepo := repository.NewVerificationRepository(pool)
	adminLogRepo := repository.NewAdminLogRepository(pool)
	actionTokenRepo := repository.NewActionTokenRepository(pool)
	signupRepo := repository.NewSignupRepository(pool)

	limiter := ratelimit.NewFallbackLimiter(
		ratelimit.NewRedisLimiter(redis.ClientHandle()),
		ratelimit.NewMemoryLimiter(),
		logger,
	)

	dispatcher := events.NewInMemoryDispatcher()
	mailer := service.NewEmailSender(cfg.Notification, logger)

	inviteService := service.NewInviteService(*cfg, service.InviteDependencies{
		InviteRepo:  inviteRepo,
		ProfileRepo: profileRepo,
		Limiter:     limiter,
		Dispatcher:  dispatcher,
	})
	verificationService := service.NewVerificationService(service.VerificationDependencies{
		VerificationRepo: verificationRepo,
		ProfileRepo:      profileRepo,
		Dispatcher:       dispatcher,
	})
	adminService := service.NewAdminService(service.AdminDependencies{
		ProfileRepo:  profileRepo,
		InviteRepo:   inviteRepo,
		AdminLogRepo: adminLogRepo,
		Dispatcher:   dispatcher,
		Cache:        redis.ClientHandle(),
		Logger:       logger,
	})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		ProfileRepo:     profileRepo,
		SignupRepo:      signupRepo,
		ActionTokenRepo: actionTokenRepo,
		InviteService:   inviteService,
		Mailer:          mailer,
		Dispatcher:      dispatcher,
	})
	notificationService := service.NewNotificationService(dispatcher, profileRepo, mailer, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), profileRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Invites:        handlers.NewInvitesHandler(inviteService),
		Verifications:  handlers.NewVerificationsHandler(verificationService),
		Admin:          handlers.NewAdminHandler(adminService),
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

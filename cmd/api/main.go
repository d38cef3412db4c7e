package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-desk/internal/api/http"
	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/persistence"
	"github.com/spec-kit/support-desk/internal/realtime"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/service"
	"github.com/spec-kit/support-desk/internal/worker"
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
	ticketRepo := repository.NewTicketRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	escalationRepo := repository.NewEscalationRepository(pool)
	activityRepo := repository.NewActivityLogRepository(pool)
	orgRepo := repository.NewOrganizationRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	var broker realtime.Broker
	if cfg.Realtime.UseRedisBroker {
		broker = realtime.NewRedisBroker(redis.Client, cfg.Realtime.ChannelPrefix, logger)
	} else {
		broker = realtime.NewLocalBroker()
	}
	hub := realtime.NewHub(broker, cfg.Realtime.SubscriberBuffer)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		PasswordResetRepo: resetRepo,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		TeamRepo:     teamRepo,
		UserRepo:     userRepo,
		ActivityRepo: activityRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	statusService := service.NewStatusService(service.StatusDependencies{
		TicketRepo:     ticketRepo,
		EscalationRepo: escalationRepo,
		MessageRepo:    messageRepo,
		ActivityRepo:   activityRepo,
		Hub:            hub,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	messageService := service.NewMessageService(service.MessageDependencies{
		TicketRepo:   ticketRepo,
		MessageRepo:  messageRepo,
		ActivityRepo: activityRepo,
		Hub:          hub,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	adminService := service.NewAdminService(service.AdminDependencies{
		OrganizationRepo: orgRepo,
		TeamRepo:         teamRepo,
		UserRepo:         userRepo,
		EscalationRepo:   escalationRepo,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, statusService, messageService),
		StaffTickets:   handlers.NewStaffTicketsHandler(ticketService, statusService),
		Admin:          handlers.NewAdminHandler(adminService),
		Stream:         handlers.NewStreamHandler(messageService, cfg.Realtime.KeepAlive(), logger),
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

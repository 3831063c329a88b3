package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/escrow-arbitration/internal/config"
	"github.com/ignatzorin/escrow-arbitration/internal/db"
	"github.com/ignatzorin/escrow-arbitration/internal/goroutine"
	httpHandlers "github.com/ignatzorin/escrow-arbitration/internal/http/handlers"
	httpRouter "github.com/ignatzorin/escrow-arbitration/internal/http/router"
	"github.com/ignatzorin/escrow-arbitration/internal/logger"
	"github.com/ignatzorin/escrow-arbitration/internal/oracle"
	"github.com/ignatzorin/escrow-arbitration/internal/repository"
	"github.com/ignatzorin/escrow-arbitration/internal/service"
	"github.com/ignatzorin/escrow-arbitration/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	disputeRepo := repository.NewDisputeRepository(dbConn)
	voteRepo := repository.NewVoteRepository(dbConn)
	escalationRepo := repository.NewEscalationRepository(dbConn)
	overrideRepo := repository.NewOverrideRepository(dbConn)
	timelineRepo := repository.NewTimelineRepository(dbConn)

	// Внешние коллабораторы движка.
	oracleClient := oracle.NewClient(cfg.ModerationBaseURL)
	roleProvider := service.NewUserRoleProvider(userRepo)
	kycProvider := service.NewUserKYCProvider(userRepo)
	arbiterPool := service.NewSeniorityArbiterPool(userRepo)
	blacklist := service.NewUserBlacklistRegistry(userRepo)
	trustUpdater := service.NewUserTrustUpdater(userRepo)
	fundsExecutor := service.NewLoggedFundsExecutor()

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	gate := service.NewAuthorizationGate(roleProvider)
	triageService := service.NewTriageService(oracleClient, oracleClient)
	votingService := service.NewVotingService(voteRepo, cfg.QuorumFraction)
	escalationService := service.NewEscalationService(escalationRepo, arbiterPool, cfg.MaxEscalationLevel)
	overrideService := service.NewOverrideService(overrideRepo, fundsExecutor, blacklist)

	disputeService := service.NewDisputeService(
		disputeRepo,
		timelineRepo,
		gate,
		triageService,
		votingService,
		escalationService,
		overrideService,
		kycProvider,
		trustUpdater,
		arbiterPool,
		cfg.VotingRoundTTL,
	)

	// Живая лента таймлайна.
	hub := ws.NewHub()
	goroutine.SafeGo("ws-hub", hub.Run)
	disputeService.SetNotifier(ws.NewTimelineFeed(hub))

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	disputeHandler := httpHandlers.NewDisputeHandler(disputeService, triageService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	engine := httpRouter.SetupRouter(cfg, authHandler, disputeHandler, wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}

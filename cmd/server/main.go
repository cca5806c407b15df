package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-gin-helpdesk/config"
	"go-gin-helpdesk/internal/cache"
	"go-gin-helpdesk/internal/database"
	"go-gin-helpdesk/internal/handler"
	"go-gin-helpdesk/internal/queue"
	"go-gin-helpdesk/internal/repository"
	"go-gin-helpdesk/internal/service"
	"go-gin-helpdesk/internal/session"
	"go-gin-helpdesk/internal/storage"
	"go-gin-helpdesk/internal/web"
	"go-gin-helpdesk/internal/worker"
	"go-gin-helpdesk/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML config file; environment variables override it")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger.SetDevelopment(cfg.IsDev())
	defer logger.Sync()
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.WithComponent("server").Error("server exited", zap.Error(err))
		stop()
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.WithComponent("server")

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		return fmt.Errorf("initialize redis: %w", err)
	}
	defer rdb.Close()

	attachments, err := storage.New(ctx, &cfg.Storage)
	if err != nil {
		return fmt.Errorf("initialize attachment store: %w", err)
	}

	events, err := newTicketEventQueue(ctx, cfg, rdb)
	if err != nil {
		return fmt.Errorf("initialize ticket event queue: %w", err)
	}

	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	eventRepo := repository.NewTicketEventRepository(pool)

	attempts := cache.NewRedisLoginAttemptLimiter(rdb, cfg.Session.MaxLoginAttempts, cfg.Session.LockoutWindow)
	authService := service.NewAuthService(userRepo, attempts, 0)
	ticketService := service.NewTicketService(ticketRepo, eventRepo, attachments, events)

	if err := worker.NewTicketEventWorker(ticketService, events).Start(ctx); err != nil {
		return fmt.Errorf("start ticket event worker: %w", err)
	}

	secureCookie := !cfg.IsDev()
	router, err := handler.NewRouter(handler.RouterConfig{
		AuthService:   authService,
		TicketService: ticketService,
		Sessions:      session.NewRedisStore(rdb, cfg.Session.TTL),
		Flashes:       web.NewFlashStore(cfg.Session.SecretKey, secureCookie),
		HealthChecks: map[string]handler.HealthCheck{
			"postgres": pool.Ping,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		SecureCookie: secureCookie,
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Server.Env),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("queue", cfg.Queue.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newTicketEventQueue(ctx context.Context, cfg *config.Config, rdb *redis.Client) (queue.TicketEventQueue, error) {
	if cfg.Queue.Driver == config.QueueDriverRedis {
		return queue.NewRedisStreamTicketEventQueue(ctx, rdb, "", nil)
	}
	return queue.NewMemoryTicketEventQueue(cfg.Queue.BufferSize), nil
}

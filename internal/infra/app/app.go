// Package app assembles the service from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/authline/authline/internal/core/port"
	"github.com/authline/authline/internal/infra/config"
	"github.com/authline/authline/internal/infra/database"
	"github.com/authline/authline/internal/infra/kafka"
	"github.com/authline/authline/internal/infra/mail"
	authredis "github.com/authline/authline/internal/infra/redis"
	"github.com/authline/authline/internal/infra/security"
	"github.com/authline/authline/internal/repository/postgres"
	redisrepo "github.com/authline/authline/internal/repository/redis"
	"github.com/authline/authline/internal/transport/http/handlers"
	"github.com/authline/authline/internal/transport/http/middleware"
	"github.com/authline/authline/internal/transport/http/routes"
	"github.com/authline/authline/internal/usecase"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// App owns the assembled components and their shutdown order.
type App struct {
	cfg      *config.AppConfig
	log      *zap.Logger
	server   *http.Server
	pool     *pgxpool.Pool
	redis    *authredis.Client
	producer *kafka.Producer
	sweeper  *usecase.LockoutSweeper
}

// New wires every component from the configuration.
func New(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (*App, error) {
	if err := security.ConfigureArgon2(security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	}); err != nil {
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient, err := authredis.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	sessions, err := security.NewSessionIssuer(cfg.Session.Secret, cfg.App.Name, cfg.Session.TTL)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("build session issuer: %w", err)
	}

	accounts := postgres.NewAccountRepository(pool)
	otps := redisrepo.NewOTPStore(redisClient.Client(), cfg.Redis.OTPPrefix)
	rateLimits := redisrepo.NewRateLimitStore(redisClient.Client(), "", cfg.RateLimit.WindowDuration*2)

	var mailer port.Mailer
	if cfg.SMTP.Host != "" {
		smtpMailer, err := mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, log)
		if err != nil {
			pool.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("build smtp mailer: %w", err)
		}
		mailer = smtpMailer
	} else {
		log.Warn("smtp not configured, verification codes will be logged")
		mailer = mail.NewLogMailer(log)
	}

	var (
		events   port.EventPublisher
		producer *kafka.Producer
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix, cfg.Kafka.Async, log)
		if err != nil {
			pool.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("connect kafka: %w", err)
		}
		events = kafka.NewEventPublisher(producer, cfg.App.Name, cfg.App.Env)
	} else {
		log.Warn("kafka not configured, lifecycle events will be logged")
		events = kafka.NewStubPublisher(log)
	}

	signupSvc := usecase.NewSignupService(accounts, otps, mailer, events, sessions, usecase.OTPPolicy{
		Length: cfg.OTP.Length,
		TTL:    cfg.OTP.TTL,
	}, log)
	authSvc := usecase.NewAuthService(accounts, sessions, events, usecase.LockoutPolicy{
		MaxAttempts:  cfg.Lockout.MaxAttempts,
		LockDuration: cfg.Lockout.Duration,
	}, log)
	userSvc := usecase.NewUserService(accounts, events, log)
	sweeper := usecase.NewLockoutSweeper(accounts, cfg.Lockout.SweepInterval, log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewHTTPMetrics(registry, "authline")

	limiter := middleware.NewRateLimiter(rateLimits, cfg.RateLimit.WindowDuration, cfg.RateLimit.MaxRequests, log)

	engine := routes.New(routes.Deps{
		Auth:           handlers.NewAuthHandler(signupSvc, authSvc, log),
		User:           handlers.NewUserHandler(userSvc, log),
		Health:         handlers.NewHealthHandler(pool, redisClient, cfg.App.Name, Version),
		Sessions:       sessions,
		Limiter:        limiter,
		Metrics:        metrics,
		Registry:       registry,
		AllowedOrigins: cfg.App.AllowedOrigins,
		Log:            log,
	})

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.App.Host, strconv.Itoa(cfg.App.Port)),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &App{
		cfg:      cfg,
		log:      log,
		server:   server,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
		sweeper:  sweeper,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down in order.
func (a *App) Run(ctx context.Context) error {
	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	go a.sweeper.Run(sweepCtx)

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Error("http shutdown", zap.Error(err))
	}

	cancelSweep()

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Error("kafka shutdown", zap.Error(err))
		}
	}
	if err := a.redis.Close(); err != nil {
		a.log.Error("redis shutdown", zap.Error(err))
	}
	a.pool.Close()

	a.log.Info("shutdown complete")
	return nil
}

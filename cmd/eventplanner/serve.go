package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"eventplanner/config"
	"eventplanner/internal/adapters/auth"
	"eventplanner/internal/adapters/authz"
	"eventplanner/internal/adapters/cache"
	"eventplanner/internal/adapters/email"
	"eventplanner/internal/adapters/ical"
	"eventplanner/internal/adapters/weatherapi"
	deliveryhttp "eventplanner/internal/delivery/http"
	"eventplanner/internal/delivery/http/controllers"
	"eventplanner/internal/domain"
	"eventplanner/internal/notify"
	"eventplanner/internal/obs"
	"eventplanner/internal/repository/postgres"
	"eventplanner/internal/services"
)

const shutdownTimeout = 15 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "migrate", Value: true, Usage: "Apply database migrations before serving."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := config.NewLogger(cfg)
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger, c.Bool("migrate"))
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrate bool) error {
	shutdownTracing, err := obs.InitTracer(ctx, obs.TracingConfig{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Version:     "1.0",
		Environment: cfg.Environment,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracer shutdown", "error", err)
		}
	}()

	db, err := postgres.Open(ctx, cfg.DBDriver, cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()
	if migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
	}

	weatherCache, err := newWeatherCache(ctx, cfg)
	if err != nil {
		return err
	}
	provider := weatherapi.NewClient(&http.Client{Timeout: 10 * time.Second}, cfg.WeatherAPIURL, cfg.WeatherAPIKey)
	weather := services.NewWeatherGateway(provider, weatherCache, cfg.WeatherTTL, logger)

	dispatcher, closeDispatcher, err := newDispatcher(cfg, logger)
	if err != nil {
		return err
	}
	defer closeDispatcher()

	eventRepo := postgres.NewEventRepository(db)
	inviteeRepo := postgres.NewInviteeRepository(db)
	reconciler := services.NewInviteeReconciler(eventRepo, inviteeRepo, postgres.NewTxManager(db), dispatcher, logger)
	eventService := services.NewEventService(eventRepo, inviteeRepo, reconciler, weather,
		authz.NewEventPolicy(cfg.AdminIDs...), ical.NewEncoder(), logger, cfg.RequestTimeout)

	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET is empty; tokens are signed with an empty key")
	}
	handler := deliveryhttp.NewRouter(deliveryhttp.RouterConfig{
		Logger:         logger,
		Events:         controllers.NewEventController(logger, eventService),
		Verifier:       auth.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer),
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "notify_backend", cfg.NotifyBackend, "cache_backend", cfg.CacheBackend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

func newWeatherCache(ctx context.Context, cfg *config.Config) (domain.WeatherCache, error) {
	if cfg.CacheBackend == "redis" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return cache.NewRedisStore(client, "eventplanner:"), nil
	}
	return cache.NewMemoryStore(), nil
}

// newDispatcher returns the configured notification dispatcher and a function that
// drains or closes it.
func newDispatcher(cfg *config.Config, logger *slog.Logger) (domain.NotificationDispatcher, func(), error) {
	if cfg.NotifyBackend == "amqp" {
		conn, ch, err := notify.Dial(cfg.RabbitURL, topology(cfg))
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			_ = ch.Close()
			_ = conn.Close()
		}
		return notify.NewAMQPDispatcher(ch, cfg.RabbitExchange, logger), closeFn, nil
	}

	sender, err := newInvitationSender(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	pool := notify.NewPool(sender, notify.PoolConfig{
		Workers:      cfg.NotifyWorkers,
		QueueSize:    cfg.NotifyQueueSize,
		MaxAttempts:  cfg.NotifyMaxAttempts,
		RetryBackoff: cfg.NotifyBackoff,
	}, logger)
	pool.Start()
	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := pool.Shutdown(ctx); err != nil {
			logger.Warn("notification pool did not drain", "error", err)
		}
	}
	return pool, closeFn, nil
}

func newInvitationSender(cfg *config.Config, logger *slog.Logger) (domain.InvitationSender, error) {
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.MailProvider,
		FromAddress: cfg.MailFromAddress,
		FromName:    cfg.MailFromName,
		SES: email.SESConfig{
			Region:             cfg.AWSRegion,
			AccessKeyID:        cfg.AWSAccessKeyID,
			SecretAccessKey:    cfg.AWSSecretAccessKey,
			Endpoint:           cfg.SESEndpoint,
			InsecureSkipVerify: cfg.SESInsecure,
		},
	}, logger)
	if err != nil {
		return nil, err
	}
	return services.NewEmailService(mailer, email.NewTemplateRenderer(), logger), nil
}

func topology(cfg *config.Config) notify.Topology {
	return notify.Topology{
		Exchange:           cfg.RabbitExchange,
		Queue:              cfg.RabbitQueue,
		DeadLetterExchange: cfg.RabbitDLX,
		DeadLetterQueue:    cfg.RabbitDLQ,
		Prefetch:           cfg.RabbitPrefetch,
	}
}

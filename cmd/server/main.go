// @title                       N.Honest Supermarket API
// @version                     1.0
// @description                 Accounts, orders, invoices, mobile-money payments and admin notifications.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/nhonest/supermarket-web/docs"
	"github.com/nhonest/supermarket-web/internal/api"
	"github.com/nhonest/supermarket-web/internal/api/handler"
	"github.com/nhonest/supermarket-web/internal/core/lockout"
	"github.com/nhonest/supermarket-web/internal/core/service"
	mongodb "github.com/nhonest/supermarket-web/internal/infrastructure/db/mongo"
	redisdb "github.com/nhonest/supermarket-web/internal/infrastructure/db/redis"
	"github.com/nhonest/supermarket-web/internal/infrastructure/invoice"
	"github.com/nhonest/supermarket-web/internal/infrastructure/mail"
	"github.com/nhonest/supermarket-web/internal/infrastructure/momo"
	"github.com/nhonest/supermarket-web/internal/infrastructure/queue"
	"github.com/nhonest/supermarket-web/internal/infrastructure/ws"
	"github.com/nhonest/supermarket-web/internal/pkg/config"
	"github.com/nhonest/supermarket-web/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.Init(logger.Options{Pretty: true})
		boot.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "supermarket-web",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "supermarket-web",
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongodb.Disconnect(mongoClient, 5*time.Second); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := mongodb.NewAuthRepository(db)
	orders := mongodb.NewOrderRepository(db)
	payments := mongodb.NewPaymentRepository(db)
	if err := mongodb.EnsureIndexes(ctx, users, orders, payments); err != nil {
		return err
	}

	// --- Auth ---
	guard := lockout.NewGuard(redisdb.NewLockoutStore(rdb),
		lockout.WithMaxAttempts(cfg.Lockout.MaxAttempts),
		lockout.WithDuration(cfg.Lockout.Duration),
		lockout.WithLogger(logger.Component("lockout")),
	)
	authOpts := []service.AuthOption{
		service.WithDenylist(redisdb.NewDenylist(rdb)),
		service.WithLockout(guard),
		service.WithAuthLogger(logger.Component("auth")),
	}
	mailCfg := mail.Config{
		Endpoint:        cfg.Mail.Endpoint,
		ServiceID:       cfg.Mail.ServiceID,
		WelcomeTemplate: cfg.Mail.WelcomeTemplate,
		PublicKey:       cfg.Mail.PublicKey,
		PrivateKey:      cfg.Mail.PrivateKey,
		StoreName:       cfg.Store.Name,
	}
	if mailCfg.Enabled() {
		authOpts = append(authOpts, service.WithMailer(mail.NewEmailJS(mailCfg, nil)))
	} else {
		log.Info().Msg("EmailJS not configured, welcome emails disabled")
	}
	authService := service.NewAuthService(users, cfg.JWTSecret, cfg.TokenTTL, authOpts...)

	// --- Notifications ---
	hub := ws.NewHub(authService, cfg.AllowedOrigins, logger.Component("ws"))
	go hub.Run(ctx)

	// --- Orders and payments ---
	renderer := invoice.NewRenderer(invoice.Store{
		Name:    cfg.Store.Name,
		Address: cfg.Store.Address,
		Phone:   cfg.Store.Phone,
		Email:   cfg.Store.Email,
	})
	orderService := service.NewOrderService(orders, renderer, hub, strings.ToUpper(cfg.Currency), logger.Component("orders"))

	gateway := momo.NewClient(momo.Config{
		BaseURL:           cfg.MoMo.BaseURL,
		SubscriptionKey:   cfg.MoMo.SubscriptionKey,
		APIUser:           cfg.MoMo.APIUser,
		APIKey:            cfg.MoMo.APIKey,
		TargetEnvironment: cfg.MoMo.TargetEnvironment,
		CallbackURL:       cfg.MoMo.CallbackURL,
		RequestsPerSecond: cfg.MoMo.RequestsPerSecond,
		Burst:             cfg.MoMo.Burst,
	}, nil, logger.Component("momo"))
	paymentService := service.NewPaymentService(payments, orders, gateway, hub, logger.Component("payments"))

	dispatcher := queue.NewDispatcher(paymentService, queue.Options{
		Workers:      cfg.Payments.Workers,
		PollInterval: cfg.Payments.PollInterval,
		PollTimeout:  cfg.Payments.PollTimeout,
	}, logger.Component("verify"))
	dispatcher.Start(ctx)
	paymentService.UseQueue(dispatcher)

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Auth:          authService,
		Verifier:      authService,
		Orders:        orderService,
		Payments:      paymentService,
		Publisher:     hub,
		Notifications: hub,
		Checks: map[string]handler.Checker{
			"mongodb": mongodb.Ping(mongoClient),
			"redis":   redisdb.Ping(rdb),
		},
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            logger.Component("http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	return nil
}

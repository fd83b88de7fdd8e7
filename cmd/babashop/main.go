package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"babashop/internal/cache"
	"babashop/internal/config"
	"babashop/internal/events"
	"babashop/internal/http/handlers"
	applog "babashop/internal/log"
	"babashop/internal/mail"
	"babashop/internal/payment"
	"babashop/internal/repos"
	"babashop/internal/storage"
)

func main() {
	cfg := config.Load()
	applog.SetLevel(cfg.LogLevel)
	logger := applog.Logger()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Warn().Err(err).Str("file", cfg.LogFile).Msg("could not open log file")
		} else {
			defer f.Close()
			applog.SetOutput(io.MultiWriter(os.Stdout, f))
			logger = applog.Logger()
		}
	}

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("open database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := repos.Seed(ctx, db, repos.SeedOptions{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		Demo:          cfg.SeedDemo,
	}); err != nil {
		logger.Fatal().Err(err).Msg("seed database")
	}

	// ---------- Externals ----------
	var ext handlers.Externals

	if cfg.StripeSecretKey != "" {
		ext.Gateway = payment.NewStripeGateway(cfg.StripeSecretKey)
	} else {
		logger.Warn().Msg("STRIPE_SECRET_KEY not set, using the in-memory payment gateway")
		ext.Gateway = payment.NewMemoryGateway()
	}

	if cfg.SMTP.Host != "" {
		sender, err := mail.NewSMTPSender(cfg.SMTP)
		if err != nil {
			logger.Fatal().Err(err).Msg("init mail sender")
		}
		ext.Mailer = sender
	} else {
		ext.Mailer = mail.LogSender{}
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, cart cache disabled")
			ext.Cache = cache.Noop{}
		} else {
			ext.Cache = cache.NewRedisCache(rdb)
		}
		cancel()
	}

	store, err := storage.NewLocalStore(cfg.MediaDir)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.MediaDir).Msg("init media store")
	}
	ext.Store = store
	logger.Info().Str("dir", store.Root()).Msg("[static] /media")

	var pub events.Publisher = events.LogPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		pub = events.NewKafkaPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...)
	}
	defer pub.Close()
	poller := events.NewPoller(repos.NewOutboxRepo(db), pub, cfg.OutboxInterval)
	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		poller.Run(ctx)
	}()

	// ---------- HTTP ----------
	deps, err := handlers.NewDeps(db, cfg, ext)
	if err != nil {
		logger.Fatal().Err(err).Msg("wire handlers")
	}
	app := handlers.NewApp(deps)

	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error().Err(err).Msg("http shutdown")
		}
	}()

	logger.Info().Str("port", cfg.Port).Msg("listening")
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Error().Err(err).Msg("http server stopped")
	}
	stop()
	<-pollerDone
}

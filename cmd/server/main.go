// Command server runs the nutrition booking API.
//
// @title           Nutrition Booking API
// @version         1.0
// @description     Guests book nutritionists' services; nutritionists accept or reject the requests.
// @BasePath        /
// @schemes         http https
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	_ "github.com/tbourn/go-nutrition-booking/docs"
	"github.com/tbourn/go-nutrition-booking/internal/config"
	httpapi "github.com/tbourn/go-nutrition-booking/internal/http"
	"github.com/tbourn/go-nutrition-booking/internal/http/handlers"
	"github.com/tbourn/go-nutrition-booking/internal/locale"
	"github.com/tbourn/go-nutrition-booking/internal/notify"
	"github.com/tbourn/go-nutrition-booking/internal/observability"
	"github.com/tbourn/go-nutrition-booking/internal/repo"
	"github.com/tbourn/go-nutrition-booking/internal/sysutil"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)
	appVersion := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, appVersion)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup")
	}

	db, err := repo.Open(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	var (
		notifier notify.Enqueuer = notify.LogEnqueuer{}
		checks   []handlers.Check
		worker   *notify.Worker
		closers  []func() error
	)
	if cfg.Notify.Backend == "asynq" {
		redisOpt := asynq.RedisClientOpt{Addr: cfg.Notify.RedisAddr, Password: cfg.Notify.RedisPassword, DB: cfg.Notify.RedisDB}
		enq := notify.NewAsynqEnqueuer(redisOpt, cfg.Notify.Queue, cfg.Notify.MaxRetry)
		notifier = enq
		closers = append(closers, enq.Close)

		pinger := notify.NewRedisPinger(cfg.Notify.RedisAddr, cfg.Notify.RedisPassword, cfg.Notify.RedisDB)
		checks = append(checks, handlers.Check{Name: "redis", Ping: pinger.Ping})
		closers = append(closers, pinger.Close)

		if cfg.Notify.Worker {
			fallback, _ := locale.Parse(cfg.DefaultLocale)
			worker = notify.NewWorker(redisOpt, cfg.Notify.Queue, cfg.Notify.Concurrency, &notify.Processor{
				DB:            db,
				Mailer:        newMailer(cfg.Mail),
				From:          cfg.Mail.From,
				DefaultLocale: fallback,
			})
			if err := worker.Start(); err != nil {
				log.Fatal().Err(err).Msg("start notification worker")
			}
		}
	}
	log.Info().
		Str("notify_backend", cfg.Notify.Backend).
		Bool("worker", worker != nil).
		Str("mail_backend", cfg.Mail.Backend).
		Msg("notifications configured")

	r := gin.New()
	httpapi.RegisterRoutes(r, db, notifier, cfg, checks...)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", appVersion).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()
	go purgeIdempotency(ctx, db, time.Hour)

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if worker != nil {
		worker.Shutdown()
	}
	for _, c := range closers {
		if err := c(); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func newMailer(cfg config.MailConfig) notify.Mailer {
	if cfg.Backend == "smtp" {
		return notify.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPUser, cfg.SMTPPass)
	}
	return notify.LogMailer{}
}

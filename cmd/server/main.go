package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/experiencias-arroyo/sierra-explora/internal/config"
	"github.com/experiencias-arroyo/sierra-explora/internal/database"
	"github.com/experiencias-arroyo/sierra-explora/internal/eligibility"
	"github.com/experiencias-arroyo/sierra-explora/internal/handler"
	"github.com/experiencias-arroyo/sierra-explora/internal/hub"
	"github.com/experiencias-arroyo/sierra-explora/internal/logging"
	"github.com/experiencias-arroyo/sierra-explora/internal/middleware"
	"github.com/experiencias-arroyo/sierra-explora/internal/queue"
	"github.com/experiencias-arroyo/sierra-explora/internal/repository"
	"github.com/experiencias-arroyo/sierra-explora/internal/router"
	"github.com/experiencias-arroyo/sierra-explora/internal/service"
)

type options struct {
	EnvFile    string `long:"env-file" default:".env" description:"dotenv file loaded before reading the environment"`
	NoConsumer bool   `long:"no-consumer" description:"do not run the reservation event consumer in this process"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			return
		}
		os.Exit(2)
	}
	if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).WithField("file", opts.EnvFile).Fatal("cannot read env file")
	}

	cfg := config.Load()
	logging.Setup(cfg.Env, cfg.LogLevel)
	log := logrus.WithField("service", "sierra-explora")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("cannot connect to database")
	}
	defer db.Close()
	if cfg.DBBootstrap {
		if err := database.EnsureSchema(ctx, db); err != nil {
			log.WithError(err).Fatal("cannot apply schema")
		}
	}

	rdb := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	}

	live := hub.New(log.WithField("component", "hub"))
	publisher := service.NewAMQPPublisher(cfg.RabbitURL)
	defer publisher.Close()
	events := service.NewEvents(publisher, live)

	policy := eligibility.DefaultPolicy().WithLocation(cfg.Location())
	policy.LeadTime = cfg.LeadTime()

	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	bookables := repository.NewBookableRepo(db)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db)), cfg.JWTSecret)
	router.RegisterCatalog(e, handler.NewBookableHandler(bookables, cache), cache, cfg.JWTSecret)
	router.RegisterFavorites(e, handler.NewFavoriteHandler(repository.NewFavoriteRepo(db)), cfg.JWTSecret)
	router.RegisterReservations(e,
		handler.NewReservationHandler(repository.NewReservationRepo(db), bookables, events, policy),
		limiter, cfg.JWTSecret)
	router.RegisterLiveFeed(e, live.ServeWS, cfg.JWTSecret)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return live.Run(gctx) })
	if !opts.NoConsumer {
		consumer := &queue.Consumer{URL: cfg.RabbitURL, LogPath: cfg.EventsLogPath, Log: log.WithField("component", "consumer")}
		g.Go(func() error { return consumer.Run(gctx) })
	}
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.WithField("addr", addr).WithField("env", cfg.Env).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
	log.Info("bye")
}

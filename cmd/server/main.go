package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"delivery-dispatch-service/internal/adapters/cache"
	"delivery-dispatch-service/internal/adapters/events"
	"delivery-dispatch-service/internal/adapters/geocode"
	"delivery-dispatch-service/internal/adapters/notify"
	"delivery-dispatch-service/internal/adapters/repositories"
	"delivery-dispatch-service/internal/api"
	"delivery-dispatch-service/internal/config"
	"delivery-dispatch-service/internal/domain"
	"delivery-dispatch-service/internal/platform/db"
	"delivery-dispatch-service/internal/ports"
	"delivery-dispatch-service/internal/realtime"
	"delivery-dispatch-service/internal/services"
)

// main is the application composition root. It wires concrete adapters
// (Postgres, Redis, ORS, SMS gateway) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load configuration")
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer database.Close()

	if err := repositories.InitSchema(database); err != nil {
		log.WithError(err).Fatal("initialize schema")
	}
	if cfg.SeedPath != "" {
		if err := repositories.SeedFromJSON(database, cfg.SeedPath); err != nil {
			log.WithError(err).Fatal("seed orders")
		}
	}

	routeRepo := repositories.NewPGRouteRepository(database)
	taskRepo := repositories.NewPGTaskRepository(database)

	bus := newBus(ctx, cfg, log)
	geocoder := newGeocoder(cfg, database, log)
	notifier := newNotifier(cfg, log)

	depot := domain.Coordinates{Lat: cfg.DepotLat, Lon: cfg.DepotLon}
	routeSvc := services.NewRouteService(routeRepo, taskRepo, geocoder, bus, depot, log)
	taskSvc := services.NewTaskService(taskRepo, routeRepo, notifier, bus, log)

	hub := realtime.NewHub(log)
	if err := hub.Run(ctx, bus); err != nil {
		log.WithError(err).Fatal("attach realtime hub")
	}
	defer hub.Close()

	router := api.NewRouter(routeSvc, taskSvc, hub.HandleWS, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
	log.Info("server stopped")
}

// newBus connects to Redis when configured, otherwise serves change events
// in-process. Single-instance deployments do not need the broker.
func newBus(ctx context.Context, cfg config.Config, log logrus.FieldLogger) ports.EventBus {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set, using in-process change bus")
		return events.NewMemoryBus()
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.WithError(err).Fatal("connect to redis")
	}
	return events.NewRedisBus(rdb, "", log)
}

// newGeocoder builds the ORS client with its persistent cache, or a fixed
// table for local runs without an API key.
func newGeocoder(cfg config.Config, database *sql.DB, log logrus.FieldLogger) ports.Geocoder {
	if cfg.ORSAPIKey == "" {
		log.Info("ORS_API_KEY not set, using mock geocoder")
		return geocode.NewMockGeocoder(nil)
	}
	geocoder, err := geocode.NewORSGeocoder(cfg.ORSAPIKey, cache.NewPGGeocodeCache(database), log)
	if err != nil {
		log.WithError(err).Fatal("configure geocoder")
	}
	return geocoder
}

func newNotifier(cfg config.Config, log logrus.FieldLogger) ports.Notifier {
	if cfg.SMSGatewayURL == "" {
		log.Info("SMS_GATEWAY_URL not set, logging notifications instead")
		return &notify.LogNotifier{Log: log}
	}
	notifier, err := notify.NewSMSNotifier(cfg.SMSGatewayURL, cfg.SMSToken)
	if err != nil {
		log.WithError(err).Fatal("configure sms gateway")
	}
	return notifier
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	feedcache "github.com/radieske/prediction-market-poc/internal/market-feed/cache"
	httpapi "github.com/radieske/prediction-market-poc/internal/market-feed/http"
	"github.com/radieske/prediction-market-poc/internal/market-feed/repo"
	"github.com/radieske/prediction-market-poc/internal/market-feed/ws"
	"github.com/radieske/prediction-market-poc/internal/market-projector/repository"
	"github.com/radieske/prediction-market-poc/internal/shared/cache"
	"github.com/radieske/prediction-market-poc/internal/shared/config"
	"github.com/radieske/prediction-market-poc/internal/shared/db"
	"github.com/radieske/prediction-market-poc/internal/shared/logger"
	"github.com/radieske/prediction-market-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	// o projector é o dono do schema; criar aqui só evita falhas se o feed subir antes
	if err := db.EnsureSchema(ctx, pg, repository.Schema...); err != nil {
		log.Fatal("postgres schema", zap.Error(err))
	}

	redisClient, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redisClient.Close()

	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "market_feed_cache_lookups_total", Help: "leituras do cache por resultado"}, []string{"result"})
	prometheus.MustRegister(lookups)

	api := &httpapi.API{
		Log:      log,
		ReadRepo: &repo.ReadRepo{DB: pg},
		Cache:    feedcache.New(redisClient, 60*time.Second),
		OnCache:  func(result string) { lookups.WithLabelValues(result).Inc() },
	}

	// WS hub alimentado pelo Pub/Sub do market-projector
	hub := ws.NewHub(log.Named("ws"), func(r *http.Request) bool { return true })
	ws.StartRedisSubscriber(ctx, log, redisClient, cfg.RedisPubSubChannel, hub)

	r := chi.NewRouter()
	r.Mount("/", api.Router())
	r.Get("/ws", hub.HandleWS)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort,
		metrics.Check{Name: "postgres", Fn: pg.PingContext},
		metrics.Check{Name: "redis", Fn: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("market-feed listening", zap.String("addr", srv.Addr), zap.String("channel", cfg.RedisPubSubChannel))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("market-feed stopped with error", zap.Error(err))
	}
	log.Info("market-feed stopped")
}

package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/market-projector/cache"
	"github.com/radieske/prediction-market-poc/internal/market-projector/consumer"
	"github.com/radieske/prediction-market-poc/internal/market-projector/pubsub"
	"github.com/radieske/prediction-market-poc/internal/market-projector/repository"
	sharedcache "github.com/radieske/prediction-market-poc/internal/shared/cache"
	"github.com/radieske/prediction-market-poc/internal/shared/config"
	"github.com/radieske/prediction-market-poc/internal/shared/db"
	"github.com/radieske/prediction-market-poc/internal/shared/kafka"
	"github.com/radieske/prediction-market-poc/internal/shared/logger"
	"github.com/radieske/prediction-market-poc/internal/shared/metrics"
	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Inicializa dependências: Postgres e Redis
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.EnsureSchema(ctx, pg, repository.Schema...); err != nil {
		log.Fatal("postgres schema", zap.Error(err))
	}

	redisClient, err := sharedcache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Consumer group market-projector (commit manual após persistir)
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicMarketEvents, "market-projector")
	defer reader.Close()

	// Métricas Prometheus para monitoramento do processamento
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "market_proj_messages_consumed_total", Help: "mensagens consumidas"})
	persist := prometheus.NewCounter(prometheus.CounterOpts{Name: "market_proj_db_writes_total", Help: "eventos projetados no banco"})
	duplicates := prometheus.NewCounter(prometheus.CounterOpts{Name: "market_proj_duplicates_total", Help: "reentregas ignoradas"})
	invalidated := prometheus.NewCounter(prometheus.CounterOpts{Name: "market_proj_cache_invalidations_total", Help: "invalidações no cache"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "market_proj_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, persist, duplicates, invalidated, errorsBy)

	// Broadcaster para o hub WS do market-feed via Redis Pub/Sub
	broadcaster := pubsub.NewRedisBroadcaster(redisClient)

	proc := &consumer.Processor{
		Log:           log,
		Reader:        reader,
		Repo:          repository.NewPostgresRepo(pg),
		Cache:         cache.NewRedisCache(redisClient),
		OnConsumed:    consumed.Inc,
		OnPersist:     persist.Inc,
		OnDuplicate:   duplicates.Inc,
		OnInvalidated: invalidated.Inc,
		OnError:       func(stage string) { errorsBy.WithLabelValues(stage).Inc() },

		OnAfterPersist: func(env events.Envelope) {
			b, _ := json.Marshal(pubsub.WSUpdate{MarketID: env.MarketID, Seq: env.Seq, Kind: string(env.Kind), Payload: env.Payload})

			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()

			if err := broadcaster.Publish(ctx, cfg.RedisPubSubChannel, b); err != nil {
				log.Warn("ws broadcast publish failed", zap.Error(err))
			}
		},
	}

	// Servidor HTTP para métricas e health check
	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort,
		metrics.Check{Name: "postgres", Fn: pg.PingContext},
		metrics.Check{Name: "redis", Fn: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
	)
	defer metricsSrv.Close()

	log.Info("market-projector started", zap.String("topic", cfg.TopicMarketEvents))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("market-projector stopped")
}

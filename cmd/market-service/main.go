package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/radieske/prediction-market-poc/internal/market-service/engine"
	mhttp "github.com/radieske/prediction-market-poc/internal/market-service/http"
	kpub "github.com/radieske/prediction-market-poc/internal/market-service/producer"
	"github.com/radieske/prediction-market-poc/internal/market-service/token"
	"github.com/radieske/prediction-market-poc/internal/shared/config"
	"github.com/radieske/prediction-market-poc/internal/shared/kafka"
	"github.com/radieske/prediction-market-poc/internal/shared/logger"
	"github.com/radieske/prediction-market-poc/internal/shared/metrics"
	"github.com/radieske/prediction-market-poc/internal/shared/tokenledger"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	settings, err := cfg.Market.Parse()
	if err != nil {
		log.Fatal("invalid market settings", zap.Error(err))
	}
	policy, err := engine.ParseZeroWinnerPolicy(settings.ZeroWinnerPolicy)
	if err != nil {
		log.Fatal("invalid market settings", zap.Error(err))
	}

	// Token-service (HTTP) ou ledger em memória para rodar local
	var (
		tokens      engine.TokenService
		tokenHealth metrics.HealthFunc
	)
	switch cfg.TokenMode {
	case "memory":
		tokens = tokenledger.NewMemory()
		tokenHealth = func(context.Context) error { return nil }
		log.Warn("using in-memory token ledger")
	default:
		cli := token.New(cfg.TokenServiceURL)
		tokens = cli
		tokenHealth = func(ctx context.Context) error {
			_, err := cli.BalanceOf(ctx, settings.BettingToken, settings.Custody)
			return err
		}
	}

	// Kafka writer (topic market_events)
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMarketEvents)
	defer writer.Close()

	publishErrors := prometheus.NewCounter(prometheus.CounterOpts{Name: "market_publish_errors_total", Help: "falhas ao publicar eventos no kafka"})
	prometheus.MustRegister(publishErrors)
	publ := kpub.NewKafkaPublisher(log, writer, cfg.TopicMarketEvents)
	publ.OnError = publishErrors.Inc

	eng, err := engine.New(engine.Config{
		Owner:                settings.Owner,
		Custody:              settings.Custody,
		BettingToken:         settings.BettingToken,
		BetFee:               settings.BetFee,
		ZeroWinnerPolicy:     policy,
		AllowEarlyResolution: settings.AllowEarlyResolution,
		OpenMarketCreation:   settings.OpenMarketCreation,
	}, tokens, log.Named("engine"), publ, metrics.NewEventSink(prometheus.DefaultRegisterer))
	if err != nil {
		log.Fatal("engine init", zap.Error(err))
	}

	// HTTP público
	api := mhttp.NewServer(log, eng)
	apiSrv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// metrics/health
	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, metrics.Check{Name: "token-service", Fn: tokenHealth})

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("market-service listening",
			zap.String("addr", apiSrv.Addr),
			zap.String("owner", settings.Owner.Hex()),
			zap.String("bettingToken", settings.BettingToken.Hex()),
			zap.String("tokenMode", cfg.TokenMode),
		)
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
		return apiSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("market-service stopped with error", zap.Error(err))
	}
	log.Info("market-service stopped")
}

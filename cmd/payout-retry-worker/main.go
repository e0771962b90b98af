package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/payout-retry/client"
	"github.com/radieske/prediction-market-poc/internal/payout-retry/retrier"
	"github.com/radieske/prediction-market-poc/internal/shared/config"
	"github.com/radieske/prediction-market-poc/internal/shared/kafka"
	"github.com/radieske/prediction-market-poc/internal/shared/logger"
	"github.com/radieske/prediction-market-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if !common.IsHexAddress(cfg.RetryCaller) {
		log.Fatal("invalid PAYOUT_RETRY_CALLER", zap.String("value", cfg.RetryCaller))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Consumer group próprio: lê o mesmo market_events que o projector
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicMarketEvents, "payout-retry")
	defer reader.Close()

	dlq := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPayoutDLQ)
	defer dlq.Close()

	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "payout_retry_outcomes_total", Help: "destino dos PayoutFailed"}, []string{"outcome"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "payout_retry_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(outcomes, errorsBy)

	markets := client.New(cfg.MarketServiceURL, common.HexToAddress(cfg.RetryCaller))
	proc := &retrier.Processor{
		Log:       log,
		Reader:    reader,
		Markets:   markets,
		DLQ:       dlq,
		OnOutcome: func(o retrier.Outcome) { outcomes.WithLabelValues(string(o)).Inc() },
		OnError:   func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort)
	defer metricsSrv.Close()

	log.Info("payout-retry-worker started",
		zap.String("consume", cfg.TopicMarketEvents),
		zap.String("dlq", cfg.TopicPayoutDLQ),
		zap.String("marketService", cfg.MarketServiceURL),
	)
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("payout-retry-worker stopped")
}

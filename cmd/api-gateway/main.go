package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/radieske/prediction-market-poc/internal/api-gateway/gateway"
	"github.com/radieske/prediction-market-poc/internal/shared/config"
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

	h, err := gateway.New(log, gateway.Targets{
		Market: cfg.MarketServiceURL,
		Token:  cfg.TokenServiceURL,
		Feed:   cfg.FeedServiceURL,
	})
	if err != nil {
		log.Fatal("gateway init", zap.Error(err))
	}

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("api-gateway listening",
			zap.String("addr", srv.Addr),
			zap.String("market", cfg.MarketServiceURL),
			zap.String("token", cfg.TokenServiceURL),
			zap.String("feed", cfg.FeedServiceURL),
		)
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
		log.Fatal("gateway failed", zap.Error(err))
	}
	log.Info("api-gateway stopped")
}

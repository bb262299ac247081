package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/radieske/ace-putt-platform/internal/feed"
	"github.com/radieske/ace-putt-platform/internal/shared/config"
	"github.com/radieske/ace-putt-platform/internal/shared/logger"
	"github.com/radieske/ace-putt-platform/internal/shared/metrics"
)

// Métricas do provedor simulado
var requestsServed = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "provider_events_requests_total",
	Help: "Total de respostas de GET /v1/events",
})

// provider-simulator faz o papel do provedor externo de dados esportivos:
// serve GET /v1/events com partidas e torneios que evoluem no tempo.
func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, logger.WithLevel(cfg.LogLevel))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prometheus.MustRegister(requestsServed)

	catalog := feed.NewCatalog()
	now := time.Now()
	loaded, _ := catalog.Seed(feed.FixtureMatches(now), feed.FixtureTournaments(now))
	sim := feed.NewSimulator(catalog, cfg.FeedInterval, log)

	publicSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           feed.ProviderHandler(catalog, requestsServed.Inc),
		ReadHeaderTimeout: 5 * time.Second,
	}
	metricsSrv := metrics.NewMetricsServer(cfg.MetricsPort, prometheus.DefaultGatherer, nil)

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range []*http.Server{publicSrv, metricsSrv} {
		srv := srv
		g.Go(func() error {
			log.Info("provider simulator running", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error { return sim.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return errors.Join(publicSrv.Shutdown(shCtx), metricsSrv.Shutdown(shCtx))
	})

	log.Info("provider simulator started", zap.Int("events", loaded), zap.String("paths", "/v1/events"))
	if err := g.Wait(); err != nil {
		log.Error("provider simulator stopped with error", zap.Error(err))
	}
}

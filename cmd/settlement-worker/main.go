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

	"github.com/radieske/ace-putt-platform/internal/ledger"
	"github.com/radieske/ace-putt-platform/internal/producer"
	"github.com/radieske/ace-putt-platform/internal/settlement"
	"github.com/radieske/ace-putt-platform/internal/shared/config"
	"github.com/radieske/ace-putt-platform/internal/shared/kafka"
	"github.com/radieske/ace-putt-platform/internal/shared/logger"
	"github.com/radieske/ace-putt-platform/internal/shared/metrics"
	"github.com/radieske/ace-putt-platform/internal/shared/storage"
)

// settlement-worker consome event_finished e liquida as apostas pendentes no
// armazenamento durável. Pode rodar junto da API: a liquidação é condicional
// (pending -> won|lost), então só um dos dois credita cada aposta.
func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, logger.WithLevel(cfg.LogLevel))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.KafkaBrokers == "" {
		log.Fatal("KAFKA_BROKERS is required for the settlement worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	col := metrics.NewCollectors(prometheus.DefaultRegisterer)
	st := storage.Open(ctx, cfg, col, log)
	defer st.Close()
	if st.Driver == config.DriverMemory {
		log.Warn("settlement worker running without durable store, only its own memory is settled")
	}

	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicEventFinished, cfg.SettlementGroup)
	defer reader.Close()

	// bet_settled segue para o Kafka como na API
	pub := producer.NewKafkaPublisher(kafka.NewWriter(cfg.KafkaBrokers), producer.Topics{
		BetPlaced:     cfg.TopicBetPlaced,
		BetSettled:    cfg.TopicBetSettled,
		BetCancelled:  cfg.TopicBetCancelled,
		EventFinished: cfg.TopicEventFinished,
	})
	defer pub.Close()

	book := settlement.NewOutcomeBook()
	svc := ledger.NewService(st.Accounts, st.Bets, book, pub, col, log)
	settler := ledger.NewAutoSettler(svc, book, cfg.SettleSweepInterval, log)
	worker := settlement.NewWorker(settlement.KafkaSource{Reader: reader}, book, settler, log)

	metricsSrv := metrics.NewMetricsServer(cfg.MetricsPort, prometheus.DefaultGatherer, st.Health)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("metrics/health", zap.String("addr", metricsSrv.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return worker.Run(gctx) })
	g.Go(func() error { return settler.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsSrv.Shutdown(shCtx)
	})

	log.Info("settlement-worker started",
		zap.String("consume", cfg.TopicEventFinished),
		zap.String("group", cfg.SettlementGroup),
		zap.String("store", st.Driver),
	)
	if err := g.Wait(); err != nil {
		log.Error("settlement worker stopped with error", zap.Error(err))
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httpapi "github.com/radieske/ace-putt-platform/internal/api/http"
	"github.com/radieske/ace-putt-platform/internal/auth"
	"github.com/radieske/ace-putt-platform/internal/feed"
	"github.com/radieske/ace-putt-platform/internal/ledger"
	"github.com/radieske/ace-putt-platform/internal/producer"
	"github.com/radieske/ace-putt-platform/internal/shared/cache"
	"github.com/radieske/ace-putt-platform/internal/shared/config"
	skafka "github.com/radieske/ace-putt-platform/internal/shared/kafka"
	"github.com/radieske/ace-putt-platform/internal/shared/logger"
	"github.com/radieske/ace-putt-platform/internal/shared/metrics"
	"github.com/radieske/ace-putt-platform/internal/shared/storage"
	"github.com/radieske/ace-putt-platform/internal/ws"
	"github.com/radieske/ace-putt-platform/pkg/contracts/events"
)

// publisher é o Kafka (ou noop) visto pelo main.
type publisher interface {
	ledger.Notifier
	PublishEventFinished(ctx context.Context, e events.EventFinished) error
	Close() error
}

const liveSnapshotTTL = 10 * time.Minute

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, logger.WithLevel(cfg.LogLevel))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	col := metrics.NewCollectors(prometheus.DefaultRegisterer)

	// Armazenamento: durável + fallback em memória
	st := storage.Open(ctx, cfg, col, log)
	defer st.Close()
	if cfg.SeedDemoUsers {
		if _, err := auth.SeedDemoUsers(ctx, st.MemoryAccounts, cfg.StartingPoints, log); err != nil {
			log.Error("seed demo users", zap.Error(err))
		}
	}

	// Catálogo de eventos: armazenamento, senão provedor externo ou fixtures.
	// Depois do Attach toda mudança volta para o armazenamento.
	catalog := feed.NewCatalog()
	persist := feed.NewPersister(st.Events, log)
	restored, err := persist.Restore(ctx, catalog)
	if err != nil {
		log.Warn("restore events failed", zap.Error(err))
	}
	persist.Attach(catalog)
	if restored == 0 {
		if ev := feed.NewProviderClient(cfg.ProviderURL, log).Fetch(ctx); ev != nil {
			loaded, skipped := catalog.Seed(ev.Matches, ev.Tournaments)
			log.Info("events loaded from provider", zap.Int("loaded", loaded), zap.Int("skipped", skipped))
		} else {
			now := time.Now()
			loaded, skipped := catalog.Seed(feed.FixtureMatches(now), feed.FixtureTournaments(now))
			log.Info("events loaded from fixtures", zap.Int("loaded", loaded), zap.Int("skipped", skipped))
		}
	}

	// Notificações Kafka (opcional)
	var pub publisher = producer.Noop{}
	if cfg.KafkaBrokers != "" {
		pub = producer.NewKafkaPublisher(skafka.NewWriter(cfg.KafkaBrokers), producer.Topics{
			BetPlaced:     cfg.TopicBetPlaced,
			BetSettled:    cfg.TopicBetSettled,
			BetCancelled:  cfg.TopicBetCancelled,
			EventFinished: cfg.TopicEventFinished,
		})
		log.Info("kafka notifications enabled", zap.String("brokers", cfg.KafkaBrokers))
	}
	defer pub.Close()

	svc := ledger.NewService(st.Accounts, st.Bets, catalog, pub, col, log)
	settler := ledger.NewAutoSettler(svc, catalog, cfg.SettleSweepInterval, log)
	authSvc := auth.NewService(st.Accounts, auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL), cfg.StartingPoints, log)

	g, gctx := errgroup.WithContext(ctx)

	// Atualizações ao vivo: Redis Pub/Sub quando configurado, senão direto no hub
	var liveCache *feed.RedisCache
	snapshot := func(ctx context.Context, eventID string) ([]byte, bool) {
		if liveCache != nil {
			if b, ok, err := liveCache.Get(ctx, eventID); err == nil && ok {
				return b, true
			}
		}
		return catalog.SnapshotMessage(eventID)
	}
	hub := ws.NewHub(originChecker(cfg.CORSOrigins), snapshot, col, log)

	if rdb := connectRedis(ctx, cfg, log); rdb != nil {
		defer rdb.Close()
		liveCache = feed.NewRedisCache(rdb, liveSnapshotTTL)
		catalog.Subscribe(feed.NewRedisBroadcaster(rdb, cfg.RedisPubSubChannel, liveCache, log).Listener())
		g.Go(func() error { return ws.RunRedisSubscriber(gctx, rdb, cfg.RedisPubSubChannel, hub, log) })
	} else {
		catalog.Subscribe(feed.LocalBroadcaster(hub, log))
	}

	// Evento encerrado: liquida as apostas e avisa o Kafka
	catalog.Subscribe(func(u feed.Update) {
		if !u.Finished() {
			return
		}
		settler.Notify(u.Ref)
		go publishFinished(pub, u, log)
	})

	sim := feed.NewSimulator(catalog, cfg.FeedInterval, log, feed.WithRecorder(col))

	api := &httpapi.API{
		Ledger:      svc,
		Auth:        authSvc,
		Catalog:     catalog,
		Rankings:    st.Rankings,
		WS:          hub.HandleWS,
		CORSOrigins: corsOrigins(cfg.CORSOrigins),
		Log:         log,
	}
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	metricsSrv := metrics.NewMetricsServer(cfg.MetricsPort, prometheus.DefaultGatherer, st.Health)

	g.Go(func() error { return serve(apiSrv, "api", log) })
	g.Go(func() error { return serve(metricsSrv, "metrics/health", log) })
	g.Go(func() error { return sim.Run(gctx) })
	g.Go(func() error { return settler.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return errors.Join(apiSrv.Shutdown(shCtx), metricsSrv.Shutdown(shCtx))
	})

	log.Info("ace-putt api started",
		zap.String("store", st.Driver),
		zap.Duration("feedInterval", cfg.FeedInterval),
	)
	if err := g.Wait(); err != nil {
		log.Error("api stopped with error", zap.Error(err))
	}
}

func serve(srv *http.Server, name string, log *zap.Logger) error {
	log.Info(name+" listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// connectRedis devolve nil quando Redis não está configurado ou não responde.
func connectRedis(ctx context.Context, cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Warn("redis unavailable, live updates stay in-process", zap.Error(err))
		return nil
	}
	log.Info("redis live updates enabled", zap.String("addr", cfg.RedisAddr))
	return rdb
}

func publishFinished(pub publisher, u feed.Update, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := pub.PublishEventFinished(ctx, events.EventFinished{
		EventType:  string(u.Ref.Type),
		EventID:    u.Ref.ID,
		Winner:     u.Outcome.Winner,
		WinnerName: u.WinnerName(),
		FinishedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Warn("publish event_finished failed", zap.String("eventId", u.Ref.ID), zap.Error(err))
	}
}

// corsOrigins trata "*" como qualquer origem.
func corsOrigins(origins []string) []string {
	if slices.Contains(origins, "*") {
		return nil
	}
	return origins
}

func originChecker(origins []string) func(r *http.Request) bool {
	allowed := corsOrigins(origins)
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return len(allowed) == 0 || origin == "" || slices.Contains(allowed, origin)
	}
}

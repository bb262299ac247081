// Package storage abre o backend durável escolhido por STORE_DRIVER e o
// compõe com o fallback em memória.
package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/ace-putt-platform/internal/feed"
	"github.com/radieske/ace-putt-platform/internal/shared/config"
	"github.com/radieske/ace-putt-platform/internal/shared/db"
	"github.com/radieske/ace-putt-platform/internal/store"
	smongo "github.com/radieske/ace-putt-platform/internal/store/mongo"
	"github.com/radieske/ace-putt-platform/internal/store/postgres"
)

// Stores são os seletores prontos para o ledger, a autenticação e o catálogo.
type Stores struct {
	Accounts *store.FallbackAccounts
	Bets     *store.FallbackBets
	Rankings *store.FallbackRankings
	Events   *store.FallbackEvents

	// MemoryAccounts recebe as contas de demonstração.
	MemoryAccounts *store.MemoryAccounts

	// Driver efetivo: o configurado, ou memory se a conexão falhou.
	Driver string
	Health func(ctx context.Context) error
	Close  func()
}

// durable agrupa os repositórios do backend configurado (todos nil em memory).
type durable struct {
	accounts store.AccountRepository
	bets     store.BetRepository
	rankings store.RankingRepository
	events   store.EventRepository
}

// Open nunca falha por indisponibilidade do banco: sem conexão o serviço
// sobe só com a memória e registra o motivo.
func Open(ctx context.Context, cfg config.Config, obs store.Observer, log *zap.Logger) *Stores {
	s := &Stores{
		MemoryAccounts: store.NewMemoryAccounts(),
		Driver:         config.DriverMemory,
		Health:         func(context.Context) error { return nil },
		Close:          func() {},
	}

	d, err := s.openDurable(ctx, cfg)
	if err != nil {
		log.Warn("durable store unavailable, running memory-only",
			zap.String("driver", cfg.StoreDriver), zap.Error(err))
		d = durable{}
	}
	if d.accounts != nil {
		log.Info("durable store connected", zap.String("driver", s.Driver))
	}

	s.Accounts = store.NewFallbackAccounts(d.accounts, s.MemoryAccounts, log, obs)
	s.Bets = store.NewFallbackBets(d.bets, store.NewMemoryBets(), log, obs)
	s.Rankings = store.NewFallbackRankings(d.rankings,
		store.NewMemoryRankings(feed.FixtureRankings(time.Now().UTC())...), log, obs)
	s.Events = store.NewFallbackEvents(d.events, store.NewMemoryEvents(), log, obs)
	return s
}

func (s *Stores) openDurable(ctx context.Context, cfg config.Config) (durable, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return durable{}, nil
	case config.DriverPostgres:
		pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return durable{}, err
		}
		if err := postgres.EnsureSchema(ctx, pg); err != nil {
			_ = pg.Close()
			return durable{}, err
		}
		s.Driver = config.DriverPostgres
		s.Health = pg.PingContext
		s.Close = func() { _ = pg.Close() }
		return durable{
			accounts: postgres.NewAccounts(pg),
			bets:     postgres.NewBets(pg),
			rankings: postgres.NewRankings(pg),
			events:   postgres.NewEvents(pg),
		}, nil
	case config.DriverMongo:
		client, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return durable{}, err
		}
		mdb := client.Database(cfg.MongoDB)
		if err := smongo.EnsureIndexes(ctx, mdb); err != nil {
			_ = client.Disconnect(context.Background())
			return durable{}, err
		}
		s.Driver = config.DriverMongo
		s.Health = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		s.Close = func() { _ = client.Disconnect(context.Background()) }
		return durable{
			accounts: smongo.NewAccounts(mdb),
			bets:     smongo.NewBets(mdb),
			rankings: smongo.NewRankings(mdb),
			events:   smongo.NewEvents(mdb),
		}, nil
	}
	return durable{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

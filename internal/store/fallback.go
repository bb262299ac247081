package store

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/radieske/ace-putt-platform/internal/domain"
)

// selector aplica a política durável-primeiro com fallback em memória.
type selector struct {
	entity  string
	durable bool
	log     *zap.Logger
	obs     Observer
}

// run executa op no durável; em erro de infra, not-found ou resultado vazio, usa a memória.
// Erros de domínio do durável são devolvidos como estão.
func run[T any](s selector, op string, durable, memory func() (T, error), empty func(T) bool) (T, Backend, error) {
	if s.durable {
		v, err := durable()
		switch {
		case err == nil && (empty == nil || !empty(v)):
			s.obs.Served(s.entity, op, BackendDurable)
			return v, BackendDurable, nil
		case err != nil && domain.IsDomain(err):
			s.obs.Served(s.entity, op, BackendDurable)
			return v, BackendDurable, err
		case err == nil:
			s.obs.FellBack(s.entity, op, "empty")
		case errors.Is(err, domain.ErrNotFound):
			s.obs.FellBack(s.entity, op, "not_found")
		default:
			s.obs.FellBack(s.entity, op, "error")
			s.log.Warn("durable store unavailable, using memory fallback",
				zap.String("entity", s.entity),
				zap.String("op", op),
				zap.Error(err),
			)
		}
	}
	v, err := memory()
	s.obs.Served(s.entity, op, BackendMemory)
	return v, BackendMemory, err
}

// FallbackAccounts compõe um repositório durável (opcional) com o de memória.
type FallbackAccounts struct {
	sel     selector
	durable AccountRepository
	memory  AccountRepository
}

// NewFallbackAccounts cria o seletor. durable pode ser nil (somente memória).
func NewFallbackAccounts(durable, memory AccountRepository, log *zap.Logger, obs Observer) *FallbackAccounts {
	if obs == nil {
		obs = nopObserver{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FallbackAccounts{
		sel:     selector{entity: "account", durable: durable != nil, log: log, obs: obs},
		durable: durable,
		memory:  memory,
	}
}

func (f *FallbackAccounts) Create(ctx context.Context, a *domain.Account) (Backend, error) {
	// contas só em memória (admin de demonstração, cadastros durante queda) também reservam login
	if f.sel.durable {
		for _, login := range []string{a.Email, a.Username} {
			if login == "" {
				continue
			}
			if _, err := f.memory.FindByLogin(ctx, login); err == nil {
				f.sel.obs.Served(f.sel.entity, "create", BackendMemory)
				return BackendMemory, domain.ErrDuplicate
			}
		}
	}
	_, b, err := run(f.sel, "create",
		func() (struct{}, error) {
			// cópia: o durável pode preencher campos antes de falhar
			c := *a
			if err := f.durable.Create(ctx, &c); err != nil {
				return struct{}{}, err
			}
			*a = c
			return struct{}{}, nil
		},
		func() (struct{}, error) { return struct{}{}, f.memory.Create(ctx, a) },
		nil)
	return b, err
}

func (f *FallbackAccounts) Get(ctx context.Context, id string) (*domain.Account, Backend, error) {
	return run(f.sel, "get",
		func() (*domain.Account, error) { return f.durable.Get(ctx, id) },
		func() (*domain.Account, error) { return f.memory.Get(ctx, id) },
		nil)
}

func (f *FallbackAccounts) FindByLogin(ctx context.Context, login string) (*domain.Account, Backend, error) {
	return run(f.sel, "find_by_login",
		func() (*domain.Account, error) { return f.durable.FindByLogin(ctx, login) },
		func() (*domain.Account, error) { return f.memory.FindByLogin(ctx, login) },
		nil)
}

func (f *FallbackAccounts) List(ctx context.Context, filter AccountFilter) ([]domain.Account, Backend, error) {
	return run(f.sel, "list",
		func() ([]domain.Account, error) { return f.durable.List(ctx, filter) },
		func() ([]domain.Account, error) { return f.memory.List(ctx, filter) },
		func(v []domain.Account) bool { return len(v) == 0 })
}

func (f *FallbackAccounts) AdjustBalance(ctx context.Context, id string, delta int64) (int64, Backend, error) {
	return run(f.sel, "adjust_balance",
		func() (int64, error) { return f.durable.AdjustBalance(ctx, id, delta) },
		func() (int64, error) { return f.memory.AdjustBalance(ctx, id, delta) },
		nil)
}

func (f *FallbackAccounts) SetBalance(ctx context.Context, id string, points int64) (*domain.Account, Backend, error) {
	return run(f.sel, "set_balance",
		func() (*domain.Account, error) { return f.durable.SetBalance(ctx, id, points) },
		func() (*domain.Account, error) { return f.memory.SetBalance(ctx, id, points) },
		nil)
}

// FallbackBets compõe o ledger durável (opcional) com o de memória.
type FallbackBets struct {
	sel     selector
	durable BetRepository
	memory  BetRepository
}

func NewFallbackBets(durable, memory BetRepository, log *zap.Logger, obs Observer) *FallbackBets {
	if obs == nil {
		obs = nopObserver{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FallbackBets{
		sel:     selector{entity: "bet", durable: durable != nil, log: log, obs: obs},
		durable: durable,
		memory:  memory,
	}
}

func (f *FallbackBets) Create(ctx context.Context, b *domain.Bet) (Backend, error) {
	_, backend, err := run(f.sel, "create",
		func() (struct{}, error) {
			c := *b
			if err := f.durable.Create(ctx, &c); err != nil {
				return struct{}{}, err
			}
			*b = c
			return struct{}{}, nil
		},
		func() (struct{}, error) { return struct{}{}, f.memory.Create(ctx, b) },
		nil)
	return backend, err
}

func (f *FallbackBets) Get(ctx context.Context, id string) (*domain.Bet, Backend, error) {
	return run(f.sel, "get",
		func() (*domain.Bet, error) { return f.durable.Get(ctx, id) },
		func() (*domain.Bet, error) { return f.memory.Get(ctx, id) },
		nil)
}

func (f *FallbackBets) List(ctx context.Context, filter domain.BetFilter) ([]domain.Bet, Backend, error) {
	return run(f.sel, "list",
		func() ([]domain.Bet, error) { return f.durable.List(ctx, filter) },
		func() ([]domain.Bet, error) { return f.memory.List(ctx, filter) },
		func(v []domain.Bet) bool { return len(v) == 0 })
}

// ListAll junta durável e memória (deduplicado por id). Usado pela liquidação
// automática: apostas criadas durante uma queda do durável ficam só na memória.
func (f *FallbackBets) ListAll(ctx context.Context, filter domain.BetFilter) ([]domain.Bet, error) {
	var out []domain.Bet
	seen := map[string]bool{}
	if f.sel.durable {
		bets, err := f.durable.List(ctx, filter)
		if err != nil {
			f.sel.obs.FellBack(f.sel.entity, "list_all", "error")
			f.sel.log.Warn("durable store unavailable, sweeping memory only",
				zap.String("entity", f.sel.entity),
				zap.Error(err),
			)
		}
		for _, b := range bets {
			seen[b.ID] = true
			out = append(out, b)
		}
	}
	bets, err := f.memory.List(ctx, filter)
	if err != nil {
		return out, err
	}
	for _, b := range bets {
		if !seen[b.ID] {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *FallbackBets) Resolve(ctx context.Context, id string, status domain.BetStatus) (*domain.Bet, Backend, error) {
	return run(f.sel, "resolve",
		func() (*domain.Bet, error) { return f.durable.Resolve(ctx, id, status) },
		func() (*domain.Bet, error) { return f.memory.Resolve(ctx, id, status) },
		nil)
}

func (f *FallbackBets) UpdateStake(ctx context.Context, id string, from, to int64) (*domain.Bet, Backend, error) {
	return run(f.sel, "update_stake",
		func() (*domain.Bet, error) { return f.durable.UpdateStake(ctx, id, from, to) },
		func() (*domain.Bet, error) { return f.memory.UpdateStake(ctx, id, from, to) },
		nil)
}

func (f *FallbackBets) DeletePending(ctx context.Context, id string) (*domain.Bet, Backend, error) {
	return run(f.sel, "delete",
		func() (*domain.Bet, error) { return f.durable.DeletePending(ctx, id) },
		func() (*domain.Bet, error) { return f.memory.DeletePending(ctx, id) },
		nil)
}

// FallbackRankings compõe o repositório durável de rankings com o de memória
// (que já nasce com as fixtures). Ranking durável vazio cai para a memória.
type FallbackRankings struct {
	sel     selector
	durable RankingRepository
	memory  RankingRepository
}

func NewFallbackRankings(durable, memory RankingRepository, log *zap.Logger, obs Observer) *FallbackRankings {
	if obs == nil {
		obs = nopObserver{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FallbackRankings{
		sel:     selector{entity: "ranking", durable: durable != nil, log: log, obs: obs},
		durable: durable,
		memory:  memory,
	}
}

func (f *FallbackRankings) List(ctx context.Context) ([]domain.Ranking, Backend, error) {
	return run(f.sel, "list",
		func() ([]domain.Ranking, error) { return f.durable.List(ctx) },
		func() ([]domain.Ranking, error) { return f.memory.List(ctx) },
		func(v []domain.Ranking) bool { return len(v) == 0 })
}

func (f *FallbackRankings) Get(ctx context.Context, t domain.RankingType) (*domain.Ranking, Backend, error) {
	return run(f.sel, "get",
		func() (*domain.Ranking, error) { return f.durable.Get(ctx, t) },
		func() (*domain.Ranking, error) { return f.memory.Get(ctx, t) },
		func(r *domain.Ranking) bool { return r == nil || len(r.Players) == 0 })
}

func (f *FallbackRankings) Replace(ctx context.Context, r *domain.Ranking) (Backend, error) {
	_, b, err := run(f.sel, "replace",
		func() (struct{}, error) { return struct{}{}, f.durable.Replace(ctx, r) },
		func() (struct{}, error) { return struct{}{}, f.memory.Replace(ctx, r) },
		nil)
	return b, err
}

// FallbackEvents compõe o repositório durável do catálogo com o de memória.
type FallbackEvents struct {
	sel     selector
	durable EventRepository
	memory  EventRepository
}

func NewFallbackEvents(durable, memory EventRepository, log *zap.Logger, obs Observer) *FallbackEvents {
	if obs == nil {
		obs = nopObserver{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FallbackEvents{
		sel:     selector{entity: "event", durable: durable != nil, log: log, obs: obs},
		durable: durable,
		memory:  memory,
	}
}

func (f *FallbackEvents) SaveMatch(ctx context.Context, m *domain.Match) (Backend, error) {
	_, b, err := run(f.sel, "save_match",
		func() (struct{}, error) { return struct{}{}, f.durable.SaveMatch(ctx, m) },
		func() (struct{}, error) { return struct{}{}, f.memory.SaveMatch(ctx, m) },
		nil)
	return b, err
}

func (f *FallbackEvents) SaveTournament(ctx context.Context, t *domain.Tournament) (Backend, error) {
	_, b, err := run(f.sel, "save_tournament",
		func() (struct{}, error) { return struct{}{}, f.durable.SaveTournament(ctx, t) },
		func() (struct{}, error) { return struct{}{}, f.memory.SaveTournament(ctx, t) },
		nil)
	return b, err
}

func (f *FallbackEvents) DeleteMatch(ctx context.Context, id string) (Backend, error) {
	_, b, err := run(f.sel, "delete_match",
		func() (struct{}, error) { return struct{}{}, f.durable.DeleteMatch(ctx, id) },
		func() (struct{}, error) { return struct{}{}, f.memory.DeleteMatch(ctx, id) },
		nil)
	return b, err
}

func (f *FallbackEvents) DeleteTournament(ctx context.Context, id string) (Backend, error) {
	_, b, err := run(f.sel, "delete_tournament",
		func() (struct{}, error) { return struct{}{}, f.durable.DeleteTournament(ctx, id) },
		func() (struct{}, error) { return struct{}{}, f.memory.DeleteTournament(ctx, id) },
		nil)
	return b, err
}

func (f *FallbackEvents) Matches(ctx context.Context) ([]domain.Match, Backend, error) {
	return run(f.sel, "list_matches",
		func() ([]domain.Match, error) { return f.durable.Matches(ctx) },
		func() ([]domain.Match, error) { return f.memory.Matches(ctx) },
		func(v []domain.Match) bool { return len(v) == 0 })
}

func (f *FallbackEvents) Tournaments(ctx context.Context) ([]domain.Tournament, Backend, error) {
	return run(f.sel, "list_tournaments",
		func() ([]domain.Tournament, error) { return f.durable.Tournaments(ctx) },
		func() ([]domain.Tournament, error) { return f.memory.Tournaments(ctx) },
		func(v []domain.Tournament) bool { return len(v) == 0 })
}

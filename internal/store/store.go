package store

import (
	"context"

	"github.com/radieske/ace-putt-platform/internal/domain"
)

// Backend identifica qual armazenamento atendeu a operação.
type Backend string

const (
	BackendDurable Backend = "durable"
	BackendMemory  Backend = "memory"
)

// AccountFilter controla listagens de contas.
type AccountFilter struct {
	Limit        int  // 0 = sem limite
	SortByPoints bool // true = pontos desc, senão createdAt desc
}

// AccountRepository define a persistência de contas.
// AdjustBalance deve ser atômico no backend: nunca deixa saldo negativo.
type AccountRepository interface {
	Create(ctx context.Context, a *domain.Account) error
	Get(ctx context.Context, id string) (*domain.Account, error)
	FindByLogin(ctx context.Context, login string) (*domain.Account, error)
	List(ctx context.Context, f AccountFilter) ([]domain.Account, error)
	AdjustBalance(ctx context.Context, id string, delta int64) (int64, error)
	SetBalance(ctx context.Context, id string, points int64) (*domain.Account, error)
}

// BetRepository define a persistência do ledger de apostas.
// Resolve, UpdateStake e DeletePending só agem sobre apostas pending (update condicional).
// UpdateStake exige também que o stake gravado ainda seja from; senão devolve ErrConflict.
type BetRepository interface {
	Create(ctx context.Context, b *domain.Bet) error
	Get(ctx context.Context, id string) (*domain.Bet, error)
	List(ctx context.Context, f domain.BetFilter) ([]domain.Bet, error)
	Resolve(ctx context.Context, id string, status domain.BetStatus) (*domain.Bet, error)
	UpdateStake(ctx context.Context, id string, from, to int64) (*domain.Bet, error)
	DeletePending(ctx context.Context, id string) (*domain.Bet, error)
}

// RankingRepository guarda um ranking por tipo; Replace troca a lista inteira.
type RankingRepository interface {
	List(ctx context.Context) ([]domain.Ranking, error)
	Get(ctx context.Context, t domain.RankingType) (*domain.Ranking, error)
	Replace(ctx context.Context, r *domain.Ranking) error
}

// EventRepository persiste o catálogo de partidas e torneios.
// Save* é upsert pelo id do evento.
type EventRepository interface {
	SaveMatch(ctx context.Context, m *domain.Match) error
	SaveTournament(ctx context.Context, t *domain.Tournament) error
	DeleteMatch(ctx context.Context, id string) error
	DeleteTournament(ctx context.Context, id string) error
	Matches(ctx context.Context) ([]domain.Match, error)
	Tournaments(ctx context.Context) ([]domain.Tournament, error)
}

// Observer recebe callbacks de métricas do seletor de armazenamento.
type Observer interface {
	Served(entity, op string, b Backend)
	FellBack(entity, op, reason string)
}

type nopObserver struct{}

func (nopObserver) Served(string, string, Backend)  {}
func (nopObserver) FellBack(string, string, string) {}

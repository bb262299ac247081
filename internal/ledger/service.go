// Package ledger concentra as regras de pontos: débito na aposta, liquidação
// exatamente-uma-vez, alteração de stake e cancelamento com estorno.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/ace-putt-platform/internal/domain"
	"github.com/radieske/ace-putt-platform/internal/store"
	"github.com/radieske/ace-putt-platform/pkg/contracts/events"
)

// EventSource é o provedor de resultado de eventos (catálogo alimentado pelo
// simulador, ou um feed real). ErrNotFound para eventos desconhecidos.
type EventSource interface {
	Outcome(ctx context.Context, ref domain.EventRef) (domain.Outcome, error)
}

// Accounts é o subconjunto do seletor de contas usado pelo ledger.
type Accounts interface {
	Get(ctx context.Context, id string) (*domain.Account, store.Backend, error)
	AdjustBalance(ctx context.Context, id string, delta int64) (int64, store.Backend, error)
}

// Bets é o subconjunto do seletor de apostas usado pelo ledger.
type Bets interface {
	Create(ctx context.Context, b *domain.Bet) (store.Backend, error)
	Get(ctx context.Context, id string) (*domain.Bet, store.Backend, error)
	List(ctx context.Context, f domain.BetFilter) ([]domain.Bet, store.Backend, error)
	ListAll(ctx context.Context, f domain.BetFilter) ([]domain.Bet, error)
	Resolve(ctx context.Context, id string, status domain.BetStatus) (*domain.Bet, store.Backend, error)
	UpdateStake(ctx context.Context, id string, from, to int64) (*domain.Bet, store.Backend, error)
	DeletePending(ctx context.Context, id string) (*domain.Bet, store.Backend, error)
}

// Notifier publica notificações de apostas (Kafka ou noop).
type Notifier interface {
	PublishBetPlaced(ctx context.Context, e events.BetPlaced) error
	PublishBetSettled(ctx context.Context, e events.BetSettled) error
	PublishBetCancelled(ctx context.Context, e events.BetCancelled) error
}

// Recorder recebe contadores de negócio (prometheus no main).
type Recorder interface {
	BetPlaced(t domain.EventType)
	BetSettled(status domain.BetStatus, credited int64)
}

type Service struct {
	accounts Accounts
	bets     Bets
	events   EventSource
	notify   Notifier
	rec      Recorder
	log      *zap.Logger
}

// NewService monta o ledger. notify, rec e log podem ser nil.
func NewService(accounts Accounts, bets Bets, src EventSource, notify Notifier, rec Recorder, log *zap.Logger) *Service {
	if notify == nil {
		notify = nopNotifier{}
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{accounts: accounts, bets: bets, events: src, notify: notify, rec: rec, log: log}
}

// PlaceInput é o pedido de aposta já autenticado.
type PlaceInput struct {
	UserID        string
	Type          domain.EventType
	MatchID       string
	TournamentID  string
	Selection     int
	SelectionName string
	Amount        int64
}

// Placement é o resultado de uma aposta criada.
type Placement struct {
	Bet     domain.Bet
	Balance int64
	Source  store.Backend
}

// PlaceBet valida, debita o stake de forma atômica e grava a aposta pending.
// Se a gravação falhar o débito é compensado.
func (s *Service) PlaceBet(ctx context.Context, in PlaceInput) (*Placement, error) {
	bet := domain.Bet{
		UserID:        in.UserID,
		Type:          in.Type,
		MatchID:       in.MatchID,
		TournamentID:  in.TournamentID,
		Selection:     in.Selection,
		SelectionName: in.SelectionName,
		Amount:        in.Amount,
		Status:        domain.BetPending,
	}
	if err := bet.Validate(); err != nil {
		return nil, err
	}

	outcome, err := s.events.Outcome(ctx, bet.Ref())
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", bet.Type, bet.Ref().ID, err)
	}
	if outcome.Status == domain.EventFinished {
		return nil, domain.Invalid("event", "betting is closed for finished events")
	}
	if !outcome.Selectable(bet.Selection) {
		return nil, domain.Invalid("selection", "%d is not a participant of this event", bet.Selection)
	}

	balance, _, err := s.accounts.AdjustBalance(ctx, bet.UserID, -bet.Amount)
	if err != nil {
		return nil, err
	}

	source, err := s.bets.Create(ctx, &bet)
	if err != nil {
		// compensa o débito: aposta não gravada não pode custar pontos
		if _, _, cerr := s.accounts.AdjustBalance(ctx, bet.UserID, bet.Amount); cerr != nil {
			s.log.Error("stake refund failed after bet write failure",
				zap.String("userId", bet.UserID),
				zap.Int64("amount", bet.Amount),
				zap.Error(cerr),
			)
		}
		return nil, err
	}

	s.log.Info("bet placed",
		zap.String("betId", bet.ID),
		zap.String("userId", bet.UserID),
		zap.String("type", string(bet.Type)),
		zap.String("eventId", bet.Ref().ID),
		zap.Int64("amount", bet.Amount),
		zap.Int64("balance", balance),
		zap.String("source", string(source)),
	)
	s.rec.BetPlaced(bet.Type)
	if err := s.notify.PublishBetPlaced(ctx, events.BetPlaced{
		BetID:     bet.ID,
		UserID:    bet.UserID,
		EventType: string(bet.Type),
		EventID:   bet.Ref().ID,
		Selection: bet.Selection,
		Amount:    bet.Amount,
		Balance:   balance,
		Source:    string(source),
	}); err != nil {
		s.log.Warn("publish bet_placed failed", zap.String("betId", bet.ID), zap.Error(err))
	}

	return &Placement{Bet: bet, Balance: balance, Source: source}, nil
}

// Settlement descreve o resultado de uma tentativa de liquidação.
// Settled=false indica no-op (aposta já resolvida por outra chamada).
type Settlement struct {
	Bet     domain.Bet
	Settled bool
	Payout  int64
	Balance int64
	// BalanceChanged indica que Balance traz o saldo atualizado pelo crédito.
	BalanceChanged bool
}

// Settle liquida a aposta contra o resultado do evento.
// Evento ainda sem vencedor devolve domain.ErrNotReady (tentar novamente depois).
func (s *Service) Settle(ctx context.Context, betID string) (*Settlement, error) {
	bet, _, err := s.bets.Get(ctx, betID)
	if err != nil {
		return nil, err
	}
	if bet.Status != domain.BetPending {
		return &Settlement{Bet: *bet}, nil
	}

	outcome, err := s.events.Outcome(ctx, bet.Ref())
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", bet.Type, bet.Ref().ID, err)
	}
	if !outcome.Resolved() {
		return nil, domain.ErrNotReady
	}

	status := domain.BetLost
	if bet.Selection == outcome.Winner {
		status = domain.BetWon
	}
	return s.resolve(ctx, bet, status, outcome.Winner, false)
}

// SettleWithStatus é a liquidação manual (administrativa) com resultado explícito.
func (s *Service) SettleWithStatus(ctx context.Context, betID string, status domain.BetStatus) (*Settlement, error) {
	if !status.Terminal() {
		return nil, domain.Invalid("status", "must be won or lost")
	}
	bet, _, err := s.bets.Get(ctx, betID)
	if err != nil {
		return nil, err
	}
	if bet.Status != domain.BetPending {
		return &Settlement{Bet: *bet}, nil
	}
	return s.resolve(ctx, bet, status, 0, true)
}

// resolve move a aposta para status e credita o prêmio.
// Só quem vence o update condicional pending -> status credita: exatamente uma vez.
func (s *Service) resolve(ctx context.Context, bet *domain.Bet, status domain.BetStatus, winner int, manual bool) (*Settlement, error) {
	// conta inexistente: falha antes de mutar, a aposta segue pending
	acc, _, err := s.accounts.Get(ctx, bet.UserID)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", bet.UserID, err)
	}
	before := acc.Points

	resolved, _, err := s.bets.Resolve(ctx, bet.ID, status)
	if errors.Is(err, domain.ErrNotPending) {
		current, _, gerr := s.bets.Get(ctx, bet.ID)
		if gerr != nil {
			return nil, gerr
		}
		return &Settlement{Bet: *current}, nil
	}
	if err != nil {
		return nil, err
	}

	out := &Settlement{Bet: *resolved, Settled: true, Balance: before}
	if status == domain.BetWon {
		out.Payout = resolved.Payout()
		after, _, err := s.accounts.AdjustBalance(ctx, resolved.UserID, out.Payout)
		if err != nil {
			s.log.Error("payout credit failed for resolved bet",
				zap.String("betId", resolved.ID),
				zap.String("userId", resolved.UserID),
				zap.Int64("payout", out.Payout),
				zap.Error(err),
			)
			return nil, fmt.Errorf("credit payout: %w", err)
		}
		out.Balance = after
		out.BalanceChanged = true
	}

	s.log.Info("bet settled",
		zap.String("betId", resolved.ID),
		zap.String("userId", resolved.UserID),
		zap.String("status", string(status)),
		zap.Bool("manual", manual),
		zap.Int64("payout", out.Payout),
		zap.Int64("balanceBefore", before),
		zap.Int64("balanceAfter", out.Balance),
	)
	s.rec.BetSettled(status, out.Payout)
	if err := s.notify.PublishBetSettled(ctx, events.BetSettled{
		BetID:     resolved.ID,
		UserID:    resolved.UserID,
		EventType: string(resolved.Type),
		EventID:   resolved.Ref().ID,
		Status:    string(status),
		Winner:    winner,
		Payout:    out.Payout,
		Balance:   out.Balance,
		Manual:    manual,
	}); err != nil {
		s.log.Warn("publish bet_settled failed", zap.String("betId", resolved.ID), zap.Error(err))
	}
	return out, nil
}

// StakeChange é o resultado de uma alteração de stake.
type StakeChange struct {
	Bet     domain.Bet
	Balance int64
}

// UpdateStake altera o stake de uma aposta pending, debitando ou estornando a diferença.
// A gravação só vale se o stake ainda for o lido aqui; se outra chamada mudou
// antes, o débito é compensado e volta domain.ErrConflict.
func (s *Service) UpdateStake(ctx context.Context, betID string, amount int64) (*StakeChange, error) {
	if amount < domain.MinStake {
		return nil, domain.Invalid("amount", "minimum bet is %d points", domain.MinStake)
	}
	bet, _, err := s.bets.Get(ctx, betID)
	if err != nil {
		return nil, err
	}
	if bet.Status != domain.BetPending {
		return nil, domain.ErrNotPending
	}
	delta := amount - bet.Amount
	if delta == 0 {
		acc, _, err := s.accounts.Get(ctx, bet.UserID)
		if err != nil {
			return nil, err
		}
		return &StakeChange{Bet: *bet, Balance: acc.Points}, nil
	}

	// aumento: debita antes de gravar; redução: grava antes de estornar
	var balance int64
	if delta > 0 {
		if balance, _, err = s.accounts.AdjustBalance(ctx, bet.UserID, -delta); err != nil {
			return nil, err
		}
	}
	updated, _, err := s.bets.UpdateStake(ctx, betID, bet.Amount, amount)
	if err != nil {
		if delta > 0 {
			if _, _, cerr := s.accounts.AdjustBalance(ctx, bet.UserID, delta); cerr != nil {
				s.log.Error("stake refund failed after update failure",
					zap.String("betId", betID), zap.Int64("delta", delta), zap.Error(cerr))
			}
		}
		return nil, err
	}
	if delta < 0 {
		if balance, _, err = s.accounts.AdjustBalance(ctx, bet.UserID, -delta); err != nil {
			return nil, fmt.Errorf("refund stake difference: %w", err)
		}
	}

	s.log.Info("bet stake updated",
		zap.String("betId", betID),
		zap.Int64("from", bet.Amount),
		zap.Int64("to", amount),
		zap.Int64("balance", balance),
	)
	return &StakeChange{Bet: *updated, Balance: balance}, nil
}

// Cancellation é o resultado de um cancelamento.
type Cancellation struct {
	Bet      domain.Bet
	Refunded int64
	Balance  int64
}

// Cancel remove uma aposta pending e devolve o stake ao dono.
func (s *Service) Cancel(ctx context.Context, betID string) (*Cancellation, error) {
	bet, _, err := s.bets.DeletePending(ctx, betID)
	if err != nil {
		return nil, err
	}
	balance, _, err := s.accounts.AdjustBalance(ctx, bet.UserID, bet.Amount)
	if err != nil {
		s.log.Error("stake refund failed for cancelled bet",
			zap.String("betId", bet.ID), zap.String("userId", bet.UserID), zap.Error(err))
		return nil, fmt.Errorf("refund stake: %w", err)
	}

	s.log.Info("bet cancelled",
		zap.String("betId", bet.ID),
		zap.String("userId", bet.UserID),
		zap.Int64("refunded", bet.Amount),
		zap.Int64("balance", balance),
	)
	if err := s.notify.PublishBetCancelled(ctx, events.BetCancelled{
		BetID:    bet.ID,
		UserID:   bet.UserID,
		Refunded: bet.Amount,
		Balance:  balance,
	}); err != nil {
		s.log.Warn("publish bet_cancelled failed", zap.String("betId", bet.ID), zap.Error(err))
	}
	return &Cancellation{Bet: *bet, Refunded: bet.Amount, Balance: balance}, nil
}

func (s *Service) Get(ctx context.Context, betID string) (*domain.Bet, store.Backend, error) {
	return s.bets.Get(ctx, betID)
}

func (s *Service) List(ctx context.Context, f domain.BetFilter) ([]domain.Bet, store.Backend, error) {
	return s.bets.List(ctx, f)
}

// Pending lista as pendentes do evento em todos os backends.
func (s *Service) Pending(ctx context.Context, ref domain.EventRef) ([]domain.Bet, error) {
	return s.bets.ListAll(ctx, domain.ForEvent(ref))
}

type nopNotifier struct{}

func (nopNotifier) PublishBetPlaced(context.Context, events.BetPlaced) error       { return nil }
func (nopNotifier) PublishBetSettled(context.Context, events.BetSettled) error     { return nil }
func (nopNotifier) PublishBetCancelled(context.Context, events.BetCancelled) error { return nil }

type nopRecorder struct{}

func (nopRecorder) BetPlaced(domain.EventType)          {}
func (nopRecorder) BetSettled(domain.BetStatus, int64) {}

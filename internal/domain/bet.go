package domain

import (
	"fmt"
	"time"
)

type EventType string

const (
	EventTennis EventType = "tennis"
	EventGolf   EventType = "golf"
)

func (t EventType) Valid() bool { return t == EventTennis || t == EventGolf }

// PayoutMultiplier devolve o multiplicador aplicado sobre o stake em caso de vitória.
// Tênis paga 2x (stake + lucro igual), golfe paga 3x.
func (t EventType) PayoutMultiplier() int64 {
	if t == EventGolf {
		return 3
	}
	return 2
}

type BetStatus string

const (
	BetPending BetStatus = "pending"
	BetWon     BetStatus = "won"
	BetLost    BetStatus = "lost"
)

func (s BetStatus) Valid() bool { return s == BetPending || s == BetWon || s == BetLost }

// Terminal indica won/lost.
func (s BetStatus) Terminal() bool { return s == BetWon || s == BetLost }

// MinStake é o valor mínimo de aposta em pontos.
const MinStake int64 = 10

// Bet é uma entrada do ledger: uma aposta de um usuário sobre um evento.
type Bet struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId" validate:"required"`
	Type          EventType `json:"type" validate:"oneof=tennis golf"`
	MatchID       string    `json:"matchId,omitempty" validate:"required_if=Type tennis,excluded_if=Type golf"`
	TournamentID  string    `json:"tournamentId,omitempty" validate:"required_if=Type golf,excluded_if=Type tennis"`
	Selection     int       `json:"selection" validate:"gte=1"`
	SelectionName string    `json:"selectionName" validate:"max=100"`
	Amount        int64     `json:"amount" validate:"gte=10"`
	Status        BetStatus `json:"status" validate:"oneof=pending won lost"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Ref devolve a referência do evento apostado conforme o tipo.
func (b *Bet) Ref() EventRef {
	if b.Type == EventGolf {
		return EventRef{Type: EventGolf, ID: b.TournamentID}
	}
	return EventRef{Type: EventTennis, ID: b.MatchID}
}

// Payout é o crédito devido se a aposta for vencedora.
func (b *Bet) Payout() int64 { return b.Amount * b.Type.PayoutMultiplier() }

// Validate confere as invariantes de criação de uma aposta (tags validate).
// Status vazio vira pending.
func (b *Bet) Validate() error {
	if b.Status == "" {
		b.Status = BetPending
	}
	if err := Check(b); err != nil {
		return err
	}
	if b.SelectionName == "" {
		b.SelectionName = fmt.Sprintf("Option %d", b.Selection)
	}
	return nil
}

// CanTransition aplica a máquina de estados: somente pending -> won|lost.
func (b *Bet) CanTransition(to BetStatus) error {
	if !to.Terminal() {
		return Invalid("status", "must be won or lost")
	}
	if b.Status != BetPending {
		return ErrNotPending
	}
	return nil
}

// BetFilter filtra listagens de apostas; campos vazios não filtram.
type BetFilter struct {
	UserID       string
	Status       BetStatus
	Type         EventType
	MatchID      string
	TournamentID string
}

// Match aplica o filtro sobre uma aposta (usado pelo backend em memória).
func (f BetFilter) Match(b *Bet) bool {
	if f.UserID != "" && b.UserID != f.UserID {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if f.Type != "" && b.Type != f.Type {
		return false
	}
	if f.MatchID != "" && b.MatchID != f.MatchID {
		return false
	}
	if f.TournamentID != "" && b.TournamentID != f.TournamentID {
		return false
	}
	return true
}

// ForEvent monta um filtro de apostas pendentes de um evento.
func ForEvent(ref EventRef) BetFilter {
	f := BetFilter{Status: BetPending, Type: ref.Type}
	if ref.Type == EventGolf {
		f.TournamentID = ref.ID
	} else {
		f.MatchID = ref.ID
	}
	return f
}

package dto

import "github.com/radieske/ace-putt-platform/internal/domain"

type PlaceBetRequest struct {
	Type          domain.EventType `json:"type" validate:"required,oneof=tennis golf"`
	MatchID       string           `json:"matchId,omitempty" validate:"required_if=Type tennis,excluded_if=Type golf"`
	TournamentID  string           `json:"tournamentId,omitempty" validate:"required_if=Type golf,excluded_if=Type tennis"`
	Selection     int              `json:"selection" validate:"gte=1"`
	SelectionName string           `json:"selectionName,omitempty" validate:"max=100"`
	Amount        int64            `json:"amount" validate:"gte=10"`
}

// PatchBetRequest: status won|lost liquida manualmente, amount altera o stake.
type PatchBetRequest struct {
	Status *domain.BetStatus `json:"status,omitempty" validate:"omitempty,oneof=won lost"`
	Amount *int64            `json:"amount,omitempty" validate:"omitempty,gte=10"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest aceita email ou username.
type LoginRequest struct {
	Email    string `json:"email,omitempty" validate:"required_without=Username"`
	Username string `json:"username,omitempty" validate:"required_without=Email"`
	Password string `json:"password" validate:"required"`
}

// Login devolve o identificador informado (email tem prioridade).
func (r LoginRequest) Login() string {
	if r.Email != "" {
		return r.Email
	}
	return r.Username
}

type SetPointsRequest struct {
	Points *int64 `json:"points" validate:"required,gte=0"`
}

type EventPatchRequest struct {
	Status *domain.EventStatus `json:"status,omitempty" validate:"omitempty,oneof=scheduled live finished"`
	Winner *int                `json:"winner,omitempty" validate:"omitempty,gte=1"`
}

// RankingRequest substitui a lista de um ranking (atp, wta ou pga).
type RankingRequest struct {
	Players []domain.RankingEntry `json:"players" validate:"required,min=1,dive"`
}

// BetListQuery são os filtros de GET /api/bets.
type BetListQuery struct {
	UserID string           `json:"userId"`
	Status domain.BetStatus `json:"status" validate:"omitempty,oneof=pending won lost"`
	Type   domain.EventType `json:"type" validate:"omitempty,oneof=tennis golf"`
}

// EventListQuery é o filtro de status das listagens de eventos.
type EventListQuery struct {
	Status domain.EventStatus `json:"status" validate:"omitempty,oneof=scheduled live finished"`
}

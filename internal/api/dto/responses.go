package dto

import (
	"time"

	"github.com/radieske/ace-putt-platform/internal/domain"
)

// Envelope é o formato de toda resposta da API.
type Envelope struct {
	Success    bool   `json:"success"`
	Type       string `json:"type,omitempty"`
	Error      string `json:"error,omitempty"`
	Message    string `json:"message,omitempty"`
	Data       any    `json:"data,omitempty"`
	Count      *int   `json:"count,omitempty"`
	Source     string `json:"source,omitempty"` // durable | memory
	UserPoints *int64 `json:"userPoints,omitempty"`
}

// Rankings agrupa as listas por circuito em GET /api/rankings.
type Rankings struct {
	ATP []domain.RankingEntry `json:"atp"`
	WTA []domain.RankingEntry `json:"wta"`
	PGA []domain.RankingEntry `json:"pga"`
}

type AuthResponse struct {
	User      domain.Account `json:"user"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

type StatusCount struct {
	Total     int `json:"total"`
	Scheduled int `json:"scheduled"`
	Live      int `json:"live"`
	Finished  int `json:"finished"`
}

type BetCount struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
	Won     int `json:"won"`
	Lost    int `json:"lost"`
}

type Dashboard struct {
	Matches     StatusCount `json:"matches"`
	Tournaments StatusCount `json:"tournaments"`
	Bets        BetCount    `json:"bets"`
	Users       int         `json:"users"`
}

type Health struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"` // segundos
}

type Index struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

package domain

import (
	"sort"
	"time"
)

type EventStatus string

const (
	EventScheduled EventStatus = "scheduled"
	EventLive      EventStatus = "live"
	EventFinished  EventStatus = "finished"
)

func (s EventStatus) rank() int {
	switch s {
	case EventScheduled:
		return 0
	case EventLive:
		return 1
	case EventFinished:
		return 2
	}
	return -1
}

func (s EventStatus) Valid() bool { return s.rank() >= 0 }

// CanAdvance garante a monotonicidade scheduled -> live -> finished.
func (s EventStatus) CanAdvance(to EventStatus) bool {
	return to.Valid() && to.rank() >= s.rank()
}

// EventRef identifica um evento apostável.
type EventRef struct {
	Type EventType `json:"type"`
	ID   string    `json:"id"`
}

// Outcome é o que o ledger precisa saber de um evento para liquidar apostas.
type Outcome struct {
	Ref        EventRef    `json:"ref"`
	Status     EventStatus `json:"status"`
	Winner     int         `json:"winner,omitempty"`
	Selections []int       `json:"selections"`
}

// Resolved indica que o evento terminou com vencedor definido.
func (o Outcome) Resolved() bool { return o.Status == EventFinished && o.Winner > 0 }

// Selectable indica se sel é um participante válido do evento.
func (o Outcome) Selectable(sel int) bool {
	for _, s := range o.Selections {
		if s == sel {
			return true
		}
	}
	return false
}

type Player struct {
	Name    string `json:"name" validate:"required"`
	Country string `json:"country"`
	Rank    int    `json:"rank"`
}

type SetScore struct {
	P1 int `json:"p1"`
	P2 int `json:"p2"`
}

// Over indica se o set terminou (6 com vantagem de 2, ou 7).
func (s SetScore) Over() bool {
	return (s.P1 >= 6 && s.P1-s.P2 >= 2) ||
		(s.P2 >= 6 && s.P2-s.P1 >= 2) ||
		s.P1 == 7 || s.P2 == 7
}

// SetsToWin é o número de sets para vencer uma partida (melhor de três).
const SetsToWin = 2

// Match é uma partida de tênis.
type Match struct {
	ID         string      `json:"id"`
	Tournament string      `json:"tournament" validate:"required"`
	Player1    Player      `json:"player1"`
	Player2    Player      `json:"player2"`
	Sets       []SetScore  `json:"sets"`
	Status     EventStatus `json:"status" validate:"oneof=scheduled live finished"`
	Minutes    int         `json:"minutes"`
	StartTime  time.Time   `json:"startTime" validate:"required"`
	Winner     int         `json:"winner,omitempty" validate:"gte=0,lte=2"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// SetsWon conta sets encerrados vencidos por cada jogador.
func (m *Match) SetsWon() (p1, p2 int) {
	for _, s := range m.Sets {
		if !s.Over() {
			continue
		}
		if s.P1 > s.P2 {
			p1++
		} else if s.P2 > s.P1 {
			p2++
		}
	}
	return p1, p2
}

// LeadingSide devolve 1 ou 2 conforme o placar de sets, 0 em empate.
func (m *Match) LeadingSide() int {
	p1, p2 := m.SetsWon()
	switch {
	case p1 > p2:
		return 1
	case p2 > p1:
		return 2
	}
	return 0
}

func (m *Match) Validate() error {
	if m.Status == "" {
		m.Status = EventScheduled
	}
	if err := Check(m); err != nil {
		return err
	}
	if m.Winner != 0 && m.Status != EventFinished {
		return Invalid("winner", "only allowed when finished")
	}
	return nil
}

func (m *Match) Outcome() Outcome {
	o := Outcome{
		Ref:        EventRef{Type: EventTennis, ID: m.ID},
		Status:     m.Status,
		Selections: []int{1, 2},
	}
	if m.Status == EventFinished {
		o.Winner = m.Winner
	}
	return o
}

// LeaderboardEntry é uma linha do leaderboard de golfe.
// Number identifica o jogador de forma estável (é a seleção apostada).
type LeaderboardEntry struct {
	Number   int    `json:"number"`
	Position int    `json:"position"`
	Player   string `json:"player" validate:"required"`
	Country  string `json:"country"`
	Score    int    `json:"score"`
	Today    int    `json:"today"`
}

// HolesPerRound é o número de buracos de uma volta.
const HolesPerRound = 18

// Tournament é um torneio de golfe.
type Tournament struct {
	ID          string             `json:"id"`
	Name        string             `json:"name" validate:"required"`
	Location    string             `json:"location" validate:"required"`
	Status      EventStatus        `json:"status" validate:"oneof=scheduled live finished"`
	Round       int                `json:"round" validate:"gte=1,ltefield=TotalRounds"`
	TotalRounds int                `json:"totalRounds" validate:"gte=1"`
	Hole        int                `json:"hole"`
	Leaderboard []LeaderboardEntry `json:"leaderboard" validate:"unique=Number,dive"`
	StartTime   time.Time          `json:"startTime" validate:"required"`
	Winner      int                `json:"winner,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// Rerank ordena o leaderboard (menor score lidera, desempate por Number) e recalcula posições.
func (t *Tournament) Rerank() {
	sort.SliceStable(t.Leaderboard, func(i, j int) bool {
		a, b := t.Leaderboard[i], t.Leaderboard[j]
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		return a.Number < b.Number
	})
	for i := range t.Leaderboard {
		t.Leaderboard[i].Position = i + 1
	}
}

// Leader devolve o Number do líder, 0 se o leaderboard estiver vazio.
func (t *Tournament) Leader() int {
	if len(t.Leaderboard) == 0 {
		return 0
	}
	best := t.Leaderboard[0]
	for _, e := range t.Leaderboard[1:] {
		if e.Score < best.Score || (e.Score == best.Score && e.Number < best.Number) {
			best = e
		}
	}
	return best.Number
}

func (t *Tournament) Validate() error {
	if t.TotalRounds == 0 {
		t.TotalRounds = 4
	}
	if t.Round == 0 {
		t.Round = 1
	}
	if t.Status == "" {
		t.Status = EventScheduled
	}
	for i := range t.Leaderboard {
		if t.Leaderboard[i].Number == 0 {
			t.Leaderboard[i].Number = i + 1
		}
	}
	if err := Check(t); err != nil {
		return err
	}
	if t.Winner != 0 && (t.Status != EventFinished || !t.hasPlayer(t.Winner)) {
		return Invalid("winner", "must be a leaderboard player of a finished tournament")
	}
	t.Rerank()
	return nil
}

func (t *Tournament) hasPlayer(number int) bool {
	for _, e := range t.Leaderboard {
		if e.Number == number {
			return true
		}
	}
	return false
}

func (t *Tournament) Outcome() Outcome {
	o := Outcome{
		Ref:        EventRef{Type: EventGolf, ID: t.ID},
		Status:     t.Status,
		Selections: make([]int, 0, len(t.Leaderboard)),
	}
	for _, e := range t.Leaderboard {
		o.Selections = append(o.Selections, e.Number)
	}
	sort.Ints(o.Selections)
	if t.Status == EventFinished {
		o.Winner = t.Winner
	}
	return o
}

package feed

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/ace-putt-platform/internal/domain"
)

// Clock abstrai o relógio para testes.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Recorder recebe contadores do simulador (prometheus no main).
type Recorder interface {
	FeedTick()
	EventFinished(t domain.EventType)
}

type nopRecorder struct{}

func (nopRecorder) FeedTick()                      {}
func (nopRecorder) EventFinished(domain.EventType) {}

const (
	maxGames     = 7 // teto de games por set
	holesPerTick = 6
)

// Simulator avança partidas e torneios a cada intervalo.
// Não há entrada externa: serve só para produzir eventos liquidáveis.
type Simulator struct {
	catalog  *Catalog
	clock    Clock
	rng      *rand.Rand
	interval time.Duration
	rec      Recorder
	log      *zap.Logger
}

// SimulatorOption customiza o simulador (relógio e aleatoriedade em testes).
type SimulatorOption func(*Simulator)

func WithClock(c Clock) SimulatorOption { return func(s *Simulator) { s.clock = c } }

func WithRand(r *rand.Rand) SimulatorOption { return func(s *Simulator) { s.rng = r } }

func WithRecorder(r Recorder) SimulatorOption { return func(s *Simulator) { s.rec = r } }

func NewSimulator(c *Catalog, interval time.Duration, log *zap.Logger, opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		catalog:  c,
		clock:    realClock{},
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		interval: interval,
		rec:      nopRecorder{},
		log:      log,
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Tick executa um ciclo e devolve as mudanças aplicadas.
func (s *Simulator) Tick() []Update {
	now := s.clock.Now()
	updates := s.catalog.advance(
		func(m *domain.Match) bool { return s.advanceMatch(m, now) },
		func(t *domain.Tournament) bool { return s.advanceTournament(t, now) },
	)
	s.rec.FeedTick()
	for _, u := range updates {
		if u.Finished() {
			s.rec.EventFinished(u.Ref.Type)
			s.log.Info("event finished",
				zap.String("type", string(u.Ref.Type)),
				zap.String("eventId", u.Ref.ID),
				zap.Int("winner", u.Outcome.Winner),
			)
		}
	}
	s.log.Debug("feed tick", zap.Int("updates", len(updates)))
	return updates
}

// Run dispara Tick a cada intervalo até ctx ser cancelado.
func (s *Simulator) Run(ctx context.Context) error {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	s.log.Info("feed simulator started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("feed simulator stopped")
			return nil
		case <-t.C:
			s.Tick()
		}
	}
}

func (s *Simulator) advanceMatch(m *domain.Match, now time.Time) bool {
	switch m.Status {
	case domain.EventScheduled:
		if now.Before(m.StartTime) {
			return false
		}
		m.Status = domain.EventLive
		m.Sets = []domain.SetScore{{}}
		m.Minutes = 0
		return true
	case domain.EventLive:
		if len(m.Sets) == 0 {
			m.Sets = []domain.SetScore{{}}
		}
		last := &m.Sets[len(m.Sets)-1]
		if s.rng.Intn(2) == 0 {
			last.P1 = min(last.P1+1, maxGames)
		} else {
			last.P2 = min(last.P2+1, maxGames)
		}
		m.Minutes++

		if last.Over() {
			p1, p2 := m.SetsWon()
			switch {
			case p1 >= domain.SetsToWin:
				m.Status, m.Winner = domain.EventFinished, 1
			case p2 >= domain.SetsToWin:
				m.Status, m.Winner = domain.EventFinished, 2
			default:
				m.Sets = append(m.Sets, domain.SetScore{})
			}
		}
		return true
	}
	return false
}

// initialField é o leaderboard criado quando um torneio começa sem jogadores.
func initialField() []domain.LeaderboardEntry {
	return []domain.LeaderboardEntry{
		{Number: 1, Player: "Player 1", Score: -5, Today: -2},
		{Number: 2, Player: "Player 2", Score: -4, Today: -1},
		{Number: 3, Player: "Player 3", Score: -3, Today: -1},
	}
}

func (s *Simulator) advanceTournament(t *domain.Tournament, now time.Time) bool {
	switch t.Status {
	case domain.EventScheduled:
		if now.Before(t.StartTime) {
			return false
		}
		t.Status = domain.EventLive
		if len(t.Leaderboard) == 0 {
			t.Leaderboard = initialField()
		}
		t.Round, t.Hole = 1, 1
		t.Rerank()
		return true
	case domain.EventLive:
		if t.TotalRounds == 0 {
			t.TotalRounds = 4
		}
		for i := range t.Leaderboard {
			// birdie, par ou bogey
			delta := s.rng.Intn(3) - 1
			t.Leaderboard[i].Score += delta
			t.Leaderboard[i].Today += delta
		}
		t.Hole += holesPerTick
		if t.Hole > domain.HolesPerRound {
			if t.Round >= t.TotalRounds {
				t.Hole = domain.HolesPerRound
				t.Rerank()
				t.Status = domain.EventFinished
				t.Winner = t.Leader()
				return true
			}
			t.Round++
			t.Hole = 1
			for i := range t.Leaderboard {
				t.Leaderboard[i].Today = 0
			}
		}
		t.Rerank()
		return true
	}
	return false
}

package feed

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/radieske/ace-putt-platform/internal/domain"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestSim(t *testing.T, c *Catalog, now time.Time) *Simulator {
	return NewSimulator(c, time.Second, zaptest.NewLogger(t),
		WithClock(fixedClock{now}), WithRand(rand.New(rand.NewSource(42))))
}

func liveMatch(id string) domain.Match {
	return domain.Match{
		ID:         id,
		Tournament: "Open",
		Player1:    domain.Player{Name: "A"},
		Player2:    domain.Player{Name: "B"},
		Status:     domain.EventLive,
		Sets:       []domain.SetScore{{}},
		StartTime:  t0.Add(-time.Hour),
	}
}

func TestSimulator_TennisMatchFinishesWithWinner(t *testing.T) {
	c := NewCatalog()
	if _, err := c.AddMatch(liveMatch("m1")); err != nil {
		t.Fatal(err)
	}
	sim := newTestSim(t, c, t0)

	// cada set dura no máximo 13 games; 3 sets bastam
	for i := 0; i < 60; i++ {
		sim.Tick()
	}
	m, _ := c.Match("m1")
	if m.Status != domain.EventFinished {
		t.Fatalf("status = %s after 60 ticks, sets %v", m.Status, m.Sets)
	}
	p1, p2 := m.SetsWon()
	want := 1
	if p2 > p1 {
		want = 2
	}
	if m.Winner != want || max(p1, p2) != domain.SetsToWin {
		t.Fatalf("winner %d, sets %d-%d", m.Winner, p1, p2)
	}
	for _, s := range m.Sets {
		if s.P1 > maxGames || s.P2 > maxGames {
			t.Fatalf("games above cap: %v", m.Sets)
		}
	}

	// encerrado não muda mais
	before := m.Sets
	sim.Tick()
	after, _ := c.Match("m1")
	if len(after.Sets) != len(before) || after.Status != domain.EventFinished {
		t.Fatal("finished match was advanced")
	}
}

func TestSimulator_ScheduledGoesLiveAfterStart(t *testing.T) {
	c := NewCatalog()
	m := liveMatch("m1")
	m.Status, m.Sets, m.StartTime = domain.EventScheduled, nil, t0.Add(time.Minute)
	_, _ = c.AddMatch(m)
	_, _ = c.AddTournament(domain.Tournament{
		ID: "g1", Name: "Open", Location: "X", StartTime: t0.Add(time.Minute),
	})

	newTestSim(t, c, t0).Tick()
	if got, _ := c.Match("m1"); got.Status != domain.EventScheduled {
		t.Fatalf("went live before start: %s", got.Status)
	}

	newTestSim(t, c, t0.Add(2*time.Minute)).Tick()
	got, _ := c.Match("m1")
	if got.Status != domain.EventLive || len(got.Sets) != 1 || got.Sets[0] != (domain.SetScore{}) {
		t.Fatalf("match after start = %+v", got)
	}
	g, _ := c.Tournament("g1")
	if g.Status != domain.EventLive || len(g.Leaderboard) != 3 || g.Round != 1 {
		t.Fatalf("tournament after start = %+v", g)
	}
}

func TestSimulator_GolfFinishesAfterLastRound(t *testing.T) {
	c := NewCatalog()
	_, err := c.AddTournament(domain.Tournament{
		ID: "g1", Name: "Open", Location: "X", Status: domain.EventLive,
		Round: 1, TotalRounds: 2, Hole: 1, StartTime: t0.Add(-time.Hour),
		Leaderboard: []domain.LeaderboardEntry{
			{Player: "A", Score: -3}, {Player: "B", Score: -2}, {Player: "C"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	sim := newTestSim(t, c, t0)

	var finished []Update
	for i := 0; i < 20; i++ {
		for _, u := range sim.Tick() {
			if u.Finished() {
				finished = append(finished, u)
			}
		}
	}
	if len(finished) != 1 {
		t.Fatalf("finished updates = %d, want exactly 1", len(finished))
	}
	g, _ := c.Tournament("g1")
	if g.Status != domain.EventFinished || g.Round != 2 {
		t.Fatalf("tournament = %+v", g)
	}
	if g.Winner != g.Leader() || g.Leaderboard[0].Number != g.Winner {
		t.Fatalf("winner %d, leader %d, board %+v", g.Winner, g.Leader(), g.Leaderboard)
	}
	o := finished[0].Outcome
	if !o.Resolved() || o.Winner != g.Winner {
		t.Fatalf("outcome = %+v", o)
	}
}

func TestCatalog_OutcomeHidesWinnerUntilFinished(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog()
	_, _ = c.AddMatch(liveMatch("m1"))

	o, err := c.Outcome(ctx, domain.EventRef{Type: domain.EventTennis, ID: "m1"})
	if err != nil || o.Resolved() || !o.Selectable(2) || o.Selectable(3) {
		t.Fatalf("outcome = %+v, %v", o, err)
	}
	if _, err := c.Outcome(ctx, domain.EventRef{Type: domain.EventGolf, ID: "m1"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("type mismatch err = %v", err)
	}
}

func TestCatalog_PatchIsMonotonic(t *testing.T) {
	c := NewCatalog()
	m := liveMatch("m1")
	m.Sets = []domain.SetScore{{P1: 6, P2: 2}, {P1: 3, P2: 1}}
	_, _ = c.AddMatch(m)

	var mu sync.Mutex
	var got []Update
	c.Subscribe(func(u Update) {
		mu.Lock()
		got = append(got, u)
		mu.Unlock()
	})

	finished := domain.EventFinished
	out, err := c.PatchMatch("m1", StatusPatch{Status: &finished})
	if err != nil {
		t.Fatal(err)
	}
	if out.Winner != 1 {
		t.Fatalf("winner defaulted to %d, want leader 1", out.Winner)
	}
	if len(got) != 1 || !got[0].Finished() {
		t.Fatalf("listener updates = %+v", got)
	}

	live := domain.EventLive
	if _, err := c.PatchMatch("m1", StatusPatch{Status: &live}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("backward transition err = %v", err)
	}
	two := 2
	if _, err := c.PatchMatch("m1", StatusPatch{Winner: &two}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("winner change after finish err = %v", err)
	}
	if _, err := c.PatchMatch("nope", StatusPatch{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown err = %v", err)
	}
}

func TestCatalog_FiltersAndStats(t *testing.T) {
	c := NewCatalog()
	loaded, skipped := c.Seed(FixtureMatches(t0), FixtureTournaments(t0))
	if loaded != 8 || skipped != 0 {
		t.Fatalf("seed = %d/%d", loaded, skipped)
	}
	if got := c.Matches(MatchFilter{Status: domain.EventFinished}); len(got) != 2 {
		t.Fatalf("finished matches = %d", len(got))
	}
	if got := c.Matches(MatchFilter{Player: "nadal"}); len(got) != 1 || got[0].ID != "5" {
		t.Fatalf("player filter = %+v", got)
	}
	refs, _ := c.Finished(context.Background())
	if len(refs) != 2 {
		t.Fatalf("finished refs = %v", refs)
	}
	s := c.Stats()
	if s.Matches[domain.EventLive] != 2 || s.Tournaments[domain.EventScheduled] != 1 {
		t.Fatalf("stats = %+v", s)
	}

	added, err := c.AddMatch(liveMatch(""))
	if err != nil || added.ID == "" || added.ID == "1" {
		t.Fatalf("generated id = %q, %v", added.ID, err)
	}
	if _, err := c.AddMatch(liveMatch("1")); !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("duplicate id err = %v", err)
	}
}

func TestLocalBroadcaster_EncodesEnvelope(t *testing.T) {
	c := NewCatalog()
	sink := &recordingSink{}
	c.Subscribe(LocalBroadcaster(sink, zaptest.NewLogger(t)))
	_, _ = c.AddMatch(liveMatch("m1"))

	if len(sink.msgs) != 1 || sink.keys[0] != "tennis:m1" {
		t.Fatalf("sink = %v", sink.keys)
	}
	var msg Message
	if err := json.Unmarshal(sink.msgs[0], &msg); err != nil {
		t.Fatal(err)
	}
	if msg.EventID != "tennis:m1" || msg.Payload.Match == nil || msg.Payload.Status != domain.EventLive {
		t.Fatalf("message = %+v", msg)
	}
}

type recordingSink struct {
	keys []string
	msgs [][]byte
}

func (s *recordingSink) Broadcast(id string, msg []byte) {
	s.keys = append(s.keys, id)
	s.msgs = append(s.msgs, msg)
}

func TestProviderClient(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/events" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(ProviderEvents{Matches: FixtureMatches(t0)[:1]})
	}))
	defer srv.Close()

	got := NewProviderClient(srv.URL+"/", zaptest.NewLogger(t)).Fetch(ctx)
	if got == nil || len(got.Matches) != 1 || got.Matches[0].Player1.Name != "Carlos Alcaraz" {
		t.Fatalf("Fetch = %+v", got)
	}

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"matches":[],"tournaments":[]}`))
	}))
	defer empty.Close()
	if got := NewProviderClient(empty.URL, nil).Fetch(ctx); got != nil {
		t.Fatalf("empty provider = %+v, want nil", got)
	}

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()
	if got := NewProviderClient(broken.URL, nil).Fetch(ctx); got != nil {
		t.Fatal("failing provider should return nil")
	}
	if got := NewProviderClient("", nil).Fetch(ctx); got != nil {
		t.Fatal("unconfigured provider should return nil")
	}
}

func TestProviderHandler_RoundTrip(t *testing.T) {
	c := NewCatalog()
	c.Seed(FixtureMatches(t0), FixtureTournaments(t0))
	hits := 0
	srv := httptest.NewServer(ProviderHandler(c, func() { hits++ }))
	defer srv.Close()

	got := NewProviderClient(srv.URL, zaptest.NewLogger(t)).Fetch(context.Background())
	if got == nil || len(got.Matches) != 5 || len(got.Tournaments) != 3 || hits != 1 {
		t.Fatalf("Fetch = %+v, hits %d", got, hits)
	}

	// o catálogo da API aceita o payload do provedor sem perdas
	dst := NewCatalog()
	if loaded, skipped := dst.Seed(got.Matches, got.Tournaments); loaded != 8 || skipped != 0 {
		t.Fatalf("reseed = %d/%d", loaded, skipped)
	}
}

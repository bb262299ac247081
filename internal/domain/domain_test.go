package domain

import (
	"errors"
	"testing"
	"time"
)

func TestBetValidate_StakeBoundary(t *testing.T) {
	cases := []struct {
		name    string
		amount  int64
		wantErr bool
	}{
		{"below minimum", 9, true},
		{"minimum", 10, false},
		{"above minimum", 500, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := &Bet{UserID: "u1", Type: EventTennis, MatchID: "m1", Selection: 1, Amount: tc.amount}
			err := b.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tc.wantErr)
			}
			if err == nil && b.Status != BetPending {
				t.Errorf("default status = %q, want pending", b.Status)
			}
		})
	}
}

func TestBetValidate_RefMustMatchType(t *testing.T) {
	cases := []Bet{
		{UserID: "u1", Type: EventTennis, TournamentID: "t1", Selection: 1, Amount: 10},
		{UserID: "u1", Type: EventGolf, MatchID: "m1", Selection: 1, Amount: 10},
		{UserID: "u1", Type: "football", MatchID: "m1", Selection: 1, Amount: 10},
		{UserID: "u1", Type: EventTennis, MatchID: "m1", TournamentID: "t1", Selection: 1, Amount: 10},
	}
	for i := range cases {
		var ve *ValidationError
		if err := cases[i].Validate(); !errors.As(err, &ve) {
			t.Errorf("case %d: expected ValidationError, got %v", i, err)
		}
	}
}

func TestBetCanTransition(t *testing.T) {
	b := &Bet{Status: BetPending}
	if err := b.CanTransition(BetWon); err != nil {
		t.Fatalf("pending->won: %v", err)
	}
	if err := b.CanTransition(BetPending); err == nil {
		t.Fatal("pending->pending should be rejected")
	}
	b.Status = BetWon
	if err := b.CanTransition(BetLost); !errors.Is(err, ErrNotPending) {
		t.Fatalf("won->lost err = %v, want ErrNotPending", err)
	}
}

func TestPayoutMultiplier(t *testing.T) {
	tennis := &Bet{Type: EventTennis, Amount: 100}
	golf := &Bet{Type: EventGolf, Amount: 100}
	if got := tennis.Payout(); got != 200 {
		t.Errorf("tennis payout = %d, want 200", got)
	}
	if got := golf.Payout(); got != 300 {
		t.Errorf("golf payout = %d, want 300", got)
	}
}

func TestMatchSetsWonIgnoresOpenSet(t *testing.T) {
	m := &Match{Sets: []SetScore{{6, 3}, {4, 6}, {5, 4}}}
	p1, p2 := m.SetsWon()
	if p1 != 1 || p2 != 1 {
		t.Fatalf("SetsWon = %d,%d want 1,1", p1, p2)
	}
	if m.LeadingSide() != 0 {
		t.Fatalf("LeadingSide = %d want 0", m.LeadingSide())
	}
}

func TestMatchOutcomeHidesWinnerUntilFinished(t *testing.T) {
	m := &Match{ID: "m1", Status: EventLive, Winner: 1}
	if o := m.Outcome(); o.Winner != 0 || o.Resolved() {
		t.Fatalf("live match outcome leaked winner: %+v", o)
	}
	m.Status = EventFinished
	if o := m.Outcome(); !o.Resolved() || o.Winner != 1 {
		t.Fatalf("finished outcome = %+v", o)
	}
}

func TestTournamentValidateAndRerank(t *testing.T) {
	tr := &Tournament{
		Name:      "Masters",
		Location:  "Augusta",
		StartTime: time.Now(),
		Leaderboard: []LeaderboardEntry{
			{Player: "A", Score: -2},
			{Player: "B", Score: -5},
			{Player: "C", Score: -2},
		},
	}
	if err := tr.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if tr.TotalRounds != 4 || tr.Round != 1 {
		t.Errorf("defaults round=%d total=%d", tr.Round, tr.TotalRounds)
	}
	if tr.Leaderboard[0].Player != "B" || tr.Leaderboard[0].Position != 1 {
		t.Errorf("leader = %+v", tr.Leaderboard[0])
	}
	if tr.Leader() != 2 {
		t.Errorf("Leader() = %d want 2", tr.Leader())
	}
	o := tr.Outcome()
	if !o.Selectable(3) || o.Selectable(4) {
		t.Errorf("selections = %v", o.Selections)
	}
}

func TestEventStatusMonotonic(t *testing.T) {
	if !EventScheduled.CanAdvance(EventLive) || !EventLive.CanAdvance(EventFinished) {
		t.Fatal("forward transitions must be allowed")
	}
	if EventFinished.CanAdvance(EventLive) || EventLive.CanAdvance(EventScheduled) {
		t.Fatal("backward transitions must be rejected")
	}
}

func TestIsDomain(t *testing.T) {
	if !IsDomain(Invalid("x", "bad")) || !IsDomain(ErrInsufficientFunds) {
		t.Fatal("domain errors not recognised")
	}
	if IsDomain(errors.New("connection refused")) || IsDomain(ErrNotFound) {
		t.Fatal("infra / not-found errors must allow fallback")
	}
	var se *StorageError
	if err := Storage("find", errors.New("timeout")); !errors.As(err, &se) {
		t.Fatalf("Storage() = %v", err)
	}
	if err := Storage("find", ErrNotPending); !errors.Is(err, ErrNotPending) || errors.As(err, &se) {
		t.Fatalf("Storage() wrapped a domain error: %v", err)
	}
}

func TestCheck_ReportsJSONFieldNames(t *testing.T) {
	cases := []struct {
		name  string
		v     any
		field string
	}{
		{"tennis bet without match", &Bet{UserID: "u1", Type: EventTennis, Selection: 1, Amount: 10, Status: BetPending}, "matchId"},
		{"golf bet with match", &Bet{UserID: "u1", Type: EventGolf, MatchID: "m1", TournamentID: "t1", Selection: 1, Amount: 10, Status: BetPending}, "matchId"},
		{"selection zero", &Bet{UserID: "u1", Type: EventTennis, MatchID: "m1", Amount: 10, Status: BetPending}, "selection"},
		{"short username", &Account{Username: "ab", Email: "ab@x.io", Role: RoleUser}, "username"},
		{"bad email", &Account{Username: "ana", Email: "ana.x.io", Role: RoleUser}, "email"},
		{"negative points", &Account{Username: "ana", Email: "ana@x.io", Role: RoleUser, Points: -1}, "points"},
		{"match player name", &Match{Tournament: "Open", Player1: Player{Name: "A"}, StartTime: time.Now(), Status: EventLive}, "player2.name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ve *ValidationError
			if err := Check(tc.v); !errors.As(err, &ve) || ve.Field != tc.field {
				t.Fatalf("Check() = %v, want field %q", err, tc.field)
			}
		})
	}
}

func TestTournamentValidate_RejectsBadRoundsAndDuplicates(t *testing.T) {
	base := func() *Tournament {
		return &Tournament{Name: "Open", Location: "X", StartTime: time.Now(),
			Leaderboard: []LeaderboardEntry{{Number: 1, Player: "A"}, {Number: 2, Player: "B"}}}
	}
	tr := base()
	tr.Round, tr.TotalRounds = 5, 4
	if err := tr.Validate(); err == nil {
		t.Fatal("round above total accepted")
	}
	tr = base()
	tr.Leaderboard[1].Number = 1
	if err := tr.Validate(); err == nil {
		t.Fatal("duplicate player number accepted")
	}
	tr = base()
	tr.Winner = 2
	if err := tr.Validate(); err == nil {
		t.Fatal("winner on a scheduled tournament accepted")
	}
}

func TestRankingValidate(t *testing.T) {
	r := Ranking{Type: RankingPGA, Players: []RankingEntry{
		{Rank: 2, Player: " Rory McIlroy ", Points: 320.2},
		{Rank: 1, Player: "Scottie Scheffler", Points: 350.5},
	}}
	if err := r.Validate(); err != nil {
		t.Fatal(err)
	}
	if r.Players[0].Rank != 1 || r.Players[1].Player != "Rory McIlroy" {
		t.Fatalf("players = %+v", r.Players)
	}

	cases := []struct {
		name string
		r    Ranking
	}{
		{"tipo inválido", Ranking{Type: "nba"}},
		{"rank repetido", Ranking{Type: RankingATP, Players: []RankingEntry{{Rank: 1, Player: "A"}, {Rank: 1, Player: "B"}}}},
		{"pontos negativos", Ranking{Type: RankingATP, Players: []RankingEntry{{Rank: 1, Player: "A", Points: -1}}}},
		{"sem nome", Ranking{Type: RankingWTA, Players: []RankingEntry{{Rank: 1, Player: "  "}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ve *ValidationError
			if err := tc.r.Validate(); !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}

	if got, err := ParseRankingType(" ATP "); err != nil || got != RankingATP {
		t.Fatalf("ParseRankingType = %q, %v", got, err)
	}
	if _, err := ParseRankingType("nba"); err == nil {
		t.Fatal("nba accepted")
	}
}

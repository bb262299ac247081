package feed

import (
	"context"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/radieske/ace-putt-platform/internal/domain"
	"github.com/radieske/ace-putt-platform/internal/store"
)

func TestPersister_RestoresAndWritesThrough(t *testing.T) {
	ctx := context.Background()
	log := zaptest.NewLogger(t)
	repo := store.NewFallbackEvents(nil, store.NewMemoryEvents(), log, nil)

	// primeira subida: nada gravado, semeia e grava via Attach
	first := NewCatalog()
	p := NewPersister(repo, log)
	if n, err := p.Restore(ctx, first); err != nil || n != 0 {
		t.Fatalf("Restore on empty store = %d, %v", n, err)
	}
	p.Attach(first)
	if _, err := first.AddMatch(liveMatch("7")); err != nil {
		t.Fatal(err)
	}
	if _, err := first.AddTournament(domain.Tournament{
		ID: "g1", Name: "Masters", Location: "Augusta", StartTime: t0,
		Leaderboard: []domain.LeaderboardEntry{{Player: "Scheffler"}, {Player: "McIlroy"}},
	}); err != nil {
		t.Fatal(err)
	}
	status := domain.EventFinished
	winner := 2
	if _, err := first.PatchMatch("7", StatusPatch{Status: &status, Winner: &winner}); err != nil {
		t.Fatal(err)
	}
	if _, err := first.AddMatch(liveMatch("8")); err != nil {
		t.Fatal(err)
	}
	if err := first.DeleteMatch("8"); err != nil {
		t.Fatal(err)
	}

	// segunda subida: o catálogo volta do armazenamento
	second := NewCatalog()
	n, err := NewPersister(repo, log).Restore(ctx, second)
	if err != nil || n != 2 {
		t.Fatalf("Restore = %d, %v", n, err)
	}
	m, err := second.Match("7")
	if err != nil || m.Status != domain.EventFinished || m.Winner != 2 {
		t.Fatalf("restored match = %+v, %v", m, err)
	}
	if _, err := second.Match("8"); err == nil {
		t.Fatal("deleted match came back")
	}
	if g, err := second.Tournament("g1"); err != nil || len(g.Leaderboard) != 2 {
		t.Fatalf("restored tournament = %+v, %v", g, err)
	}
	o, _ := second.Outcome(ctx, domain.EventRef{Type: domain.EventTennis, ID: "7"})
	if !o.Resolved() || o.Winner != 2 {
		t.Fatalf("outcome after restore = %+v", o)
	}
	// ids novos não colidem com os restaurados
	added, err := second.AddMatch(domain.Match{Tournament: "Open", Player1: domain.Player{Name: "C"}, Player2: domain.Player{Name: "D"}, StartTime: t0})
	if err != nil || added.ID == "7" {
		t.Fatalf("new match = %+v, %v", added, err)
	}
}

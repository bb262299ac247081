package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/radieske/ace-putt-platform/internal/domain"
)

var errDown = errors.New("connection refused")

// downBets simula um backend durável inacessível.
type downBets struct{}

func (downBets) Create(context.Context, *domain.Bet) error { return errDown }
func (downBets) Get(context.Context, string) (*domain.Bet, error) {
	return nil, errDown
}
func (downBets) List(context.Context, domain.BetFilter) ([]domain.Bet, error) {
	return nil, errDown
}
func (downBets) Resolve(context.Context, string, domain.BetStatus) (*domain.Bet, error) {
	return nil, errDown
}
func (downBets) UpdateStake(context.Context, string, int64, int64) (*domain.Bet, error) {
	return nil, errDown
}
func (downBets) DeletePending(context.Context, string) (*domain.Bet, error) {
	return nil, errDown
}

type countingObserver struct {
	mu        sync.Mutex
	served    map[Backend]int
	fallbacks map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{served: map[Backend]int{}, fallbacks: map[string]int{}}
}

func (o *countingObserver) Served(_, _ string, b Backend) {
	o.mu.Lock()
	o.served[b]++
	o.mu.Unlock()
}

func (o *countingObserver) FellBack(_, _, reason string) {
	o.mu.Lock()
	o.fallbacks[reason]++
	o.mu.Unlock()
}

func newBet(user string) *domain.Bet {
	return &domain.Bet{UserID: user, Type: domain.EventTennis, MatchID: "m1", Selection: 1, Amount: 50}
}

func TestFallbackBets_WriteGoesToMemoryWhenDurableDown(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryBets()
	obs := newCountingObserver()
	f := NewFallbackBets(downBets{}, mem, zaptest.NewLogger(t), obs)

	b := newBet("u1")
	backend, err := f.Create(ctx, b)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if backend != BackendMemory {
		t.Fatalf("backend = %s, want memory", backend)
	}
	if b.ID != "1" {
		t.Errorf("sequential id = %q, want 1", b.ID)
	}
	if obs.fallbacks["error"] != 1 {
		t.Errorf("fallbacks = %v", obs.fallbacks)
	}

	list, backend, err := f.List(ctx, domain.BetFilter{UserID: "u1"})
	if err != nil || backend != BackendMemory || len(list) != 1 {
		t.Fatalf("List = %v, %s, %v", list, backend, err)
	}
}

func TestFallbackBets_DurableServesWhenHealthy(t *testing.T) {
	ctx := context.Background()
	durable := NewMemoryBets() // faz o papel do durável
	mem := NewMemoryBets()
	f := NewFallbackBets(durable, mem, zaptest.NewLogger(t), nil)

	b := newBet("u1")
	backend, err := f.Create(ctx, b)
	if err != nil || backend != BackendDurable {
		t.Fatalf("Create = %s, %v", backend, err)
	}
	if got, _ := mem.List(ctx, domain.BetFilter{}); len(got) != 0 {
		t.Fatalf("record was dual-written into memory: %v", got)
	}
	if _, backend, _ := f.Get(ctx, b.ID); backend != BackendDurable {
		t.Errorf("Get served by %s", backend)
	}
}

func TestFallbackBets_EmptyDurableReadFallsBack(t *testing.T) {
	ctx := context.Background()
	durable := NewMemoryBets()
	mem := NewMemoryBets()
	_ = mem.Create(ctx, newBet("u2"))
	f := NewFallbackBets(durable, mem, zaptest.NewLogger(t), nil)

	list, backend, err := f.List(ctx, domain.BetFilter{UserID: "u2"})
	if err != nil || backend != BackendMemory || len(list) != 1 {
		t.Fatalf("List = %v, %s, %v", list, backend, err)
	}
}

func TestFallbackBets_DomainErrorDoesNotFallBack(t *testing.T) {
	ctx := context.Background()
	durable := NewMemoryBets()
	mem := NewMemoryBets()
	f := NewFallbackBets(durable, mem, zaptest.NewLogger(t), nil)

	b := newBet("u1")
	if _, err := f.Create(ctx, b); err != nil {
		t.Fatal(err)
	}
	if _, _, err := f.Resolve(ctx, b.ID, domain.BetWon); err != nil {
		t.Fatal(err)
	}
	_, backend, err := f.Resolve(ctx, b.ID, domain.BetLost)
	if !errors.Is(err, domain.ErrNotPending) || backend != BackendDurable {
		t.Fatalf("second Resolve = %s, %v", backend, err)
	}
	_, _, err = f.DeletePending(ctx, b.ID)
	if !errors.Is(err, domain.ErrNotPending) {
		t.Fatalf("DeletePending on won bet = %v", err)
	}
}

func TestFallbackBets_NotFoundInDurableChecksMemory(t *testing.T) {
	ctx := context.Background()
	durable := NewMemoryBets()
	mem := NewMemoryBets()
	b := newBet("u1")
	_ = mem.Create(ctx, b)
	f := NewFallbackBets(durable, mem, zaptest.NewLogger(t), nil)

	got, backend, err := f.Resolve(ctx, b.ID, domain.BetLost)
	if err != nil || backend != BackendMemory || got.Status != domain.BetLost {
		t.Fatalf("Resolve = %+v, %s, %v", got, backend, err)
	}
}

func TestFallbackAccounts_MemoryOnly(t *testing.T) {
	ctx := context.Background()
	f := NewFallbackAccounts(nil, NewMemoryAccounts(), nil, nil)

	a := &domain.Account{Username: "ana", Email: "Ana@Example.com", Points: 1000}
	backend, err := f.Create(ctx, a)
	if err != nil || backend != BackendMemory {
		t.Fatalf("Create = %s, %v", backend, err)
	}
	if a.Email != "ana@example.com" || a.Role != domain.RoleUser {
		t.Errorf("normalisation: %+v", a)
	}
	if _, err := f.Create(ctx, &domain.Account{Username: "ana", Email: "x@y.z"}); !errors.Is(err, domain.ErrDuplicate) {
		t.Errorf("duplicate username err = %v", err)
	}
	if got, _, err := f.FindByLogin(ctx, "ANA@example.com"); err != nil || got.ID != a.ID {
		t.Errorf("FindByLogin email = %v, %v", got, err)
	}
}

func TestMemoryAccounts_AdjustBalanceNeverNegative(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAccounts()
	a := &domain.Account{Username: "bob", Email: "bob@x.io", Points: 50}
	if err := m.Create(ctx, a); err != nil {
		t.Fatal(err)
	}
	if _, err := m.AdjustBalance(ctx, a.ID, -51); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("err = %v", err)
	}
	got, _ := m.Get(ctx, a.ID)
	if got.Points != 50 {
		t.Fatalf("balance mutated on failed debit: %d", got.Points)
	}
	if bal, err := m.AdjustBalance(ctx, a.ID, -50); err != nil || bal != 0 {
		t.Fatalf("AdjustBalance = %d, %v", bal, err)
	}
	if _, err := m.AdjustBalance(ctx, "404", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown account err = %v", err)
	}
}

func TestMemoryAccounts_ConcurrentAdjustmentsAreNotLost(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAccounts()
	a := &domain.Account{Username: "carl", Email: "carl@x.io", Points: 0}
	_ = m.Create(ctx, a)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.AdjustBalance(ctx, a.ID, 10)
		}()
	}
	wg.Wait()
	got, _ := m.Get(ctx, a.ID)
	if got.Points != 1000 {
		t.Fatalf("points = %d, want 1000", got.Points)
	}
}

func TestMemoryAccounts_ListSortedByPoints(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAccounts()
	for i, p := range []int64{10, 300, 50} {
		_ = m.Create(ctx, &domain.Account{
			Username: []string{"aaa", "bbb", "ccc"}[i],
			Email:    []string{"a@x.io", "b@x.io", "c@x.io"}[i],
			Points:   p,
		})
	}
	list, _ := m.List(ctx, AccountFilter{SortByPoints: true, Limit: 2})
	if len(list) != 2 || list[0].Username != "bbb" || list[1].Username != "ccc" {
		t.Fatalf("List = %+v", list)
	}
}

func TestMemoryBets_UpdateStakeRequiresCurrentAmount(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBets()
	b := newBet("u1")
	if err := m.Create(ctx, b); err != nil {
		t.Fatal(err)
	}
	if _, err := m.UpdateStake(ctx, b.ID, b.Amount+1, 500); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("stale from err = %v, want ErrConflict", err)
	}
	got, err := m.UpdateStake(ctx, b.ID, b.Amount, 500)
	if err != nil || got.Amount != 500 {
		t.Fatalf("UpdateStake = %+v, %v", got, err)
	}
	if _, err := m.Resolve(ctx, b.ID, domain.BetLost); err != nil {
		t.Fatal(err)
	}
	if _, err := m.UpdateStake(ctx, b.ID, 500, 600); !errors.Is(err, domain.ErrNotPending) {
		t.Fatalf("resolved bet err = %v, want ErrNotPending", err)
	}
}

func TestFallbackAccounts_MemoryAccountReservesLogin(t *testing.T) {
	ctx := context.Background()
	durable, mem := NewMemoryAccounts(), NewMemoryAccounts()
	f := NewFallbackAccounts(durable, mem, zaptest.NewLogger(t), nil)

	admin := &domain.Account{Username: "admin", Email: "admin@aceputt.io", Role: domain.RoleAdmin}
	if err := mem.Create(ctx, admin); err != nil {
		t.Fatal(err)
	}
	for _, a := range []*domain.Account{
		{Username: "admin", Email: "other@x.io"},
		{Username: "other", Email: "ADMIN@aceputt.io"},
	} {
		if _, err := f.Create(ctx, a); !errors.Is(err, domain.ErrDuplicate) {
			t.Fatalf("Create(%s, %s) err = %v, want ErrDuplicate", a.Username, a.Email, err)
		}
	}
	if list, _ := durable.List(ctx, AccountFilter{}); len(list) != 0 {
		t.Fatalf("durable got %d accounts, want none", len(list))
	}

	backend, err := f.Create(ctx, &domain.Account{Username: "bia", Email: "bia@x.io"})
	if err != nil || backend != BackendDurable {
		t.Fatalf("Create = %s, %v", backend, err)
	}
}

func TestFallbackBets_ListAllMergesBackends(t *testing.T) {
	ctx := context.Background()
	durable, mem := NewMemoryBets(), NewMemoryBets()
	f := NewFallbackBets(durable, mem, zaptest.NewLogger(t), nil)

	if err := durable.Create(ctx, newBet("u1")); err != nil {
		t.Fatal(err)
	}
	// ids sequenciais: a primeira aposta da memória repete o id "1" do durável
	dup := newBet("u1")
	if err := mem.Create(ctx, dup); err != nil {
		t.Fatal(err)
	}
	if err := mem.Create(ctx, newBet("u2")); err != nil {
		t.Fatal(err)
	}

	if got, _, _ := f.List(ctx, domain.BetFilter{}); len(got) != 1 {
		t.Fatalf("List = %d bets, want durable only", len(got))
	}
	all, err := f.ListAll(ctx, domain.BetFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].UserID != "u1" || all[1].UserID != "u2" {
		t.Fatalf("ListAll = %+v", all)
	}

	down := NewFallbackBets(downBets{}, mem, zaptest.NewLogger(t), nil)
	if all, err := down.ListAll(ctx, domain.BetFilter{}); err != nil || len(all) != 2 {
		t.Fatalf("ListAll with durable down = %d, %v", len(all), err)
	}
}

func TestFallbackRankings_EmptyDurableServesSeed(t *testing.T) {
	ctx := context.Background()
	seed := domain.Ranking{Type: domain.RankingATP, Players: []domain.RankingEntry{{Rank: 1, Player: "Novak Djokovic", Points: 9795}}}
	durable := NewMemoryRankings()
	obs := newCountingObserver()
	f := NewFallbackRankings(durable, NewMemoryRankings(seed), zaptest.NewLogger(t), obs)

	r, b, err := f.Get(ctx, domain.RankingATP)
	if err != nil || b != BackendMemory || r.Players[0].Player != "Novak Djokovic" {
		t.Fatalf("Get = %+v, %s, %v", r, b, err)
	}
	if all, b, _ := f.List(ctx); len(all) != 1 || b != BackendMemory {
		t.Fatalf("List = %d from %s", len(all), b)
	}
	if obs.fallbacks["not_found"] != 1 || obs.fallbacks["empty"] != 1 {
		t.Fatalf("fallbacks = %v", obs.fallbacks)
	}

	next := &domain.Ranking{Type: domain.RankingATP, Players: []domain.RankingEntry{{Rank: 1, Player: "Jannik Sinner", Points: 11830}}}
	if b, err := f.Replace(ctx, next); err != nil || b != BackendDurable {
		t.Fatalf("Replace = %s, %v", b, err)
	}
	if r, b, _ := f.Get(ctx, domain.RankingATP); b != BackendDurable || r.Players[0].Player != "Jannik Sinner" {
		t.Fatalf("Get after replace = %+v from %s", r, b)
	}
	if _, err := f.Replace(ctx, &domain.Ranking{Type: "nba"}); !domain.IsDomain(err) {
		t.Fatalf("invalid type err = %v", err)
	}
}

func TestFallbackEvents_DeleteReachesMemoryOnlyEvent(t *testing.T) {
	ctx := context.Background()
	durable, mem := NewMemoryEvents(), NewMemoryEvents()
	f := NewFallbackEvents(durable, mem, zaptest.NewLogger(t), nil)

	if err := mem.SaveMatch(ctx, &domain.Match{ID: "9", Tournament: "Open"}); err != nil {
		t.Fatal(err)
	}
	if b, err := f.SaveMatch(ctx, &domain.Match{ID: "1", Tournament: "Open"}); err != nil || b != BackendDurable {
		t.Fatalf("SaveMatch = %s, %v", b, err)
	}
	if ms, b, _ := f.Matches(ctx); len(ms) != 1 || b != BackendDurable {
		t.Fatalf("Matches = %d from %s", len(ms), b)
	}
	if b, err := f.DeleteMatch(ctx, "9"); err != nil || b != BackendMemory {
		t.Fatalf("DeleteMatch = %s, %v", b, err)
	}
	if _, err := f.DeleteMatch(ctx, "9"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
	if _, err := f.SaveTournament(ctx, &domain.Tournament{}); !domain.IsDomain(err) {
		t.Fatalf("tournament without id err = %v", err)
	}
}

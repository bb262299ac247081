package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/radieske/ace-putt-platform/internal/auth"
	"github.com/radieske/ace-putt-platform/internal/domain"
	"github.com/radieske/ace-putt-platform/internal/feed"
	"github.com/radieske/ace-putt-platform/internal/ledger"
	"github.com/radieske/ace-putt-platform/internal/store"
)

// downBets simula o backend durável fora do ar.
type downBets struct{}

var errDown = errors.New("connection refused")

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

type envelope struct {
	Success    bool            `json:"success"`
	Type       string          `json:"type"`
	Error      string          `json:"error"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Count      *int            `json:"count"`
	Source     string          `json:"source"`
	UserPoints *int64          `json:"userPoints"`
}

type harness struct {
	t       *testing.T
	srv     *httptest.Server
	catalog *feed.Catalog
}

func newHarness(t *testing.T, durableBets store.BetRepository) *harness {
	t.Helper()
	log := zaptest.NewLogger(t)
	memAcc := store.NewMemoryAccounts()
	if _, err := auth.SeedDemoUsers(context.Background(), memAcc, 0, log); err != nil {
		t.Fatal(err)
	}
	accounts := store.NewFallbackAccounts(nil, memAcc, log, nil)
	bets := store.NewFallbackBets(durableBets, store.NewMemoryBets(), log, nil)

	catalog := feed.NewCatalog()
	_, err := catalog.AddMatch(domain.Match{
		ID:         "m1",
		Tournament: "Roland Garros",
		Player1:    domain.Player{Name: "Alcaraz"},
		Player2:    domain.Player{Name: "Sinner"},
		Status:     domain.EventLive,
		Sets:       []domain.SetScore{{P1: 3, P2: 2}},
		StartTime:  time.Now().Add(-time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}

	rankings := store.NewFallbackRankings(nil, store.NewMemoryRankings(feed.FixtureRankings(time.Now())...), log, nil)

	api := &API{
		Ledger:   ledger.NewService(accounts, bets, catalog, nil, nil, log),
		Auth:     auth.NewService(accounts, auth.NewTokens("test", time.Hour), 0, log),
		Catalog:  catalog,
		Rankings: rankings,
		Log:      log,
	}
	srv := httptest.NewServer(api.Router())
	t.Cleanup(srv.Close)
	return &harness{t: t, srv: srv, catalog: catalog}
}

func (h *harness) do(method, path, token string, body any) (int, envelope) {
	h.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, h.srv.URL+path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		h.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env
}

func (h *harness) login(user, pass string) string {
	h.t.Helper()
	code, env := h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": user, "password": pass})
	if code != http.StatusOK {
		h.t.Fatalf("login %s = %d %+v", user, code, env)
	}
	var out struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(env.Data, &out)
	return out.Token
}

func (h *harness) placeBet(token string, amount int64) domain.Bet {
	h.t.Helper()
	code, env := h.do(http.MethodPost, "/api/bets", token, map[string]any{
		"type": "tennis", "matchId": "m1", "selection": 1, "selectionName": "Alcaraz", "amount": amount,
	})
	if code != http.StatusCreated {
		h.t.Fatalf("place bet = %d %+v", code, env)
	}
	var b domain.Bet
	_ = json.Unmarshal(env.Data, &b)
	return b
}

func TestBets_RequireToken(t *testing.T) {
	h := newHarness(t, nil)
	if code, env := h.do(http.MethodGet, "/api/bets", "", nil); code != http.StatusUnauthorized || env.Success {
		t.Fatalf("no token = %d %+v", code, env)
	}
	if code, _ := h.do(http.MethodGet, "/api/bets", "garbage", nil); code != http.StatusForbidden {
		t.Fatalf("invalid token = %d", code)
	}
}

func TestBets_PlaceListAndCancel(t *testing.T) {
	h := newHarness(t, nil)
	token := h.login("demo", "demo123")

	code, env := h.do(http.MethodPost, "/api/bets", token, map[string]any{
		"type": "tennis", "matchId": "m1", "selection": 1, "amount": 100,
	})
	if code != http.StatusCreated || env.UserPoints == nil || *env.UserPoints != 900 {
		t.Fatalf("place = %d %+v", code, env)
	}
	var bet domain.Bet
	_ = json.Unmarshal(env.Data, &bet)

	code, env = h.do(http.MethodGet, "/api/bets", token, nil)
	if code != http.StatusOK || env.Count == nil || *env.Count != 1 || env.Source != "memory" {
		t.Fatalf("list = %d %+v", code, env)
	}

	code, env = h.do(http.MethodPost, "/api/bets", token, map[string]any{
		"type": "tennis", "matchId": "m1", "selection": 1, "amount": 5000,
	})
	if code != http.StatusBadRequest || env.Error != "insufficient points" {
		t.Fatalf("overdraft = %d %+v", code, env)
	}

	code, env = h.do(http.MethodDelete, "/api/bets/"+bet.ID, token, nil)
	if code != http.StatusOK || env.UserPoints == nil || *env.UserPoints != 1000 {
		t.Fatalf("cancel = %d %+v", code, env)
	}
	if code, _ := h.do(http.MethodDelete, "/api/bets/"+bet.ID, token, nil); code != http.StatusNotFound {
		t.Fatalf("second cancel = %d", code)
	}
}

func TestBets_DurableDownServesFromMemory(t *testing.T) {
	h := newHarness(t, downBets{})
	token := h.login("demo", "demo123")

	b := h.placeBet(token, 50)
	code, env := h.do(http.MethodGet, "/api/bets?status=pending", token, nil)
	if code != http.StatusOK || env.Source != "memory" || env.Count == nil || *env.Count != 1 {
		t.Fatalf("list = %d %+v", code, env)
	}
	if code, env := h.do(http.MethodGet, "/api/bets/"+b.ID, token, nil); code != http.StatusOK || env.Source != "memory" {
		t.Fatalf("get = %d %+v", code, env)
	}
}

func TestBets_ManualSettlementAndSettledDelete(t *testing.T) {
	h := newHarness(t, nil)
	demo := h.login("demo", "demo123")
	admin := h.login("admin", "admin123")
	b := h.placeBet(demo, 100)

	if code, _ := h.do(http.MethodPatch, "/api/bets/"+b.ID, demo, map[string]string{"status": "won"}); code != http.StatusForbidden {
		t.Fatalf("user settling own bet = %d", code)
	}

	code, env := h.do(http.MethodPatch, "/api/bets/"+b.ID, admin, map[string]string{"status": "won"})
	if code != http.StatusOK || env.UserPoints == nil || *env.UserPoints != 1100 {
		t.Fatalf("settle = %d %+v", code, env)
	}

	// segunda liquidação não credita de novo
	code, env = h.do(http.MethodPatch, "/api/bets/"+b.ID, admin, map[string]string{"status": "won"})
	if code != http.StatusOK || env.UserPoints != nil {
		t.Fatalf("repeat settle = %d %+v", code, env)
	}

	code, env = h.do(http.MethodDelete, "/api/bets/"+b.ID, demo, nil)
	if code != http.StatusBadRequest || env.Error != "bet already settled" {
		t.Fatalf("delete settled = %d %+v", code, env)
	}
}

func TestBets_SettleAgainstOutcome(t *testing.T) {
	h := newHarness(t, nil)
	demo := h.login("demo", "demo123")
	b := h.placeBet(demo, 100)

	if code, _ := h.do(http.MethodPost, "/api/bets/"+b.ID+"/settle", demo, nil); code != http.StatusAccepted {
		t.Fatalf("settle before finish = %d", code)
	}

	finished, winner := domain.EventFinished, 1
	if _, err := h.catalog.PatchMatch("m1", feed.StatusPatch{Status: &finished, Winner: &winner}); err != nil {
		t.Fatal(err)
	}
	code, env := h.do(http.MethodPost, "/api/bets/"+b.ID+"/settle", demo, nil)
	if code != http.StatusOK || env.UserPoints == nil || *env.UserPoints != 1100 {
		t.Fatalf("settle = %d %+v", code, env)
	}
	var got domain.Bet
	_ = json.Unmarshal(env.Data, &got)
	if got.Status != domain.BetWon {
		t.Fatalf("status = %s", got.Status)
	}

	code, env = h.do(http.MethodPost, "/api/bets", demo, map[string]any{
		"type": "tennis", "matchId": "m1", "selection": 1, "amount": 10,
	})
	if code != http.StatusBadRequest {
		t.Fatalf("bet on finished match = %d %+v", code, env)
	}
}

func TestAuth_RegisterMeAndPoints(t *testing.T) {
	h := newHarness(t, nil)

	body := map[string]string{"username": "lucia", "email": "lucia@example.com", "password": "segredo"}
	code, env := h.do(http.MethodPost, "/api/auth/register", "", body)
	if code != http.StatusCreated {
		t.Fatalf("register = %d %+v", code, env)
	}
	if code, _ := h.do(http.MethodPost, "/api/auth/register", "", body); code != http.StatusBadRequest {
		t.Fatalf("duplicate register = %d", code)
	}
	if code, _ := h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "lucia@example.com", "password": "x"}); code != http.StatusUnauthorized {
		t.Fatalf("bad password = %d", code)
	}

	token := h.login("lucia", "segredo")
	code, env = h.do(http.MethodGet, "/api/auth/me", token, nil)
	var me domain.Account
	_ = json.Unmarshal(env.Data, &me)
	if code != http.StatusOK || me.Username != "lucia" || me.Points != domain.StartingPoints {
		t.Fatalf("me = %d %+v", code, me)
	}

	if code, _ := h.do(http.MethodPatch, "/api/auth/users/1", token, map[string]int{"points": 9}); code != http.StatusForbidden {
		t.Fatalf("foreign points update = %d", code)
	}
	code, env = h.do(http.MethodPatch, "/api/auth/users/"+me.ID, token, map[string]int{"points": 2500})
	if code != http.StatusOK || env.UserPoints == nil || *env.UserPoints != 2500 {
		t.Fatalf("points update = %d %+v", code, env)
	}

	code, env = h.do(http.MethodGet, "/api/auth/leaderboard", "", nil)
	var rows []domain.LeaderboardRow
	_ = json.Unmarshal(env.Data, &rows)
	if code != http.StatusOK || len(rows) != 3 || rows[0].Username != "lucia" {
		t.Fatalf("leaderboard = %d %+v", code, rows)
	}

	if code, _ := h.do(http.MethodGet, "/api/auth/users", token, nil); code != http.StatusForbidden {
		t.Fatalf("users as regular user = %d", code)
	}
}

func TestEvents_WritesNeedCapability(t *testing.T) {
	h := newHarness(t, nil)
	demo := h.login("demo", "demo123")
	admin := h.login("admin", "admin123")

	m := map[string]any{
		"tournament": "Wimbledon",
		"player1":    map[string]string{"name": "Djokovic"},
		"player2":    map[string]string{"name": "Medvedev"},
		"startTime":  time.Now().Add(time.Hour),
	}
	if code, _ := h.do(http.MethodPost, "/api/matches", demo, m); code != http.StatusForbidden {
		t.Fatalf("create as user = %d", code)
	}
	code, env := h.do(http.MethodPost, "/api/matches", admin, m)
	if code != http.StatusCreated {
		t.Fatalf("create as admin = %d %+v", code, env)
	}

	code, env = h.do(http.MethodGet, "/api/matches?status=scheduled", "", nil)
	if code != http.StatusOK || env.Count == nil || *env.Count != 1 {
		t.Fatalf("list scheduled = %d %+v", code, env)
	}
	if code, _ := h.do(http.MethodGet, "/api/matches?status=bogus", "", nil); code != http.StatusBadRequest {
		t.Fatalf("bad status filter = %d", code)
	}

	live := domain.EventScheduled
	if code, _ := h.do(http.MethodPatch, "/api/matches/m1", admin, map[string]any{"status": live}); code != http.StatusBadRequest {
		t.Fatalf("backward transition = %d", code)
	}

	code, env = h.do(http.MethodGet, "/api/admin/dashboard", admin, nil)
	var d struct {
		Matches struct{ Total, Live int } `json:"matches"`
		Users   int                       `json:"users"`
	}
	_ = json.Unmarshal(env.Data, &d)
	if code != http.StatusOK || d.Matches.Total != 2 || d.Matches.Live != 1 || d.Users != 2 {
		t.Fatalf("dashboard = %d %+v", code, d)
	}
	if code, _ := h.do(http.MethodGet, "/api/admin/dashboard", demo, nil); code != http.StatusForbidden {
		t.Fatalf("dashboard as user = %d", code)
	}
	if code, _ := h.do(http.MethodDelete, "/api/admin/matches/m1", admin, nil); code != http.StatusOK {
		t.Fatalf("admin delete = %d", code)
	}
	if code, _ := h.do(http.MethodGet, "/api/matches/m1", "", nil); code != http.StatusNotFound {
		t.Fatalf("deleted match = %d", code)
	}
}

func TestHealthAndNotFound(t *testing.T) {
	h := newHarness(t, nil)
	resp, err := http.Get(h.srv.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	var hb struct{ Status string }
	_ = json.NewDecoder(resp.Body).Decode(&hb)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || hb.Status != "OK" {
		t.Fatalf("health = %d %+v", resp.StatusCode, hb)
	}
	if code, env := h.do(http.MethodGet, "/api/nope", "", nil); code != http.StatusNotFound || env.Success {
		t.Fatalf("unknown route = %d %+v", code, env)
	}
}

func TestRankings_ListGetAndReplace(t *testing.T) {
	h := newHarness(t, nil)

	code, env := h.do(http.MethodGet, "/api/rankings", "", nil)
	if code != http.StatusOK {
		t.Fatalf("list = %d %+v", code, env)
	}
	var all struct {
		ATP []domain.RankingEntry `json:"atp"`
		WTA []domain.RankingEntry `json:"wta"`
		PGA []domain.RankingEntry `json:"pga"`
	}
	_ = json.Unmarshal(env.Data, &all)
	if len(all.ATP) != 4 || len(all.WTA) != 4 || len(all.PGA) != 4 || all.PGA[0].Points != 350.5 {
		t.Fatalf("rankings = %+v", all)
	}

	code, env = h.do(http.MethodGet, "/api/rankings/WTA", "", nil)
	if code != http.StatusOK || env.Type != "wta" || env.Count == nil || *env.Count != 4 {
		t.Fatalf("get wta = %d %+v", code, env)
	}
	if code, env = h.do(http.MethodGet, "/api/rankings/nba", "", nil); code != http.StatusBadRequest {
		t.Fatalf("invalid type = %d %+v", code, env)
	}

	body := map[string]any{"players": []map[string]any{
		{"rank": 2, "player": "Jannik Sinner", "country": "IT", "points": 11830},
		{"rank": 1, "player": "Carlos Alcaraz", "country": "ES", "points": 12050},
	}}
	demo := h.login("demo", "demo123")
	if code, _ := h.do(http.MethodPut, "/api/admin/rankings/atp", demo, body); code != http.StatusForbidden {
		t.Fatalf("user replace = %d, want 403", code)
	}
	admin := h.login("admin", "admin123")
	bad := map[string]any{"players": []map[string]any{{"rank": 0, "player": "X", "points": 1}}}
	if code, env := h.do(http.MethodPut, "/api/admin/rankings/atp", admin, bad); code != http.StatusBadRequest {
		t.Fatalf("rank 0 = %d %+v", code, env)
	}
	if code, env := h.do(http.MethodPut, "/api/admin/rankings/atp", admin, body); code != http.StatusOK {
		t.Fatalf("replace = %d %+v", code, env)
	}

	_, env = h.do(http.MethodGet, "/api/rankings/atp", "", nil)
	var atp []domain.RankingEntry
	_ = json.Unmarshal(env.Data, &atp)
	if len(atp) != 2 || atp[0].Player != "Carlos Alcaraz" {
		t.Fatalf("atp after replace = %+v", atp)
	}
}

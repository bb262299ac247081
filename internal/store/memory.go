package store

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/radieske/ace-putt-platform/internal/domain"
)

// MemoryAccounts é o fallback local de contas. Os dados são do processo:
// múltiplas instâncias não compartilham esse estado.
type MemoryAccounts struct {
	mu    sync.Mutex
	seq   int64
	items []domain.Account
	now   func() time.Time
}

func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{now: time.Now}
}

func (m *MemoryAccounts) Create(_ context.Context, a *domain.Account) error {
	a.Normalize()
	if err := a.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].Email == a.Email || m.items[i].Username == a.Username {
			return domain.ErrDuplicate
		}
	}
	m.seq++
	now := m.now().UTC()
	a.ID = strconv.FormatInt(m.seq, 10)
	a.CreatedAt, a.UpdatedAt = now, now
	m.items = append(m.items, *a)
	return nil
}

func (m *MemoryAccounts) indexOf(id string) int {
	for i := range m.items {
		if m.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *MemoryAccounts) Get(_ context.Context, id string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	a := m.items[i]
	return &a, nil
}

func (m *MemoryAccounts) FindByLogin(_ context.Context, login string) (*domain.Account, error) {
	login = strings.TrimSpace(login)
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].Email == strings.ToLower(login) || m.items[i].Username == login {
			a := m.items[i]
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MemoryAccounts) List(_ context.Context, f AccountFilter) ([]domain.Account, error) {
	m.mu.Lock()
	out := make([]domain.Account, len(m.items))
	copy(out, m.items)
	m.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if f.SortByPoints {
			return out[i].Points > out[j].Points
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// AdjustBalance soma delta ao saldo sob lock; falha sem mutação se ficaria negativo.
func (m *MemoryAccounts) AdjustBalance(_ context.Context, id string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return 0, domain.ErrNotFound
	}
	next := m.items[i].Points + delta
	if next < 0 {
		return m.items[i].Points, domain.ErrInsufficientFunds
	}
	m.items[i].Points = next
	m.items[i].UpdatedAt = m.now().UTC()
	return next, nil
}

func (m *MemoryAccounts) SetBalance(_ context.Context, id string, points int64) (*domain.Account, error) {
	if points < 0 {
		return nil, domain.Invalid("points", "must not be negative")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	m.items[i].Points = points
	m.items[i].UpdatedAt = m.now().UTC()
	a := m.items[i]
	return &a, nil
}

// MemoryBets é o fallback local do ledger de apostas, com ids sequenciais.
type MemoryBets struct {
	mu    sync.Mutex
	seq   int64
	items []domain.Bet
	now   func() time.Time
}

func NewMemoryBets() *MemoryBets {
	return &MemoryBets{now: time.Now}
}

func (m *MemoryBets) Create(_ context.Context, b *domain.Bet) error {
	if err := b.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	now := m.now().UTC()
	b.ID = strconv.FormatInt(m.seq, 10)
	b.CreatedAt, b.UpdatedAt = now, now
	m.items = append(m.items, *b)
	return nil
}

func (m *MemoryBets) indexOf(id string) int {
	for i := range m.items {
		if m.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *MemoryBets) Get(_ context.Context, id string) (*domain.Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	b := m.items[i]
	return &b, nil
}

func (m *MemoryBets) List(_ context.Context, f domain.BetFilter) ([]domain.Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Bet, 0, len(m.items))
	for i := range m.items {
		if f.Match(&m.items[i]) {
			out = append(out, m.items[i])
		}
	}
	return out, nil
}

func (m *MemoryBets) Resolve(_ context.Context, id string, status domain.BetStatus) (*domain.Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	if err := m.items[i].CanTransition(status); err != nil {
		return nil, err
	}
	m.items[i].Status = status
	m.items[i].UpdatedAt = m.now().UTC()
	b := m.items[i]
	return &b, nil
}

func (m *MemoryBets) UpdateStake(_ context.Context, id string, from, to int64) (*domain.Bet, error) {
	if to < domain.MinStake {
		return nil, domain.Invalid("amount", "minimum bet is %d points", domain.MinStake)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	if m.items[i].Status != domain.BetPending {
		return nil, domain.ErrNotPending
	}
	if m.items[i].Amount != from {
		return nil, domain.ErrConflict
	}
	m.items[i].Amount = to
	m.items[i].UpdatedAt = m.now().UTC()
	b := m.items[i]
	return &b, nil
}

func (m *MemoryBets) DeletePending(_ context.Context, id string) (*domain.Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	if m.items[i].Status != domain.BetPending {
		return nil, domain.ErrNotPending
	}
	b := m.items[i]
	m.items = append(m.items[:i], m.items[i+1:]...)
	return &b, nil
}

// MemoryRankings guarda os rankings do processo (seed das fixtures).
type MemoryRankings struct {
	mu    sync.RWMutex
	items map[domain.RankingType]domain.Ranking
	now   func() time.Time
}

func NewMemoryRankings(seed ...domain.Ranking) *MemoryRankings {
	m := &MemoryRankings{items: make(map[domain.RankingType]domain.Ranking), now: time.Now}
	for _, r := range seed {
		_ = m.Replace(context.Background(), &r)
	}
	return m
}

func cloneRanking(r domain.Ranking) domain.Ranking {
	r.Players = append([]domain.RankingEntry(nil), r.Players...)
	return r
}

func (m *MemoryRankings) List(context.Context) ([]domain.Ranking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Ranking, 0, len(m.items))
	for _, t := range domain.RankingTypes {
		if r, ok := m.items[t]; ok {
			out = append(out, cloneRanking(r))
		}
	}
	return out, nil
}

func (m *MemoryRankings) Get(_ context.Context, t domain.RankingType) (*domain.Ranking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.items[t]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := cloneRanking(r)
	return &cp, nil
}

func (m *MemoryRankings) Replace(_ context.Context, r *domain.Ranking) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.LastUpdated.IsZero() {
		r.LastUpdated = m.now().UTC()
	}
	m.mu.Lock()
	m.items[r.Type] = cloneRanking(*r)
	m.mu.Unlock()
	return nil
}

// MemoryEvents espelha o catálogo quando não há backend durável.
type MemoryEvents struct {
	mu          sync.RWMutex
	matches     map[string]domain.Match
	tournaments map[string]domain.Tournament
}

func NewMemoryEvents() *MemoryEvents {
	return &MemoryEvents{
		matches:     make(map[string]domain.Match),
		tournaments: make(map[string]domain.Tournament),
	}
}

func (m *MemoryEvents) SaveMatch(_ context.Context, match *domain.Match) error {
	if match.ID == "" {
		return domain.Invalid("id", "is required")
	}
	cp := *match
	cp.Sets = append([]domain.SetScore(nil), match.Sets...)
	m.mu.Lock()
	m.matches[match.ID] = cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryEvents) SaveTournament(_ context.Context, t *domain.Tournament) error {
	if t.ID == "" {
		return domain.Invalid("id", "is required")
	}
	cp := *t
	cp.Leaderboard = append([]domain.LeaderboardEntry(nil), t.Leaderboard...)
	m.mu.Lock()
	m.tournaments[t.ID] = cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryEvents) DeleteMatch(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.matches[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.matches, id)
	return nil
}

func (m *MemoryEvents) DeleteTournament(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tournaments[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.tournaments, id)
	return nil
}

func (m *MemoryEvents) Matches(context.Context) ([]domain.Match, error) {
	m.mu.RLock()
	out := make([]domain.Match, 0, len(m.matches))
	for _, v := range m.matches {
		out = append(out, v)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryEvents) Tournaments(context.Context) ([]domain.Tournament, error) {
	m.mu.RLock()
	out := make([]domain.Tournament, 0, len(m.tournaments))
	for _, v := range m.tournaments {
		out = append(out, v)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

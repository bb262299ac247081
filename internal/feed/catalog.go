// Package feed mantém o catálogo de partidas e torneios e o simulador que
// avança o estado deles ao longo do tempo.
package feed

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/radieske/ace-putt-platform/internal/domain"
)

// Update é publicado a cada mudança de evento (simulador ou administração).
type Update struct {
	Ref     domain.EventRef    `json:"ref"`
	Status  domain.EventStatus `json:"status"`
	Match   *domain.Match      `json:"match,omitempty"`
	Golf    *domain.Tournament `json:"tournament,omitempty"`
	Outcome domain.Outcome     `json:"outcome"`
}

// Finished indica que a mudança encerrou o evento.
func (u Update) Finished() bool { return u.Status == domain.EventFinished }

// WinnerName devolve o nome do vencedor de um evento encerrado.
func (u Update) WinnerName() string {
	switch {
	case u.Outcome.Winner == 0:
		return ""
	case u.Match != nil && u.Outcome.Winner == 1:
		return u.Match.Player1.Name
	case u.Match != nil && u.Outcome.Winner == 2:
		return u.Match.Player2.Name
	case u.Golf != nil:
		for _, e := range u.Golf.Leaderboard {
			if e.Number == u.Outcome.Winner {
				return e.Player
			}
		}
	}
	return ""
}

// Listener recebe as mudanças após o catálogo liberar o lock.
type Listener func(Update)

// Catalog é o estado em memória dos eventos. Implementa ledger.EventSource.
type Catalog struct {
	mu          sync.RWMutex
	matches     map[string]*domain.Match
	tournaments map[string]*domain.Tournament
	seq         int64
	listeners   []Listener
	onDelete    []func(domain.EventRef)
	now         func() time.Time
}

func NewCatalog() *Catalog {
	return &Catalog{
		matches:     make(map[string]*domain.Match),
		tournaments: make(map[string]*domain.Tournament),
		now:         time.Now,
	}
}

// Subscribe registra um listener; chamar antes de iniciar o simulador.
func (c *Catalog) Subscribe(l Listener) {
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()
}

// OnDelete registra quem deve saber de eventos removidos pela administração.
func (c *Catalog) OnDelete(fn func(domain.EventRef)) {
	c.mu.Lock()
	c.onDelete = append(c.onDelete, fn)
	c.mu.Unlock()
}

func (c *Catalog) emitDelete(ref domain.EventRef) {
	c.mu.RLock()
	fns := append(([]func(domain.EventRef))(nil), c.onDelete...)
	c.mu.RUnlock()
	for _, fn := range fns {
		fn(ref)
	}
}

func (c *Catalog) emit(updates []Update) {
	if len(updates) == 0 {
		return
	}
	c.mu.RLock()
	ls := append([]Listener(nil), c.listeners...)
	c.mu.RUnlock()
	for _, u := range updates {
		for _, l := range ls {
			l(u)
		}
	}
}

func (c *Catalog) nextID(existing func(string) bool) string {
	for {
		c.seq++
		id := strconv.FormatInt(c.seq, 10)
		if !existing(id) {
			return id
		}
	}
}

func matchUpdate(m *domain.Match) Update {
	cp := cloneMatch(m)
	return Update{Ref: domain.EventRef{Type: domain.EventTennis, ID: m.ID}, Status: m.Status, Match: cp, Outcome: cp.Outcome()}
}

func tournamentUpdate(t *domain.Tournament) Update {
	cp := cloneTournament(t)
	return Update{Ref: domain.EventRef{Type: domain.EventGolf, ID: t.ID}, Status: t.Status, Golf: cp, Outcome: cp.Outcome()}
}

func cloneMatch(m *domain.Match) *domain.Match {
	cp := *m
	cp.Sets = append([]domain.SetScore(nil), m.Sets...)
	return &cp
}

func cloneTournament(t *domain.Tournament) *domain.Tournament {
	cp := *t
	cp.Leaderboard = append([]domain.LeaderboardEntry(nil), t.Leaderboard...)
	return &cp
}

// AddMatch valida e insere a partida. Id vazio recebe um sequencial.
func (c *Catalog) AddMatch(m domain.Match) (*domain.Match, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	if m.ID == "" {
		m.ID = c.nextID(func(id string) bool { _, ok := c.matches[id]; return ok })
	} else if _, ok := c.matches[m.ID]; ok {
		c.mu.Unlock()
		return nil, domain.ErrDuplicate
	}
	now := c.now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	stored := cloneMatch(&m)
	c.matches[m.ID] = stored
	u := matchUpdate(stored)
	c.mu.Unlock()

	c.emit([]Update{u})
	return u.Match, nil
}

func (c *Catalog) AddTournament(t domain.Tournament) (*domain.Tournament, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	if t.ID == "" {
		t.ID = c.nextID(func(id string) bool { _, ok := c.tournaments[id]; return ok })
	} else if _, ok := c.tournaments[t.ID]; ok {
		c.mu.Unlock()
		return nil, domain.ErrDuplicate
	}
	now := c.now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	stored := cloneTournament(&t)
	c.tournaments[t.ID] = stored
	u := tournamentUpdate(stored)
	c.mu.Unlock()

	c.emit([]Update{u})
	return u.Golf, nil
}

// MatchFilter filtra a listagem de partidas; Player busca por substring sem caixa.
type MatchFilter struct {
	Status domain.EventStatus
	Player string
}

func (c *Catalog) Matches(f MatchFilter) []domain.Match {
	player := strings.ToLower(strings.TrimSpace(f.Player))
	c.mu.RLock()
	out := make([]domain.Match, 0, len(c.matches))
	for _, m := range c.matches {
		if f.Status != "" && m.Status != f.Status {
			continue
		}
		if player != "" &&
			!strings.Contains(strings.ToLower(m.Player1.Name), player) &&
			!strings.Contains(strings.ToLower(m.Player2.Name), player) {
			continue
		}
		out = append(out, *cloneMatch(m))
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (c *Catalog) Match(id string) (*domain.Match, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.matches[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneMatch(m), nil
}

// TournamentFilter filtra a listagem de torneios.
type TournamentFilter struct {
	Status domain.EventStatus
}

func (c *Catalog) Tournaments(f TournamentFilter) []domain.Tournament {
	c.mu.RLock()
	out := make([]domain.Tournament, 0, len(c.tournaments))
	for _, t := range c.tournaments {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		out = append(out, *cloneTournament(t))
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (c *Catalog) Tournament(id string) (*domain.Tournament, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tournaments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneTournament(t), nil
}

// StatusPatch é a alteração administrativa de um evento.
// Winner nil ao encerrar usa quem lidera o placar.
type StatusPatch struct {
	Status *domain.EventStatus
	Winner *int
}

func (c *Catalog) PatchMatch(id string, p StatusPatch) (*domain.Match, error) {
	c.mu.Lock()
	m, ok := c.matches[id]
	if !ok {
		c.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	next := cloneMatch(m)
	if p.Status != nil {
		if !m.Status.CanAdvance(*p.Status) {
			c.mu.Unlock()
			return nil, domain.ErrInvalidTransition
		}
		next.Status = *p.Status
	}
	if p.Winner != nil {
		next.Winner = *p.Winner
	}
	if next.Status == domain.EventFinished && next.Winner == 0 {
		next.Winner = next.LeadingSide()
		if next.Winner == 0 {
			c.mu.Unlock()
			return nil, domain.Invalid("winner", "is required when the score is level")
		}
	}
	if err := next.Validate(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if m.Status == domain.EventFinished && next.Winner != m.Winner {
		c.mu.Unlock()
		return nil, domain.ErrInvalidTransition
	}
	next.UpdatedAt = c.now().UTC()
	c.matches[id] = next
	u := matchUpdate(next)
	c.mu.Unlock()

	c.emit([]Update{u})
	return u.Match, nil
}

func (c *Catalog) PatchTournament(id string, p StatusPatch) (*domain.Tournament, error) {
	c.mu.Lock()
	t, ok := c.tournaments[id]
	if !ok {
		c.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	next := cloneTournament(t)
	if p.Status != nil {
		if !t.Status.CanAdvance(*p.Status) {
			c.mu.Unlock()
			return nil, domain.ErrInvalidTransition
		}
		next.Status = *p.Status
	}
	if p.Winner != nil {
		next.Winner = *p.Winner
	}
	if next.Status == domain.EventFinished && next.Winner == 0 {
		next.Winner = next.Leader()
	}
	if err := next.Validate(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if t.Status == domain.EventFinished && next.Winner != t.Winner {
		c.mu.Unlock()
		return nil, domain.ErrInvalidTransition
	}
	next.UpdatedAt = c.now().UTC()
	c.tournaments[id] = next
	u := tournamentUpdate(next)
	c.mu.Unlock()

	c.emit([]Update{u})
	return u.Golf, nil
}

func (c *Catalog) DeleteMatch(id string) error {
	c.mu.Lock()
	if _, ok := c.matches[id]; !ok {
		c.mu.Unlock()
		return domain.ErrNotFound
	}
	delete(c.matches, id)
	c.mu.Unlock()

	c.emitDelete(domain.EventRef{Type: domain.EventTennis, ID: id})
	return nil
}

func (c *Catalog) DeleteTournament(id string) error {
	c.mu.Lock()
	if _, ok := c.tournaments[id]; !ok {
		c.mu.Unlock()
		return domain.ErrNotFound
	}
	delete(c.tournaments, id)
	c.mu.Unlock()

	c.emitDelete(domain.EventRef{Type: domain.EventGolf, ID: id})
	return nil
}

// Outcome devolve o resultado do evento para o ledger.
func (c *Catalog) Outcome(_ context.Context, ref domain.EventRef) (domain.Outcome, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch ref.Type {
	case domain.EventTennis:
		if m, ok := c.matches[ref.ID]; ok {
			return m.Outcome(), nil
		}
	case domain.EventGolf:
		if t, ok := c.tournaments[ref.ID]; ok {
			return t.Outcome(), nil
		}
	}
	return domain.Outcome{}, domain.ErrNotFound
}

// Finished lista os eventos encerrados (varredura do auto-settler).
func (c *Catalog) Finished(context.Context) ([]domain.EventRef, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []domain.EventRef
	for id, m := range c.matches {
		if m.Status == domain.EventFinished {
			out = append(out, domain.EventRef{Type: domain.EventTennis, ID: id})
		}
	}
	for id, t := range c.tournaments {
		if t.Status == domain.EventFinished {
			out = append(out, domain.EventRef{Type: domain.EventGolf, ID: id})
		}
	}
	return out, nil
}

// Snapshot devolve o estado atual do evento no formato publicado ao vivo.
func (c *Catalog) Snapshot(ref domain.EventRef) (Update, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch ref.Type {
	case domain.EventTennis:
		if m, ok := c.matches[ref.ID]; ok {
			return matchUpdate(m), true
		}
	case domain.EventGolf:
		if t, ok := c.tournaments[ref.ID]; ok {
			return tournamentUpdate(t), true
		}
	}
	return Update{}, false
}

// Stats conta eventos por status (painel administrativo).
type Stats struct {
	Matches     map[domain.EventStatus]int `json:"matches"`
	Tournaments map[domain.EventStatus]int `json:"tournaments"`
}

func (c *Catalog) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Stats{Matches: map[domain.EventStatus]int{}, Tournaments: map[domain.EventStatus]int{}}
	for _, m := range c.matches {
		s.Matches[m.Status]++
	}
	for _, t := range c.tournaments {
		s.Tournaments[t.Status]++
	}
	return s
}

// advance aplica fm/ft a cada evento sob lock e emite as mudanças depois.
// As funções devolvem true quando alteraram o evento.
func (c *Catalog) advance(fm func(*domain.Match) bool, ft func(*domain.Tournament) bool) []Update {
	var updates []Update
	c.mu.Lock()
	now := c.now().UTC()
	for _, id := range sortedKeys(c.matches) {
		m := c.matches[id]
		if m.Status == domain.EventFinished {
			continue
		}
		if fm(m) {
			m.UpdatedAt = now
			updates = append(updates, matchUpdate(m))
		}
	}
	for _, id := range sortedKeys(c.tournaments) {
		t := c.tournaments[id]
		if t.Status == domain.EventFinished {
			continue
		}
		if ft(t) {
			t.UpdatedAt = now
			updates = append(updates, tournamentUpdate(t))
		}
	}
	c.mu.Unlock()

	c.emit(updates)
	return updates
}

// sortedKeys garante ordem determinística de iteração (reprodutível com rand semeado).
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package feed

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/ace-putt-platform/internal/domain"
	"github.com/radieske/ace-putt-platform/internal/store"
)

// EventStore é onde o catálogo é gravado (store.FallbackEvents).
type EventStore interface {
	SaveMatch(ctx context.Context, m *domain.Match) (store.Backend, error)
	SaveTournament(ctx context.Context, t *domain.Tournament) (store.Backend, error)
	DeleteMatch(ctx context.Context, id string) (store.Backend, error)
	DeleteTournament(ctx context.Context, id string) (store.Backend, error)
	Matches(ctx context.Context) ([]domain.Match, store.Backend, error)
	Tournaments(ctx context.Context) ([]domain.Tournament, store.Backend, error)
}

const persistTimeout = 3 * time.Second

// Persister mantém o armazenamento em dia com o catálogo: restaura na subida
// e grava cada mudança (simulador ou administração) e cada remoção.
type Persister struct {
	repo    EventStore
	timeout time.Duration
	log     *zap.Logger
}

func NewPersister(repo EventStore, log *zap.Logger) *Persister {
	if log == nil {
		log = zap.NewNop()
	}
	return &Persister{repo: repo, timeout: persistTimeout, log: log}
}

// Restore carrega no catálogo os eventos gravados e devolve quantos entraram.
// Zero significa armazenamento vazio: o chamador semeia com provedor ou fixtures.
func (p *Persister) Restore(ctx context.Context, c *Catalog) (int, error) {
	ms, from, err := p.repo.Matches(ctx)
	if err != nil {
		return 0, err
	}
	ts, _, err := p.repo.Tournaments(ctx)
	if err != nil {
		return 0, err
	}
	loaded, skipped := c.Seed(ms, ts)
	if skipped > 0 {
		p.log.Warn("stored events failed validation", zap.Int("skipped", skipped))
	}
	if loaded > 0 {
		p.log.Info("events restored", zap.Int("loaded", loaded), zap.String("source", string(from)))
	}
	return loaded, nil
}

// Attach passa a gravar as mudanças do catálogo. Chamar depois de Restore
// para não regravar o que acabou de ser lido.
func (p *Persister) Attach(c *Catalog) {
	c.Subscribe(p.save)
	c.OnDelete(p.remove)
}

func (p *Persister) save(u Update) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	var err error
	switch {
	case u.Match != nil:
		_, err = p.repo.SaveMatch(ctx, u.Match)
	case u.Golf != nil:
		_, err = p.repo.SaveTournament(ctx, u.Golf)
	}
	if err != nil {
		p.log.Warn("persist event failed",
			zap.String("type", string(u.Ref.Type)),
			zap.String("eventId", u.Ref.ID),
			zap.Error(err),
		)
	}
}

func (p *Persister) remove(ref domain.EventRef) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	var err error
	if ref.Type == domain.EventGolf {
		_, err = p.repo.DeleteTournament(ctx, ref.ID)
	} else {
		_, err = p.repo.DeleteMatch(ctx, ref.ID)
	}
	if err != nil {
		p.log.Warn("delete stored event failed",
			zap.String("type", string(ref.Type)),
			zap.String("eventId", ref.ID),
			zap.Error(err),
		)
	}
}

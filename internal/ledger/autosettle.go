package ledger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/ace-putt-platform/internal/domain"
)

// FinishedLister lista eventos encerrados (varredura periódica).
type FinishedLister interface {
	Finished(ctx context.Context) ([]domain.EventRef, error)
}

// AutoSettler liquida apostas pendentes quando o feed encerra um evento e,
// a cada intervalo, varre eventos encerrados em busca de pendências (retries).
type AutoSettler struct {
	svc      *Service
	lister   FinishedLister
	interval time.Duration
	queue    chan domain.EventRef
	log      *zap.Logger
}

func NewAutoSettler(svc *Service, lister FinishedLister, interval time.Duration, log *zap.Logger) *AutoSettler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AutoSettler{
		svc:      svc,
		lister:   lister,
		interval: interval,
		queue:    make(chan domain.EventRef, 64),
		log:      log,
	}
}

// Notify enfileira um evento encerrado sem bloquear o chamador (callback do simulador).
// Fila cheia é tolerada: a varredura periódica cobre o evento.
func (a *AutoSettler) Notify(ref domain.EventRef) {
	select {
	case a.queue <- ref:
	default:
		a.log.Warn("settle queue full, deferring to sweep", zap.String("eventId", ref.ID))
	}
}

// SettleEvent liquida todas as apostas pendentes do evento.
// Devolve quantas foram efetivamente resolvidas por esta chamada.
func (a *AutoSettler) SettleEvent(ctx context.Context, ref domain.EventRef) (int, error) {
	pending, err := a.svc.Pending(ctx, ref)
	if err != nil {
		return 0, err
	}
	settled := 0
	var errs []error
	for _, b := range pending {
		res, err := a.svc.Settle(ctx, b.ID)
		switch {
		case errors.Is(err, domain.ErrNotReady):
			return settled, nil
		case err != nil:
			a.log.Warn("auto settle failed",
				zap.String("betId", b.ID),
				zap.String("eventId", ref.ID),
				zap.Error(err),
			)
			errs = append(errs, err)
		case res.Settled:
			settled++
		}
	}
	return settled, errors.Join(errs...)
}

func (a *AutoSettler) sweep(ctx context.Context) {
	refs, err := a.lister.Finished(ctx)
	if err != nil {
		a.log.Warn("list finished events", zap.Error(err))
		return
	}
	for _, ref := range refs {
		if ctx.Err() != nil {
			return
		}
		if n, _ := a.SettleEvent(ctx, ref); n > 0 {
			a.log.Info("sweep settled bets", zap.String("eventId", ref.ID), zap.Int("count", n))
		}
	}
}

// Run processa a fila e a varredura até ctx ser cancelado.
func (a *AutoSettler) Run(ctx context.Context) error {
	t := time.NewTicker(a.interval)
	defer t.Stop()

	a.log.Info("auto settler started", zap.Duration("sweepInterval", a.interval))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ref := <-a.queue:
			n, err := a.SettleEvent(ctx, ref)
			a.log.Info("event finished, bets settled",
				zap.String("type", string(ref.Type)),
				zap.String("eventId", ref.ID),
				zap.Int("count", n),
				zap.NamedError("errors", err),
			)
		case <-t.C:
			a.sweep(ctx)
		}
	}
}

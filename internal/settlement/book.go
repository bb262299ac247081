// Package settlement liquida apostas a partir das notificações event_finished
// consumidas do Kafka, fora do processo da API.
package settlement

import (
	"context"
	"sync"

	"github.com/radieske/ace-putt-platform/internal/domain"
	"github.com/radieske/ace-putt-platform/pkg/contracts/events"
)

// OutcomeBook guarda os resultados recebidos. Implementa ledger.EventSource
// e ledger.FinishedLister para o worker.
type OutcomeBook struct {
	mu       sync.RWMutex
	outcomes map[domain.EventRef]domain.Outcome
}

func NewOutcomeBook() *OutcomeBook {
	return &OutcomeBook{outcomes: make(map[domain.EventRef]domain.Outcome)}
}

// Record registra o resultado de um evento encerrado.
func (b *OutcomeBook) Record(e events.EventFinished) (domain.EventRef, error) {
	ref := domain.EventRef{Type: domain.EventType(e.EventType), ID: e.EventID}
	if !ref.Type.Valid() || ref.ID == "" {
		return ref, domain.Invalid("event", "unknown event %q:%q", e.EventType, e.EventID)
	}
	if e.Winner <= 0 {
		return ref, domain.Invalid("winner", "finished event %s without winner", e.EventID)
	}
	b.mu.Lock()
	b.outcomes[ref] = domain.Outcome{
		Ref:        ref,
		Status:     domain.EventFinished,
		Winner:     e.Winner,
		Selections: []int{e.Winner},
	}
	b.mu.Unlock()
	return ref, nil
}

func (b *OutcomeBook) Outcome(_ context.Context, ref domain.EventRef) (domain.Outcome, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	o, ok := b.outcomes[ref]
	if !ok {
		return domain.Outcome{}, domain.ErrNotFound
	}
	return o, nil
}

func (b *OutcomeBook) Finished(context.Context) ([]domain.EventRef, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.EventRef, 0, len(b.outcomes))
	for ref := range b.outcomes {
		out = append(out, ref)
	}
	return out, nil
}

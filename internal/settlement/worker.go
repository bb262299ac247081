package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/ace-putt-platform/internal/domain"
	skafka "github.com/radieske/ace-putt-platform/internal/shared/kafka"
	"github.com/radieske/ace-putt-platform/pkg/contracts/events"
)

// Source entrega a próxima mensagem do tópico event_finished.
type Source interface {
	Next(ctx context.Context) (key, value []byte, err error)
}

// KafkaSource adapta um kafka.Reader (consumer group) a Source.
type KafkaSource struct{ Reader *kafka.Reader }

func (s KafkaSource) Next(ctx context.Context) ([]byte, []byte, error) {
	return skafka.ReadNext(ctx, s.Reader)
}

// EventSettler liquida as apostas pendentes de um evento (ledger.AutoSettler).
type EventSettler interface {
	SettleEvent(ctx context.Context, ref domain.EventRef) (int, error)
}

type Worker struct {
	src     Source
	book    *OutcomeBook
	settler EventSettler
	log     *zap.Logger
	backoff time.Duration
}

func NewWorker(src Source, book *OutcomeBook, settler EventSettler, log *zap.Logger) *Worker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Worker{src: src, book: book, settler: settler, log: log, backoff: time.Second}
}

// Handle processa uma mensagem event_finished: registra o resultado e liquida.
func (w *Worker) Handle(ctx context.Context, value []byte) (int, error) {
	var e events.EventFinished
	if err := json.Unmarshal(value, &e); err != nil {
		return 0, domain.Invalid("", "unmarshal event_finished: %v", err)
	}
	ref, err := w.book.Record(e)
	if err != nil {
		return 0, err
	}
	n, err := w.settler.SettleEvent(ctx, ref)
	if err != nil {
		return n, fmt.Errorf("settle %s %s: %w", ref.Type, ref.ID, err)
	}
	w.log.Info("event finished, bets settled",
		zap.String("type", string(ref.Type)),
		zap.String("eventId", ref.ID),
		zap.Int("winner", e.Winner),
		zap.String("winnerName", e.WinnerName),
		zap.Int("count", n),
	)
	return n, nil
}

// Run consome até ctx ser cancelado. Mensagem inválida é descartada;
// falha de liquidação fica para a varredura do AutoSettler.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("settlement worker started")
	for {
		_, value, err := w.src.Next(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			w.log.Warn("kafka read", zap.Error(err))
			w.sleep(ctx)
			continue
		}
		if _, err := w.Handle(ctx, value); err != nil {
			if domain.IsDomain(err) {
				w.log.Error("discarding event_finished", zap.ByteString("payload", value), zap.Error(err))
				continue
			}
			w.log.Error("process event_finished", zap.Error(err))
			w.sleep(ctx)
		}
	}
}

func (w *Worker) sleep(ctx context.Context) {
	t := time.NewTimer(w.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

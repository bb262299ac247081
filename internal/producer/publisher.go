// Package producer publica notificações de apostas e eventos no Kafka.
package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	skafka "github.com/radieske/ace-putt-platform/internal/shared/kafka"
	"github.com/radieske/ace-putt-platform/pkg/contracts/events"
)

// Topics mapeia cada notificação ao seu tópico.
type Topics struct {
	BetPlaced     string
	BetSettled    string
	BetCancelled  string
	EventFinished string
}

type KafkaPublisher struct {
	Writer *kafka.Writer
	Topics Topics
	now    func() time.Time
}

func NewKafkaPublisher(w *kafka.Writer, topics Topics) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Topics: topics, now: time.Now}
}

func (p *KafkaPublisher) publish(ctx context.Context, topic, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}
	if err := skafka.WriteJSON(ctx, p.Writer, topic, key, b); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// chave = id da aposta: mantém a ordem placed -> settled|cancelled na mesma partição
func (p *KafkaPublisher) PublishBetPlaced(ctx context.Context, e events.BetPlaced) error {
	e.TsUnixMs = p.now().UnixMilli()
	return p.publish(ctx, p.Topics.BetPlaced, e.BetID, e)
}

func (p *KafkaPublisher) PublishBetSettled(ctx context.Context, e events.BetSettled) error {
	e.TsUnixMs = p.now().UnixMilli()
	return p.publish(ctx, p.Topics.BetSettled, e.BetID, e)
}

func (p *KafkaPublisher) PublishBetCancelled(ctx context.Context, e events.BetCancelled) error {
	e.TsUnixMs = p.now().UnixMilli()
	return p.publish(ctx, p.Topics.BetCancelled, e.BetID, e)
}

func (p *KafkaPublisher) PublishEventFinished(ctx context.Context, e events.EventFinished) error {
	return p.publish(ctx, p.Topics.EventFinished, e.EventType+":"+e.EventID, e)
}

func (p *KafkaPublisher) Close() error { return p.Writer.Close() }

// Noop é usado quando KAFKA_BROKERS não está configurado.
type Noop struct{}

func (Noop) PublishBetPlaced(context.Context, events.BetPlaced) error         { return nil }
func (Noop) PublishBetSettled(context.Context, events.BetSettled) error       { return nil }
func (Noop) PublishBetCancelled(context.Context, events.BetCancelled) error   { return nil }
func (Noop) PublishEventFinished(context.Context, events.EventFinished) error { return nil }
func (Noop) Close() error                                                     { return nil }

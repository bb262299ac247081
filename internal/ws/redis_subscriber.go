package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func marshal(v any) ([]byte, error) { return json.Marshal(v) }

// envelope lê só o eventId; o payload é repassado como veio
type envelope struct {
	EventID string `json:"eventId"`
}

// RunRedisSubscriber escuta o canal Redis Pub/Sub e repassa as atualizações
// para os clientes WebSocket inscritos no eventId. Bloqueia até ctx encerrar.
//
// Funcionamento:
// - Recebe mensagens JSON do canal Redis
// - Extrai o eventId do envelope
// - Chama hub.Broadcast com o payload original
func RunRedisSubscriber(ctx context.Context, r *redis.Client, channel string, hub *Hub, log *zap.Logger) error {
	sub := r.Subscribe(ctx, channel)
	defer sub.Close() // encerra a inscrição ao finalizar o contexto

	ch := sub.Channel()
	log.Info("redis subscriber started", zap.String("channel", channel))
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil || env.EventID == "" {
				log.Warn("ws subscriber unmarshal error", zap.Error(err))
				continue
			}
			hub.Broadcast(env.EventID, []byte(msg.Payload))
		}
	}
}

package feed

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/ace-putt-platform/internal/domain"
)

// Message é o envelope das atualizações ao vivo (Redis e websocket).
type Message struct {
	EventID string `json:"eventId"`
	Payload Update `json:"payload"`
}

// Key identifica o evento nos canais ao vivo: "<tipo>:<id>".
func Key(ref domain.EventRef) string { return string(ref.Type) + ":" + ref.ID }

func encode(u Update) (string, []byte, error) {
	key := Key(u.Ref)
	b, err := json.Marshal(Message{EventID: key, Payload: u})
	return key, b, err
}

// Sink recebe mensagens já serializadas (o hub websocket).
type Sink interface {
	Broadcast(eventID string, msg []byte)
}

// LocalBroadcaster entrega as mudanças direto ao hub do processo (sem Redis).
func LocalBroadcaster(sink Sink, log *zap.Logger) Listener {
	return func(u Update) {
		key, b, err := encode(u)
		if err != nil {
			log.Warn("encode live update", zap.Error(err))
			return
		}
		sink.Broadcast(key, b)
	}
}

// RedisBroadcaster publica as mudanças no canal Pub/Sub e grava o último
// estado de cada evento (snapshot para quem assina depois).
type RedisBroadcaster struct {
	r       *redis.Client
	channel string
	cache   *RedisCache
	log     *zap.Logger
}

func NewRedisBroadcaster(r *redis.Client, channel string, cache *RedisCache, log *zap.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{r: r, channel: channel, cache: cache, log: log}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, u Update) error {
	key, payload, err := encode(u)
	if err != nil {
		return err
	}
	if b.cache != nil {
		if err := b.cache.Set(ctx, key, payload); err != nil {
			b.log.Warn("cache live snapshot", zap.String("eventId", key), zap.Error(err))
		}
	}
	return b.r.Publish(ctx, b.channel, payload).Err()
}

// Listener adapta Publish ao catálogo; falhas de Redis só são logadas.
func (b *RedisBroadcaster) Listener() Listener {
	return func(u Update) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := b.Publish(ctx, u); err != nil {
			b.log.Warn("redis publish failed", zap.String("eventId", Key(u.Ref)), zap.Error(err))
		}
	}
}

// RedisCache guarda o último Message de cada evento com TTL.
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

// key gera a chave Redis do snapshot de um evento
func cacheKey(eventID string) string { return "live:event:" + eventID }

func (r *RedisCache) Set(ctx context.Context, eventID string, payload []byte) error {
	return r.Client.Set(ctx, cacheKey(eventID), payload, r.TTL).Err()
}

// Get devolve o snapshot; ok=false quando não existe.
func (r *RedisCache) Get(ctx context.Context, eventID string) ([]byte, bool, error) {
	b, err := r.Client.Get(ctx, cacheKey(eventID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// ParseKey é o inverso de Key.
func ParseKey(key string) (domain.EventRef, bool) {
	typ, id, ok := strings.Cut(key, ":")
	ref := domain.EventRef{Type: domain.EventType(typ), ID: id}
	if !ok || id == "" || !ref.Type.Valid() {
		return domain.EventRef{}, false
	}
	return ref, true
}

// SnapshotMessage devolve o estado atual do evento já no envelope Message.
func (c *Catalog) SnapshotMessage(key string) ([]byte, bool) {
	ref, ok := ParseKey(key)
	if !ok {
		return nil, false
	}
	u, ok := c.Snapshot(ref)
	if !ok {
		return nil, false
	}
	_, b, err := encode(u)
	if err != nil {
		return nil, false
	}
	return b, true
}

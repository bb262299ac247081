package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendBuffer   = 32
	writeTimeout = 2 * time.Second
)

// SnapshotFunc devolve o último estado serializado de um evento, se houver.
type SnapshotFunc func(ctx context.Context, eventID string) ([]byte, bool)

// ConnRecorder acompanha o número de conexões ativas (gauge prometheus).
type ConnRecorder interface {
	WSConnections(delta int)
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub gerencia conexões WebSocket e assinaturas de eventos ao vivo
// subs: mapeia eventID para o conjunto de clientes inscritos
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	subs     map[string]map[*client]struct{}
	snapshot SnapshotFunc
	rec      ConnRecorder
	log      *zap.Logger
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
// snapshot e rec podem ser nil
func NewHub(allowOrigin func(r *http.Request) bool, snapshot SnapshotFunc, rec ConnRecorder, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024, CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*client]struct{}),
		snapshot: snapshot,
		rec:      rec,
		log:      log,
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket
// Permite subscribe/unsubscribe em eventos e responde a pings
// Cada cliente pode se inscrever em múltiplos eventIDs
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}
	h.connected(c, 1)
	go h.writePump(c)

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			if msg.EventID == "" {
				h.reply(c, ServerMsg{Type: "error", Error: "eventId is required"})
				continue
			}
			h.subscribe(c, msg.EventID)
			h.reply(c, ServerMsg{Type: "subscribed", EventID: msg.EventID})
			if h.snapshot != nil {
				if b, ok := h.snapshot(r.Context(), msg.EventID); ok {
					h.enqueue(c, b)
				}
			}
		case "unsubscribe":
			h.unsubscribe(c, msg.EventID)
			h.reply(c, ServerMsg{Type: "unsubscribed", EventID: msg.EventID})
		case "ping":
			h.reply(c, ServerMsg{Type: "pong"})
		default:
			h.reply(c, ServerMsg{Type: "error", Error: "unknown message type"})
		}
	}

	// Remove a conexão de todas as assinaturas ao desconectar
	h.mu.Lock()
	for id, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, id)
		}
	}
	close(c.send)
	h.mu.Unlock()
	h.connected(c, -1)
}

func (h *Hub) connected(c *client, delta int) {
	if h.rec != nil {
		h.rec.WSConnections(delta)
	}
	if delta > 0 {
		h.log.Info("ws client connected", zap.String("client_id", c.id))
	} else {
		h.log.Info("ws client disconnected", zap.String("client_id", c.id))
	}
}

// writePump é o único escritor da conexão (gorilla não aceita escritas concorrentes)
func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for b := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			h.log.Warn("ws write failed", zap.String("client_id", c.id), zap.Error(err))
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) subscribe(c *client, eventID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[eventID]; !ok {
		h.subs[eventID] = make(map[*client]struct{})
	}
	h.subs[eventID][c] = struct{}{}
}

func (h *Hub) unsubscribe(c *client, eventID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.subs[eventID]; ok {
		delete(m, c)
		if len(m) == 0 {
			delete(h.subs, eventID)
		}
	}
}

func (h *Hub) reply(c *client, m ServerMsg) {
	b, err := marshal(m)
	if err != nil {
		return
	}
	h.enqueue(c, b)
}

// enqueue não bloqueia: cliente lento perde mensagens em vez de travar o hub
func (h *Hub) enqueue(c *client, b []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.trySend(c, b)
}

func (h *Hub) trySend(c *client, b []byte) {
	select {
	case c.send <- b:
	default:
		h.log.Warn("ws client too slow, dropping message", zap.String("client_id", c.id))
	}
}

// Broadcast envia a mensagem para todos os clientes inscritos no eventID
func (h *Hub) Broadcast(eventID string, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.subs[eventID] {
		h.trySend(c, msg)
	}
}

// Subscribers devolve quantos clientes assinam eventID.
func (h *Hub) Subscribers(eventID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[eventID])
}

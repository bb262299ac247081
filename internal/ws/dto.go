package ws

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// EventID: "<tipo>:<id>", ex.: "tennis:1"; obrigatório para subscribe/unsubscribe
type ClientMsg struct {
	Type    string `json:"type"`
	EventID string `json:"eventId"`
}

// ServerMsg são as respostas de controle do hub (as atualizações vão como feed.Message)
type ServerMsg struct {
	Type    string `json:"type"` // pong | subscribed | unsubscribed | error
	EventID string `json:"eventId,omitempty"`
	Error   string `json:"error,omitempty"`
}

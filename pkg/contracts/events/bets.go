package events

// Evento publicado no tópico "bet_placed" depois do débito e da gravação.
type BetPlaced struct {
	BetID     string `json:"bet_id"`
	UserID    string `json:"user_id"`
	EventType string `json:"event_type"` // "tennis" | "golf"
	EventID   string `json:"event_id"`
	Selection int    `json:"selection"`
	Amount    int64  `json:"amount"`
	Balance   int64  `json:"balance"` // saldo após o débito
	Source    string `json:"source"`  // "durable" | "memory"
	TsUnixMs  int64  `json:"ts_unix_ms"`
}

// Evento publicado no tópico "bet_settled" uma única vez por aposta.
type BetSettled struct {
	BetID     string `json:"bet_id"`
	UserID    string `json:"user_id"`
	EventType string `json:"event_type"`
	EventID   string `json:"event_id"`
	Status    string `json:"status"` // "won" | "lost"
	Winner    int    `json:"winner,omitempty"`
	Payout    int64  `json:"payout"`
	Balance   int64  `json:"balance"`
	Manual    bool   `json:"manual"`
	TsUnixMs  int64  `json:"ts_unix_ms"`
}

// Evento publicado no tópico "bet_cancelled" (aposta pendente removida, stake devolvida).
type BetCancelled struct {
	BetID    string `json:"bet_id"`
	UserID   string `json:"user_id"`
	Refunded int64  `json:"refunded"`
	Balance  int64  `json:"balance"`
	TsUnixMs int64  `json:"ts_unix_ms"`
}

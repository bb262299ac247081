package events

import "time"

// Evento publicado no tópico "event_finished" quando uma partida/torneio encerra.
type EventFinished struct {
	EventType  string    `json:"event_type"`
	EventID    string    `json:"event_id"`
	Winner     int       `json:"winner"`
	WinnerName string    `json:"winner_name"`
	FinishedAt time.Time `json:"finished_at"`
}

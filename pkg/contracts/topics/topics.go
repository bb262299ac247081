package topics

const (
	// Bets
	BetPlaced    = "bet_placed"
	BetSettled   = "bet_settled"
	BetCancelled = "bet_cancelled"

	// Eventos esportivos
	EventFinished = "event_finished"
)

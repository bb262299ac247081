package feed

import (
	"time"

	"github.com/radieske/ace-putt-platform/internal/domain"
)

// FixtureMatches é o conjunto inicial de partidas quando não há provedor externo.
func FixtureMatches(now time.Time) []domain.Match {
	return []domain.Match{
		{
			ID:         "1",
			Tournament: "ATP Masters 1000",
			Player1:    domain.Player{Name: "Carlos Alcaraz", Country: "ES", Rank: 2},
			Player2:    domain.Player{Name: "Novak Djokovic", Country: "RS", Rank: 1},
			Sets:       []domain.SetScore{{P1: 6, P2: 4}, {P1: 3, P2: 6}, {P1: 4, P2: 3}},
			Status:     domain.EventLive,
			Minutes:    135,
			StartTime:  now,
			CreatedAt:  now.Add(-2 * time.Hour),
		},
		{
			ID:         "2",
			Tournament: "WTA Finals",
			Player1:    domain.Player{Name: "Aryna Sabalenka", Country: "BY", Rank: 1},
			Player2:    domain.Player{Name: "Iga Swiatek", Country: "PL", Rank: 2},
			Sets:       []domain.SetScore{{P1: 4, P2: 6}, {P1: 6, P2: 3}, {}},
			Status:     domain.EventLive,
			Minutes:    105,
			StartTime:  now,
			CreatedAt:  now.Add(-90 * time.Minute),
		},
		{
			ID:         "3",
			Tournament: "ATP 500",
			Player1:    domain.Player{Name: "Jannik Sinner", Country: "IT", Rank: 4},
			Player2:    domain.Player{Name: "Daniil Medvedev", Country: "RU", Rank: 3},
			Sets:       []domain.SetScore{{P1: 6, P2: 3}, {P1: 6, P2: 4}},
			Status:     domain.EventFinished,
			Winner:     1,
			Minutes:    90,
			StartTime:  now.Add(-24 * time.Hour),
			CreatedAt:  now.Add(-25 * time.Hour),
		},
		{
			ID:         "4",
			Tournament: "WTA 1000",
			Player1:    domain.Player{Name: "Coco Gauff", Country: "US", Rank: 3},
			Player2:    domain.Player{Name: "Elena Rybakina", Country: "KZ", Rank: 5},
			Sets:       []domain.SetScore{{P1: 6, P2: 4}, {P1: 4, P2: 6}, {P1: 6, P2: 2}},
			Status:     domain.EventFinished,
			Winner:     1,
			Minutes:    130,
			StartTime:  now.Add(-48 * time.Hour),
			CreatedAt:  now.Add(-72 * time.Hour),
		},
		{
			ID:         "5",
			Tournament: "ATP Masters 1000",
			Player1:    domain.Player{Name: "Rafael Nadal", Country: "ES", Rank: 5},
			Player2:    domain.Player{Name: "Stefanos Tsitsipas", Country: "GR", Rank: 6},
			Status:     domain.EventScheduled,
			StartTime:  now.Add(2 * time.Hour),
			CreatedAt:  now,
		},
	}
}

// FixtureTournaments é o conjunto inicial de torneios.
func FixtureTournaments(now time.Time) []domain.Tournament {
	return []domain.Tournament{
		{
			ID:          "1",
			Name:        "PGA Tour Championship",
			Location:    "Atlanta, GA",
			Status:      domain.EventLive,
			Round:       3,
			TotalRounds: 4,
			Hole:        1,
			StartTime:   now.Add(-48 * time.Hour),
			CreatedAt:   now.Add(-72 * time.Hour),
			Leaderboard: []domain.LeaderboardEntry{
				{Number: 1, Player: "Scottie Scheffler", Country: "US", Score: -18, Today: -5},
				{Number: 2, Player: "Rory McIlroy", Country: "IE", Score: -16, Today: -4},
				{Number: 3, Player: "Jon Rahm", Country: "ES", Score: -14, Today: -3},
			},
		},
		{
			ID:          "2",
			Name:        "Masters Tournament",
			Location:    "Augusta, GA",
			Status:      domain.EventLive,
			Round:       2,
			TotalRounds: 4,
			Hole:        1,
			StartTime:   now.Add(-24 * time.Hour),
			CreatedAt:   now.Add(-48 * time.Hour),
			Leaderboard: []domain.LeaderboardEntry{
				{Number: 1, Player: "Tiger Woods", Country: "US", Score: -8, Today: -3},
				{Number: 2, Player: "Brooks Koepka", Country: "US", Score: -7, Today: -2},
			},
		},
		{
			ID:          "3",
			Name:        "PGA Championship",
			Location:    "Louisville, KY",
			Status:      domain.EventScheduled,
			Round:       1,
			TotalRounds: 4,
			StartTime:   now.Add(6 * time.Hour),
			CreatedAt:   now,
		},
	}
}

// Seed carrega partidas e torneios no catálogo. Eventos inválidos são ignorados
// e contados em skipped.
func (c *Catalog) Seed(matches []domain.Match, tournaments []domain.Tournament) (loaded, skipped int) {
	for _, m := range matches {
		if _, err := c.AddMatch(m); err != nil {
			skipped++
			continue
		}
		loaded++
	}
	for _, t := range tournaments {
		if _, err := c.AddTournament(t); err != nil {
			skipped++
			continue
		}
		loaded++
	}
	return loaded, skipped
}

// FixtureRankings são os rankings iniciais quando o armazenamento durável não tem nenhum.
func FixtureRankings(now time.Time) []domain.Ranking {
	return []domain.Ranking{
		{
			Type: domain.RankingATP,
			Players: []domain.RankingEntry{
				{Rank: 1, Player: "Novak Djokovic", Country: "RS", Points: 9795},
				{Rank: 2, Player: "Carlos Alcaraz", Country: "ES", Points: 8855},
				{Rank: 3, Player: "Daniil Medvedev", Country: "RU", Points: 7600},
				{Rank: 4, Player: "Jannik Sinner", Country: "IT", Points: 6490},
			},
			LastUpdated: now,
		},
		{
			Type: domain.RankingWTA,
			Players: []domain.RankingEntry{
				{Rank: 1, Player: "Aryna Sabalenka", Country: "BY", Points: 8935},
				{Rank: 2, Player: "Iga Swiatek", Country: "PL", Points: 8655},
				{Rank: 3, Player: "Coco Gauff", Country: "US", Points: 6595},
				{Rank: 4, Player: "Elena Rybakina", Country: "KZ", Points: 5865},
			},
			LastUpdated: now,
		},
		{
			Type: domain.RankingPGA,
			Players: []domain.RankingEntry{
				{Rank: 1, Player: "Scottie Scheffler", Country: "US", Points: 350.5},
				{Rank: 2, Player: "Rory McIlroy", Country: "IE", Points: 320.2},
				{Rank: 3, Player: "Jon Rahm", Country: "ES", Points: 298.8},
				{Rank: 4, Player: "Viktor Hovland", Country: "NO", Points: 285.3},
			},
			LastUpdated: now,
		},
	}
}

package httpapi

import (
	"net/http"
	"time"

	"github.com/radieske/ace-putt-platform/internal/api/dto"
	"github.com/radieske/ace-putt-platform/internal/auth"
	"github.com/radieske/ace-putt-platform/internal/domain"
)

func statusCount(m map[domain.EventStatus]int) dto.StatusCount {
	c := dto.StatusCount{
		Scheduled: m[domain.EventScheduled],
		Live:      m[domain.EventLive],
		Finished:  m[domain.EventFinished],
	}
	c.Total = c.Scheduled + c.Live + c.Finished
	return c
}

// dashboard: GET /api/admin/dashboard, contagens de eventos, apostas e contas
func (a *API) dashboard(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	stats := a.Catalog.Stats()
	out := dto.Dashboard{
		Matches:     statusCount(stats.Matches),
		Tournaments: statusCount(stats.Tournaments),
	}

	bets, source, err := a.Ledger.List(r.Context(), domain.BetFilter{})
	if err != nil {
		a.writeError(w, err)
		return
	}
	out.Bets.Total = len(bets)
	for _, b := range bets {
		switch b.Status {
		case domain.BetPending:
			out.Bets.Pending++
		case domain.BetWon:
			out.Bets.Won++
		case domain.BetLost:
			out.Bets.Lost++
		}
	}

	users, _, err := a.Auth.Users(r.Context(), claims)
	if err != nil {
		a.writeError(w, err)
		return
	}
	out.Users = len(users)

	writeJSON(w, http.StatusOK, dto.Envelope{Success: true, Data: out, Source: string(source)})
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dto.Health{
		Status:    "OK",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(a.started).Seconds(),
	})
}

func (a *API) index(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dto.Index{
		Message: "Ace & Putt API - points betting on tennis and golf",
		Version: "1.0.0",
		Endpoints: map[string]string{
			"auth":        "/api/auth",
			"admin":       "/api/admin",
			"matches":     "/api/matches",
			"tournaments": "/api/tournaments",
			"bets":        "/api/bets",
			"rankings":    "/api/rankings",
			"health":      "/api/health",
			"live":        "/ws",
		},
	})
}

package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/ace-putt-platform/internal/api/dto"
	"github.com/radieske/ace-putt-platform/internal/domain"
	"github.com/radieske/ace-putt-platform/internal/feed"
)

func statusParam(r *http.Request) (domain.EventStatus, error) {
	q := dto.EventListQuery{Status: domain.EventStatus(r.URL.Query().Get("status"))}
	if err := domain.Check(q); err != nil {
		return "", err
	}
	return q.Status, nil
}

func patchFrom(req dto.EventPatchRequest) feed.StatusPatch {
	return feed.StatusPatch{Status: req.Status, Winner: req.Winner}
}

// listMatches: GET /api/matches?status=&player=
func (a *API) listMatches(w http.ResponseWriter, r *http.Request) {
	st, err := statusParam(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	ms := a.Catalog.Matches(feed.MatchFilter{Status: st, Player: r.URL.Query().Get("player")})
	writeJSON(w, http.StatusOK, list(ms, ""))
}

func (a *API) getMatch(w http.ResponseWriter, r *http.Request) {
	m, err := a.Catalog.Match(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ok(m))
}

func (a *API) createMatch(w http.ResponseWriter, r *http.Request) {
	var m domain.Match
	if err := decodeJSON(w, r, &m); err != nil {
		a.writeError(w, err)
		return
	}
	out, err := a.Catalog.AddMatch(m)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ok(out))
}

// patchMatch altera status/vencedor; encerrar dispara a liquidação automática
func (a *API) patchMatch(w http.ResponseWriter, r *http.Request) {
	var req dto.EventPatchRequest
	if err := bind(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	out, err := a.Catalog.PatchMatch(chi.URLParam(r, "id"), patchFrom(req))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ok(out))
}

func (a *API) deleteMatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Catalog.DeleteMatch(id); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.Envelope{Success: true, Message: "match " + id + " deleted"})
}

// listTournaments: GET /api/tournaments?status=
func (a *API) listTournaments(w http.ResponseWriter, r *http.Request) {
	st, err := statusParam(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list(a.Catalog.Tournaments(feed.TournamentFilter{Status: st}), ""))
}

func (a *API) getTournament(w http.ResponseWriter, r *http.Request) {
	t, err := a.Catalog.Tournament(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ok(t))
}

func (a *API) createTournament(w http.ResponseWriter, r *http.Request) {
	var t domain.Tournament
	if err := decodeJSON(w, r, &t); err != nil {
		a.writeError(w, err)
		return
	}
	out, err := a.Catalog.AddTournament(t)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ok(out))
}

func (a *API) patchTournament(w http.ResponseWriter, r *http.Request) {
	var req dto.EventPatchRequest
	if err := bind(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	out, err := a.Catalog.PatchTournament(chi.URLParam(r, "id"), patchFrom(req))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ok(out))
}

func (a *API) deleteTournament(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Catalog.DeleteTournament(id); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.Envelope{Success: true, Message: "tournament " + id + " deleted"})
}

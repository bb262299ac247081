package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/ace-putt-platform/internal/api/dto"
	"github.com/radieske/ace-putt-platform/internal/domain"
)

// listRankings: GET /api/rankings -> {atp, wta, pga}
func (a *API) listRankings(w http.ResponseWriter, r *http.Request) {
	rankings, src, err := a.Rankings.List(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	out := dto.Rankings{ATP: []domain.RankingEntry{}, WTA: []domain.RankingEntry{}, PGA: []domain.RankingEntry{}}
	for _, rk := range rankings {
		switch rk.Type {
		case domain.RankingATP:
			out.ATP = rk.Players
		case domain.RankingWTA:
			out.WTA = rk.Players
		case domain.RankingPGA:
			out.PGA = rk.Players
		}
	}
	writeJSON(w, http.StatusOK, dto.Envelope{Success: true, Data: out, Source: string(src)})
}

// getRanking: GET /api/rankings/{type}, tipo sem diferenciar caixa
func (a *API) getRanking(w http.ResponseWriter, r *http.Request) {
	t, err := domain.ParseRankingType(chi.URLParam(r, "type"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	rk, src, err := a.Rankings.Get(r.Context(), t)
	if err != nil {
		a.writeError(w, err)
		return
	}
	env := list(rk.Players, src)
	env.Type = string(t)
	writeJSON(w, http.StatusOK, env)
}

// replaceRanking: PUT /api/admin/rankings/{type} troca a lista inteira
func (a *API) replaceRanking(w http.ResponseWriter, r *http.Request) {
	t, err := domain.ParseRankingType(chi.URLParam(r, "type"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	var req dto.RankingRequest
	if err := bind(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	rk := &domain.Ranking{Type: t, Players: req.Players}
	src, err := a.Rankings.Replace(r.Context(), rk)
	if err != nil {
		a.writeError(w, err)
		return
	}
	env := list(rk.Players, src)
	env.Type = string(t)
	writeJSON(w, http.StatusOK, env)
}

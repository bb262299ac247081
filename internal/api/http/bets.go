package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/ace-putt-platform/internal/api/dto"
	"github.com/radieske/ace-putt-platform/internal/auth"
	"github.com/radieske/ace-putt-platform/internal/domain"
	"github.com/radieske/ace-putt-platform/internal/ledger"
)

// listBets: GET /api/bets?userId=&status=&type=
// Sem users:read a listagem fica restrita às apostas do próprio usuário.
func (a *API) listBets(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	q := r.URL.Query()
	query := dto.BetListQuery{
		UserID: q.Get("userId"),
		Status: domain.BetStatus(q.Get("status")),
		Type:   domain.EventType(q.Get("type")),
	}
	if err := domain.Check(query); err != nil {
		a.writeError(w, err)
		return
	}
	f := domain.BetFilter{UserID: query.UserID, Status: query.Status, Type: query.Type}
	if !auth.Can(claims.Role, auth.CapReadUsers) {
		if f.UserID == "" {
			f.UserID = claims.UserID
		}
		if err := claims.OwnsOr(f.UserID, auth.CapReadUsers); err != nil {
			a.writeError(w, err)
			return
		}
	}

	bets, source, err := a.Ledger.List(r.Context(), f)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list(bets, source))
}

// placeBet: POST /api/bets, o dono é sempre o usuário do token
func (a *API) placeBet(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	var req dto.PlaceBetRequest
	if err := bind(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	p, err := a.Ledger.PlaceBet(r.Context(), ledger.PlaceInput{
		UserID:        claims.UserID,
		Type:          req.Type,
		MatchID:       req.MatchID,
		TournamentID:  req.TournamentID,
		Selection:     req.Selection,
		SelectionName: req.SelectionName,
		Amount:        req.Amount,
	})
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.Envelope{
		Success:    true,
		Message:    "bet placed",
		Data:       p.Bet,
		Source:     string(p.Source),
		UserPoints: &p.Balance,
	})
}

// ownedBet carrega a aposta e confere se o usuário é dono ou tem a permissão.
func (a *API) ownedBet(w http.ResponseWriter, r *http.Request, c auth.Capability) (*domain.Bet, bool) {
	claims, _ := auth.FromContext(r.Context())
	bet, _, err := a.Ledger.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, err)
		return nil, false
	}
	if err := claims.OwnsOr(bet.UserID, c); err != nil {
		a.writeError(w, err)
		return nil, false
	}
	return bet, true
}

func (a *API) getBet(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	bet, source, err := a.Ledger.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	if err := claims.OwnsOr(bet.UserID, auth.CapReadUsers); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.Envelope{Success: true, Data: bet, Source: string(source)})
}

// patchBet: amount altera o stake (dono), status won|lost liquida (bets:settle)
func (a *API) patchBet(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	var req dto.PatchBetRequest
	if err := bind(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	if req.Status == nil && req.Amount == nil {
		a.writeError(w, domain.Invalid("", "status or amount is required"))
		return
	}
	if req.Status != nil {
		if err := claims.Require(auth.CapSettleBets); err != nil {
			a.writeError(w, err)
			return
		}
	}
	bet, ok := a.ownedBet(w, r, auth.CapSettleBets)
	if !ok {
		return
	}

	out := dto.Envelope{Success: true, Data: *bet}
	if req.Amount != nil {
		ch, err := a.Ledger.UpdateStake(r.Context(), bet.ID, *req.Amount)
		if err != nil {
			a.writeError(w, err)
			return
		}
		out.Data, out.UserPoints = ch.Bet, &ch.Balance
		out.Message = "stake updated"
	}
	if req.Status != nil {
		st, err := a.Ledger.SettleWithStatus(r.Context(), bet.ID, *req.Status)
		if err != nil {
			a.writeError(w, err)
			return
		}
		out.Data = st.Bet
		if st.BalanceChanged {
			out.UserPoints = &st.Balance
		}
		out.Message = settleMessage(st)
	}
	writeJSON(w, http.StatusOK, out)
}

// cancelBet: DELETE /api/bets/{id}, só pending, devolve o stake
func (a *API) cancelBet(w http.ResponseWriter, r *http.Request) {
	bet, ok := a.ownedBet(w, r, auth.CapSettleBets)
	if !ok {
		return
	}
	c, err := a.Ledger.Cancel(r.Context(), bet.ID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.Envelope{
		Success:    true,
		Message:    "bet cancelled, stake refunded",
		Data:       c.Bet,
		UserPoints: &c.Balance,
	})
}

// settleBet: POST /api/bets/{id}/settle liquida contra o resultado do evento.
// 202 enquanto o evento não terminou.
func (a *API) settleBet(w http.ResponseWriter, r *http.Request) {
	bet, ok := a.ownedBet(w, r, auth.CapSettleBets)
	if !ok {
		return
	}
	st, err := a.Ledger.Settle(r.Context(), bet.ID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	out := dto.Envelope{Success: true, Data: st.Bet, Message: settleMessage(st)}
	if st.BalanceChanged {
		out.UserPoints = &st.Balance
	}
	writeJSON(w, http.StatusOK, out)
}

func settleMessage(st *ledger.Settlement) string {
	if !st.Settled {
		return "bet already settled"
	}
	return "bet " + string(st.Bet.Status)
}

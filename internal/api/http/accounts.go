package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/ace-putt-platform/internal/api/dto"
	"github.com/radieske/ace-putt-platform/internal/auth"
)

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := bind(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	sess, err := a.Auth.Register(r.Context(), auth.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.Envelope{
		Success: true,
		Message: "user registered",
		Data:    dto.AuthResponse{User: sess.Account, Token: sess.Token, ExpiresAt: sess.ExpiresAt},
		Source:  string(sess.Source),
	})
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := bind(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	sess, err := a.Auth.Login(r.Context(), req.Login(), req.Password)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.Envelope{
		Success: true,
		Message: "login successful",
		Data:    dto.AuthResponse{User: sess.Account, Token: sess.Token, ExpiresAt: sess.ExpiresAt},
		Source:  string(sess.Source),
	})
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	acc, source, err := a.Auth.Me(r.Context(), claims)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.Envelope{Success: true, Data: acc, Source: string(source)})
}

func (a *API) users(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	accs, source, err := a.Auth.Users(r.Context(), claims)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list(accs, source))
}

// leaderboard é público
func (a *API) leaderboard(w http.ResponseWriter, r *http.Request) {
	rows, source, err := a.Auth.Leaderboard(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list(rows, source))
}

// setPoints: PATCH /api/auth/users/{id}, só o próprio usuário
func (a *API) setPoints(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	var req dto.SetPointsRequest
	if err := bind(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	acc, source, err := a.Auth.SetPoints(r.Context(), claims, chi.URLParam(r, "id"), req.Points)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.Envelope{
		Success:    true,
		Message:    "points updated",
		Data:       acc,
		Source:     string(source),
		UserPoints: &acc.Points,
	})
}

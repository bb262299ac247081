package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/ace-putt-platform/internal/api/dto"
	"github.com/radieske/ace-putt-platform/internal/domain"
	"github.com/radieske/ace-putt-platform/internal/store"
)

const maxBodyBytes = 1 << 20

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(data any) dto.Envelope { return dto.Envelope{Success: true, Data: data} }

// list monta o envelope de listagem com count e a origem dos dados.
func list[T any](items []T, source store.Backend) dto.Envelope {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	return dto.Envelope{Success: true, Data: items, Count: &n, Source: string(source)}
}

func errorEnvelope(msg, detail string) dto.Envelope {
	return dto.Envelope{Success: false, Error: msg, Message: detail}
}

// writeError traduz erros de domínio em status HTTP.
// Falha de infra que sobrou depois do fallback vira 500.
func (a *API) writeError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorEnvelope("validation error", ve.Error()))
	case errors.Is(err, domain.ErrInsufficientFunds):
		writeJSON(w, http.StatusBadRequest, errorEnvelope("insufficient points", err.Error()))
	case errors.Is(err, domain.ErrNotPending):
		writeJSON(w, http.StatusBadRequest, errorEnvelope("bet already settled", err.Error()))
	case errors.Is(err, domain.ErrDuplicate):
		writeJSON(w, http.StatusBadRequest, errorEnvelope("already exists", err.Error()))
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, errorEnvelope("conflict", err.Error()))
	case errors.Is(err, domain.ErrInvalidTransition):
		writeJSON(w, http.StatusBadRequest, errorEnvelope("invalid status transition", err.Error()))
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorEnvelope("unauthorized", err.Error()))
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorEnvelope("forbidden", err.Error()))
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorEnvelope("not found", err.Error()))
	case errors.Is(err, domain.ErrNotReady):
		writeJSON(w, http.StatusAccepted, errorEnvelope("not ready", err.Error()))
	default:
		a.Log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorEnvelope("internal error", err.Error()))
	}
}

// decodeJSON lê o corpo limitado a maxBodyBytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.Invalid("", "invalid JSON body: %v", err)
	}
	return nil
}

// bind decodifica o corpo e aplica as tags validate do DTO.
func bind(w http.ResponseWriter, r *http.Request, v any) error {
	if err := decodeJSON(w, r, v); err != nil {
		return err
	}
	return domain.Check(v)
}

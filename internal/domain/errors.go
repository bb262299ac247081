package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotPending        = errors.New("bet is not pending")
	ErrNotReady          = errors.New("event outcome not resolved yet")
	ErrDuplicate         = errors.New("already exists")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("bet changed concurrently, retry")
)

// ValidationError descreve um payload inválido (campo + mensagem legível).
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Invalid cria um ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// StorageError embrulha falhas de infraestrutura do backend durável.
// O decorator de fallback usa esse tipo para separar falha de infra de resultado de domínio.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return "storage " + e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

// Storage embrulha err como StorageError, preservando nil e erros de domínio.
func Storage(op string, err error) error {
	if err == nil || IsDomain(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsDomain indica se o erro é um resultado de negócio (não deve disparar fallback).
func IsDomain(err error) bool {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return true
	case errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrNotPending),
		errors.Is(err, ErrDuplicate),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrConflict):
		return true
	}
	return false
}

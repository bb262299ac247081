package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// StartingPoints é o saldo inicial de toda conta criada no registro.
const StartingPoints int64 = 1000

// Account é o usuário com seu saldo de pontos virtuais.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username" validate:"min=3,max=30"`
	Email        string    `json:"email" validate:"required,email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role" validate:"oneof=user admin"`
	Points       int64     `json:"points" validate:"gte=0"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Normalize aplica trim e lowercase no email, como o schema original.
func (a *Account) Normalize() {
	a.Username = strings.TrimSpace(a.Username)
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	if a.Role == "" {
		a.Role = RoleUser
	}
}

// Validate confere os campos persistidos (a senha em claro é validada no registro).
func (a *Account) Validate() error { return Check(a) }

// LeaderboardRow é a visão pública de uma conta no ranking de pontos.
type LeaderboardRow struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Points   int64  `json:"points"`
	Role     Role   `json:"role"`
}

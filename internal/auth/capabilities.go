package auth

import (
	"fmt"

	"github.com/radieske/ace-putt-platform/internal/domain"
)

// Capability é uma permissão verificada pelas rotas.
type Capability string

const (
	CapSettleBets   Capability = "bets:settle"
	CapReadUsers    Capability = "users:read"
	CapDashboard    Capability = "admin:dashboard"
	CapManageEvents Capability = "events:manage"
)

var grants = map[domain.Role]map[Capability]bool{
	domain.RoleAdmin: {
		CapSettleBets:   true,
		CapReadUsers:    true,
		CapDashboard:    true,
		CapManageEvents: true,
	},
	domain.RoleUser: {},
}

// Can indica se o papel possui a permissão.
func Can(role domain.Role, c Capability) bool { return grants[role][c] }

// Require devolve domain.ErrForbidden se as claims não tiverem a permissão.
func (c *Claims) Require(p Capability) error {
	if c == nil {
		return fmt.Errorf("%w: authentication required", domain.ErrUnauthorized)
	}
	if !Can(c.Role, p) {
		return fmt.Errorf("%w: missing permission %s", domain.ErrForbidden, p)
	}
	return nil
}

// OwnsOr libera o dono do recurso ou quem tem a permissão.
func (c *Claims) OwnsOr(ownerID string, p Capability) error {
	if c != nil && c.UserID == ownerID {
		return nil
	}
	return c.Require(p)
}

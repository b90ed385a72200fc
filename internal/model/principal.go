package model

import "github.com/google/uuid"

const (
	RoleCompany = "company"
	RoleDriver  = "driver"
)

// Principal is the authenticated caller. CompanyID is the tenant every
// trip and city the caller touches must belong to.
type Principal struct {
	UserID    uuid.UUID
	CompanyID uuid.UUID
	Role      string
}

func (p Principal) IsCompany() bool {
	return p.Role == RoleCompany
}

func (p Principal) IsDriver() bool {
	return !p.IsCompany()
}

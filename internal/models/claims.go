package models

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Roles carried in access tokens. They mirror OwnerType plus an admin role.
const (
	RoleCustomer = "customer"
	RoleMerchant = "merchant"
	RoleAgent    = "agent"
	RoleAdmin    = "admin"
)

type OwnerClaims struct {
	jwt.RegisteredClaims
	OwnerID uuid.UUID `json:"owner_id"`
	Role    string    `json:"role"`
}

func (c *OwnerClaims) IsAgent() bool {
	return c.Role == RoleAgent
}

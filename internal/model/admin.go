package model

import "time"

// DefaultAdminRole is assigned when an admin is created without a role.
const DefaultAdminRole = "admin"

// Admin is an account with access to private messages and account management.
// Its Nickname doubles as an entry in the public recipient directory.
//
// WHY `json:"-"` ON PasswordHash?
// The "-" tag tells encoding/json to never serialize the field. That makes
// "no response ever contains the password" a property of the type itself,
// instead of something every handler has to remember to strip.
type Admin struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Nickname     string    `json:"nickname"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

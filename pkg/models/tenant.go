// Package models holds the plain Go domain types shared across the
// orchestrator: no code generation, no ORM tags beyond what the pgx
// repositories need to scan rows.
package models

import "time"

// Tenant is the top-level isolation boundary. Every other row in the system
// is scoped to exactly one tenant.
type Tenant struct {
	ID        string
	Name      string
	Slug      string
	Plan      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserRole is a closed set of roles a membership can hold within a tenant.
type UserRole string

const (
	RoleOwner  UserRole = "owner"
	RoleAdmin  UserRole = "admin"
	RoleMember UserRole = "member"
)

// User is a principal that can belong to one or more tenants.
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// Membership links a User to a Tenant with a role.
type Membership struct {
	TenantID  string
	UserID    string
	Role      UserRole
	CreatedAt time.Time
}

package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/taskorbit/orchestrator/pkg/models"
)

// CreateTenant inserts a new tenant row.
func (s *Store) CreateTenant(ctx context.Context, t models.Tenant) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tenants (id, name, slug, plan, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.Name, t.Slug, t.Plan, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db: create tenant: %w", err)
	}
	return nil
}

// GetTenant returns a tenant by id.
func (s *Store) GetTenant(ctx context.Context, id string) (models.Tenant, error) {
	var t models.Tenant
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, slug, plan, created_at, updated_at FROM tenants WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Slug, &t.Plan, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Tenant{}, ErrNotFound
	}
	if err != nil {
		return models.Tenant{}, fmt.Errorf("db: get tenant: %w", err)
	}
	return t, nil
}

// GetTenantBySlug returns a tenant by its unique slug.
func (s *Store) GetTenantBySlug(ctx context.Context, slug string) (models.Tenant, error) {
	var t models.Tenant
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, slug, plan, created_at, updated_at FROM tenants WHERE slug = $1`, slug,
	).Scan(&t.ID, &t.Name, &t.Slug, &t.Plan, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Tenant{}, ErrNotFound
	}
	if err != nil {
		return models.Tenant{}, fmt.Errorf("db: get tenant by slug: %w", err)
	}
	return t, nil
}

// CreateUser inserts a new user row, independent of any tenant.
func (s *Store) CreateUser(ctx context.Context, u models.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, created_at) VALUES ($1, $2, $3)`,
		u.ID, u.Email, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("db: create user: %w", err)
	}
	return nil
}

// GetUserByEmail returns a user by their unique email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, created_at FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("db: get user by email: %w", err)
	}
	return u, nil
}

// AddMembership links a user to a tenant with a role, upserting the role on
// conflict so re-inviting a member changes their role rather than failing.
func (s *Store) AddMembership(ctx context.Context, m models.Membership) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO memberships (tenant_id, user_id, role, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (tenant_id, user_id) DO UPDATE SET role = EXCLUDED.role`,
		m.TenantID, m.UserID, m.Role, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("db: add membership: %w", err)
	}
	return nil
}

// MembershipRole returns the user's role within the tenant, or ErrNotFound
// if they are not a member.
func (s *Store) MembershipRole(ctx context.Context, tenantID, userID string) (models.UserRole, error) {
	var role models.UserRole
	err := s.pool.QueryRow(ctx,
		`SELECT role FROM memberships WHERE tenant_id = $1 AND user_id = $2`, tenantID, userID,
	).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("db: membership role: %w", err)
	}
	return role, nil
}

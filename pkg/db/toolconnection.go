package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/taskorbit/orchestrator/pkg/models"
)

// ListToolConnections returns every enabled tool connection for a tenant.
func (s *Store) ListToolConnections(ctx context.Context, tenantID string) ([]models.ToolConnection, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, provider_name, display_name, encrypted_config, enabled
		 FROM tool_connections WHERE tenant_id = $1 AND enabled = TRUE`,
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("db: list tool connections: %w", err)
	}
	defer rows.Close()

	var out []models.ToolConnection
	for rows.Next() {
		var tc models.ToolConnection
		if err := rows.Scan(&tc.ID, &tc.TenantID, &tc.ProviderName, &tc.DisplayName, &tc.EncryptedConfig, &tc.Enabled); err != nil {
			return nil, fmt.Errorf("db: scan tool connection: %w", err)
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

// GetToolConnection returns a single tenant's connection to a named provider.
func (s *Store) GetToolConnection(ctx context.Context, tenantID, providerName string) (models.ToolConnection, error) {
	var tc models.ToolConnection
	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, provider_name, display_name, encrypted_config, enabled
		 FROM tool_connections WHERE tenant_id = $1 AND provider_name = $2`,
		tenantID, providerName,
	).Scan(&tc.ID, &tc.TenantID, &tc.ProviderName, &tc.DisplayName, &tc.EncryptedConfig, &tc.Enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ToolConnection{}, ErrNotFound
	}
	if err != nil {
		return models.ToolConnection{}, fmt.Errorf("db: get tool connection: %w", err)
	}
	return tc, nil
}

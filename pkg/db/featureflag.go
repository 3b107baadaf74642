package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/taskorbit/orchestrator/pkg/models"
)

// GetFeatureFlag assembles a flag with its rules and overrides in three
// round trips — flags evaluate rarely enough per request that this is not
// worth a join, and it keeps each query simple to reason about.
func (s *Store) GetFeatureFlag(ctx context.Context, key string) (models.FeatureFlag, error) {
	var flag models.FeatureFlag
	flag.Key = key
	err := s.pool.QueryRow(ctx,
		`SELECT enabled FROM feature_flags WHERE key = $1`, key,
	).Scan(&flag.Enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.FeatureFlag{}, ErrNotFound
	}
	if err != nil {
		return models.FeatureFlag{}, fmt.Errorf("db: get feature flag: %w", err)
	}

	ruleRows, err := s.pool.Query(ctx,
		`SELECT kind, tenant_ids, percentage FROM flag_rules WHERE flag_key = $1 ORDER BY id`, key)
	if err != nil {
		return models.FeatureFlag{}, fmt.Errorf("db: list flag rules: %w", err)
	}
	defer ruleRows.Close()
	for ruleRows.Next() {
		var rule models.FlagRule
		var tenantIDsJSON []byte
		var pct *float64
		if err := ruleRows.Scan(&rule.Kind, &tenantIDsJSON, &pct); err != nil {
			return models.FeatureFlag{}, fmt.Errorf("db: scan flag rule: %w", err)
		}
		if err := json.Unmarshal(tenantIDsJSON, &rule.TenantIDs); err != nil {
			return models.FeatureFlag{}, fmt.Errorf("db: unmarshal flag rule tenant ids: %w", err)
		}
		if pct != nil {
			rule.Percentage = *pct
		}
		flag.Rules = append(flag.Rules, rule)
	}
	if err := ruleRows.Err(); err != nil {
		return models.FeatureFlag{}, err
	}

	overrideRows, err := s.pool.Query(ctx,
		`SELECT tenant_id, enabled, expires_at FROM flag_overrides WHERE flag_key = $1`, key)
	if err != nil {
		return models.FeatureFlag{}, fmt.Errorf("db: list flag overrides: %w", err)
	}
	defer overrideRows.Close()
	flag.Overrides = make(map[string]models.FlagOverride)
	for overrideRows.Next() {
		var o models.FlagOverride
		var tenantID string
		var expiresAt *time.Time
		if err := overrideRows.Scan(&tenantID, &o.Enabled, &expiresAt); err != nil {
			return models.FeatureFlag{}, fmt.Errorf("db: scan flag override: %w", err)
		}
		o.TenantID = tenantID
		o.ExpiresAt = expiresAt
		flag.Overrides[tenantID] = o
	}
	return flag, overrideRows.Err()
}

// UpsertFlagOverride sets or replaces a tenant's per-flag override.
func (s *Store) UpsertFlagOverride(ctx context.Context, flagKey string, o models.FlagOverride) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO flag_overrides (flag_key, tenant_id, enabled, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (flag_key, tenant_id) DO UPDATE
		   SET enabled = EXCLUDED.enabled, expires_at = EXCLUDED.expires_at`,
		flagKey, o.TenantID, o.Enabled, o.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db: upsert flag override: %w", err)
	}
	return nil
}

package db

import (
	"context"
	"fmt"

	"github.com/taskorbit/orchestrator/pkg/models"
)

// ListApprovedPatterns returns approved suggestions for a tenant/agent-type
// pair, most relevant first, for the dispatcher's prompt enrichment step.
func (s *Store) ListApprovedPatterns(ctx context.Context, tenantID, agentType string, limit int) ([]models.PatternSuggestion, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, agent_type, text, confidence, relevance, approved, created_at
		 FROM pattern_suggestions
		 WHERE tenant_id = $1 AND agent_type = $2 AND approved = TRUE
		 ORDER BY relevance DESC
		 LIMIT $3`,
		tenantID, agentType, limit)
	if err != nil {
		return nil, fmt.Errorf("db: list approved patterns: %w", err)
	}
	defer rows.Close()

	var out []models.PatternSuggestion
	for rows.Next() {
		var p models.PatternSuggestion
		if err := rows.Scan(&p.ID, &p.TenantID, &p.AgentType, &p.Text, &p.Confidence, &p.Relevance, &p.Approved, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("db: scan pattern suggestion: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreatePatternSuggestion inserts a new, unapproved suggestion for later
// human review.
func (s *Store) CreatePatternSuggestion(ctx context.Context, p models.PatternSuggestion) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO pattern_suggestions (id, tenant_id, agent_type, text, confidence, relevance, approved, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.TenantID, p.AgentType, p.Text, p.Confidence, p.Relevance, p.Approved, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("db: create pattern suggestion: %w", err)
	}
	return nil
}

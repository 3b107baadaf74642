package toolkit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/taskorbit/orchestrator/pkg/models"
)

// TaskTrackerAdapter is the "task-tracker" Adapter variant: a generic
// JSON-over-HTTP client against a tenant-configured REST endpoint. No
// example repo in the pack brings a specific issue-tracker SDK, so this
// follows the same plain net/http + encoding/json idiom as CodeHostAdapter
// and pkg/llmclient rather than inventing a vendor-specific client.
type TaskTrackerAdapter struct {
	httpClient *http.Client
}

func NewTaskTrackerAdapter() *TaskTrackerAdapter {
	return &TaskTrackerAdapter{httpClient: &http.Client{Timeout: 15 * time.Second}}
}

func (a *TaskTrackerAdapter) ProviderName() string { return "task-tracker" }

func (a *TaskTrackerAdapter) Operations() []Operation {
	return []Operation{
		{
			Name:         "list_issues",
			Description:  "List open issues matching a query.",
			InputSchema:  `{"type":"object","properties":{"query":{"type":"string"}}}`,
			OutputSchema: `{"type":"object","properties":{"issues":{"type":"array"}}}`,
		},
		{
			Name:         "create_issue",
			Description:  "Create a new issue.",
			InputSchema:  `{"type":"object","required":["title"],"properties":{"title":{"type":"string"},"body":{"type":"string"}}}`,
			OutputSchema: `{"type":"object","properties":{"id":{"type":"string"}}}`,
		},
		{
			Name:         "update_issue",
			Description:  "Update an existing issue's fields.",
			InputSchema:  `{"type":"object","required":["id"],"properties":{"id":{"type":"string"},"status":{"type":"string"},"body":{"type":"string"}}}`,
			OutputSchema: `{"type":"object","properties":{"id":{"type":"string"},"updated":{"type":"boolean"}}}`,
		},
	}
}

func (a *TaskTrackerAdapter) Preflight(conn models.ToolConnection) error {
	cfg, err := decodeConfig(conn)
	if err != nil {
		return err
	}
	if cfg["api_base_url"] == "" || cfg["api_token"] == "" {
		return &ErrUnavailable{Provider: a.ProviderName(), Reason: "missing api_base_url or api_token"}
	}
	return nil
}

func (a *TaskTrackerAdapter) Invoke(ctx context.Context, operation string, raw json.RawMessage, conn models.ToolConnection) (json.RawMessage, error) {
	cfg, err := decodeConfig(conn)
	if err != nil {
		return nil, err
	}

	var method, path string
	switch operation {
	case "list_issues":
		method, path = http.MethodGet, "/issues"
	case "create_issue":
		method, path = http.MethodPost, "/issues"
	case "update_issue":
		method, path = http.MethodPatch, "/issues"
	default:
		return nil, fmt.Errorf("toolkit: task-tracker: unknown operation %q", operation)
	}

	req, err := http.NewRequestWithContext(ctx, method, cfg["api_base_url"]+path, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("toolkit: task-tracker: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg["api_token"])
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("toolkit: task-tracker: %s: %w", operation, err)
	}
	defer resp.Body.Close()

	var out json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("toolkit: task-tracker: decode response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("toolkit: task-tracker: %s returned status %d: %s", operation, resp.StatusCode, string(out))
	}
	return out, nil
}

// decodeConfig parses a ToolConnection's opaque EncryptedConfig as a flat
// string map. Like pkg/accountpool's Decryptor boundary, the pack carries
// no KMS/crypto client, so config bytes are treated as plaintext JSON at
// this layer; an external secrets manager is expected to have already
// decrypted them before the row reaches this process.
func decodeConfig(conn models.ToolConnection) (map[string]string, error) {
	if len(conn.EncryptedConfig) == 0 {
		return map[string]string{}, nil
	}
	var cfg map[string]string
	if err := json.Unmarshal(conn.EncryptedConfig, &cfg); err != nil {
		return nil, fmt.Errorf("toolkit: decode connection config: %w", err)
	}
	return cfg, nil
}

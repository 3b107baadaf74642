package toolkit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/taskorbit/orchestrator/pkg/models"
)

// CodeHostAdapter is the "code-host" Adapter variant, generalized from
// plain net/http GitHub access with a
// bearer-token Authorization header) into a general search_docs/
// read-file capability instead of a one-off runbook downloader.
type CodeHostAdapter struct {
	httpClient *http.Client
}

func NewCodeHostAdapter() *CodeHostAdapter {
	return &CodeHostAdapter{httpClient: &http.Client{Timeout: 30 * time.Second}}
}

func (a *CodeHostAdapter) ProviderName() string { return "code-host" }

func (a *CodeHostAdapter) Operations() []Operation {
	return []Operation{
		{
			Name:         "read_file",
			Description:  "Fetch the raw content of a file from a repository by URL.",
			InputSchema:  `{"type":"object","required":["url"],"properties":{"url":{"type":"string"}}}`,
			OutputSchema: `{"type":"object","properties":{"content":{"type":"string"}}}`,
		},
	}
}

func (a *CodeHostAdapter) Preflight(conn models.ToolConnection) error {
	cfg, err := decodeConfig(conn)
	if err != nil {
		return err
	}
	if cfg["api_base_url"] == "" {
		return &ErrUnavailable{Provider: a.ProviderName(), Reason: "missing api_base_url"}
	}
	return nil
}

type readFileInput struct {
	URL string `json:"url"`
}

type readFileOutput struct {
	Content string `json:"content"`
}

func (a *CodeHostAdapter) Invoke(ctx context.Context, operation string, raw json.RawMessage, conn models.ToolConnection) (json.RawMessage, error) {
	if operation != "read_file" {
		return nil, fmt.Errorf("toolkit: code-host: unknown operation %q", operation)
	}
	cfg, err := decodeConfig(conn)
	if err != nil {
		return nil, err
	}

	var in readFileInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("toolkit: code-host: decode input: %w", err)
	}

	rawURL := convertToRawURL(in.URL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("toolkit: code-host: build request: %w", err)
	}
	if token := cfg["token"]; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("toolkit: code-host: fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("toolkit: code-host: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("toolkit: code-host: %s returned status %d", rawURL, resp.StatusCode)
	}

	return json.Marshal(readFileOutput{Content: string(body)})
}

package toolkit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskorbit/orchestrator/pkg/models"
)

func conn(provider string, cfg map[string]string, enabled bool) models.ToolConnection {
	b, _ := json.Marshal(cfg)
	return models.ToolConnection{TenantID: "t1", ProviderName: provider, EncryptedConfig: b, Enabled: enabled}
}

func TestRegistry_ResolveForTenant_SkipsDisabledUnknownAndFailingPreflight(t *testing.T) {
	r := NewRegistry()
	r.Register(NewTaskTrackerAdapter())

	conns := []models.ToolConnection{
		conn("task-tracker", map[string]string{"api_base_url": "http://x", "api_token": "tok"}, true),
		conn("task-tracker", map[string]string{}, true), // fails preflight
		conn("task-tracker", map[string]string{"api_base_url": "x", "api_token": "t"}, false), // disabled
		conn("unregistered-provider", map[string]string{}, true), // no adapter
	}

	resolved := r.ResolveForTenant(conns)

	require.Len(t, resolved, 1)
	assert.Equal(t, "task-tracker", resolved[0].Conn.ProviderName)
}

func TestInvoke_ReturnsUnavailableWhenNoResolvedAdapterOffersOperation(t *testing.T) {
	_, err := Invoke(context.Background(), nil, "list_issues", nil)
	assert.Error(t, err)
	var unavailable *ErrUnavailable
	assert.ErrorAs(t, err, &unavailable)
}

func TestTaskTrackerAdapter_ListIssuesRoundTrips(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/issues", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"issues":[{"id":"1"}]}`))
	}))
	defer srv.Close()

	a := NewTaskTrackerAdapter()
	c := conn("task-tracker", map[string]string{"api_base_url": srv.URL, "api_token": "tok"}, true)
	require.NoError(t, a.Preflight(c))

	out, err := a.Invoke(context.Background(), "list_issues", json.RawMessage(`{}`), c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"issues":[{"id":"1"}]}`, string(out))
}

func TestTaskTrackerAdapter_Preflight_MissingConfigIsUnavailable(t *testing.T) {
	a := NewTaskTrackerAdapter()
	err := a.Preflight(conn("task-tracker", map[string]string{}, true))
	require.Error(t, err)
	var unavailable *ErrUnavailable
	assert.ErrorAs(t, err, &unavailable)
}

func TestCodeHostAdapter_ReadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gh-tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte("package main"))
	}))
	defer srv.Close()

	a := NewCodeHostAdapter()
	c := conn("code-host", map[string]string{"api_base_url": "https://api.example.com", "token": "gh-tok"}, true)
	require.NoError(t, a.Preflight(c))

	input, _ := json.Marshal(readFileInput{URL: srv.URL})
	out, err := a.Invoke(context.Background(), "read_file", input, c)
	require.NoError(t, err)

	var got readFileOutput
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "package main", got.Content)
}

func TestConvertToRawURL_RewritesGitHubBlobURL(t *testing.T) {
	got := convertToRawURL("https://github.com/acme/widgets/blob/main/README.md")
	assert.Equal(t, "https://raw.githubusercontent.com/acme/widgets/refs/heads/main/README.md", got)
}

func TestConvertToRawURL_LeavesUnrecognizedURLsUnchanged(t *testing.T) {
	assert.Equal(t, "https://example.com/file.go", convertToRawURL("https://example.com/file.go"))
	assert.Equal(t, "https://raw.githubusercontent.com/a/b/main/f.go", convertToRawURL("https://raw.githubusercontent.com/a/b/main/f.go"))
}

func TestDecodeConfig_EmptyConfigReturnsEmptyMap(t *testing.T) {
	cfg, err := decodeConfig(models.ToolConnection{})
	require.NoError(t, err)
	assert.Empty(t, cfg)
}

package llmclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/taskorbit/orchestrator/pkg/config"
)

// HTTPClient is a Client backed by net/http, speaking either the
// OpenAI-compatible chat-completions wire format or the Anthropic Messages
// API, chosen per call from input.Config.Type.
type HTTPClient struct {
	httpClient *http.Client
}

// NewHTTPClient builds an HTTPClient with the given request timeout.
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{httpClient: &http.Client{Timeout: timeout}}
}

func (c *HTTPClient) Close() error { return nil }

// Generate dispatches to the wire format named by input.Config.Type and
// streams the response back as a channel of Chunk, closed when the
// response completes or the context is cancelled.
func (c *HTTPClient) Generate(ctx context.Context, input *GenerateInput) (<-chan Chunk, error) {
	if input.Config == nil {
		return nil, fmt.Errorf("llmclient: generate: nil provider config")
	}

	switch input.Config.Type {
	case config.LLMProviderTypeOpenAICompat:
		return c.generateOpenAICompat(ctx, input)
	case config.LLMProviderTypeAnthropic:
		return c.generateAnthropic(ctx, input)
	default:
		return nil, fmt.Errorf("llmclient: unsupported provider type %q", input.Config.Type)
	}
}

// HTTPError is returned when the provider responds with a non-2xx status.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("llmclient: provider returned status %d: %s", e.Status, e.Body)
}

// Retryable reports whether the account pool should treat this as a
// transient provider failure worth retrying against a different account.
func (e *HTTPError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// RateLimited reports whether the provider signalled HTTP 429, so the
// account pool can mark the account cooling and retry elsewhere rather
// than treating it as a generic retryable failure.
func (e *HTTPError) RateLimited() bool {
	return e.Status == http.StatusTooManyRequests
}

// AuthFailure reports whether the provider rejected the credential
// itself, so the account pool opens the breaker immediately rather than
// waiting for the consecutive-failure threshold.
func (e *HTTPError) AuthFailure() bool {
	return e.Status == http.StatusUnauthorized
}

func doSSERequest(ctx context.Context, client *http.Client, url string, headers map[string]string, body any) (io.ReadCloser, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("llmclient: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("llmclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llmclient: request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &HTTPError{Status: resp.StatusCode, Body: string(respBody)}
	}
	return resp.Body, nil
}

// sseLines scans an SSE response body and yields each "data: ..." payload,
// skipping blank lines, comments, and the terminal "[DONE]" sentinel.
func sseLines(body io.Reader, yield func(data string) bool) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return
		}
		if !yield(data) {
			return
		}
	}
}

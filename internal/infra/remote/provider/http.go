package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/vietddude/crmbridge/internal/infra/remote/remoteerr"
)

// maxErrorBodyBytes caps how much of an upstream error body is kept for
// internal diagnostics. The body never reaches callers unsanitized.
const maxErrorBodyBytes = 2048

// HTTPProvider implements Provider for the CRM REST API.
type HTTPProvider struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient *http.Client

	mu           sync.RWMutex
	health       HealthStatus
	totalLatency time.Duration
	successCount int
	failureCount int

	Monitor *EndpointMonitor
}

// NewHTTPProvider creates a new REST provider. apiKey is sent as a bearer
// token; it never appears in errors or logs.
func NewHTTPProvider(name, baseURL, apiKey string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		health: HealthStatus{
			Available:     true,
			LastSuccessAt: time.Now(),
		},
		Monitor: NewEndpointMonitor(),
	}
}

// GetName returns the provider identifier.
func (p *HTTPProvider) GetName() string {
	return p.name
}

// Execute performs one REST operation against the CRM API.
func (p *HTTPProvider) Execute(ctx context.Context, op Operation) (json.RawMessage, error) {
	if op.Invoke != nil {
		start := time.Now()
		result, err := op.Invoke(ctx)
		if err != nil {
			p.recordFailure()
			return nil, err
		}
		p.Monitor.RecordRequest(time.Since(start))
		p.recordSuccess(time.Since(start))
		return result, nil
	}

	start := time.Now()

	var bodyReader io.Reader
	if op.Body != nil {
		jsonData, err := json.Marshal(op.Body)
		if err != nil {
			p.recordFailure()
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, op.Method, p.baseURL+op.Path, bodyReader)
	if err != nil {
		p.recordFailure()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.recordFailure()
		return nil, fmt.Errorf("crm call: %w", err)
	}
	defer resp.Body.Close()

	latency := time.Since(start)

	if resp.StatusCode == 429 {
		retryAfter := resp.Header.Get("Retry-After")
		p.Monitor.RecordThrottle(429, retryAfter)
		p.recordFailure()
		return nil, remoteerr.NewStatusError(429, "rate limited, retry after: "+retryAfter)
	}

	if resp.StatusCode == 403 {
		p.Monitor.RecordThrottle(403, "")
		p.recordFailure()
		return nil, remoteerr.NewStatusError(403, "forbidden")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		p.recordFailure()
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.recordFailure()

		detail := string(body)
		if len(detail) > maxErrorBodyBytes {
			detail = detail[:maxErrorBodyBytes]
		}
		if p.Monitor.DetectThrottlePattern(detail) {
			p.Monitor.RecordThrottle(429, "")
			return nil, remoteerr.NewStatusError(429, detail)
		}

		return nil, remoteerr.NewStatusError(resp.StatusCode, detail)
	}

	p.Monitor.RecordRequest(latency)
	p.recordSuccess(latency)

	if len(body) == 0 {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(body), nil
}

// GetHealth returns a snapshot of provider health.
func (p *HTTPProvider) GetHealth() HealthStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	health := p.health
	total := p.successCount + p.failureCount
	if total > 0 {
		health.ErrorRate = float64(p.failureCount) / float64(total)
		health.Latency = p.totalLatency / time.Duration(total)
	}
	stats := p.Monitor.GetStats()
	health.MonitorStats = &stats
	return health
}

// IsAvailable checks if the provider is healthy enough to use.
func (p *HTTPProvider) IsAvailable() bool {
	return p.Monitor.CheckStatus() != StatusBlocked
}

// Close cleans up idle connections.
func (p *HTTPProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

func (p *HTTPProvider) recordSuccess(latency time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.successCount++
	p.totalLatency += latency
	p.health.Available = true
	p.health.LastSuccessAt = time.Now()
}

func (p *HTTPProvider) recordFailure() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failureCount++
	p.health.LastFailureAt = time.Now()
}

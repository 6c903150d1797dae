// Package llm implements the remote review client: it delegates per-file
// analysis to a configured provider and defends against malformed output.
// All operational failures degrade to synthetic findings; Review never
// returns an error.
package llm

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

	llmhttp "github.com/jgardner/reviewflow/internal/adapter/llm/http"
	"github.com/jgardner/reviewflow/internal/domain"
)

// Connection modes for reaching a provider.
const (
	ModeDirect = "direct"
	ModeProxy  = "proxy"
	ModeAuto   = "auto"
)

const defaultTimeout = 60 * time.Second

// Stats are process-wide client counters, reset only by constructing a new
// client.
type Stats struct {
	Succeeded int
	Failed    int
}

// Client talks to one configured analysis provider. The rate-limiter table
// and the counters are the only cross-request mutable state; both are
// guarded by the client's mutex.
type Client struct {
	mu sync.Mutex

	credential    string
	profile       domain.ProviderProfile
	mode          string
	proxyEndpoint string
	stats         Stats

	httpClient *http.Client
	limiter    *rateLimiter
	logger     llmhttp.Logger
}

// NewClient creates an unconfigured client. Configure must be called before
// Review.
func NewClient(logger llmhttp.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    newRateLimiter(),
		logger:     logger,
	}
}

// SetTimeout bounds each HTTP attempt. Independent of the orchestrator's
// pacing delay.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// Configure replaces the client configuration. No network call is made.
func (c *Client) Configure(credential string, profile domain.ProviderProfile, mode, proxyEndpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credential = credential
	c.profile = profile
	c.mode = mode
	c.proxyEndpoint = strings.TrimRight(proxyEndpoint, "/")
}

// Stats returns a snapshot of the request counters.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// TestConnection probes the configured target. Best effort: a failure only
// means the caller may want to reconsider before starting a session.
func (c *Client) TestConnection(ctx context.Context) bool {
	c.mu.Lock()
	target := c.proxyEndpoint
	if c.mode != ModeProxy && len(c.profile.EndpointCandidates) > 0 {
		target = c.profile.EndpointCandidates[0]
	}
	c.mu.Unlock()

	if target == "" {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	// Any HTTP response means the host is reachable; auth failures are
	// diagnosed later by the real request.
	return true
}

// Review analyzes one file through the configured provider. The returned
// FileReview carries only the remote findings; the caller merges them with
// the heuristic pass. Failures are downgraded to a single error finding.
func (c *Client) Review(ctx context.Context, path, content, language, complianceText string) domain.FileReview {
	findings, err := c.delegate(ctx, path, content, language, complianceText)
	if err != nil {
		c.mu.Lock()
		c.stats.Failed++
		c.mu.Unlock()
		if c.logger != nil {
			c.logger.LogError(c.providerID(), err)
		}
		return domain.FileReview{
			Path:     path,
			Findings: []domain.Finding{failureFinding(err)},
			Note:     fmt.Sprintf("remote analysis failed: %v", err),
		}
	}

	c.mu.Lock()
	c.stats.Succeeded++
	c.mu.Unlock()
	return domain.FileReview{Path: path, Findings: findings}
}

func (c *Client) providerID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile.ProviderID
}

// delegate runs the full remote pipeline: rate limit, redacted prompt,
// dispatch, envelope extraction, normalization.
func (c *Client) delegate(ctx context.Context, path, content, language, complianceText string) ([]domain.Finding, error) {
	c.mu.Lock()
	credential := c.credential
	profile := c.profile
	mode := c.mode
	proxy := c.proxyEndpoint
	c.mu.Unlock()

	if credential == "" {
		return nil, llmhttp.NewConfigurationError(profile.ProviderID, "credential is not configured")
	}
	format, err := formatFor(profile.WireFormat)
	if err != nil {
		return nil, llmhttp.NewConfigurationError(profile.ProviderID, err.Error())
	}

	if err := c.limiter.wait(ctx, profile.ProviderID, profile.MinRequestInterval); err != nil {
		return nil, err
	}

	// Only the outbound prompt sees the redacted body; findings are mapped
	// back onto the unmodified content.
	prompt := buildPrompt(path, RedactSecrets(content), language, complianceText)
	body, err := format.BuildBody(profile.Model, prompt)
	if err != nil {
		return nil, fmt.Errorf("build request body: %w", err)
	}

	if c.logger != nil {
		c.logger.LogRequest(llmhttp.RequestLog{
			Provider:    profile.ProviderID,
			Timestamp:   time.Now(),
			PromptChars: len(prompt),
			APIKey:      credential,
		})
	}

	respBody, err := c.dispatch(ctx, format, profile, credential, mode, proxy, body)
	if err != nil {
		return nil, err
	}

	text, err := format.ExtractText(respBody)
	if err != nil {
		return nil, err
	}

	return normalizeFindings(text, content), nil
}

// dispatch routes the request according to the connection mode.
func (c *Client) dispatch(ctx context.Context, format wireFormat, profile domain.ProviderProfile, credential, mode, proxy string, body []byte) ([]byte, error) {
	switch mode {
	case ModeProxy:
		if proxy == "" {
			return nil, llmhttp.NewConfigurationError(profile.ProviderID, "proxy mode requires a relay endpoint")
		}
		return c.dispatchRelay(ctx, profile, credential, proxy, body)
	case ModeAuto:
		respBody, err := c.dispatchDirect(ctx, format, profile, credential, body)
		if err == nil {
			return respBody, nil
		}
		if proxy == "" {
			return nil, err
		}
		if c.logger != nil {
			c.logger.LogError(profile.ProviderID,
				fmt.Errorf("direct dispatch failed (transient: %t), falling back to relay: %w", llmhttp.IsRetryable(err), err))
		}
		return c.dispatchRelay(ctx, profile, credential, proxy, body)
	default: // direct
		return c.dispatchDirect(ctx, format, profile, credential, body)
	}
}

// dispatchDirect tries each endpoint candidate in order and returns the
// first successful response body. The last error propagates when every
// candidate fails.
func (c *Client) dispatchDirect(ctx context.Context, format wireFormat, profile domain.ProviderProfile, credential string, body []byte) ([]byte, error) {
	if len(profile.EndpointCandidates) == 0 {
		return nil, llmhttp.NewConfigurationError(profile.ProviderID, "no endpoint candidates configured")
	}

	var lastErr error
	for _, endpoint := range profile.EndpointCandidates {
		respBody, err := c.post(ctx, profile, endpoint, body, func(h http.Header) {
			format.ApplyAuth(h, profile.AuthHeaderName, credential)
		})
		if err == nil {
			return respBody, nil
		}
		lastErr = err
		if c.logger != nil {
			c.logger.LogError(profile.ProviderID, err)
		}
	}
	return nil, lastErr
}

// dispatchRelay forwards the composed request plus the raw credential to
// the configured relay.
func (c *Client) dispatchRelay(ctx context.Context, profile domain.ProviderProfile, credential, proxy string, body []byte) ([]byte, error) {
	relayBody, err := json.Marshal(relayRequest{
		Provider:   profile.ProviderID,
		WireFormat: profile.WireFormat,
		Credential: credential,
		Body:       body,
	})
	if err != nil {
		return nil, fmt.Errorf("build relay body: %w", err)
	}

	return c.post(ctx, profile, proxy+relayPathSuffix, relayBody, nil)
}

// post performs one HTTP attempt against one endpoint.
func (c *Client) post(ctx context.Context, profile domain.ProviderProfile, endpoint string, body []byte, applyAuth func(http.Header)) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if applyAuth != nil {
		applyAuth(req.Header)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &llmhttp.Error{
			Type:      llmhttp.ErrTypeTimeout,
			Message:   err.Error(),
			Provider:  profile.ProviderID,
			Endpoint:  endpoint,
			Retryable: true,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if c.logger != nil {
		c.logger.LogResponse(llmhttp.ResponseLog{
			Provider:   profile.ProviderID,
			Endpoint:   endpoint,
			Timestamp:  started,
			Duration:   time.Since(started),
			StatusCode: resp.StatusCode,
		})
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, llmhttp.FromStatusCode(profile.ProviderID, endpoint, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return respBody, nil
}

// failureFinding is the single finding synthesized when delegation fails
// outright.
func failureFinding(err error) domain.Finding {
	return domain.Finding{
		Line:         1,
		Kind:         domain.KindError,
		Category:     domain.CategoryMaintainability,
		Message:      fmt.Sprintf("delegated analysis failed: %v", err),
		Suggestion:   "verify the provider credential, endpoint candidates, and relay configuration",
		ContextLines: []string{},
	}
}

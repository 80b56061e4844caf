// Package genuka is the outbound client for the Genuka commerce platform:
// OAuth token exchange, token refresh, and the admin API.
package genuka

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/genukahq/go-oauth-bridge/internal/config"
	"github.com/rs/zerolog/log"
)

const (
	tokenPath   = "/oauth/token"
	refreshPath = "/oauth/refresh"
	companyPath = "/2023-11/admin/company"

	headerCompany = "X-Company"
)

// UpstreamError is returned for any non-2xx provider response or a response
// missing required fields. Status and Body carry the full provider answer
// for logging at the call site.
type UpstreamError struct {
	Op     string
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("genuka %s failed: status %d: %s", e.Op, e.Status, e.Body)
}

// RequestContext carries the per-request credentials for an admin API call.
// It is constructed per call and never mutated, so a single Client can be
// shared across requests.
type RequestContext struct {
	AccessToken string
	CompanyID   string
}

type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	redirectURI  string
	httpClient   *http.Client
}

type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client, primarily for tests
// and for deployments that need custom timeouts.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(cfg config.ProviderConfig, options ...ClientOption) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(cfg.GetProviderURL(), "/"),
		clientID:     cfg.GetClientID(),
		clientSecret: cfg.GetClientSecret(),
		redirectURI:  cfg.GetRedirectURI(),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// ExchangeCode trades an authorization code for tokens. A single attempt,
// no retries; the provider rejects reused codes.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"redirect_uri":  {c.redirectURI},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("[ExchangeCode] build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tokens TokenResponse
	if err := c.do(req, "token exchange", &tokens); err != nil {
		return nil, err
	}

	if tokens.AccessToken == "" {
		log.Error().Str("op", "token exchange").Msg("access token missing from provider response")
		return nil, &UpstreamError{Op: "token exchange", Status: http.StatusOK, Body: "access_token not found in response"}
	}
	return &tokens, nil
}

// RefreshAccessToken exchanges a stored refresh token for fresh credentials.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	payload, err := json.Marshal(map[string]string{
		"refresh_token": refreshToken,
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("[RefreshAccessToken] encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+refreshPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("[RefreshAccessToken] build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var tokens TokenResponse
	if err := c.do(req, "token refresh", &tokens); err != nil {
		return nil, err
	}
	if tokens.AccessToken == "" {
		return nil, &UpstreamError{Op: "token refresh", Status: http.StatusOK, Body: "access_token not found in response"}
	}
	return &tokens, nil
}

// FetchCompany retrieves the company profile for the credentials in rc.
func (c *Client) FetchCompany(ctx context.Context, rc RequestContext) (*CompanyProfile, error) {
	var profile CompanyProfile
	if err := c.Get(ctx, rc, companyPath, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Get performs an authenticated GET against the admin API and decodes the
// JSON response into out.
func (c *Client) Get(ctx context.Context, rc RequestContext, endpoint string, out any) error {
	return c.request(ctx, rc, http.MethodGet, endpoint, nil, out)
}

// Post performs an authenticated JSON POST against the admin API.
func (c *Client) Post(ctx context.Context, rc RequestContext, endpoint string, body, out any) error {
	return c.request(ctx, rc, http.MethodPost, endpoint, body, out)
}

// Put performs an authenticated JSON PUT against the admin API.
func (c *Client) Put(ctx context.Context, rc RequestContext, endpoint string, body, out any) error {
	return c.request(ctx, rc, http.MethodPut, endpoint, body, out)
}

// Delete performs an authenticated DELETE against the admin API.
func (c *Client) Delete(ctx context.Context, rc RequestContext, endpoint string, out any) error {
	return c.request(ctx, rc, http.MethodDelete, endpoint, nil, out)
}

func (c *Client) request(ctx context.Context, rc RequestContext, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("[genuka request] encode body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(endpoint, "/"), reader)
	if err != nil {
		return fmt.Errorf("[genuka request] build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+rc.AccessToken)
	if rc.CompanyID != "" {
		req.Header.Set(headerCompany, rc.CompanyID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, method+" "+endpoint, out)
}

// do executes the request and decodes a 2xx JSON body into out. Non-2xx
// responses are logged with their full status and body and surfaced as
// *UpstreamError.
func (c *Client) do(req *http.Request, op string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("[genuka %s]: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("[genuka %s] read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().
			Str("op", op).
			Int("status", resp.StatusCode).
			Str("body", string(raw)).
			Msg("genuka request failed")
		return &UpstreamError{Op: op, Status: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &UpstreamError{Op: op, Status: resp.StatusCode, Body: string(raw)}
	}
	return nil
}

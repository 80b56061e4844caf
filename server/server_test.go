package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/genukahq/go-oauth-bridge/auth"
	"github.com/genukahq/go-oauth-bridge/companies"
	"github.com/genukahq/go-oauth-bridge/companies/repofakes"
	"github.com/genukahq/go-oauth-bridge/genuka"
	"github.com/genukahq/go-oauth-bridge/internal/config"
	"github.com/genukahq/go-oauth-bridge/server"
	"github.com/genukahq/go-oauth-bridge/sessions"
	"github.com/genukahq/go-oauth-bridge/signature"
)

const (
	testClientSecret    = "test-client-secret"
	testCompanyID       = "01HZXW1N8LACMEWIDGETS0001"
	testCompanyName     = "Acme Widgets"
	testDefaultRedirect = "https://app.example.com/install-error"
)

// fakeProvider is a scriptable stand-in for the Genuka client.
type fakeProvider struct {
	tokens      *genuka.TokenResponse
	profile     *genuka.CompanyProfile
	exchangeErr error
	refreshErr  error
}

func (f *fakeProvider) ExchangeCode(_ context.Context, _ string) (*genuka.TokenResponse, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.tokens, nil
}

func (f *fakeProvider) RefreshAccessToken(_ context.Context, _ string) (*genuka.TokenResponse, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.tokens, nil
}

func (f *fakeProvider) FetchCompany(_ context.Context, _ genuka.RequestContext) (*genuka.CompanyProfile, error) {
	return f.profile, nil
}

type testFixture struct {
	cfg      config.Config
	provider *fakeProvider
	repo     *repofakes.FakeCompanyRepo
	issuer   *sessions.Issuer
	server   *server.Server
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	t.Setenv("GENUKA_CLIENT_ID", "test-client-id")
	t.Setenv("GENUKA_CLIENT_SECRET", testClientSecret)
	t.Setenv("GENUKA_REDIRECT_URI", "https://bridge.example.com/auth/callback")
	t.Setenv("GENUKA_DEFAULT_REDIRECT", testDefaultRedirect)
	t.Setenv("ENV", "test")

	cfg, err := config.New()
	require.NoError(t, err)

	provider := &fakeProvider{
		tokens: &genuka.TokenResponse{
			AccessToken:      "access-token-1",
			RefreshToken:     "refresh-token-1",
			ExpiresInMinutes: 60,
		},
		profile: &genuka.CompanyProfile{
			ID:   testCompanyID,
			Name: testCompanyName,
		},
	}
	repo := repofakes.NewFakeCompanyRepo()

	service, err := auth.NewService(provider, repo, cfg)
	require.NoError(t, err)

	issuer := sessions.NewIssuer(cfg)

	srv, err := server.New(cfg, service, issuer)
	require.NoError(t, err)

	return &testFixture{
		cfg:      cfg,
		provider: provider,
		repo:     repo,
		issuer:   issuer,
		server:   srv,
	}
}

// issueSession mints both session cookies for a company.
func (f *testFixture) issueSession(t *testing.T, companyID string) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	_, err := f.issuer.Issue(rec, companyID)
	require.NoError(t, err)
	return rec.Result().Cookies()
}

func (f *testFixture) seedCompany(t *testing.T) {
	t.Helper()
	err := f.repo.Upsert(context.Background(), &companies.Company{
		ID:           testCompanyID,
		Name:         testCompanyName,
		AccessToken:  "old-access",
		RefreshToken: "old-refresh",
	})
	require.NoError(t, err)
}

// callbackQuery builds a signed callback query string. The redirect target
// is form-encoded once for signing and a second time for the wire, matching
// how the provider sends it.
func callbackQuery(code, companyID, target string, issuedAt time.Time) string {
	timestamp := fmt.Sprintf("%d", issuedAt.Unix())
	once := url.QueryEscape(target)

	signed := url.Values{}
	signed.Set("code", code)
	signed.Set("company_id", companyID)
	signed.Set("timestamp", timestamp)
	signed.Set("redirect_to", once)
	hmac := signature.Sign(signed, testClientSecret)

	return "code=" + url.QueryEscape(code) +
		"&company_id=" + url.QueryEscape(companyID) +
		"&timestamp=" + timestamp +
		"&redirect_to=" + url.QueryEscape(once) +
		"&hmac=" + hmac
}

func TestCallbackHandlerIssuesSessionAndRedirects(t *testing.T) {
	f := setupTestFixture(t)

	target := "https://app.example.com/dashboard?tab=settings"
	query := callbackQuery("auth-code-1", testCompanyID, target, time.Now())

	req := httptest.NewRequest(http.MethodGet, server.RouteAuthCallback+"?"+query, nil)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)

	cookies := rec.Result().Cookies()
	var sessionToken string
	names := make([]string, 0, len(cookies))
	for _, c := range cookies {
		names = append(names, c.Name)
		if c.Name == sessions.SessionCookieName {
			sessionToken = c.Value
		}
	}
	require.Contains(t, names, sessions.SessionCookieName)
	require.Contains(t, names, sessions.RefreshCookieName)
	require.NotEmpty(t, sessionToken)

	// Target already carries a query, so the token joins with "&".
	location := rec.Header().Get("Location")
	require.Equal(t, target+"&token="+url.QueryEscape(sessionToken), location)

	stored, err := f.repo.Get(context.Background(), testCompanyID)
	require.NoError(t, err)
	require.Equal(t, testCompanyName, stored.Name)
	require.Equal(t, "access-token-1", stored.AccessToken)
	require.Equal(t, "refresh-token-1", stored.RefreshToken)
}

func TestCallbackHandlerMissingParams(t *testing.T) {
	f := setupTestFixture(t)

	req := httptest.NewRequest(http.MethodGet, server.RouteAuthCallback+"?code=only-a-code", nil)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "VALIDATION_FAILED", body["code"])
	require.Empty(t, rec.Result().Cookies())
}

func TestCallbackHandlerBadSignatureRedirectsToFallback(t *testing.T) {
	f := setupTestFixture(t)

	target := "https://app.example.com/dashboard"
	query := callbackQuery("auth-code-1", testCompanyID, target, time.Now())
	query = strings.Replace(query, "company_id="+testCompanyID, "company_id=SOMEONEELSE", 1)

	req := httptest.NewRequest(http.MethodGet, server.RouteAuthCallback+"?"+query, nil)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, testDefaultRedirect+"?error=signature", rec.Header().Get("Location"))
	require.Empty(t, rec.Result().Cookies())

	_, err := f.repo.Get(context.Background(), "SOMEONEELSE")
	require.Error(t, err)
}

func TestCallbackHandlerStaleTimestampRedirectsToFallback(t *testing.T) {
	f := setupTestFixture(t)

	query := callbackQuery("auth-code-1", testCompanyID, "https://app.example.com/", time.Now().Add(-10*time.Minute))

	req := httptest.NewRequest(http.MethodGet, server.RouteAuthCallback+"?"+query, nil)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, testDefaultRedirect+"?error=signature", rec.Header().Get("Location"))
}

func TestCheckHandler(t *testing.T) {
	f := setupTestFixture(t)

	req := httptest.NewRequest(http.MethodGet, server.RouteAuthCheck, nil)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]bool
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.False(t, body["authenticated"])

	req = httptest.NewRequest(http.MethodGet, server.RouteAuthCheck, nil)
	for _, c := range f.issueSession(t, testCompanyID) {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.True(t, body["authenticated"])
}

func TestMeHandlerRequiresSession(t *testing.T) {
	f := setupTestFixture(t)

	req := httptest.NewRequest(http.MethodGet, server.RouteAuthMe, nil)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "UNAUTHORIZED", body["code"])
}

func TestMeHandlerReturnsCompanyWithoutCredentials(t *testing.T) {
	f := setupTestFixture(t)
	f.seedCompany(t)

	req := httptest.NewRequest(http.MethodGet, server.RouteAuthMe, nil)
	for _, c := range f.issueSession(t, testCompanyID) {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, testCompanyID, body["id"])
	require.Equal(t, testCompanyName, body["name"])

	// Token material must never serialize.
	raw := rec.Body.String()
	require.NotContains(t, raw, "old-access")
	require.NotContains(t, raw, "old-refresh")
}

func TestRefreshHandlerWithoutCookie(t *testing.T) {
	f := setupTestFixture(t)

	req := httptest.NewRequest(http.MethodPost, server.RouteAuthRefresh, nil)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "REFRESH_TOKEN_INVALID", body["code"])
}

func TestRefreshHandlerRejectsSessionTokenInRefreshCookie(t *testing.T) {
	f := setupTestFixture(t)
	f.seedCompany(t)

	cookies := f.issueSession(t, testCompanyID)
	var sessionValue string
	for _, c := range cookies {
		if c.Name == sessions.SessionCookieName {
			sessionValue = c.Value
		}
	}
	require.NotEmpty(t, sessionValue)

	req := httptest.NewRequest(http.MethodPost, server.RouteAuthRefresh, nil)
	req.AddCookie(&http.Cookie{Name: sessions.RefreshCookieName, Value: sessionValue})
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "REFRESH_TOKEN_INVALID", body["code"])
}

func TestRefreshHandlerRotatesTokensAndCookies(t *testing.T) {
	f := setupTestFixture(t)
	f.seedCompany(t)
	f.provider.tokens = &genuka.TokenResponse{
		AccessToken:      "access-token-2",
		RefreshToken:     "refresh-token-2",
		ExpiresInMinutes: 60,
	}

	req := httptest.NewRequest(http.MethodPost, server.RouteAuthRefresh, nil)
	for _, c := range f.issueSession(t, testCompanyID) {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, true, body["success"])
	require.Equal(t, "Session refreshed successfully", body["message"])

	names := make([]string, 0)
	for _, c := range rec.Result().Cookies() {
		names = append(names, c.Name)
	}
	require.Contains(t, names, sessions.SessionCookieName)
	require.Contains(t, names, sessions.RefreshCookieName)

	stored, err := f.repo.Get(context.Background(), testCompanyID)
	require.NoError(t, err)
	require.Equal(t, "access-token-2", stored.AccessToken)
	require.Equal(t, "refresh-token-2", stored.RefreshToken)
}

func TestRefreshHandlerCompanyNotFound(t *testing.T) {
	f := setupTestFixture(t)
	// No seeded company: the cookie names a company that was never installed.

	req := httptest.NewRequest(http.MethodPost, server.RouteAuthRefresh, nil)
	for _, c := range f.issueSession(t, "01HZXWGONECOMPANY00000000") {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "COMPANY_NOT_FOUND", body["code"])
}

func TestRefreshHandlerNoStoredRefreshToken(t *testing.T) {
	f := setupTestFixture(t)
	err := f.repo.Upsert(context.Background(), &companies.Company{
		ID:   testCompanyID,
		Name: testCompanyName,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, server.RouteAuthRefresh, nil)
	for _, c := range f.issueSession(t, testCompanyID) {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "NO_REFRESH_TOKEN", body["code"])
}

func TestRefreshHandlerUpstreamFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.seedCompany(t)
	f.provider.refreshErr = &genuka.UpstreamError{Op: "RefreshAccessToken", Status: http.StatusUnauthorized}

	req := httptest.NewRequest(http.MethodPost, server.RouteAuthRefresh, nil)
	for _, c := range f.issueSession(t, testCompanyID) {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "REFRESH_FAILED", body["code"])

	// Stored tokens survive the failed refresh.
	stored, err := f.repo.Get(context.Background(), testCompanyID)
	require.NoError(t, err)
	require.Equal(t, "old-access", stored.AccessToken)
}

func TestLogoutHandlerExpiresCookies(t *testing.T) {
	f := setupTestFixture(t)

	req := httptest.NewRequest(http.MethodPost, server.RouteAuthLogout, nil)
	for _, c := range f.issueSession(t, testCompanyID) {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	for _, c := range rec.Result().Cookies() {
		require.Less(t, c.MaxAge, 0, "cookie %q should be expired", c.Name)
	}
}

func TestWebhookHandlerSignedEvent(t *testing.T) {
	f := setupTestFixture(t)

	payload := []byte(`{"type":"company.updated","data":{"id":"` + testCompanyID + `"}}`)

	req := httptest.NewRequest(http.MethodPost, server.RouteAuthWebhook, bytes.NewReader(payload))
	req.Header.Set(server.WebhookSignatureHeader, signature.SignPayload(payload, testClientSecret))
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, true, body["success"])
}

func TestWebhookHandlerUnknownEventAcknowledged(t *testing.T) {
	f := setupTestFixture(t)

	payload := []byte(`{"type":"inventory.adjusted","data":{}}`)

	req := httptest.NewRequest(http.MethodPost, server.RouteAuthWebhook, bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookHandlerInvalidSignature(t *testing.T) {
	f := setupTestFixture(t)

	payload := []byte(`{"type":"company.updated","data":{}}`)

	req := httptest.NewRequest(http.MethodPost, server.RouteAuthWebhook, bytes.NewReader(payload))
	req.Header.Set(server.WebhookSignatureHeader, "deadbeef")
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, false, body["success"])
	require.Equal(t, "Failed to process webhook", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	f := setupTestFixture(t)

	req := httptest.NewRequest(http.MethodGet, server.RouteMetrics, nil)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "genuka_bridge")
}

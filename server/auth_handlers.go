package server

import (
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/genukahq/go-oauth-bridge/auth"
	"github.com/genukahq/go-oauth-bridge/genuka"
	apperrors "github.com/genukahq/go-oauth-bridge/internal/errors"
)

// CallbackHandler is the OAuth landing from Genuka. On success it issues
// the session cookies and redirects to the signed redirect target with the
// session token appended; on failure it redirects to the configured
// fallback with an error code.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		params := auth.CallbackParams{
			Code:      q.Get("code"),
			CompanyID: q.Get("company_id"),
			Timestamp: q.Get("timestamp"),
			HMAC:      q.Get("hmac"),
			// Still percent-encoded at this point; decoded exactly once
			// below for the outbound redirect.
			RedirectTo: q.Get("redirect_to"),
		}

		if err := params.Validate(); err != nil {
			s.metrics.RecordCallbackFailure("validation")
			writeJSONError(w, http.StatusBadRequest, err.Error(), "VALIDATION_FAILED")
			return
		}

		company, err := s.auth.HandleCallback(r.Context(), params)
		if err != nil {
			cause := callbackFailureCause(err)
			s.metrics.RecordCallbackFailure(cause)
			s.redirectWithError(w, r, cause)
			return
		}

		token, err := s.sessions.Issue(w, company.ID)
		if err != nil {
			log.Error().Err(err).Str("company_id", company.ID).Msg("session issuance failed")
			s.metrics.RecordCallbackFailure("internal")
			s.redirectWithError(w, r, "internal")
			return
		}

		target, err := callbackRedirectURL(params.RedirectTo, token)
		if err != nil {
			log.Error().Err(err).Str("company_id", company.ID).Msg("invalid redirect target")
			s.metrics.RecordCallbackFailure("redirect")
			s.redirectWithError(w, r, "redirect")
			return
		}

		s.metrics.RecordCallbackSuccess()
		http.Redirect(w, r, target, http.StatusFound)
	}
}

// callbackFailureCause collapses the error taxonomy into coarse labels.
// Both signature and timestamp failures map to the same label so the
// response never reveals which check failed.
func callbackFailureCause(err error) string {
	var upstream *genuka.UpstreamError
	switch {
	case apperrors.Is(err, apperrors.ErrMissingParameter), apperrors.Is(err, apperrors.ErrInvalidRequest):
		return "validation"
	case apperrors.Is(err, apperrors.ErrInvalidSignature), apperrors.Is(err, apperrors.ErrStaleTimestamp):
		return "signature"
	case apperrors.As(err, &upstream):
		return "upstream"
	default:
		return "internal"
	}
}

// callbackRedirectURL decodes the signed redirect target exactly once and
// appends the session token as a query parameter.
func callbackRedirectURL(encodedTarget, token string) (string, error) {
	decoded, err := url.QueryUnescape(encodedTarget)
	if err != nil {
		return "", err
	}
	separator := "?"
	if u, err := url.Parse(decoded); err == nil && u.RawQuery != "" {
		separator = "&"
	}
	return decoded + separator + "token=" + url.QueryEscape(token), nil
}

func (s *Server) redirectWithError(w http.ResponseWriter, r *http.Request, cause string) {
	fallback := s.config.GetDefaultRedirect()
	separator := "?"
	if u, err := url.Parse(fallback); err == nil && u.RawQuery != "" {
		separator = "&"
	}
	http.Redirect(w, r, fallback+separator+"error="+url.QueryEscape(cause), http.StatusFound)
}

// CheckHandler reports whether the request carries a valid session.
func (s *Server) CheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, authenticated := s.sessions.CompanyID(r)
		writeJSON(w, http.StatusOK, map[string]bool{
			"authenticated": authenticated,
		})
	}
}

// MeHandler returns the authenticated company's profile. Credential fields
// never serialize. Runs behind RequireCompanySession.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		company, ok := companyFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "Not authenticated", "UNAUTHORIZED")
			return
		}
		writeJSON(w, http.StatusOK, company)
	}
}

// RefreshHandler refreshes the session from the refresh cookie. No request
// body: the company id comes from the signed cookie.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, ok := s.sessions.RefreshCompanyID(r)
		if !ok {
			s.metrics.RecordRefreshFailure("invalid_token")
			writeJSONError(w, http.StatusUnauthorized, "Invalid or expired refresh token", "REFRESH_TOKEN_INVALID")
			return
		}

		if err := s.auth.Refresh(r.Context(), companyID); err != nil {
			switch {
			case apperrors.Is(err, apperrors.ErrCompanyNotFound):
				s.metrics.RecordRefreshFailure("company_not_found")
				writeJSONError(w, http.StatusNotFound, "Company not found", "COMPANY_NOT_FOUND")
			case apperrors.Is(err, apperrors.ErrNoRefreshToken):
				s.metrics.RecordRefreshFailure("no_refresh_token")
				writeJSONError(w, http.StatusUnauthorized, "No refresh token available. Please reinstall the app.", "NO_REFRESH_TOKEN")
			default:
				s.metrics.RecordRefreshFailure("upstream")
				writeJSONError(w, http.StatusUnauthorized, "Failed to refresh session. Please reinstall the app.", "REFRESH_FAILED")
			}
			return
		}

		if _, err := s.sessions.Issue(w, companyID); err != nil {
			log.Error().Err(err).Str("company_id", companyID).Msg("session issuance failed")
			s.metrics.RecordRefreshFailure("internal")
			writeJSONError(w, http.StatusUnauthorized, "Failed to refresh session. Please reinstall the app.", "REFRESH_FAILED")
			return
		}

		s.metrics.RecordRefreshSuccess()
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Session refreshed successfully",
		})
	}
}

// LogoutHandler clears both cookies and sends the browser home.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.sessions.Destroy(w)
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

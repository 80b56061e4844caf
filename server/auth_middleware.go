package server

import (
	"context"
	"net/http"

	"github.com/genukahq/go-oauth-bridge/companies"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyCompany stores the authenticated company record
	ContextKeyCompany ContextKey = "company"
)

// RequireCompanySession is middleware for endpoints that need an
// authenticated company. It verifies the session cookie, loads the company,
// and injects it into the request context.
func (s *Server) RequireCompanySession() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			companyID, ok := s.sessions.CompanyID(r)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "Not authenticated", "UNAUTHORIZED")
				return
			}

			company, err := s.auth.Company(r.Context(), companyID)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "Not authenticated", "UNAUTHORIZED")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyCompany, company)
			next(w, r.WithContext(ctx))
		}
	}
}

// companyFromContext returns the company injected by RequireCompanySession.
func companyFromContext(ctx context.Context) (*companies.Company, bool) {
	company, ok := ctx.Value(ContextKeyCompany).(*companies.Company)
	return company, ok
}

// Package sessions mints and verifies the signed session and refresh
// cookies issued after a completed OAuth handshake. Verification is
// stateless: a pure function of token, secret, and clock.
package sessions

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "github.com/genukahq/go-oauth-bridge/internal/errors"
)

const (
	SessionCookieName = "session"
	RefreshCookieName = "refresh_session"
)

// Config is the subset of the application config the issuer needs.
type Config interface {
	GetClientSecret() string
	IsProduction() bool
	GetSessionMaxAge() time.Duration
	GetRefreshMaxAge() time.Duration
}

type Issuer struct {
	secret     []byte
	secure     bool
	sessionTTL time.Duration
	refreshTTL time.Duration
	nowTime    func() time.Time
}

// IssuerOption modifies an Issuer instance.
type IssuerOption func(*Issuer)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowTime = nowFunc
	}
}

func NewIssuer(cfg Config, options ...IssuerOption) *Issuer {
	i := &Issuer{
		secret:     []byte(cfg.GetClientSecret()),
		secure:     cfg.IsProduction(),
		sessionTTL: cfg.GetSessionMaxAge(),
		refreshTTL: cfg.GetRefreshMaxAge(),
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(i)
	}
	return i
}

// Issue mints the session and refresh tokens for a company and queues both
// cookies on w. Returns the session token so the callback can hand it to
// the frontend.
func (i *Issuer) Issue(w http.ResponseWriter, companyID string) (string, error) {
	sessionToken, err := i.mint(companyID, TokenTypeSession, i.sessionTTL)
	if err != nil {
		return "", apperrors.Wrapf(err, "[Issue] session token")
	}
	refreshToken, err := i.mint(companyID, TokenTypeRefresh, i.refreshTTL)
	if err != nil {
		return "", apperrors.Wrapf(err, "[Issue] refresh token")
	}

	i.setCookie(w, SessionCookieName, sessionToken, i.sessionTTL)
	i.setCookie(w, RefreshCookieName, refreshToken, i.refreshTTL)

	return sessionToken, nil
}

func (i *Issuer) mint(companyID string, typ TokenType, ttl time.Duration) (string, error) {
	now := i.nowTime()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   companyID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
		},
		CompanyID: companyID,
		Type:      typ,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify decodes and signature-checks a token. Expiry is an expected,
// frequent outcome and is not logged; every other failure is.
func (i *Issuer) Verify(token string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(i.nowTime),
	)
	if err != nil {
		if apperrors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		log.Error().Err(err).Msg("session token verification failed")
		return nil, apperrors.ErrInvalidToken
	}
	return &claims, nil
}

// CompanyID returns the company bound to the request's session cookie, or
// false when there is no valid session-type token.
func (i *Issuer) CompanyID(r *http.Request) (string, bool) {
	return i.companyIDFromCookie(r, SessionCookieName, TokenTypeSession)
}

// RefreshCompanyID returns the company bound to the refresh cookie, or
// false when there is no valid refresh-type token.
func (i *Issuer) RefreshCompanyID(r *http.Request) (string, bool) {
	return i.companyIDFromCookie(r, RefreshCookieName, TokenTypeRefresh)
}

func (i *Issuer) companyIDFromCookie(r *http.Request, cookieName string, want TokenType) (string, bool) {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	claims, err := i.Verify(cookie.Value)
	if err != nil {
		return "", false
	}
	if claims.Type != want || claims.CompanyID == "" {
		return "", false
	}
	return claims.CompanyID, true
}

// Destroy clears both cookies.
func (i *Issuer) Destroy(w http.ResponseWriter) {
	i.expireCookie(w, SessionCookieName)
	i.expireCookie(w, RefreshCookieName)
}

func (i *Issuer) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   i.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (i *Issuer) expireCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   i.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

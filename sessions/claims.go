package sessions

import "github.com/golang-jwt/jwt/v5"

// TokenType discriminates the two cookie-borne tokens. A refresh token is
// never accepted where a session token is expected and vice versa, even
// when validly signed.
type TokenType string

const (
	TokenTypeSession TokenType = "session"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the signed claim set carried by both cookies.
type Claims struct {
	jwt.RegisteredClaims
	CompanyID string    `json:"companyId"`
	Type      TokenType `json:"type"`
}

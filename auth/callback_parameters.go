package auth

import (
	"net/url"

	apperrors "github.com/genukahq/go-oauth-bridge/internal/errors"
)

// CallbackParams are the query parameters Genuka sends to the OAuth
// callback. RedirectTo must be kept in whatever encoding it arrived in:
// it is part of the signed parameter set, and re-encoding it would break
// verification against the provider's original signing input. It is
// decoded exactly once, later, for the outbound redirect.
type CallbackParams struct {
	Code       string
	CompanyID  string
	Timestamp  string
	HMAC       string
	RedirectTo string
}

// Validate checks that every required parameter is present.
func (p CallbackParams) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"code", p.Code},
		{"company_id", p.CompanyID},
		{"timestamp", p.Timestamp},
		{"hmac", p.HMAC},
		{"redirect_to", p.RedirectTo},
	}
	for _, param := range required {
		if param.value == "" {
			return apperrors.Wrapf(apperrors.ErrMissingParameter, "%s", param.name)
		}
	}
	return nil
}

// signedValues is the canonical parameter set covered by the HMAC: every
// query parameter except the signature itself, exactly as received.
func (p CallbackParams) signedValues() url.Values {
	return url.Values{
		"code":        {p.Code},
		"company_id":  {p.CompanyID},
		"timestamp":   {p.Timestamp},
		"redirect_to": {p.RedirectTo},
	}
}

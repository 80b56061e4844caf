// Package auth orchestrates the OAuth callback and session refresh flows
// against the Genuka provider.
package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/genukahq/go-oauth-bridge/companies"
	"github.com/genukahq/go-oauth-bridge/genuka"
	apperrors "github.com/genukahq/go-oauth-bridge/internal/errors"
	"github.com/genukahq/go-oauth-bridge/signature"
)

// ProviderClient is the outbound surface the orchestrators need from the
// Genuka client.
type ProviderClient interface {
	ExchangeCode(ctx context.Context, code string) (*genuka.TokenResponse, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*genuka.TokenResponse, error)
	FetchCompany(ctx context.Context, rc genuka.RequestContext) (*genuka.CompanyProfile, error)
}

// Config is the subset of the application config the service needs.
type Config interface {
	GetClientSecret() string
	GetTimestampWindow() time.Duration
}

// Service composes signature verification, token exchange, profile fetch,
// and persistence into the callback and refresh flows.
type Service struct {
	provider  ProviderClient
	companies companies.Repo
	config    Config
	nowTime   func() time.Time // nowTime function (injectable for testing)
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(provider ProviderClient, companyRepo companies.Repo, cfg Config, options ...ServiceOption) (*Service, error) {
	if provider == nil {
		return nil, errors.New("[NewService] provider client is required")
	}
	if companyRepo == nil {
		return nil, errors.New("[NewService] company repo is required")
	}
	if cfg == nil {
		return nil, errors.New("[NewService] config is required")
	}

	s := &Service{
		provider:  provider,
		companies: companyRepo,
		config:    cfg,
		nowTime:   time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// HandleCallback runs the callback flow end to end. Every step is a hard
// gate: a failure stops the flow and is returned typed, after being logged
// with the company id.
func (s *Service) HandleCallback(ctx context.Context, params CallbackParams) (*companies.Company, error) {
	company, err := s.handleCallback(ctx, params)
	if err != nil {
		log.Error().
			Err(err).
			Str("company_id", params.CompanyID).
			Msg("oauth callback failed")
		return nil, err
	}

	log.Info().
		Str("company_id", company.ID).
		Str("company_name", company.Name).
		Msg("oauth callback completed successfully")
	return company, nil
}

func (s *Service) handleCallback(ctx context.Context, params CallbackParams) (*companies.Company, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	secret := s.config.GetClientSecret()
	if !signature.Verify(params.signedValues(), params.HMAC, secret) {
		return nil, apperrors.ErrInvalidSignature
	}
	if !signature.FreshTimestamp(params.Timestamp, s.nowTime(), s.config.GetTimestampWindow()) {
		return nil, apperrors.ErrStaleTimestamp
	}

	tokens, err := s.provider.ExchangeCode(ctx, params.Code)
	if err != nil {
		return nil, err
	}

	rc := genuka.RequestContext{AccessToken: tokens.AccessToken, CompanyID: params.CompanyID}
	profile, err := s.provider.FetchCompany(ctx, rc)
	if err != nil {
		return nil, err
	}
	if profile.Name == "" {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidRequest, "company profile has no name")
	}

	company := &companies.Company{
		ID:                params.CompanyID,
		Handle:            profile.Handle,
		Name:              profile.Name,
		Description:       profile.Description,
		LogoURL:           profile.LogoURL,
		Phone:             profile.Phone,
		AccessToken:       tokens.AccessToken,
		RefreshToken:      tokens.RefreshToken,
		TokenExpiresAt:    tokens.ExpiresAt(s.nowTime()),
		AuthorizationCode: params.Code,
	}
	if err := s.companies.Upsert(ctx, company); err != nil {
		return nil, errors.Wrap(err, "[HandleCallback] upsert company")
	}
	return company, nil
}

// Refresh re-exchanges the stored refresh credential and updates the
// company's tokens. This path never retries; an exchange failure means the
// company must reinstall the app.
func (s *Service) Refresh(ctx context.Context, companyID string) error {
	company, err := s.companies.Get(ctx, companyID)
	if err != nil {
		return err
	}
	if company.RefreshToken == "" {
		return apperrors.ErrNoRefreshToken
	}

	tokens, err := s.provider.RefreshAccessToken(ctx, company.RefreshToken)
	if err != nil {
		log.Error().
			Err(err).
			Str("company_id", companyID).
			Msg("session refresh failed")
		return err
	}

	refreshToken := tokens.RefreshToken
	if refreshToken == "" {
		// Provider may rotate refresh tokens or not; keep the old one when
		// no replacement arrives.
		refreshToken = company.RefreshToken
	}

	if err := s.companies.UpdateTokens(ctx, companyID, tokens.AccessToken, refreshToken, tokens.ExpiresAt(s.nowTime())); err != nil {
		return errors.Wrap(err, "[Refresh] update tokens")
	}
	return nil
}

// Company looks up a company by id.
func (s *Service) Company(ctx context.Context, companyID string) (*companies.Company, error) {
	return s.companies.Get(ctx, companyID)
}

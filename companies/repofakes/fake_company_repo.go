package repofakes

import (
	"context"
	"sync"
	"time"

	"github.com/genukahq/go-oauth-bridge/companies"
	apperrors "github.com/genukahq/go-oauth-bridge/internal/errors"
)

var _ companies.Repo = (*FakeCompanyRepo)(nil)

type FakeCompanyRepo struct {
	companies map[string]*companies.Company
	lock      sync.RWMutex
}

func NewFakeCompanyRepo() *FakeCompanyRepo {
	return &FakeCompanyRepo{
		companies: make(map[string]*companies.Company),
	}
}

func (cr *FakeCompanyRepo) Upsert(_ context.Context, company *companies.Company) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()
	now := time.Now()
	stored := *company
	if existing, ok := cr.companies[company.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	cr.companies[company.ID] = &stored
	return nil
}

func (cr *FakeCompanyRepo) Get(_ context.Context, companyID string) (*companies.Company, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()
	company, ok := cr.companies[companyID]
	if !ok {
		return nil, apperrors.ErrCompanyNotFound
	}
	copied := *company
	return &copied, nil
}

func (cr *FakeCompanyRepo) UpdateTokens(_ context.Context, companyID, accessToken, refreshToken string, expiresAt time.Time) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()
	company, ok := cr.companies[companyID]
	if !ok {
		return apperrors.ErrCompanyNotFound
	}
	company.AccessToken = accessToken
	company.RefreshToken = refreshToken
	company.TokenExpiresAt = expiresAt
	company.UpdatedAt = time.Now()
	return nil
}

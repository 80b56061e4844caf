package companies

import (
	"context"
	"time"
)

type Repo interface {
	// Upsert creates or updates a company keyed by its provider-assigned ID.
	// Concurrent upserts for the same company race with last-write-wins
	// semantics; there is no optimistic concurrency guard.
	Upsert(ctx context.Context, company *Company) error
	Get(ctx context.Context, companyID string) (*Company, error)
	UpdateTokens(ctx context.Context, companyID, accessToken, refreshToken string, expiresAt time.Time) error
}

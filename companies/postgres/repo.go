// Package postgres persists companies in PostgreSQL. Token columns are
// sealed with the secretbox cipher when one is supplied.
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/genukahq/go-oauth-bridge/companies"
	apperrors "github.com/genukahq/go-oauth-bridge/internal/errors"
	"github.com/genukahq/go-oauth-bridge/internal/secretbox"
)

var _ companies.Repo = (*Repo)(nil)

type Repo struct {
	db  *sql.DB
	box *secretbox.Box // nil means tokens are stored in the clear
}

func New(db *sql.DB, box *secretbox.Box) *Repo {
	return &Repo{db: db, box: box}
}

const upsertQuery = `
INSERT INTO companies (id, handle, name, description, logo_url, phone,
                       access_token, refresh_token, token_expires_at,
                       authorization_code, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
ON CONFLICT (id) DO UPDATE SET
    handle             = EXCLUDED.handle,
    name               = EXCLUDED.name,
    description        = EXCLUDED.description,
    logo_url           = EXCLUDED.logo_url,
    phone              = EXCLUDED.phone,
    access_token       = EXCLUDED.access_token,
    refresh_token      = EXCLUDED.refresh_token,
    token_expires_at   = EXCLUDED.token_expires_at,
    authorization_code = EXCLUDED.authorization_code,
    updated_at         = now()`

func (r *Repo) Upsert(ctx context.Context, company *companies.Company) error {
	accessToken, err := r.seal(company.AccessToken)
	if err != nil {
		return errors.Wrap(err, "[Upsert] seal access token")
	}
	refreshToken, err := r.seal(company.RefreshToken)
	if err != nil {
		return errors.Wrap(err, "[Upsert] seal refresh token")
	}

	_, err = r.db.ExecContext(ctx, upsertQuery,
		company.ID,
		nullable(company.Handle),
		company.Name,
		nullable(company.Description),
		nullable(company.LogoURL),
		nullable(company.Phone),
		nullable(accessToken),
		nullable(refreshToken),
		nullableTime(company.TokenExpiresAt),
		nullable(company.AuthorizationCode),
	)
	return errors.Wrap(err, "[Upsert] exec")
}

const getQuery = `
SELECT id, handle, name, description, logo_url, phone,
       access_token, refresh_token, token_expires_at,
       authorization_code, created_at, updated_at
FROM companies
WHERE id = $1`

func (r *Repo) Get(ctx context.Context, companyID string) (*companies.Company, error) {
	var (
		company        companies.Company
		handle         sql.NullString
		description    sql.NullString
		logoURL        sql.NullString
		phone          sql.NullString
		accessToken    sql.NullString
		refreshToken   sql.NullString
		tokenExpiresAt sql.NullTime
		authCode       sql.NullString
	)

	row := r.db.QueryRowContext(ctx, getQuery, companyID)
	err := row.Scan(
		&company.ID, &handle, &company.Name, &description, &logoURL, &phone,
		&accessToken, &refreshToken, &tokenExpiresAt, &authCode,
		&company.CreatedAt, &company.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrCompanyNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Get] scan")
	}

	company.Handle = handle.String
	company.Description = description.String
	company.LogoURL = logoURL.String
	company.Phone = phone.String
	company.AuthorizationCode = authCode.String
	company.TokenExpiresAt = tokenExpiresAt.Time

	if company.AccessToken, err = r.open(accessToken.String); err != nil {
		return nil, errors.Wrap(err, "[Get] open access token")
	}
	if company.RefreshToken, err = r.open(refreshToken.String); err != nil {
		return nil, errors.Wrap(err, "[Get] open refresh token")
	}

	return &company, nil
}

const updateTokensQuery = `
UPDATE companies
SET access_token = $2, refresh_token = $3, token_expires_at = $4, updated_at = now()
WHERE id = $1`

func (r *Repo) UpdateTokens(ctx context.Context, companyID, accessToken, refreshToken string, expiresAt time.Time) error {
	sealedAccess, err := r.seal(accessToken)
	if err != nil {
		return errors.Wrap(err, "[UpdateTokens] seal access token")
	}
	sealedRefresh, err := r.seal(refreshToken)
	if err != nil {
		return errors.Wrap(err, "[UpdateTokens] seal refresh token")
	}

	result, err := r.db.ExecContext(ctx, updateTokensQuery,
		companyID, nullable(sealedAccess), nullable(sealedRefresh), nullableTime(expiresAt))
	if err != nil {
		return errors.Wrap(err, "[UpdateTokens] exec")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "[UpdateTokens] rows affected")
	}
	if affected == 0 {
		return apperrors.ErrCompanyNotFound
	}
	return nil
}

func (r *Repo) seal(value string) (string, error) {
	if r.box == nil || value == "" {
		return value, nil
	}
	return r.box.Seal(value)
}

func (r *Repo) open(value string) (string, error) {
	if r.box == nil || value == "" {
		return value, nil
	}
	return r.box.Open(value)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/imarises/TrustScore-FHE/internal/domain/grants"
	"github.com/imarises/TrustScore-FHE/internal/fhe"
)

type GrantRepository struct {
	pool *pgxpool.Pool
}

func NewGrantRepository(pool *pgxpool.Pool) *GrantRepository {
	return &GrantRepository{pool: pool}
}

func (r *GrantRepository) EnsureHandle(ctx context.Context, handle fhe.Handle) error {
	q := `
INSERT INTO access_grants (handle, is_public, grantees)
VALUES ($1, FALSE, '{}')
ON CONFLICT (handle) DO NOTHING
`
	_, err := r.pool.Exec(ctx, q, string(handle))
	return err
}

func (r *GrantRepository) AddGrantee(ctx context.Context, handle fhe.Handle, principal string) error {
	q := `
UPDATE access_grants
SET grantees = array_append(grantees, $2), updated_at = NOW()
WHERE handle = $1 AND NOT ($2 = ANY(grantees))
`
	_, err := r.pool.Exec(ctx, q, string(handle), principal)
	return err
}

func (r *GrantRepository) SetPublic(ctx context.Context, handle fhe.Handle) error {
	q := `UPDATE access_grants SET is_public = TRUE, updated_at = NOW() WHERE handle = $1`
	_, err := r.pool.Exec(ctx, q, string(handle))
	return err
}

func (r *GrantRepository) Get(ctx context.Context, handle fhe.Handle) (*grants.Entity, error) {
	q := `SELECT handle, is_public, grantees, created_at, updated_at FROM access_grants WHERE handle = $1`
	out := &grants.Entity{}
	var raw string
	err := r.pool.QueryRow(ctx, q, string(handle)).Scan(&raw, &out.Public, &out.Grantees, &out.CreatedAt, &out.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, grants.ErrUnknownHandle
	}
	if err != nil {
		return nil, err
	}
	out.Handle = fhe.Handle(raw)
	return out, nil
}

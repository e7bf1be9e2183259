package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Principal struct {
	ID        string
	Wallet    string
	PublicKey string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Session struct {
	ID               string
	PrincipalID      string
	RefreshTokenHash string
	UserAgent        string
	IPAddress        string
	ExpiresAt        time.Time
	RevokedAt        *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type AuthRepository struct {
	pool *pgxpool.Pool
}

func NewAuthRepository(pool *pgxpool.Pool) *AuthRepository {
	return &AuthRepository{pool: pool}
}

func (r *AuthRepository) UpsertPrincipal(ctx context.Context, wallet, publicKey, role string) (*Principal, error) {
	q := `
INSERT INTO principals (wallet, public_key, role)
VALUES ($1, $2, $3)
ON CONFLICT (wallet)
DO UPDATE SET
  public_key = EXCLUDED.public_key,
  updated_at = NOW()
RETURNING id, wallet, public_key, role, created_at, updated_at
`
	p := &Principal{}
	err := r.pool.QueryRow(ctx, q, wallet, publicKey, role).
		Scan(&p.ID, &p.Wallet, &p.PublicKey, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *AuthRepository) GetPrincipalByID(ctx context.Context, principalID string) (*Principal, error) {
	q := `SELECT id, wallet, public_key, role, created_at, updated_at FROM principals WHERE id = $1`
	p := &Principal{}
	err := r.pool.QueryRow(ctx, q, principalID).
		Scan(&p.ID, &p.Wallet, &p.PublicKey, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *AuthRepository) CreateSession(ctx context.Context, principalID, refreshHash, userAgent, ipAddress string, expiresAt time.Time) (*Session, error) {
	q := `
INSERT INTO auth_sessions (principal_id, refresh_token_hash, user_agent, ip_address, expires_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, principal_id, refresh_token_hash, user_agent, ip_address, expires_at, revoked_at, created_at, updated_at
`
	s := &Session{}
	err := r.pool.QueryRow(ctx, q, principalID, refreshHash, userAgent, ipAddress, expiresAt).
		Scan(&s.ID, &s.PrincipalID, &s.RefreshTokenHash, &s.UserAgent, &s.IPAddress, &s.ExpiresAt, &s.RevokedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *AuthRepository) GetSessionByID(ctx context.Context, sessionID string) (*Session, error) {
	q := `
SELECT id, principal_id, refresh_token_hash, user_agent, ip_address, expires_at, revoked_at, created_at, updated_at
FROM auth_sessions
WHERE id = $1
`
	s := &Session{}
	err := r.pool.QueryRow(ctx, q, sessionID).
		Scan(&s.ID, &s.PrincipalID, &s.RefreshTokenHash, &s.UserAgent, &s.IPAddress, &s.ExpiresAt, &s.RevokedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *AuthRepository) RevokeSession(ctx context.Context, sessionID string) error {
	q := `UPDATE auth_sessions SET revoked_at = NOW(), updated_at = NOW() WHERE id = $1 AND revoked_at IS NULL`
	_, err := r.pool.Exec(ctx, q, sessionID)
	return err
}

func (r *AuthRepository) UpdateSessionRefreshHash(ctx context.Context, sessionID, refreshHash string) error {
	q := `UPDATE auth_sessions SET refresh_token_hash = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, sessionID, refreshHash)
	return err
}

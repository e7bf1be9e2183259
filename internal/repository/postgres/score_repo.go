package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/imarises/TrustScore-FHE/internal/domain/score"
)

type ScoreRepository struct {
	pool *pgxpool.Pool
}

func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

func (r *ScoreRepository) Upsert(ctx context.Context, in score.UpsertInput) (*score.Entity, error) {
	q := `
INSERT INTO trust_scores (user_id, ciphertext_handle, loan_count, is_verified, clear_score, computed_at)
VALUES ($1, $2, $3, FALSE, 0, NOW())
ON CONFLICT (user_id)
DO UPDATE SET
  ciphertext_handle = EXCLUDED.ciphertext_handle,
  loan_count = EXCLUDED.loan_count,
  is_verified = FALSE,
  clear_score = 0,
  computed_at = NOW(),
  updated_at = NOW()
RETURNING user_id, ciphertext_handle, is_verified, clear_score, loan_count, computed_at, updated_at
`
	out := &score.Entity{}
	err := r.pool.QueryRow(ctx, q, in.User, string(in.EncryptedScore), in.LoanCount).Scan(
		&out.User, &out.EncryptedScore, &out.IsVerified, &out.ClearScore, &out.LoanCount, &out.ComputedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ScoreRepository) GetByUser(ctx context.Context, user string) (*score.Entity, error) {
	q := `
SELECT user_id, ciphertext_handle, is_verified, clear_score, loan_count, computed_at, updated_at
FROM trust_scores
WHERE user_id = $1
`
	out := &score.Entity{}
	err := r.pool.QueryRow(ctx, q, user).Scan(
		&out.User, &out.EncryptedScore, &out.IsVerified, &out.ClearScore, &out.LoanCount, &out.ComputedAt, &out.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, score.ErrNotComputed
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ScoreRepository) MarkVerified(ctx context.Context, user string, clearValue int64) error {
	q := `
UPDATE trust_scores
SET is_verified = TRUE, clear_score = $2, updated_at = NOW()
WHERE user_id = $1 AND is_verified = FALSE
`
	tag, err := r.pool.Exec(ctx, q, user, clearValue)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var verified bool
	err = r.pool.QueryRow(ctx, `SELECT is_verified FROM trust_scores WHERE user_id = $1`, user).Scan(&verified)
	if errors.Is(err, pgx.ErrNoRows) {
		return score.ErrNotComputed
	}
	if err != nil {
		return err
	}
	if verified {
		return score.ErrAlreadyVerified
	}
	return score.ErrNotComputed
}

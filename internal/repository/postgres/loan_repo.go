package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/imarises/TrustScore-FHE/internal/domain/ledger"
)

type LoanRepository struct {
	pool *pgxpool.Pool
}

func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

func (r *LoanRepository) Append(ctx context.Context, in ledger.CreateInput) (*ledger.Record, error) {
	q := `
INSERT INTO loan_records (borrower, idx, ciphertext_handle, loan_amount, due_date)
VALUES (
  $1,
  (SELECT COALESCE(MAX(idx) + 1, 0) FROM loan_records WHERE borrower = $1),
  $2, $3, $4
)
RETURNING id, borrower, idx, ciphertext_handle, loan_amount, due_date,
          is_repaid, is_verified, clear_repayment, created_at, updated_at
`
	out := &ledger.Record{}
	err := r.pool.QueryRow(ctx, q, in.Borrower, string(in.EncryptedRepayment), in.LoanAmount, in.DueDate).Scan(
		&out.ID, &out.Borrower, &out.Index, &out.EncryptedRepayment, &out.LoanAmount, &out.DueDate,
		&out.IsRepaid, &out.IsVerified, &out.ClearRepayment, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *LoanRepository) ListByBorrower(ctx context.Context, borrower string) ([]ledger.Record, error) {
	q := `
SELECT id, borrower, idx, ciphertext_handle, loan_amount, due_date,
       is_repaid, is_verified, clear_repayment, created_at, updated_at
FROM loan_records
WHERE borrower = $1
ORDER BY idx ASC
`
	rows, err := r.pool.Query(ctx, q, borrower)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ledger.Record, 0)
	for rows.Next() {
		var item ledger.Record
		if err := rows.Scan(
			&item.ID, &item.Borrower, &item.Index, &item.EncryptedRepayment, &item.LoanAmount, &item.DueDate,
			&item.IsRepaid, &item.IsVerified, &item.ClearRepayment, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *LoanRepository) GetByIndex(ctx context.Context, borrower string, index int32) (*ledger.Record, error) {
	q := `
SELECT id, borrower, idx, ciphertext_handle, loan_amount, due_date,
       is_repaid, is_verified, clear_repayment, created_at, updated_at
FROM loan_records
WHERE borrower = $1 AND idx = $2
`
	out := &ledger.Record{}
	err := r.pool.QueryRow(ctx, q, borrower, index).Scan(
		&out.ID, &out.Borrower, &out.Index, &out.EncryptedRepayment, &out.LoanAmount, &out.DueDate,
		&out.IsRepaid, &out.IsVerified, &out.ClearRepayment, &out.CreatedAt, &out.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrIndexOutOfRange
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkVerified performs guard and transition in one statement; the WHERE
// clause on is_verified is what makes concurrent duplicate commits lose.
func (r *LoanRepository) MarkVerified(ctx context.Context, borrower string, index int32, clearValue int64) error {
	q := `
UPDATE loan_records
SET is_repaid = TRUE, is_verified = TRUE, clear_repayment = $3, updated_at = NOW()
WHERE borrower = $1 AND idx = $2 AND is_verified = FALSE
`
	tag, err := r.pool.Exec(ctx, q, borrower, index, clearValue)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var verified bool
	err = r.pool.QueryRow(ctx, `SELECT is_verified FROM loan_records WHERE borrower = $1 AND idx = $2`, borrower, index).Scan(&verified)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.ErrIndexOutOfRange
	}
	if err != nil {
		return err
	}
	if verified {
		return ledger.ErrAlreadyVerified
	}
	return ledger.ErrIndexOutOfRange
}

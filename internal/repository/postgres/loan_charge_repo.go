package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
)

// LoanChargeRepo implements domain.LoanChargeRepository.
type LoanChargeRepo struct {
	pool *pgxpool.Pool
}

func NewLoanChargeRepo(pool *pgxpool.Pool) *LoanChargeRepo {
	return &LoanChargeRepo{pool: pool}
}

func (r *LoanChargeRepo) CreateTx(ctx context.Context, tx any, charge *domain.LoanCharge) (*domain.LoanCharge, error) {
	t, err := txFrom(tx)
	if err != nil {
		return nil, err
	}
	err = t.QueryRow(ctx, `
		INSERT INTO loan_charges (loan_id, type, amount)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		charge.LoanID, charge.Type, charge.Amount,
	).Scan(&charge.ID, &charge.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert loan charge: %w", err)
	}
	return charge, nil
}

func (r *LoanChargeRepo) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.LoanCharge, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, loan_id, type, amount, created_at
		FROM loan_charges WHERE loan_id = $1 ORDER BY created_at, id`, loanID)
	if err != nil {
		return nil, fmt.Errorf("query loan charges: %w", err)
	}
	defer rows.Close()

	var charges []*domain.LoanCharge
	for rows.Next() {
		var c domain.LoanCharge
		if err := rows.Scan(&c.ID, &c.LoanID, &c.Type, &c.Amount, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan loan charge: %w", err)
		}
		charges = append(charges, &c)
	}
	return charges, rows.Err()
}

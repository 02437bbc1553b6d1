package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
)

// CapitalRepo implements domain.CapitalRepository over the investments and
// borrowings tables.
type CapitalRepo struct {
	pool *pgxpool.Pool
}

func NewCapitalRepo(pool *pgxpool.Pool) *CapitalRepo {
	return &CapitalRepo{pool: pool}
}

func (r *CapitalRepo) CreateInvestment(ctx context.Context, inv *domain.Investment) (*domain.Investment, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO investments (source, amount, start_date, end_date, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		inv.Source, inv.Amount, inv.StartDate, inv.EndDate, inv.Status, inv.CreatedBy,
	).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert investment: %w", err)
	}
	return inv, nil
}

func (r *CapitalRepo) ListInvestments(ctx context.Context, page, limit int) ([]*domain.Investment, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM investments`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count investments: %w", err)
	}

	lim, offset := pageBounds(page, limit)
	rows, err := r.pool.Query(ctx, `
		SELECT id, source, amount, start_date, end_date, status, created_by, created_at
		FROM investments ORDER BY created_at DESC LIMIT $1 OFFSET $2`, lim, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query investments: %w", err)
	}
	defer rows.Close()

	var investments []*domain.Investment
	for rows.Next() {
		var inv domain.Investment
		err := rows.Scan(&inv.ID, &inv.Source, &inv.Amount, &inv.StartDate,
			&inv.EndDate, &inv.Status, &inv.CreatedBy, &inv.CreatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("scan investment: %w", err)
		}
		investments = append(investments, &inv)
	}
	return investments, total, rows.Err()
}

func (r *CapitalRepo) CreateBorrowing(ctx context.Context, b *domain.Borrowing) (*domain.Borrowing, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO borrowings (lender, amount, start_date, end_date, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		b.Lender, b.Amount, b.StartDate, b.EndDate, b.Status, b.CreatedBy,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert borrowing: %w", err)
	}
	return b, nil
}

func (r *CapitalRepo) ListBorrowings(ctx context.Context, page, limit int) ([]*domain.Borrowing, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM borrowings`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count borrowings: %w", err)
	}

	lim, offset := pageBounds(page, limit)
	rows, err := r.pool.Query(ctx, `
		SELECT id, lender, amount, start_date, end_date, status, created_by, created_at
		FROM borrowings ORDER BY created_at DESC LIMIT $1 OFFSET $2`, lim, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query borrowings: %w", err)
	}
	defer rows.Close()

	var borrowings []*domain.Borrowing
	for rows.Next() {
		var b domain.Borrowing
		err := rows.Scan(&b.ID, &b.Lender, &b.Amount, &b.StartDate,
			&b.EndDate, &b.Status, &b.CreatedBy, &b.CreatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("scan borrowing: %w", err)
		}
		borrowings = append(borrowings, &b)
	}
	return borrowings, total, rows.Err()
}

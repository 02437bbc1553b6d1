package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
)

// AnalyticsRepo implements domain.AnalyticsRepository. Aggregates read the
// ledger columns the money engine maintains; nothing here recomputes money.
type AnalyticsRepo struct {
	pool *pgxpool.Pool
}

func NewAnalyticsRepo(pool *pgxpool.Pool) *AnalyticsRepo {
	return &AnalyticsRepo{pool: pool}
}

func (r *AnalyticsRepo) Summary(ctx context.Context, start, end *time.Time) (*domain.AnalyticsSummary, error) {
	summary := &domain.AnalyticsSummary{StartDate: start, EndDate: end}

	err := r.pool.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE ($1::timestamptz IS NULL OR created_at >= $1)
				AND ($2::timestamptz IS NULL OR created_at <= $2)),
			count(*) FILTER (WHERE status = 'active'),
			COALESCE(sum(disbursed_amount) FILTER (
				WHERE disbursed_at IS NOT NULL
				AND ($1::timestamptz IS NULL OR disbursed_at >= $1)
				AND ($2::timestamptz IS NULL OR disbursed_at <= $2)), 0),
			COALESCE(sum(outstanding_principal) FILTER (WHERE status = 'active'), 0),
			COALESCE(sum(outstanding_interest) FILTER (WHERE status = 'active'), 0)
		FROM loans`,
		start, end,
	).Scan(
		&summary.LoansCreated,
		&summary.ActiveLoans,
		&summary.AmountDisbursed,
		&summary.OutstandingPrincipal,
		&summary.OutstandingInterest,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate loans: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(sum(amount), 0),
			COALESCE(sum(principal_paid), 0),
			COALESCE(sum(interest_paid), 0),
			COALESCE(sum(late_fee_paid), 0),
			COALESCE(sum(penalty_paid), 0)
		FROM collections
		WHERE ($1::timestamptz IS NULL OR collection_date >= $1)
		  AND ($2::timestamptz IS NULL OR collection_date <= $2)`,
		start, end,
	).Scan(
		&summary.AmountCollected,
		&summary.PrincipalCollected,
		&summary.InterestCollected,
		&summary.LateFeesCollected,
		&summary.PenaltiesCollected,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate collections: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT sum(amount) FROM investments WHERE status = 'active'), 0),
			COALESCE((SELECT sum(amount) FROM borrowings WHERE status = 'active'), 0)`,
	).Scan(&summary.TotalInvested, &summary.TotalBorrowed)
	if err != nil {
		return nil, fmt.Errorf("aggregate capital: %w", err)
	}

	return summary, nil
}

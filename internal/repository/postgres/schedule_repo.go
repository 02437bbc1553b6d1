package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
)

const scheduleColumns = `id, loan_id, installment_no, due_date,
	principal_due, interest_due, total_due,
	principal_paid, interest_paid, total_paid,
	paid, paid_at, created_at, updated_at`

func prefixedScheduleColumns(alias string) string {
	cols := strings.Split(scheduleColumns, ",")
	for i, col := range cols {
		cols[i] = alias + "." + strings.TrimSpace(col)
	}
	return strings.Join(cols, ", ")
}

// ScheduleRepo implements domain.ScheduleRepository.
type ScheduleRepo struct {
	pool *pgxpool.Pool
}

func NewScheduleRepo(pool *pgxpool.Pool) *ScheduleRepo {
	return &ScheduleRepo{pool: pool}
}

// BatchInsertTx inserts schedule rows, skipping any whose
// (loan_id, installment_no) already exists. Returns the number actually
// inserted so the generator can log replays.
func (r *ScheduleRepo) BatchInsertTx(ctx context.Context, tx any, rows []*domain.ScheduleRow) (int, error) {
	t, err := txFrom(tx)
	if err != nil {
		return 0, err
	}
	query := `
		INSERT INTO schedule_rows (loan_id, installment_no, due_date,
			principal_due, interest_due, total_due)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (loan_id, installment_no) DO NOTHING`

	inserted := 0
	for _, row := range rows {
		tag, err := t.Exec(ctx, query,
			row.LoanID, row.InstallmentNo, row.DueDate,
			row.PrincipalDue, row.InterestDue, row.TotalDue,
		)
		if err != nil {
			return inserted, fmt.Errorf("insert schedule row %d: %w", row.InstallmentNo, err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (r *ScheduleRepo) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.ScheduleRow, error) {
	query := `SELECT ` + scheduleColumns + `
		FROM schedule_rows WHERE loan_id = $1 ORDER BY installment_no`
	return r.queryRows(ctx, r.pool, query, loanID)
}

func (r *ScheduleRepo) UnpaidByLoanTx(ctx context.Context, tx any, loanID uuid.UUID) ([]*domain.ScheduleRow, error) {
	t, err := txFrom(tx)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + scheduleColumns + `
		FROM schedule_rows WHERE loan_id = $1 AND NOT paid ORDER BY installment_no`
	return r.queryRows(ctx, t, query, loanID)
}

// ListOverdue returns unpaid rows of active loans due before asOf. Grace is
// per loan, so the accrual pass re-cuts with the loan's grace period.
func (r *ScheduleRepo) ListOverdue(ctx context.Context, asOf time.Time) ([]*domain.ScheduleRow, error) {
	query := `SELECT ` + prefixedScheduleColumns("s") + `
		FROM schedule_rows s
		JOIN loans l ON l.id = s.loan_id
		WHERE NOT s.paid AND s.due_date < $1 AND l.status = $2
		ORDER BY s.loan_id, s.installment_no`
	return r.queryRows(ctx, r.pool, query, asOf, domain.LoanActive)
}

func (r *ScheduleRepo) WithPaymentsByLoanTx(ctx context.Context, tx any, loanID uuid.UUID) ([]*domain.ScheduleRow, error) {
	t, err := txFrom(tx)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + scheduleColumns + `
		FROM schedule_rows
		WHERE loan_id = $1 AND total_paid > 0
		ORDER BY installment_no DESC`
	return r.queryRows(ctx, t, query, loanID)
}

func (r *ScheduleRepo) UpdatePaymentTx(ctx context.Context, tx any, row *domain.ScheduleRow) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}
	tag, err := t.Exec(ctx, `
		UPDATE schedule_rows
		SET principal_paid = $2,
		    interest_paid  = $3,
		    total_paid     = $4,
		    paid           = $5,
		    paid_at        = $6,
		    updated_at     = now()
		WHERE id = $1`,
		row.ID,
		row.PrincipalPaid, row.InterestPaid, row.TotalPaid, row.Paid, row.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("update schedule row: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ScheduleRepo) queryRows(ctx context.Context, q querier, query string, args ...any) ([]*domain.ScheduleRow, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query schedule rows: %w", err)
	}
	defer rows.Close()

	var result []*domain.ScheduleRow
	for rows.Next() {
		var row domain.ScheduleRow
		err := rows.Scan(
			&row.ID, &row.LoanID, &row.InstallmentNo, &row.DueDate,
			&row.PrincipalDue, &row.InterestDue, &row.TotalDue,
			&row.PrincipalPaid, &row.InterestPaid, &row.TotalPaid,
			&row.Paid, &row.PaidAt, &row.CreatedAt, &row.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan schedule row: %w", err)
		}
		result = append(result, &row)
	}
	return result, rows.Err()
}

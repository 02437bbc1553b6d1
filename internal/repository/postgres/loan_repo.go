package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
)

const loanColumns = `id, number,
	principal, interest_rate, tenure_installments, frequency, custom_period_days,
	repayment_type, grace_period_days, late_fee_daily_rate, penalty_rate,
	installment_amount, total_interest, total_amount,
	disbursed_amount, disbursed_at, start_date, end_date,
	outstanding_principal, outstanding_interest, total_collected,
	total_late_fees_paid, total_penalties_paid,
	status, closed_at,
	is_top_up, original_loan_id, top_up_amount,
	customer_id, created_by, remarks, created_at, updated_at`

// LoanRepo implements domain.LoanRepository.
type LoanRepo struct {
	pool *pgxpool.Pool
}

func NewLoanRepo(pool *pgxpool.Pool) *LoanRepo {
	return &LoanRepo{pool: pool}
}

func (r *LoanRepo) CreateTx(ctx context.Context, tx any, loan *domain.Loan) (*domain.Loan, error) {
	t, err := txFrom(tx)
	if err != nil {
		return nil, err
	}
	query := `
		INSERT INTO loans (number,
			principal, interest_rate, tenure_installments, frequency, custom_period_days,
			repayment_type, grace_period_days, late_fee_daily_rate, penalty_rate,
			installment_amount, total_interest, total_amount,
			disbursed_amount, disbursed_at, start_date, end_date,
			outstanding_principal, outstanding_interest,
			status, is_top_up, original_loan_id, top_up_amount,
			customer_id, created_by, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
		RETURNING ` + loanColumns
	row := t.QueryRow(ctx, query,
		loan.Number,
		loan.Principal, loan.InterestRate, loan.TenureInstallments, loan.Frequency, loan.CustomPeriodDays,
		loan.RepaymentType, loan.GracePeriodDays, loan.LateFeeDailyRate, loan.PenaltyRate,
		loan.InstallmentAmount, loan.TotalInterest, loan.TotalAmount,
		loan.DisbursedAmount, loan.DisbursedAt, loan.StartDate, loan.EndDate,
		loan.OutstandingPrincipal, loan.OutstandingInterest,
		loan.Status, loan.IsTopUp, loan.OriginalLoanID, loan.TopUpAmount,
		loan.CustomerID, loan.CreatedBy, loan.Remarks,
	)
	created, err := scanLoan(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("insert loan: %w", err)
	}
	return created, nil
}

func (r *LoanRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`
	loan, err := scanLoan(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, domain.ErrLoanNotFound)
	}
	return loan, nil
}

// GetForUpdateTx reads the loan under FOR UPDATE so concurrent ledger
// mutations serialize on the row.
func (r *LoanRepo) GetForUpdateTx(ctx context.Context, tx any, id uuid.UUID) (*domain.Loan, error) {
	t, err := txFrom(tx)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 FOR UPDATE`
	loan, err := scanLoan(t.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, domain.ErrLoanNotFound)
	}
	return loan, nil
}

func (r *LoanRepo) UpdateLedgerTx(ctx context.Context, tx any, loan *domain.Loan) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}
	tag, err := t.Exec(ctx, `
		UPDATE loans
		SET outstanding_principal = $2,
		    outstanding_interest  = $3,
		    total_collected       = $4,
		    total_late_fees_paid  = $5,
		    total_penalties_paid  = $6,
		    updated_at            = now()
		WHERE id = $1`,
		loan.ID,
		loan.OutstandingPrincipal, loan.OutstandingInterest, loan.TotalCollected,
		loan.TotalLateFeesPaid, loan.TotalPenaltiesPaid,
	)
	if err != nil {
		return fmt.Errorf("update loan ledger: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

// UpdateStatusTx writes the lifecycle columns: status plus the disbursement
// and closing fields the transition touched.
func (r *LoanRepo) UpdateStatusTx(ctx context.Context, tx any, loan *domain.Loan) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}
	tag, err := t.Exec(ctx, `
		UPDATE loans
		SET status           = $2,
		    disbursed_amount = $3,
		    disbursed_at     = $4,
		    start_date       = $5,
		    end_date         = $6,
		    closed_at        = $7,
		    updated_at       = now()
		WHERE id = $1`,
		loan.ID,
		loan.Status, loan.DisbursedAmount, loan.DisbursedAt,
		loan.StartDate, loan.EndDate, loan.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("update loan status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

func (r *LoanRepo) DeleteTx(ctx context.Context, tx any, id uuid.UUID) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}
	tag, err := t.Exec(ctx, `DELETE FROM loans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

func (r *LoanRepo) List(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, int64, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Status != "" {
		where = append(where, "status = "+arg(filter.Status))
	}
	if filter.CustomerID != uuid.Nil {
		where = append(where, "customer_id = "+arg(filter.CustomerID))
	}
	if filter.AgentID != uuid.Nil {
		where = append(where, `customer_id IN (
			SELECT customer_id FROM agent_assignments
			WHERE agent_id = `+arg(filter.AgentID)+` AND active)`)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM loans`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count loans: %w", err)
	}

	lim, offset := pageBounds(filter.Page, filter.Limit)
	query := `SELECT ` + loanColumns + ` FROM loans` + clause +
		` ORDER BY created_at DESC LIMIT ` + arg(lim) + ` OFFSET ` + arg(offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query loans: %w", err)
	}
	defer rows.Close()

	var loans []*domain.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, 0, err
		}
		loans = append(loans, loan)
	}
	return loans, total, rows.Err()
}

// NextNumber allocates a loan number from a sequence inside the creation
// transaction.
func (r *LoanRepo) NextNumber(ctx context.Context, tx any) (string, error) {
	t, err := txFrom(tx)
	if err != nil {
		return "", err
	}
	var n int64
	if err := t.QueryRow(ctx, `SELECT nextval('loan_number_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("next loan number: %w", err)
	}
	return fmt.Sprintf("LN-%06d", n), nil
}

func scanLoan(s scannable) (*domain.Loan, error) {
	var l domain.Loan
	err := s.Scan(
		&l.ID, &l.Number,
		&l.Principal, &l.InterestRate, &l.TenureInstallments, &l.Frequency, &l.CustomPeriodDays,
		&l.RepaymentType, &l.GracePeriodDays, &l.LateFeeDailyRate, &l.PenaltyRate,
		&l.InstallmentAmount, &l.TotalInterest, &l.TotalAmount,
		&l.DisbursedAmount, &l.DisbursedAt, &l.StartDate, &l.EndDate,
		&l.OutstandingPrincipal, &l.OutstandingInterest, &l.TotalCollected,
		&l.TotalLateFeesPaid, &l.TotalPenaltiesPaid,
		&l.Status, &l.ClosedAt,
		&l.IsTopUp, &l.OriginalLoanID, &l.TopUpAmount,
		&l.CustomerID, &l.CreatedBy, &l.Remarks, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

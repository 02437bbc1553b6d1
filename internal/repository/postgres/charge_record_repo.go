package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
)

const chargeRecordColumns = `id, loan_id, kind, amount, paid_amount,
	reason, days_overdue, applied_at, paid, paid_at`

// ChargeRecordRepo implements domain.ChargeRecordRepository.
type ChargeRecordRepo struct {
	pool *pgxpool.Pool
}

func NewChargeRecordRepo(pool *pgxpool.Pool) *ChargeRecordRepo {
	return &ChargeRecordRepo{pool: pool}
}

func (r *ChargeRecordRepo) CreateTx(ctx context.Context, tx any, record *domain.ChargeRecord) (*domain.ChargeRecord, error) {
	t, err := txFrom(tx)
	if err != nil {
		return nil, err
	}
	query := `
		INSERT INTO charge_records (loan_id, kind, amount, reason, days_overdue, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + chargeRecordColumns
	row := t.QueryRow(ctx, query,
		record.LoanID, record.Kind, record.Amount,
		record.Reason, record.DaysOverdue, record.AppliedAt,
	)
	created, err := scanChargeRecord(row)
	if err != nil {
		return nil, fmt.Errorf("insert charge record: %w", err)
	}
	return created, nil
}

func (r *ChargeRecordRepo) UnpaidByLoanTx(ctx context.Context, tx any, loanID uuid.UUID, kind domain.ChargeRecordKind) ([]*domain.ChargeRecord, error) {
	t, err := txFrom(tx)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + chargeRecordColumns + `
		FROM charge_records
		WHERE loan_id = $1 AND kind = $2 AND NOT paid
		ORDER BY applied_at, id`
	rows, err := t.Query(ctx, query, loanID, kind)
	if err != nil {
		return nil, fmt.Errorf("query unpaid charge records: %w", err)
	}
	defer rows.Close()

	var records []*domain.ChargeRecord
	for rows.Next() {
		record, err := scanChargeRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *ChargeRecordRepo) ByReasonTx(ctx context.Context, tx any, loanID uuid.UUID, kind domain.ChargeRecordKind, reason string) ([]*domain.ChargeRecord, error) {
	t, err := txFrom(tx)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + chargeRecordColumns + `
		FROM charge_records
		WHERE loan_id = $1 AND kind = $2 AND reason = $3
		ORDER BY applied_at, id`
	rows, err := t.Query(ctx, query, loanID, kind, reason)
	if err != nil {
		return nil, fmt.Errorf("query charge records by reason: %w", err)
	}
	defer rows.Close()

	var records []*domain.ChargeRecord
	for rows.Next() {
		record, err := scanChargeRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *ChargeRecordRepo) IncreaseAmountTx(ctx context.Context, tx any, id uuid.UUID, delta decimal.Decimal, daysOverdue int) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}
	tag, err := t.Exec(ctx, `
		UPDATE charge_records
		SET amount       = amount + $2,
		    days_overdue = $3
		WHERE id = $1 AND NOT paid`,
		id, delta, daysOverdue,
	)
	if err != nil {
		return fmt.Errorf("increase charge amount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ChargeRecordRepo) WithPaymentsByLoanTx(ctx context.Context, tx any, loanID uuid.UUID, kind domain.ChargeRecordKind) ([]*domain.ChargeRecord, error) {
	t, err := txFrom(tx)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + chargeRecordColumns + `
		FROM charge_records
		WHERE loan_id = $1 AND kind = $2 AND paid_amount > 0
		ORDER BY applied_at DESC, id DESC`
	rows, err := t.Query(ctx, query, loanID, kind)
	if err != nil {
		return nil, fmt.Errorf("query paid charge records: %w", err)
	}
	defer rows.Close()

	var records []*domain.ChargeRecord
	for rows.Next() {
		record, err := scanChargeRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *ChargeRecordRepo) HasUnpaid(ctx context.Context, loanID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM charge_records WHERE loan_id = $1 AND NOT paid)`,
		loanID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check unpaid charge records: %w", err)
	}
	return exists, nil
}

// ApplyPaymentTx consumes amount from the record and marks it paid exactly
// when the running paid_amount reaches the full amount.
func (r *ChargeRecordRepo) ApplyPaymentTx(ctx context.Context, tx any, id uuid.UUID, amount decimal.Decimal, paidAt time.Time) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}
	tag, err := t.Exec(ctx, `
		UPDATE charge_records
		SET paid_amount = paid_amount + $2,
		    paid        = paid_amount + $2 >= amount,
		    paid_at     = CASE WHEN paid_amount + $2 >= amount THEN $3 ELSE paid_at END
		WHERE id = $1 AND NOT paid`,
		id, amount, paidAt,
	)
	if err != nil {
		return fmt.Errorf("apply charge payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ReversePaymentTx hands amount back to the record and reopens it. Used
// when a collection that consumed the record is deleted.
func (r *ChargeRecordRepo) ReversePaymentTx(ctx context.Context, tx any, id uuid.UUID, amount decimal.Decimal) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}
	tag, err := t.Exec(ctx, `
		UPDATE charge_records
		SET paid_amount = paid_amount - $2,
		    paid        = FALSE,
		    paid_at     = NULL
		WHERE id = $1 AND paid_amount >= $2`,
		id, amount,
	)
	if err != nil {
		return fmt.Errorf("reverse charge payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ChargeRecordRepo) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.ChargeRecord, error) {
	query := `SELECT ` + chargeRecordColumns + `
		FROM charge_records WHERE loan_id = $1 ORDER BY applied_at, id`
	rows, err := r.pool.Query(ctx, query, loanID)
	if err != nil {
		return nil, fmt.Errorf("query charge records: %w", err)
	}
	defer rows.Close()

	var records []*domain.ChargeRecord
	for rows.Next() {
		record, err := scanChargeRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanChargeRecord(s scannable) (*domain.ChargeRecord, error) {
	var rec domain.ChargeRecord
	err := s.Scan(
		&rec.ID, &rec.LoanID, &rec.Kind, &rec.Amount, &rec.PaidAmount,
		&rec.Reason, &rec.DaysOverdue, &rec.AppliedAt, &rec.Paid, &rec.PaidAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

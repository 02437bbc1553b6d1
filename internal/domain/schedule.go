package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ScheduleRow is the per-installment record of expected and actual payments.
// Rows are owned by their loan and generated asynchronously after creation;
// the loan ledger, not the rows, is the source of truth for outstandings.
type ScheduleRow struct {
	ID            uuid.UUID       `json:"id"`
	LoanID        uuid.UUID       `json:"loanId"`
	InstallmentNo int             `json:"installmentNo"`
	DueDate       time.Time       `json:"dueDate"`
	PrincipalDue  decimal.Decimal `json:"principalDue"`
	InterestDue   decimal.Decimal `json:"interestDue"`
	TotalDue      decimal.Decimal `json:"totalDue"`
	PrincipalPaid decimal.Decimal `json:"principalPaid"`
	InterestPaid  decimal.Decimal `json:"interestPaid"`
	TotalPaid     decimal.Decimal `json:"totalPaid"`
	Paid          bool            `json:"paid"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Remaining is the unpaid portion of the row.
func (r *ScheduleRow) Remaining() decimal.Decimal {
	return r.TotalDue.Sub(r.TotalPaid)
}

// ScheduleRepository is the storage contract for installment rows.
type ScheduleRepository interface {
	// BatchInsertTx inserts rows idempotently: a row whose
	// (loan_id, installment_no) already exists is skipped.
	BatchInsertTx(ctx context.Context, tx any, rows []*ScheduleRow) (int, error)
	ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*ScheduleRow, error)
	// UnpaidByLoanTx returns unpaid rows ordered by installment number,
	// inside the caller's transaction.
	UnpaidByLoanTx(ctx context.Context, tx any, loanID uuid.UUID) ([]*ScheduleRow, error)
	// ListOverdue returns unpaid rows due strictly before asOf across all
	// loans, ordered by loan then installment. The accrual pass re-checks
	// grace and loan status per loan, so the cut here is coarse.
	ListOverdue(ctx context.Context, asOf time.Time) ([]*ScheduleRow, error)
	// WithPaymentsByLoanTx returns rows carrying payments, newest
	// installment first, for collection reversal.
	WithPaymentsByLoanTx(ctx context.Context, tx any, loanID uuid.UUID) ([]*ScheduleRow, error)
	UpdatePaymentTx(ctx context.Context, tx any, row *ScheduleRow) error
}

package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargeRecordKind distinguishes engine-applied dues on a loan.
type ChargeRecordKind string

const (
	ChargeRecordLateFee ChargeRecordKind = "late_fee"
	ChargeRecordPenalty ChargeRecordKind = "penalty"
)

// ChargeRecord is a late fee or penalty accrued against a loan. It is
// created by the engine and marked paid when a collection's allocation
// consumes it.
type ChargeRecord struct {
	ID          uuid.UUID        `json:"id"`
	LoanID      uuid.UUID        `json:"loanId"`
	Kind        ChargeRecordKind `json:"kind"`
	Amount      decimal.Decimal  `json:"amount"`
	PaidAmount  decimal.Decimal  `json:"paidAmount"`
	Reason      string           `json:"reason,omitempty"`
	DaysOverdue int              `json:"daysOverdue,omitempty"`
	AppliedAt   time.Time        `json:"appliedAt"`
	Paid        bool             `json:"paid"`
	PaidAt      *time.Time       `json:"paidAt,omitempty"`
}

// Remaining is the unconsumed portion of the due. Paid holds exactly when
// Remaining is zero.
func (r *ChargeRecord) Remaining() decimal.Decimal {
	return r.Amount.Sub(r.PaidAmount)
}

// ChargeRecordRepository is the storage contract for late fees and penalties.
type ChargeRecordRepository interface {
	CreateTx(ctx context.Context, tx any, record *ChargeRecord) (*ChargeRecord, error)
	// UnpaidByLoanTx returns unpaid records ordered oldest first, split by
	// kind, inside the caller's transaction.
	UnpaidByLoanTx(ctx context.Context, tx any, loanID uuid.UUID, kind ChargeRecordKind) ([]*ChargeRecord, error)
	// ByReasonTx returns every record, paid or not, carrying the reason tag.
	// The accrual pass uses it to compute what is already charged.
	ByReasonTx(ctx context.Context, tx any, loanID uuid.UUID, kind ChargeRecordKind, reason string) ([]*ChargeRecord, error)
	// IncreaseAmountTx grows an unpaid record by delta and refreshes its
	// days-overdue figure.
	IncreaseAmountTx(ctx context.Context, tx any, id uuid.UUID, delta decimal.Decimal, daysOverdue int) error
	// WithPaymentsByLoanTx returns records that have consumed payments,
	// newest applied first, for collection reversal.
	WithPaymentsByLoanTx(ctx context.Context, tx any, loanID uuid.UUID, kind ChargeRecordKind) ([]*ChargeRecord, error)
	HasUnpaid(ctx context.Context, loanID uuid.UUID) (bool, error)
	ApplyPaymentTx(ctx context.Context, tx any, id uuid.UUID, amount decimal.Decimal, paidAt time.Time) error
	// ReversePaymentTx gives amount back to the record and reopens it.
	ReversePaymentTx(ctx context.Context, tx any, id uuid.UUID, amount decimal.Decimal) error
	ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*ChargeRecord, error)
}

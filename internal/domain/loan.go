package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrLoanNotFound           = errors.New("loan not found")
	ErrInvalidTerms           = errors.New("invalid loan terms")
	ErrChargesExceedPrincipal = errors.New("charges must be less than principal")
	ErrStatusNotCollectable   = errors.New("loan status does not accept collections")
	ErrLoanNotPending         = errors.New("loan is not pending")
	ErrLoanNotActive          = errors.New("loan is not active")
	ErrHasOutstandingDues     = errors.New("loan has unpaid late fees or penalties")
	ErrOverpayment            = errors.New("amount exceeds outstanding total")
)

// Frequency is the repayment cadence of a loan.
type Frequency string

const (
	FrequencyDaily      Frequency = "daily"
	FrequencyWeekly     Frequency = "weekly"
	FrequencyMonthly    Frequency = "monthly"
	FrequencyQuarterly  Frequency = "quarterly"
	FrequencyHalfYearly Frequency = "half-yearly"
	FrequencyYearly     Frequency = "yearly"
	FrequencyCustom     Frequency = "custom"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly,
		FrequencyHalfYearly, FrequencyYearly, FrequencyCustom:
		return true
	}
	return false
}

// CalendarBased reports whether due dates advance by calendar months rather
// than by a fixed day count.
func (f Frequency) CalendarBased() bool {
	switch f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencyHalfYearly, FrequencyYearly:
		return true
	}
	return false
}

// RepaymentType selects how principal and interest are spread over the term.
type RepaymentType string

const (
	RepaymentEMI             RepaymentType = "emi"
	RepaymentInterestOnly    RepaymentType = "interest-only"
	RepaymentBullet          RepaymentType = "bullet"
	RepaymentReducingBalance RepaymentType = "reducing-balance"
)

func (t RepaymentType) Valid() bool {
	switch t {
	case RepaymentEMI, RepaymentInterestOnly, RepaymentBullet, RepaymentReducingBalance:
		return true
	}
	return false
}

// LoanStatus is the lifecycle state of a loan.
type LoanStatus string

const (
	LoanPending   LoanStatus = "pending"
	LoanActive    LoanStatus = "active"
	LoanClosed    LoanStatus = "closed"
	LoanPreclosed LoanStatus = "preclosed"
	LoanDefaulted LoanStatus = "defaulted"
)

func (s LoanStatus) Valid() bool {
	switch s {
	case LoanPending, LoanActive, LoanClosed, LoanPreclosed, LoanDefaulted:
		return true
	}
	return false
}

// Terminal reports whether the status accepts no further transitions.
func (s LoanStatus) Terminal() bool {
	switch s {
	case LoanClosed, LoanPreclosed, LoanDefaulted:
		return true
	}
	return false
}

// Loan is the central entity of the servicing book. Ledger columns are the
// source of truth for outstanding amounts; schedule rows are a projection.
type Loan struct {
	ID     uuid.UUID `json:"id"`
	Number string    `json:"number"`

	// Terms.
	Principal          decimal.Decimal `json:"principal"`
	InterestRate       decimal.Decimal `json:"interestRate"` // annual percent
	TenureInstallments int             `json:"tenureInstallments"`
	Frequency          Frequency       `json:"frequency"`
	CustomPeriodDays   int             `json:"customPeriodDays,omitempty"`
	RepaymentType      RepaymentType   `json:"repaymentType"`
	GracePeriodDays    int             `json:"gracePeriodDays"`
	LateFeeDailyRate   decimal.Decimal `json:"lateFeeDailyRate"` // percent per day
	PenaltyRate        decimal.Decimal `json:"penaltyRate"`      // percent

	// Derived at creation.
	InstallmentAmount decimal.Decimal `json:"installmentAmount"`
	TotalInterest     decimal.Decimal `json:"totalInterest"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`

	// Disbursement.
	DisbursedAmount decimal.Decimal `json:"disbursedAmount"`
	DisbursedAt     *time.Time      `json:"disbursedAt,omitempty"`
	StartDate       time.Time       `json:"startDate"`
	EndDate         *time.Time      `json:"endDate,omitempty"`

	// Ledger.
	OutstandingPrincipal decimal.Decimal `json:"outstandingPrincipal"`
	OutstandingInterest  decimal.Decimal `json:"outstandingInterest"`
	TotalCollected       decimal.Decimal `json:"totalCollected"`
	TotalLateFeesPaid    decimal.Decimal `json:"totalLateFeesPaid"`
	TotalPenaltiesPaid   decimal.Decimal `json:"totalPenaltiesPaid"`

	Status   LoanStatus `json:"status"`
	ClosedAt *time.Time `json:"closedAt,omitempty"`

	// Top-up linkage.
	IsTopUp        bool            `json:"isTopUp"`
	OriginalLoanID *uuid.UUID      `json:"originalLoanId,omitempty"`
	TopUpAmount    decimal.Decimal `json:"topUpAmount"`

	// Ownership.
	CustomerID uuid.UUID `json:"customerId"`
	CreatedBy  uuid.UUID `json:"createdBy"`

	Remarks   *string   `json:"remarks,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ValidateTerms checks the creation-time invariants on the loan terms.
func (l *Loan) ValidateTerms() error {
	if l.Principal.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidTerms
	}
	if l.TenureInstallments <= 0 {
		return ErrInvalidTerms
	}
	if l.InterestRate.IsNegative() || l.InterestRate.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidTerms
	}
	if !l.Frequency.Valid() || !l.RepaymentType.Valid() {
		return ErrInvalidTerms
	}
	if l.Frequency == FrequencyCustom && l.CustomPeriodDays < 1 {
		return ErrInvalidTerms
	}
	if l.GracePeriodDays < 0 || l.LateFeeDailyRate.IsNegative() || l.PenaltyRate.IsNegative() {
		return ErrInvalidTerms
	}
	return nil
}

// OutstandingLedger returns outstanding principal plus outstanding interest.
// Unpaid fees and penalties live in charge records and are added by callers
// that need the full collectable total.
func (l *Loan) OutstandingLedger() decimal.Decimal {
	return l.OutstandingPrincipal.Add(l.OutstandingInterest)
}

// Settled reports whether both outstanding columns have reached zero.
func (l *Loan) Settled() bool {
	return l.OutstandingPrincipal.IsZero() && l.OutstandingInterest.IsZero()
}

// LoanFilter narrows loan list queries.
type LoanFilter struct {
	Status     LoanStatus
	CustomerID uuid.UUID
	AgentID    uuid.UUID // restrict to customers actively assigned to this agent
	Page       int
	Limit      int
}

// LoanRepository is the storage contract for loans.
type LoanRepository interface {
	CreateTx(ctx context.Context, tx any, loan *Loan) (*Loan, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Loan, error)
	// GetForUpdateTx reads the loan under a row-level write lock. Every
	// ledger mutation starts here so concurrent collections serialize.
	GetForUpdateTx(ctx context.Context, tx any, id uuid.UUID) (*Loan, error)
	UpdateLedgerTx(ctx context.Context, tx any, loan *Loan) error
	UpdateStatusTx(ctx context.Context, tx any, loan *Loan) error
	DeleteTx(ctx context.Context, tx any, id uuid.UUID) error
	List(ctx context.Context, filter LoanFilter) ([]*Loan, int64, error)
	NextNumber(ctx context.Context, tx any) (string, error)
}

package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrAmountInvalid      = errors.New("amount must be positive")
	ErrReceiptConflict    = errors.New("receipt number already exists")
)

// Collection is one recorded repayment with its allocation breakdown.
// Immutable once written.
type Collection struct {
	ID             uuid.UUID       `json:"id"`
	LoanID         uuid.UUID       `json:"loanId"`
	AgentID        uuid.UUID       `json:"agentId"`
	Amount         decimal.Decimal `json:"amount"`
	PrincipalPaid  decimal.Decimal `json:"principalPaid"`
	InterestPaid   decimal.Decimal `json:"interestPaid"`
	LateFeePaid    decimal.Decimal `json:"lateFeePaid"`
	PenaltyPaid    decimal.Decimal `json:"penaltyPaid"`
	CollectionDate time.Time       `json:"collectionDate"`
	PaymentMethod  string          `json:"paymentMethod,omitempty"`
	ReceiptNumber  string          `json:"receiptNumber"`
	Remarks        *string         `json:"remarks,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// CollectionFilter narrows collection list queries.
type CollectionFilter struct {
	LoanID     uuid.UUID
	AgentID    uuid.UUID
	CustomerID uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int
	Limit      int
}

// CollectionRepository is the storage contract for collections.
type CollectionRepository interface {
	CreateTx(ctx context.Context, tx any, collection *Collection) (*Collection, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Collection, error)
	List(ctx context.Context, filter CollectionFilter) ([]*Collection, int64, error)
	ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*Collection, error)
	DeleteTx(ctx context.Context, tx any, id uuid.UUID) error
}

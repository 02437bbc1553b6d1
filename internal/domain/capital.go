package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrCapitalAmountInvalid = errors.New("capital amount must be positive")

// CapitalStatus tracks an investment or borrowing lifecycle.
type CapitalStatus string

const (
	CapitalActive CapitalStatus = "active"
	CapitalClosed CapitalStatus = "closed"
)

// Investment is capital put into the business. It affects no loan
// invariants; analytics reads it for capital figures.
type Investment struct {
	ID        uuid.UUID       `json:"id"`
	Source    string          `json:"source"`
	Amount    decimal.Decimal `json:"amount"`
	StartDate time.Time       `json:"startDate"`
	EndDate   *time.Time      `json:"endDate,omitempty"`
	Status    CapitalStatus   `json:"status"`
	CreatedBy uuid.UUID       `json:"createdBy"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Borrowing is capital taken from a lender.
type Borrowing struct {
	ID        uuid.UUID       `json:"id"`
	Lender    string          `json:"lender"`
	Amount    decimal.Decimal `json:"amount"`
	StartDate time.Time       `json:"startDate"`
	EndDate   *time.Time      `json:"endDate,omitempty"`
	Status    CapitalStatus   `json:"status"`
	CreatedBy uuid.UUID       `json:"createdBy"`
	CreatedAt time.Time       `json:"createdAt"`
}

// CapitalRepository is the storage contract for investments and borrowings.
type CapitalRepository interface {
	CreateInvestment(ctx context.Context, inv *Investment) (*Investment, error)
	ListInvestments(ctx context.Context, page, limit int) ([]*Investment, int64, error)
	CreateBorrowing(ctx context.Context, b *Borrowing) (*Borrowing, error)
	ListBorrowings(ctx context.Context, page, limit int) ([]*Borrowing, int64, error)
}

package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrChargeTypeInvalid = errors.New("invalid charge type")

// ChargeType classifies a deduction taken out of the principal at
// disbursement.
type ChargeType string

const (
	ChargeStampDuty     ChargeType = "stamp-duty"
	ChargeDocumentFee   ChargeType = "document-fee"
	ChargeProcessingFee ChargeType = "processing-fee"
	ChargeOther         ChargeType = "other"
)

func (t ChargeType) Valid() bool {
	switch t {
	case ChargeStampDuty, ChargeDocumentFee, ChargeProcessingFee, ChargeOther:
		return true
	}
	return false
}

// LoanCharge is written only at loan creation or top-up. The invariant
// principal = disbursed_amount + sum(charges) holds per loan.
type LoanCharge struct {
	ID        uuid.UUID       `json:"id"`
	LoanID    uuid.UUID       `json:"loanId"`
	Type      ChargeType      `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"createdAt"`
}

// LoanChargeRepository is the storage contract for loan charges.
type LoanChargeRepository interface {
	CreateTx(ctx context.Context, tx any, charge *LoanCharge) (*LoanCharge, error)
	ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*LoanCharge, error)
}

package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
	"github.com/silambarasu-a/namma-finance-sub000/internal/money"
)

// TopUpInput carries the figures for recomputing a loan after a top-up.
// NewTerms.Principal is ignored; it is derived from the existing outstanding
// plus the top-up amount.
type TopUpInput struct {
	ExistingOutstanding decimal.Decimal
	TopUpAmount         decimal.Decimal
	NewTerms            Terms
	Charges             []decimal.Decimal
	PreviousInstallment decimal.Decimal
}

// TopUpResult is the recomputed loan shape after a top-up.
type TopUpResult struct {
	NewPrincipal        decimal.Decimal
	NewInstallment      decimal.Decimal
	TotalInterest       decimal.Decimal
	IncrementInEMI      decimal.Decimal
	DisbursedToCustomer decimal.Decimal
}

// TopUp computes the replacement loan created by topping up an active loan.
// The customer receives the top-up amount net of new charges; a non-positive
// net disbursement is rejected.
func TopUp(in TopUpInput) (TopUpResult, error) {
	if in.TopUpAmount.LessThanOrEqual(decimal.Zero) {
		return TopUpResult{}, domain.ErrInvalidTerms
	}

	charges := decimal.Zero
	for _, c := range in.Charges {
		if c.IsNegative() {
			return TopUpResult{}, domain.ErrInvalidTerms
		}
		charges = charges.Add(c)
	}
	disbursed := in.TopUpAmount.Sub(charges)
	if disbursed.LessThanOrEqual(decimal.Zero) {
		return TopUpResult{}, domain.ErrChargesExceedPrincipal
	}

	terms := in.NewTerms
	terms.Principal = money.Round(in.ExistingOutstanding.Add(in.TopUpAmount))

	installment, err := InstallmentAmount(terms)
	if err != nil {
		return TopUpResult{}, err
	}

	return TopUpResult{
		NewPrincipal:        terms.Principal,
		NewInstallment:      installment,
		TotalInterest:       TotalInterest(terms, installment),
		IncrementInEMI:      installment.Sub(in.PreviousInstallment),
		DisbursedToCustomer: disbursed,
	}, nil
}

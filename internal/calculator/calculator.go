// Package calculator holds the pure money math of the servicing engine:
// installment amounts, amortization schedules, late fees, penalties,
// preclosure and top-up figures, and the repayment allocator. Functions here
// touch no storage and keep no state; every result is rounded only at the
// emission step.
package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
	"github.com/silambarasu-a/namma-finance-sub000/internal/money"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Terms is the calculation-relevant subset of a loan's terms.
type Terms struct {
	Principal        decimal.Decimal
	AnnualRate       decimal.Decimal // percent
	Tenure           int
	Frequency        domain.Frequency
	CustomPeriodDays int
	RepaymentType    domain.RepaymentType
}

// TermsFromLoan extracts calculation terms from a loan.
func TermsFromLoan(l *domain.Loan) Terms {
	return Terms{
		Principal:        l.Principal,
		AnnualRate:       l.InterestRate,
		Tenure:           l.TenureInstallments,
		Frequency:        l.Frequency,
		CustomPeriodDays: l.CustomPeriodDays,
		RepaymentType:    l.RepaymentType,
	}
}

func (t Terms) validate() error {
	if t.Principal.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidTerms
	}
	if t.Tenure <= 0 {
		return domain.ErrInvalidTerms
	}
	if t.AnnualRate.IsNegative() || t.AnnualRate.GreaterThan(hundred) {
		return domain.ErrInvalidTerms
	}
	if !t.Frequency.Valid() || !t.RepaymentType.Valid() {
		return domain.ErrInvalidTerms
	}
	if t.Frequency == domain.FrequencyCustom && t.CustomPeriodDays < 1 {
		return domain.ErrInvalidTerms
	}
	return nil
}

// PeriodsPerYear returns the number of installments per year for a
// frequency. Custom periods longer than a year collapse to one per year.
func PeriodsPerYear(f domain.Frequency, customPeriodDays int) (int, error) {
	switch f {
	case domain.FrequencyDaily:
		return 365, nil
	case domain.FrequencyWeekly:
		return 52, nil
	case domain.FrequencyMonthly:
		return 12, nil
	case domain.FrequencyQuarterly:
		return 4, nil
	case domain.FrequencyHalfYearly:
		return 2, nil
	case domain.FrequencyYearly:
		return 1, nil
	case domain.FrequencyCustom:
		if customPeriodDays < 1 {
			return 0, domain.ErrInvalidTerms
		}
		n := 365 / customPeriodDays
		if n < 1 {
			n = 1
		}
		return n, nil
	}
	return 0, domain.ErrInvalidTerms
}

// periodicRate is the per-installment interest rate: (annual%/100) / periods.
func (t Terms) periodicRate() (decimal.Decimal, error) {
	periods, err := PeriodsPerYear(t.Frequency, t.CustomPeriodDays)
	if err != nil {
		return decimal.Zero, err
	}
	return t.AnnualRate.Div(hundred).Div(decimal.NewFromInt(int64(periods))), nil
}

// InstallmentAmount computes the fixed periodic payment for the terms,
// rounded to 2 decimal places.
//
// EMI / reducing balance use the standard amortization formula
// P·r·(1+r)^n / ((1+r)^n − 1); interest-only and bullet pay P·r per period.
func InstallmentAmount(t Terms) (decimal.Decimal, error) {
	if err := t.validate(); err != nil {
		return decimal.Zero, err
	}
	r, err := t.periodicRate()
	if err != nil {
		return decimal.Zero, err
	}

	switch t.RepaymentType {
	case domain.RepaymentInterestOnly, domain.RepaymentBullet:
		return money.Round(t.Principal.Mul(r)), nil
	}

	n := int64(t.Tenure)
	if r.IsZero() {
		return money.Round(t.Principal.Div(decimal.NewFromInt(n))), nil
	}
	if n == 1 {
		return money.Round(t.Principal.Mul(one.Add(r))), nil
	}
	compound := one.Add(r).Pow(decimal.NewFromInt(n))
	numerator := t.Principal.Mul(r).Mul(compound)
	return money.Round(numerator.Div(compound.Sub(one))), nil
}

// TotalInterest computes the whole-of-life interest for the terms given the
// already-rounded installment amount.
func TotalInterest(t Terms, installment decimal.Decimal) decimal.Decimal {
	n := decimal.NewFromInt(int64(t.Tenure))
	switch t.RepaymentType {
	case domain.RepaymentInterestOnly, domain.RepaymentBullet:
		// Every period is pure interest; principal rides to the end.
		return money.Round(installment.Mul(n))
	}
	return money.Round(installment.Mul(n).Sub(t.Principal))
}

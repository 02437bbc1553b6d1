package calculator

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
	"github.com/silambarasu-a/namma-finance-sub000/internal/money"
	"github.com/silambarasu-a/namma-finance-sub000/internal/util"
)

// Row is one computed installment of an amortization schedule.
type Row struct {
	InstallmentNo    int
	DueDate          time.Time
	PrincipalDue     decimal.Decimal
	InterestDue      decimal.Decimal
	TotalDue         decimal.Decimal
	OutstandingAfter decimal.Decimal
}

// Schedule generates the full installment schedule for the terms starting
// from startDate. The walk is iterative so per-row rounding never drifts:
// the final row's principal absorbs the residue and the sum of principal-due
// equals the principal exactly.
func Schedule(t Terms, startDate time.Time) ([]Row, error) {
	installment, err := InstallmentAmount(t)
	if err != nil {
		return nil, err
	}
	r, err := t.periodicRate()
	if err != nil {
		return nil, err
	}

	bulletLike := t.RepaymentType == domain.RepaymentInterestOnly || t.RepaymentType == domain.RepaymentBullet

	rows := make([]Row, 0, t.Tenure)
	outstanding := t.Principal
	for k := 1; k <= t.Tenure; k++ {
		interestDue := money.Round(outstanding.Mul(r))

		var principalDue decimal.Decimal
		switch {
		case bulletLike && k < t.Tenure:
			principalDue = decimal.Zero
		case k == t.Tenure:
			// Absorb rounding residue in the last installment.
			principalDue = outstanding
		default:
			principalDue = installment.Sub(interestDue)
			if principalDue.GreaterThan(outstanding) {
				principalDue = outstanding
			}
			if principalDue.IsNegative() {
				principalDue = decimal.Zero
			}
		}

		outstanding = outstanding.Sub(principalDue)
		if outstanding.IsNegative() {
			outstanding = decimal.Zero
		}

		rows = append(rows, Row{
			InstallmentNo:    k,
			DueDate:          dueDate(t, startDate, k),
			PrincipalDue:     principalDue,
			InterestDue:      interestDue,
			TotalDue:         principalDue.Add(interestDue),
			OutstandingAfter: outstanding,
		})
	}
	return rows, nil
}

// OutstandingAfter returns the outstanding principal after k installments
// have been paid as scheduled. k at or beyond the tenure yields zero.
func OutstandingAfter(t Terms, k int) (decimal.Decimal, error) {
	if k < 0 {
		return decimal.Zero, domain.ErrInvalidTerms
	}
	rows, err := Schedule(t, time.Time{})
	if err != nil {
		return decimal.Zero, err
	}
	if k == 0 {
		return t.Principal, nil
	}
	if k >= len(rows) {
		return decimal.Zero, nil
	}
	return rows[k-1].OutstandingAfter, nil
}

// dueDate advances the start date by k periods. Calendar frequencies use
// month arithmetic with end-of-month clamping; the rest use day counts.
func dueDate(t Terms, start time.Time, k int) time.Time {
	switch t.Frequency {
	case domain.FrequencyMonthly:
		return util.AddMonthsClamped(start, k)
	case domain.FrequencyQuarterly:
		return util.AddMonthsClamped(start, 3*k)
	case domain.FrequencyHalfYearly:
		return util.AddMonthsClamped(start, 6*k)
	case domain.FrequencyYearly:
		return util.AddMonthsClamped(start, 12*k)
	case domain.FrequencyWeekly:
		return start.AddDate(0, 0, 7*k)
	case domain.FrequencyCustom:
		return start.AddDate(0, 0, t.CustomPeriodDays*k)
	default: // daily
		return start.AddDate(0, 0, k)
	}
}

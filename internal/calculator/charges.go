package calculator

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/silambarasu-a/namma-finance-sub000/internal/money"
	"github.com/silambarasu-a/namma-finance-sub000/internal/util"
)

// OverdueDays returns the number of late days for an installment after
// applying the grace period. On-time and in-grace payments yield zero.
func OverdueDays(today, dueDate time.Time, graceDays int) int {
	diff := util.WholeDaysBetween(dueDate, today)
	if diff <= graceDays {
		return 0
	}
	return diff - graceDays
}

// LateFee computes base · dailyRate% · overdueDays, rounded to 2 decimal
// places. The base is the installment amount unless the tenant configures
// the outstanding total instead.
func LateFee(base, dailyRatePercent decimal.Decimal, overdueDays int) decimal.Decimal {
	if overdueDays <= 0 {
		return decimal.Zero
	}
	fee := base.Mul(dailyRatePercent.Div(hundred)).Mul(decimal.NewFromInt(int64(overdueDays)))
	return money.Round(fee)
}

// LateFeeCapped is LateFee clamped to a maximum when cap is positive.
func LateFeeCapped(base, dailyRatePercent decimal.Decimal, overdueDays int, cap decimal.Decimal) decimal.Decimal {
	fee := LateFee(base, dailyRatePercent, overdueDays)
	if cap.IsPositive() && fee.GreaterThan(cap) {
		return cap
	}
	return fee
}

// PenaltyAmount computes a percentage penalty on the given base.
func PenaltyAmount(base, percent decimal.Decimal) decimal.Decimal {
	return money.Round(base.Mul(percent.Div(hundred)))
}

// Preclosure is the amount that settles a loan ahead of schedule. Remaining
// scheduled interest is waived; only the interest accrued for the current
// period is charged, plus a penalty on the outstanding principal.
type Preclosure struct {
	OutstandingPrincipal decimal.Decimal
	AccruedInterest      decimal.Decimal
	Penalty              decimal.Decimal
	Total                decimal.Decimal
}

// PreclosureAmount computes the preclosure figures for a loan with the
// given outstanding principal.
func PreclosureAmount(t Terms, outstandingPrincipal, penaltyPercent decimal.Decimal) (Preclosure, error) {
	if err := t.validate(); err != nil {
		return Preclosure{}, err
	}
	r, err := t.periodicRate()
	if err != nil {
		return Preclosure{}, err
	}
	accrued := money.Round(outstandingPrincipal.Mul(r))
	penalty := PenaltyAmount(outstandingPrincipal, penaltyPercent)
	return Preclosure{
		OutstandingPrincipal: outstandingPrincipal,
		AccruedInterest:      accrued,
		Penalty:              penalty,
		Total:                outstandingPrincipal.Add(accrued).Add(penalty),
	}, nil
}

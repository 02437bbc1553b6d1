package calculator

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
	"github.com/silambarasu-a/namma-finance-sub000/internal/money"
)

// DueRecord is an unpaid late fee or penalty presented to the allocator,
// oldest first.
type DueRecord struct {
	ID        uuid.UUID
	Remaining decimal.Decimal
}

// AllocationInput is everything the allocator needs to split a repayment.
type AllocationInput struct {
	Amount               decimal.Decimal
	LateFees             []DueRecord // oldest first
	Penalties            []DueRecord // oldest first
	OutstandingInterest  decimal.Decimal
	OutstandingPrincipal decimal.Decimal
}

// RecordPayment is the amount applied to one due record. Settled marks the
// record fully consumed.
type RecordPayment struct {
	ID      uuid.UUID
	Amount  decimal.Decimal
	Settled bool
}

// Allocation is the priority-ordered split of a repayment.
type Allocation struct {
	LateFeePaid     decimal.Decimal
	PenaltyPaid     decimal.Decimal
	InterestPaid    decimal.Decimal
	PrincipalPaid   decimal.Decimal
	FeePayments     []RecordPayment
	PenaltyPayments []RecordPayment
}

// OverpaymentError rejects an amount above the collectable total. It
// carries the outstanding so callers can surface it.
type OverpaymentError struct {
	Outstanding decimal.Decimal
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("amount exceeds outstanding total %s", money.String(e.Outstanding))
}

// Is lets errors.Is match against domain.ErrOverpayment.
func (e *OverpaymentError) Is(target error) bool {
	return target == domain.ErrOverpayment
}

// Allocate splits a repayment in strict priority order: late fees (oldest
// first), then penalties (oldest first), then outstanding interest, then
// outstanding principal. Consumption is monotone: a later bucket is touched
// only after every earlier bucket is exhausted. Any remainder after
// principal is an overpayment and the whole allocation is rejected.
func Allocate(in AllocationInput) (Allocation, error) {
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return Allocation{}, domain.ErrAmountInvalid
	}

	outstanding := in.OutstandingInterest.Add(in.OutstandingPrincipal)
	for _, d := range in.LateFees {
		outstanding = outstanding.Add(d.Remaining)
	}
	for _, d := range in.Penalties {
		outstanding = outstanding.Add(d.Remaining)
	}
	if in.Amount.GreaterThan(outstanding) {
		return Allocation{}, &OverpaymentError{Outstanding: outstanding}
	}

	var alloc Allocation
	remaining := in.Amount

	alloc.LateFeePaid, alloc.FeePayments, remaining = consumeRecords(in.LateFees, remaining)
	alloc.PenaltyPaid, alloc.PenaltyPayments, remaining = consumeRecords(in.Penalties, remaining)

	alloc.InterestPaid = decimal.Min(remaining, in.OutstandingInterest)
	remaining = remaining.Sub(alloc.InterestPaid)

	alloc.PrincipalPaid = decimal.Min(remaining, in.OutstandingPrincipal)
	remaining = remaining.Sub(alloc.PrincipalPaid)

	if remaining.IsPositive() {
		// Unreachable given the total check above; kept as an invariant
		// guard so a broken input can never credit money back silently.
		return Allocation{}, &OverpaymentError{Outstanding: outstanding}
	}
	return alloc, nil
}

func consumeRecords(dues []DueRecord, amount decimal.Decimal) (decimal.Decimal, []RecordPayment, decimal.Decimal) {
	paid := decimal.Zero
	var payments []RecordPayment
	for _, d := range dues {
		if amount.IsZero() {
			break
		}
		if d.Remaining.LessThanOrEqual(decimal.Zero) {
			continue
		}
		take := decimal.Min(amount, d.Remaining)
		payments = append(payments, RecordPayment{
			ID:      d.ID,
			Amount:  take,
			Settled: take.Equal(d.Remaining),
		})
		paid = paid.Add(take)
		amount = amount.Sub(take)
	}
	return paid, payments, amount
}

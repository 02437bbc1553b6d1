package calculator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
)

var scheduleStart = time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

func TestSchedule_PrincipalSumsExactly(t *testing.T) {
	// The last row must absorb all rounding residue regardless of terms.
	cases := []Terms{
		emiTerms("100000", "12", 12, domain.FrequencyMonthly),
		emiTerms("100000", "12.5", 36, domain.FrequencyMonthly),
		emiTerms("5200", "0", 52, domain.FrequencyWeekly),
		emiTerms("999.99", "18", 7, domain.FrequencyWeekly),
		emiTerms("50000", "24", 100, domain.FrequencyDaily),
		emiTerms("75000", "9.125", 8, domain.FrequencyQuarterly),
		emiTerms("1", "100", 3, domain.FrequencyMonthly),
		{
			Principal:        decimal.RequireFromString("30000"),
			AnnualRate:       decimal.RequireFromString("15"),
			Tenure:           10,
			Frequency:        domain.FrequencyCustom,
			CustomPeriodDays: 15,
			RepaymentType:    domain.RepaymentEMI,
		},
	}

	for _, terms := range cases {
		rows, err := Schedule(terms, scheduleStart)
		require.NoError(t, err)
		require.Len(t, rows, terms.Tenure)

		sum := decimal.Zero
		for _, row := range rows {
			sum = sum.Add(row.PrincipalDue)
			assert.False(t, row.PrincipalDue.IsNegative())
			assert.False(t, row.InterestDue.IsNegative())
			assert.True(t, row.TotalDue.Equal(row.PrincipalDue.Add(row.InterestDue)))
		}
		assert.True(t, sum.Equal(terms.Principal),
			"principal sum %s != %s for tenure %d", sum, terms.Principal, terms.Tenure)
		assert.True(t, rows[len(rows)-1].OutstandingAfter.IsZero())
	}
}

func TestSchedule_StandardMonthlyEMI(t *testing.T) {
	terms := emiTerms("100000", "12", 12, domain.FrequencyMonthly)
	rows, err := Schedule(terms, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// First row: interest = 100000 · 1% = 1000.00.
	assert.Equal(t, "1000.00", rows[0].InterestDue.StringFixed(2))
	assert.Equal(t, "7884.88", rows[0].PrincipalDue.StringFixed(2))
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), rows[0].DueDate)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), rows[11].DueDate)

	totalInterest := decimal.Zero
	for _, row := range rows {
		totalInterest = totalInterest.Add(row.InterestDue)
	}
	// Whole-of-life interest within rounding drift of installment·n − P.
	diff := totalInterest.Sub(decimal.RequireFromString("6618.55")).Abs()
	assert.True(t, diff.LessThanOrEqual(decimal.RequireFromString("0.02")), "drift %s", diff)
}

func TestSchedule_ZeroInterestWeekly(t *testing.T) {
	terms := emiTerms("5200", "0", 52, domain.FrequencyWeekly)
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	rows, err := Schedule(terms, start)
	require.NoError(t, err)

	for i, row := range rows {
		assert.Equal(t, "100.00", row.PrincipalDue.StringFixed(2))
		assert.Equal(t, "0.00", row.InterestDue.StringFixed(2))
		assert.Equal(t, "100.00", row.TotalDue.StringFixed(2))
		assert.Equal(t, start.AddDate(0, 0, 7*(i+1)), row.DueDate)
	}
	assert.Equal(t, "4200.00", rows[9].OutstandingAfter.StringFixed(2))
}

func TestSchedule_MonthEndClamping(t *testing.T) {
	terms := emiTerms("12000", "10", 3, domain.FrequencyMonthly)
	rows, err := Schedule(terms, scheduleStart) // Jan 31
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), rows[0].DueDate)
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), rows[1].DueDate)
	assert.Equal(t, time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC), rows[2].DueDate)
}

func TestSchedule_Bullet(t *testing.T) {
	terms := emiTerms("100000", "12", 6, domain.FrequencyMonthly)
	terms.RepaymentType = domain.RepaymentBullet

	rows, err := Schedule(terms, scheduleStart)
	require.NoError(t, err)
	require.Len(t, rows, 6)

	for _, row := range rows[:5] {
		assert.True(t, row.PrincipalDue.IsZero())
		assert.Equal(t, "1000.00", row.InterestDue.StringFixed(2))
	}
	last := rows[5]
	assert.Equal(t, "100000.00", last.PrincipalDue.StringFixed(2))
	assert.Equal(t, "1000.00", last.InterestDue.StringFixed(2))
	assert.Equal(t, "101000.00", last.TotalDue.StringFixed(2))
}

func TestOutstandingAfter_MatchesScheduleRows(t *testing.T) {
	terms := emiTerms("100000", "12", 12, domain.FrequencyMonthly)
	rows, err := Schedule(terms, scheduleStart)
	require.NoError(t, err)

	after0, err := OutstandingAfter(terms, 0)
	require.NoError(t, err)
	assert.True(t, after0.Equal(terms.Principal))

	for k := 1; k <= terms.Tenure; k++ {
		got, err := OutstandingAfter(terms, k)
		require.NoError(t, err)
		assert.True(t, got.Equal(rows[k-1].OutstandingAfter), "k=%d: %s != %s", k, got, rows[k-1].OutstandingAfter)
	}

	beyond, err := OutstandingAfter(terms, terms.Tenure+5)
	require.NoError(t, err)
	assert.True(t, beyond.IsZero())

	_, err = OutstandingAfter(terms, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidTerms)
}

func TestPreclosureAmount(t *testing.T) {
	terms := emiTerms("100000", "12", 12, domain.FrequencyMonthly)
	outstanding := decimal.RequireFromString("60000")

	pre, err := PreclosureAmount(terms, outstanding, decimal.NewFromInt(2))
	require.NoError(t, err)
	assert.Equal(t, "600.00", pre.AccruedInterest.StringFixed(2)) // 60000 · 1%
	assert.Equal(t, "1200.00", pre.Penalty.StringFixed(2))        // 60000 · 2%
	assert.Equal(t, "61800.00", pre.Total.StringFixed(2))
}

func TestOverdueDays(t *testing.T) {
	due := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, OverdueDays(due, due, 0))
	assert.Equal(t, 0, OverdueDays(due.AddDate(0, 0, -2), due, 0))
	assert.Equal(t, 3, OverdueDays(due.AddDate(0, 0, 3), due, 0))
	assert.Equal(t, 0, OverdueDays(due.AddDate(0, 0, 3), due, 5)) // within grace
	assert.Equal(t, 2, OverdueDays(due.AddDate(0, 0, 7), due, 5))
}

func TestLateFee(t *testing.T) {
	base := decimal.RequireFromString("8884.88")
	rate := decimal.RequireFromString("0.5") // 0.5% per day

	assert.True(t, LateFee(base, rate, 0).IsZero())
	// 8884.88 · 0.005 · 4 = 177.6976 → 177.70
	assert.Equal(t, "177.70", LateFee(base, rate, 4).StringFixed(2))

	cap := decimal.NewFromInt(100)
	assert.Equal(t, "100.00", LateFeeCapped(base, rate, 4, cap).StringFixed(2))
}

func TestPenaltyAmount(t *testing.T) {
	assert.Equal(t, "1200.00", PenaltyAmount(decimal.NewFromInt(60000), decimal.NewFromInt(2)).StringFixed(2))
	assert.True(t, PenaltyAmount(decimal.NewFromInt(60000), decimal.Zero).IsZero())
}

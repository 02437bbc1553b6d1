package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
)

func emiTerms(principal string, rate string, tenure int, freq domain.Frequency) Terms {
	return Terms{
		Principal:     decimal.RequireFromString(principal),
		AnnualRate:    decimal.RequireFromString(rate),
		Tenure:        tenure,
		Frequency:     freq,
		RepaymentType: domain.RepaymentEMI,
	}
}

func TestInstallmentAmount_StandardMonthlyEMI(t *testing.T) {
	// 100000 at 12% annual, monthly, 12 installments.
	terms := emiTerms("100000", "12", 12, domain.FrequencyMonthly)

	installment, err := InstallmentAmount(terms)
	require.NoError(t, err)
	assert.Equal(t, "8884.88", installment.StringFixed(2))

	total := TotalInterest(terms, installment)
	assert.Equal(t, "6618.56", total.StringFixed(2))
}

func TestInstallmentAmount_ZeroRate(t *testing.T) {
	terms := emiTerms("5200", "0", 52, domain.FrequencyWeekly)

	installment, err := InstallmentAmount(terms)
	require.NoError(t, err)
	assert.Equal(t, "100.00", installment.StringFixed(2))
	assert.True(t, TotalInterest(terms, installment).IsZero())
}

func TestInstallmentAmount_SingleInstallment(t *testing.T) {
	// tenure 1: installment = principal · (1 + r), r = 12%/12 = 1%.
	terms := emiTerms("1000", "12", 1, domain.FrequencyMonthly)

	installment, err := InstallmentAmount(terms)
	require.NoError(t, err)
	assert.Equal(t, "1010.00", installment.StringFixed(2))
}

func TestInstallmentAmount_InterestOnly(t *testing.T) {
	terms := emiTerms("100000", "12", 12, domain.FrequencyMonthly)
	terms.RepaymentType = domain.RepaymentInterestOnly

	installment, err := InstallmentAmount(terms)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", installment.StringFixed(2))
	assert.Equal(t, "12000.00", TotalInterest(terms, installment).StringFixed(2))
}

func TestInstallmentAmount_InvalidTerms(t *testing.T) {
	cases := map[string]Terms{
		"zero principal":     emiTerms("0", "10", 12, domain.FrequencyMonthly),
		"negative principal": emiTerms("-5", "10", 12, domain.FrequencyMonthly),
		"zero tenure":        emiTerms("1000", "10", 0, domain.FrequencyMonthly),
		"negative rate":      emiTerms("1000", "-1", 12, domain.FrequencyMonthly),
		"rate above 100":     emiTerms("1000", "101", 12, domain.FrequencyMonthly),
		"custom without period": {
			Principal:     decimal.NewFromInt(1000),
			AnnualRate:    decimal.NewFromInt(10),
			Tenure:        12,
			Frequency:     domain.FrequencyCustom,
			RepaymentType: domain.RepaymentEMI,
		},
	}
	for name, terms := range cases {
		_, err := InstallmentAmount(terms)
		assert.ErrorIs(t, err, domain.ErrInvalidTerms, name)
	}
}

func TestPeriodsPerYear(t *testing.T) {
	cases := []struct {
		freq   domain.Frequency
		custom int
		want   int
	}{
		{domain.FrequencyDaily, 0, 365},
		{domain.FrequencyWeekly, 0, 52},
		{domain.FrequencyMonthly, 0, 12},
		{domain.FrequencyQuarterly, 0, 4},
		{domain.FrequencyHalfYearly, 0, 2},
		{domain.FrequencyYearly, 0, 1},
		{domain.FrequencyCustom, 15, 24},
		{domain.FrequencyCustom, 400, 1}, // longer than a year clamps to 1
	}
	for _, c := range cases {
		got, err := PeriodsPerYear(c.freq, c.custom)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "%s/%d", c.freq, c.custom)
	}

	_, err := PeriodsPerYear(domain.FrequencyCustom, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidTerms)
}

package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// AnalyticsSummary aggregates the ledger totals the dashboard reads. All
// figures come from columns the money engine already maintains.
type AnalyticsSummary struct {
	Period               string          `json:"period"`
	StartDate            *time.Time      `json:"startDate,omitempty"`
	EndDate              *time.Time      `json:"endDate,omitempty"`
	LoansCreated         int64           `json:"loansCreated"`
	ActiveLoans          int64           `json:"activeLoans"`
	AmountDisbursed      decimal.Decimal `json:"amountDisbursed"`
	AmountCollected      decimal.Decimal `json:"amountCollected"`
	PrincipalCollected   decimal.Decimal `json:"principalCollected"`
	InterestCollected    decimal.Decimal `json:"interestCollected"`
	LateFeesCollected    decimal.Decimal `json:"lateFeesCollected"`
	PenaltiesCollected   decimal.Decimal `json:"penaltiesCollected"`
	OutstandingPrincipal decimal.Decimal `json:"outstandingPrincipal"`
	OutstandingInterest  decimal.Decimal `json:"outstandingInterest"`
	TotalInvested        decimal.Decimal `json:"totalInvested"`
	TotalBorrowed        decimal.Decimal `json:"totalBorrowed"`
}

// AnalyticsRepository computes period-bounded aggregates in storage.
type AnalyticsRepository interface {
	Summary(ctx context.Context, start, end *time.Time) (*AnalyticsSummary, error)
}

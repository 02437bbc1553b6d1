package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
	"github.com/silambarasu-a/namma-finance-sub000/internal/testutil"
)

func TestPeriodBounds_NamedPeriods(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

	start, end, err := PeriodBounds("today", now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !start.Equal(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected midnight start, got %s", start)
	}
	if !end.Equal(now) {
		t.Errorf("Expected end now, got %s", end)
	}

	start, _, err = PeriodBounds("month", now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !start.Equal(now.AddDate(0, -1, 0)) {
		t.Errorf("Expected one month back, got %s", start)
	}
}

func TestPeriodBounds_AllIsUnbounded(t *testing.T) {
	for _, period := range []string{"", "all"} {
		start, end, err := PeriodBounds(period, time.Now())
		if err != nil {
			t.Fatalf("Expected no error for %q, got %v", period, err)
		}
		if start != nil || end != nil {
			t.Errorf("Expected nil bounds for %q", period)
		}
	}
}

func TestPeriodBounds_InvalidPeriod(t *testing.T) {
	_, _, err := PeriodBounds("fortnight", time.Now())
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestSummary_CachesByPeriod(t *testing.T) {
	analytics := testutil.NewMockAnalyticsRepository()
	analytics.Result = &domain.AnalyticsSummary{LoansCreated: 7}
	cache := testutil.NewMockCache()
	service := NewAnalyticsService(analytics, cache)

	first, err := service.Summary(context.Background(), adminUser(), "month", nil, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if first.LoansCreated != 7 {
		t.Errorf("Expected 7 loans created, got %d", first.LoansCreated)
	}

	second, err := service.Summary(context.Background(), adminUser(), "month", nil, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if second.LoansCreated != 7 {
		t.Errorf("Expected cached figure, got %d", second.LoansCreated)
	}
	if analytics.Calls != 1 {
		t.Errorf("Expected one storage query, got %d", analytics.Calls)
	}
}

func TestSummary_CustomerForbidden(t *testing.T) {
	service := NewAnalyticsService(testutil.NewMockAnalyticsRepository(), testutil.NewMockCache())
	customer := &domain.User{Role: domain.RoleCustomer, Active: true}

	_, err := service.Summary(context.Background(), customer, "month", nil, nil)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}
}

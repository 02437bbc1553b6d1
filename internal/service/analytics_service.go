package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
)

// AnalyticsService serves the dashboard summary, read through the cache.
type AnalyticsService struct {
	analytics domain.AnalyticsRepository
	cache     Cache
}

func NewAnalyticsService(analytics domain.AnalyticsRepository, cache Cache) *AnalyticsService {
	return &AnalyticsService{analytics: analytics, cache: cache}
}

// PeriodBounds resolves a named period into absolute bounds. "all" and the
// empty string mean unbounded.
func PeriodBounds(period string, now time.Time) (*time.Time, *time.Time, error) {
	if period == "" || period == "all" {
		return nil, nil, nil
	}
	end := now
	var start time.Time
	switch period {
	case "today":
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case "week":
		start = now.AddDate(0, 0, -7)
	case "month":
		start = now.AddDate(0, -1, 0)
	case "quarter":
		start = now.AddDate(0, -3, 0)
	case "half-year":
		start = now.AddDate(0, -6, 0)
	case "year":
		start = now.AddDate(-1, 0, 0)
	default:
		return nil, nil, domain.ErrInvalidInput
	}
	return &start, &end, nil
}

// Summary computes the dashboard figures for a named period or an explicit
// date range. Staff only.
func (s *AnalyticsService) Summary(ctx context.Context, actor *domain.User, period string, start, end *time.Time) (*domain.AnalyticsSummary, error) {
	if err := RequireStaff(actor); err != nil {
		return nil, err
	}

	if start == nil && end == nil {
		var err error
		start, end, err = PeriodBounds(period, time.Now().UTC())
		if err != nil {
			return nil, err
		}
	}

	key := dashboardKey(period, start, end)
	var cached domain.AnalyticsSummary
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	summary, err := s.analytics.Summary(ctx, start, end)
	if err != nil {
		return nil, err
	}
	summary.Period = period
	summary.StartDate = start
	summary.EndDate = end

	if err := s.cache.Set(ctx, key, summary); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("dashboard cache set failed")
	}
	return summary, nil
}

func dashboardKey(period string, start, end *time.Time) string {
	if period != "" {
		return "dashboard:" + period
	}
	format := func(t *time.Time) string {
		if t == nil {
			return "nil"
		}
		return t.Format("2006-01-02")
	}
	return fmt.Sprintf("dashboard:range:%s:%s", format(start), format(end))
}

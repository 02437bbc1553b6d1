package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
	"github.com/silambarasu-a/namma-finance-sub000/internal/money"
)

// CapitalService manages the investment and borrowing ledgers. They feed
// analytics and touch no loan invariants.
type CapitalService struct {
	capital domain.CapitalRepository
	cache   Cache
}

func NewCapitalService(capital domain.CapitalRepository, cache Cache) *CapitalService {
	return &CapitalService{capital: capital, cache: cache}
}

// CapitalInput contains input for recording an investment or borrowing.
type CapitalInput struct {
	Counterparty string
	Amount       decimal.Decimal
	StartDate    time.Time
	EndDate      *time.Time
}

func (in CapitalInput) validate() error {
	if in.Counterparty == "" {
		return domain.ErrInvalidInput
	}
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrCapitalAmountInvalid
	}
	return nil
}

// CreateInvestment records incoming capital. Admin and manager.
func (s *CapitalService) CreateInvestment(ctx context.Context, actor *domain.User, input CapitalInput) (*domain.Investment, error) {
	if err := RequireBackOffice(actor); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	inv := &domain.Investment{
		Source:    input.Counterparty,
		Amount:    money.Round(input.Amount),
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		Status:    domain.CapitalActive,
		CreatedBy: actor.ID,
	}
	created, err := s.capital.CreateInvestment(ctx, inv)
	if err != nil {
		return nil, err
	}
	s.invalidateDashboard(ctx)
	return created, nil
}

// ListInvestments pages through investments. Admin and manager.
func (s *CapitalService) ListInvestments(ctx context.Context, actor *domain.User, page, limit int) ([]*domain.Investment, int64, error) {
	if err := RequireBackOffice(actor); err != nil {
		return nil, 0, err
	}
	return s.capital.ListInvestments(ctx, page, limit)
}

// CreateBorrowing records borrowed capital. Admin and manager.
func (s *CapitalService) CreateBorrowing(ctx context.Context, actor *domain.User, input CapitalInput) (*domain.Borrowing, error) {
	if err := RequireBackOffice(actor); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	b := &domain.Borrowing{
		Lender:    input.Counterparty,
		Amount:    money.Round(input.Amount),
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		Status:    domain.CapitalActive,
		CreatedBy: actor.ID,
	}
	created, err := s.capital.CreateBorrowing(ctx, b)
	if err != nil {
		return nil, err
	}
	s.invalidateDashboard(ctx)
	return created, nil
}

// ListBorrowings pages through borrowings. Admin and manager.
func (s *CapitalService) ListBorrowings(ctx context.Context, actor *domain.User, page, limit int) ([]*domain.Borrowing, int64, error) {
	if err := RequireBackOffice(actor); err != nil {
		return nil, 0, err
	}
	return s.capital.ListBorrowings(ctx, page, limit)
}

func (s *CapitalService) invalidateDashboard(ctx context.Context) {
	// Capital figures feed the dashboard; stale entries are tolerated,
	// so a failed invalidation only logs.
	_ = s.cache.DeletePattern(ctx, "dashboard:*")
}

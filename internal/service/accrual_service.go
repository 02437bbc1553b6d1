package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/silambarasu-a/namma-finance-sub000/internal/calculator"
	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
	"github.com/silambarasu-a/namma-finance-sub000/internal/money"
)

// AccrualService creates the late-fee and penalty records the repayment
// allocator consumes. Late fees accrue from a recurring job; penalties are
// applied by back-office staff.
type AccrualService struct {
	store         domain.TxManager
	loans         domain.LoanRepository
	chargeRecords domain.ChargeRecordRepository
	schedules     domain.ScheduleRepository
	audit         *AuditService
	cache         Cache
}

func NewAccrualService(
	store domain.TxManager,
	loans domain.LoanRepository,
	chargeRecords domain.ChargeRecordRepository,
	schedules domain.ScheduleRepository,
	audit *AuditService,
	cache Cache,
) *AccrualService {
	return &AccrualService{
		store:         store,
		loans:         loans,
		chargeRecords: chargeRecords,
		schedules:     schedules,
		audit:         audit,
		cache:         cache,
	}
}

// lateFeeReason tags every late-fee record with its installment so repeated
// accrual runs converge on one growing record per overdue installment.
func lateFeeReason(installmentNo int) string {
	return fmt.Sprintf("installment %d overdue", installmentNo)
}

// AccrueLateFees walks every overdue unpaid installment and brings its
// late-fee record up to date with the fee owed as of asOf. The pass is
// idempotent: what is already charged for an installment is subtracted
// before anything new is written, so replays and overlapping runs converge.
// Each loan accrues in its own transaction under the loan row lock, which
// serializes against concurrent collections. Returns the number of loans
// that accrued something.
func (s *AccrualService) AccrueLateFees(ctx context.Context, asOf time.Time) (int, error) {
	overdue, err := s.schedules.ListOverdue(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("list overdue rows: %w", err)
	}

	byLoan := make(map[uuid.UUID][]*domain.ScheduleRow)
	var order []uuid.UUID
	for _, row := range overdue {
		if _, seen := byLoan[row.LoanID]; !seen {
			order = append(order, row.LoanID)
		}
		byLoan[row.LoanID] = append(byLoan[row.LoanID], row)
	}

	accruedLoans := 0
	var firstErr error
	for _, loanID := range order {
		customerID, accrued, err := s.accrueLoan(ctx, loanID, byLoan[loanID], asOf)
		if err != nil {
			log.Error().Err(err).Str("loan_id", loanID.String()).Msg("late fee accrual failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if accrued {
			accruedLoans++
			s.invalidate(ctx, loanID, customerID)
		}
	}
	return accruedLoans, firstErr
}

func (s *AccrualService) accrueLoan(ctx context.Context, loanID uuid.UUID, rows []*domain.ScheduleRow, asOf time.Time) (uuid.UUID, bool, error) {
	var customerID uuid.UUID
	accrued := false
	err := s.store.WithTransaction(ctx, func(tx any) error {
		loan, err := s.loans.GetForUpdateTx(ctx, tx, loanID)
		if err != nil {
			return err
		}
		customerID = loan.CustomerID
		if loan.Status != domain.LoanActive || !loan.LateFeeDailyRate.IsPositive() {
			return nil
		}

		for _, row := range rows {
			days := calculator.OverdueDays(asOf, row.DueDate, loan.GracePeriodDays)
			if days <= 0 {
				continue
			}
			owed := calculator.LateFee(loan.InstallmentAmount, loan.LateFeeDailyRate, days)
			if !owed.IsPositive() {
				continue
			}

			reason := lateFeeReason(row.InstallmentNo)
			existing, err := s.chargeRecords.ByReasonTx(ctx, tx, loan.ID, domain.ChargeRecordLateFee, reason)
			if err != nil {
				return err
			}
			charged := decimal.Zero
			var open *domain.ChargeRecord
			for _, r := range existing {
				charged = charged.Add(r.Amount)
				if !r.Paid {
					open = r
				}
			}
			delta := money.Round(owed.Sub(charged))
			if !delta.IsPositive() {
				continue
			}

			if open != nil {
				if err := s.chargeRecords.IncreaseAmountTx(ctx, tx, open.ID, delta, days); err != nil {
					return err
				}
			} else {
				record := &domain.ChargeRecord{
					LoanID:      loan.ID,
					Kind:        domain.ChargeRecordLateFee,
					Amount:      delta,
					Reason:      reason,
					DaysOverdue: days,
					AppliedAt:   asOf,
				}
				if _, err := s.chargeRecords.CreateTx(ctx, tx, record); err != nil {
					return err
				}
			}
			accrued = true
		}

		if accrued {
			s.audit.RecordTx(ctx, tx, Entry(uuid.Nil, domain.AuditLateFeeAccrued, "loan", loan.ID, nil, loan))
		}
		return nil
	})
	return customerID, accrued, err
}

// PenaltyInput contains input for a staff-applied penalty. A nil Amount
// falls back to the loan's penalty rate on the outstanding principal.
type PenaltyInput struct {
	Amount *decimal.Decimal
	Reason string
}

// ApplyPenalty writes a penalty record against an active loan.
func (s *AccrualService) ApplyPenalty(ctx context.Context, actor *domain.User, loanID uuid.UUID, input PenaltyInput) (*domain.ChargeRecord, error) {
	if err := RequireBackOffice(actor); err != nil {
		return nil, err
	}

	var (
		record     *domain.ChargeRecord
		customerID uuid.UUID
	)
	err := s.store.WithTransaction(ctx, func(tx any) error {
		loan, err := s.loans.GetForUpdateTx(ctx, tx, loanID)
		if err != nil {
			return err
		}
		customerID = loan.CustomerID
		if loan.Status != domain.LoanActive {
			return domain.ErrLoanNotActive
		}

		amount := decimal.Zero
		if input.Amount != nil {
			amount = money.Round(*input.Amount)
		} else {
			amount = calculator.PenaltyAmount(loan.OutstandingPrincipal, loan.PenaltyRate)
		}
		if !amount.IsPositive() {
			return domain.ErrAmountInvalid
		}

		record, err = s.chargeRecords.CreateTx(ctx, tx, &domain.ChargeRecord{
			LoanID:    loan.ID,
			Kind:      domain.ChargeRecordPenalty,
			Amount:    amount,
			Reason:    input.Reason,
			AppliedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}

		s.audit.RecordTx(ctx, tx, Entry(actor.ID, domain.AuditPenaltyApplied, "loan", loan.ID, nil, record))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, loanID, customerID)
	return record, nil
}

func (s *AccrualService) invalidate(ctx context.Context, loanID, customerID uuid.UUID) {
	patterns := []string{
		"loan:" + loanID.String() + "*",
		"loans:customer:" + customerID.String() + "*",
		"dashboard:*",
	}
	for _, p := range patterns {
		if err := s.cache.DeletePattern(ctx, p); err != nil {
			log.Warn().Err(err).Str("pattern", p).Msg("cache invalidation failed")
		}
	}
}

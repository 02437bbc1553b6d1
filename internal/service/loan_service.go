package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/silambarasu-a/namma-finance-sub000/internal/calculator"
	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
	"github.com/silambarasu-a/namma-finance-sub000/internal/money"
)

// SchedulePayload is the job body for deferred schedule generation.
type SchedulePayload struct {
	LoanID uuid.UUID `json:"loanId"`
}

// LoanService handles loan lifecycle business logic.
type LoanService struct {
	store         domain.TxManager
	loans         domain.LoanRepository
	charges       domain.LoanChargeRepository
	chargeRecords domain.ChargeRecordRepository
	schedules     domain.ScheduleRepository
	collections   domain.CollectionRepository
	customers     domain.CustomerRepository
	access        *AccessService
	audit         *AuditService
	queue         JobQueue
	cache         Cache
	events        EventPublisher
}

func NewLoanService(
	store domain.TxManager,
	loans domain.LoanRepository,
	charges domain.LoanChargeRepository,
	chargeRecords domain.ChargeRecordRepository,
	schedules domain.ScheduleRepository,
	collections domain.CollectionRepository,
	customers domain.CustomerRepository,
	access *AccessService,
	audit *AuditService,
	queue JobQueue,
	cache Cache,
	events EventPublisher,
) *LoanService {
	return &LoanService{
		store:         store,
		loans:         loans,
		charges:       charges,
		chargeRecords: chargeRecords,
		schedules:     schedules,
		collections:   collections,
		customers:     customers,
		access:        access,
		audit:         audit,
		queue:         queue,
		cache:         cache,
		events:        events,
	}
}

// ChargeInput is one deduction taken out of the principal at disbursement.
type ChargeInput struct {
	Type   domain.ChargeType
	Amount decimal.Decimal
}

// CreateLoanInput contains input for creating a loan.
type CreateLoanInput struct {
	CustomerID         uuid.UUID
	Principal          decimal.Decimal
	InterestRate       decimal.Decimal
	TenureInstallments int
	Frequency          domain.Frequency
	CustomPeriodDays   int
	RepaymentType      domain.RepaymentType
	GracePeriodDays    int
	LateFeeDailyRate   decimal.Decimal
	PenaltyRate        decimal.Decimal
	Charges            []ChargeInput
	StartDate          *time.Time
	Remarks            *string
}

// CreateLoan validates terms, derives the installment figures and inserts
// the pending loan with its charges in one transaction. Schedule rows are
// materialized by a deferred job.
func (s *LoanService) CreateLoan(ctx context.Context, actor *domain.User, input CreateLoanInput) (*domain.Loan, error) {
	if err := RequireBackOffice(actor); err != nil {
		return nil, err
	}
	if _, err := s.customers.GetByID(ctx, input.CustomerID); err != nil {
		return nil, err
	}

	repaymentType := input.RepaymentType
	if repaymentType == "" {
		repaymentType = domain.RepaymentEMI
	}
	startDate := time.Now().UTC()
	if input.StartDate != nil {
		startDate = input.StartDate.UTC()
	}

	loan := &domain.Loan{
		Principal:          money.Round(input.Principal),
		InterestRate:       money.RoundRate(input.InterestRate),
		TenureInstallments: input.TenureInstallments,
		Frequency:          input.Frequency,
		CustomPeriodDays:   input.CustomPeriodDays,
		RepaymentType:      repaymentType,
		GracePeriodDays:    input.GracePeriodDays,
		LateFeeDailyRate:   money.RoundRate(input.LateFeeDailyRate),
		PenaltyRate:        money.RoundRate(input.PenaltyRate),
		StartDate:          startDate,
		Status:             domain.LoanPending,
		CustomerID:         input.CustomerID,
		CreatedBy:          actor.ID,
		Remarks:            input.Remarks,
	}
	if err := loan.ValidateTerms(); err != nil {
		return nil, err
	}

	chargeTotal := decimal.Zero
	for _, c := range input.Charges {
		if !c.Type.Valid() {
			return nil, domain.ErrChargeTypeInvalid
		}
		if c.Amount.IsNegative() {
			return nil, domain.ErrInvalidTerms
		}
		chargeTotal = chargeTotal.Add(c.Amount)
	}
	disbursed := loan.Principal.Sub(chargeTotal)
	if disbursed.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrChargesExceedPrincipal
	}

	terms := calculator.TermsFromLoan(loan)
	installment, err := calculator.InstallmentAmount(terms)
	if err != nil {
		return nil, err
	}
	loan.InstallmentAmount = installment
	loan.TotalInterest = calculator.TotalInterest(terms, installment)
	loan.TotalAmount = loan.Principal.Add(loan.TotalInterest)
	loan.DisbursedAmount = money.Round(disbursed)
	loan.OutstandingPrincipal = loan.Principal
	loan.OutstandingInterest = loan.TotalInterest

	var created *domain.Loan
	err = s.store.WithTransaction(ctx, func(tx any) error {
		number, err := s.loans.NextNumber(ctx, tx)
		if err != nil {
			return err
		}
		loan.Number = number

		created, err = s.loans.CreateTx(ctx, tx, loan)
		if err != nil {
			return err
		}
		for _, c := range input.Charges {
			charge := &domain.LoanCharge{
				LoanID: created.ID,
				Type:   c.Type,
				Amount: money.Round(c.Amount),
			}
			if _, err := s.charges.CreateTx(ctx, tx, charge); err != nil {
				return err
			}
		}
		s.audit.RecordTx(ctx, tx, Entry(actor.ID, domain.AuditLoanCreated, "loan", created.ID, nil, created))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.submitScheduleJob(ctx, created.ID)
	s.invalidate(ctx, created.ID, created.CustomerID)
	s.events.Publish(EventLoanCreated, created.CustomerID, created)
	return created, nil
}

// Approve transitions a pending loan to active. Admin and manager.
func (s *LoanService) Approve(ctx context.Context, actor *domain.User, loanID uuid.UUID, remarks *string) (*domain.Loan, error) {
	return s.activate(ctx, actor, loanID, nil, domain.AuditLoanApproved, remarks)
}

// Disburse transitions a pending loan to active, optionally overriding the
// disbursed amount. Admin and manager.
func (s *LoanService) Disburse(ctx context.Context, actor *domain.User, loanID uuid.UUID, amount *decimal.Decimal, remarks *string) (*domain.Loan, error) {
	return s.activate(ctx, actor, loanID, amount, domain.AuditLoanDisbursed, remarks)
}

func (s *LoanService) activate(ctx context.Context, actor *domain.User, loanID uuid.UUID, amount *decimal.Decimal, action domain.AuditAction, remarks *string) (*domain.Loan, error) {
	if err := RequireBackOffice(actor); err != nil {
		return nil, err
	}

	var updated *domain.Loan
	err := s.store.WithTransaction(ctx, func(tx any) error {
		loan, err := s.loans.GetForUpdateTx(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != domain.LoanPending {
			return domain.ErrLoanNotPending
		}
		before := *loan

		now := time.Now().UTC()
		if amount != nil {
			if amount.LessThanOrEqual(decimal.Zero) || amount.GreaterThan(loan.Principal) {
				return domain.ErrInvalidTerms
			}
			loan.DisbursedAmount = money.Round(*amount)
		}
		loan.Status = domain.LoanActive
		loan.DisbursedAt = &now
		if end, err := s.finalDueDate(loan); err == nil {
			loan.EndDate = &end
		}

		if err := s.loans.UpdateStatusTx(ctx, tx, loan); err != nil {
			return err
		}
		entry := Entry(actor.ID, action, "loan", loan.ID, &before, loan)
		if remarks != nil {
			entry.Remarks = *remarks
		}
		s.audit.RecordTx(ctx, tx, entry)
		updated = loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, updated.ID, updated.CustomerID)
	s.events.Publish(EventLoanStatusChanged, updated.CustomerID, updated)
	return updated, nil
}

// Close transitions a settled active loan to closed. Loans with a balance
// go through preclose instead.
func (s *LoanService) Close(ctx context.Context, actor *domain.User, loanID uuid.UUID, remarks *string) (*domain.Loan, error) {
	if err := RequireBackOffice(actor); err != nil {
		return nil, err
	}

	var updated *domain.Loan
	err := s.store.WithTransaction(ctx, func(tx any) error {
		loan, err := s.loans.GetForUpdateTx(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != domain.LoanActive {
			return domain.ErrLoanNotActive
		}
		if !loan.Settled() {
			return fmt.Errorf("%w: loan has an outstanding balance", domain.ErrConflict)
		}
		before := *loan

		now := time.Now().UTC()
		loan.Status = domain.LoanClosed
		loan.ClosedAt = &now
		if err := s.loans.UpdateStatusTx(ctx, tx, loan); err != nil {
			return err
		}
		entry := Entry(actor.ID, domain.AuditLoanClosed, "loan", loan.ID, &before, loan)
		if remarks != nil {
			entry.Remarks = *remarks
		}
		s.audit.RecordTx(ctx, tx, entry)
		updated = loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, updated.ID, updated.CustomerID)
	s.events.Publish(EventLoanStatusChanged, updated.CustomerID, updated)
	return updated, nil
}

// PrecloseResult carries the loan and the figures the preclosure was
// computed with.
type PrecloseResult struct {
	Loan       *domain.Loan          `json:"loan"`
	Preclosure calculator.Preclosure `json:"preclosure"`
}

// Preclose ends an active loan early. The remaining scheduled interest is
// waived; the preclosure figures are recorded on the audit entry.
func (s *LoanService) Preclose(ctx context.Context, actor *domain.User, loanID uuid.UUID, remarks *string) (*PrecloseResult, error) {
	if err := RequireBackOffice(actor); err != nil {
		return nil, err
	}

	var result *PrecloseResult
	err := s.store.WithTransaction(ctx, func(tx any) error {
		loan, err := s.loans.GetForUpdateTx(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != domain.LoanActive {
			return domain.ErrLoanNotActive
		}
		before := *loan

		pre, err := calculator.PreclosureAmount(calculator.TermsFromLoan(loan), loan.OutstandingPrincipal, loan.PenaltyRate)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		loan.Status = domain.LoanPreclosed
		loan.ClosedAt = &now
		if err := s.loans.UpdateStatusTx(ctx, tx, loan); err != nil {
			return err
		}
		entry := Entry(actor.ID, domain.AuditLoanPreclosed, "loan", loan.ID, &before, loan)
		if remarks != nil {
			entry.Remarks = *remarks
		}
		s.audit.RecordTx(ctx, tx, entry)
		result = &PrecloseResult{Loan: loan, Preclosure: pre}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, result.Loan.ID, result.Loan.CustomerID)
	s.events.Publish(EventLoanStatusChanged, result.Loan.CustomerID, result.Loan)
	return result, nil
}

// MarkDefaulted transitions an active loan to defaulted. The ledger is left
// untouched so the written-off figures remain visible.
func (s *LoanService) MarkDefaulted(ctx context.Context, actor *domain.User, loanID uuid.UUID, remarks *string) (*domain.Loan, error) {
	if err := RequireBackOffice(actor); err != nil {
		return nil, err
	}

	var updated *domain.Loan
	err := s.store.WithTransaction(ctx, func(tx any) error {
		loan, err := s.loans.GetForUpdateTx(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != domain.LoanActive {
			return domain.ErrLoanNotActive
		}
		before := *loan

		now := time.Now().UTC()
		loan.Status = domain.LoanDefaulted
		loan.ClosedAt = &now
		if err := s.loans.UpdateStatusTx(ctx, tx, loan); err != nil {
			return err
		}
		entry := Entry(actor.ID, domain.AuditLoanDefaulted, "loan", loan.ID, &before, loan)
		if remarks != nil {
			entry.Remarks = *remarks
		}
		s.audit.RecordTx(ctx, tx, entry)
		updated = loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, updated.ID, updated.CustomerID)
	s.events.Publish(EventLoanStatusChanged, updated.CustomerID, updated)
	return updated, nil
}

// TopUpInput contains input for topping up an active loan.
type TopUpInput struct {
	LoanID          uuid.UUID
	TopUpAmount     decimal.Decimal
	NewTenure       *int
	NewInterestRate *decimal.Decimal
	Charges         []ChargeInput
	Remarks         *string
}

// TopUpResult pairs the preclosed loan with its replacement.
type TopUpResult struct {
	OldLoan *domain.Loan           `json:"oldLoan"`
	NewLoan *domain.Loan           `json:"newLoan"`
	Details calculator.TopUpResult `json:"topUpDetails"`
}

// TopUp precloses the existing loan and opens a new active loan carrying
// the combined principal, all in one transaction.
func (s *LoanService) TopUp(ctx context.Context, actor *domain.User, input TopUpInput) (*TopUpResult, error) {
	if err := RequireBackOffice(actor); err != nil {
		return nil, err
	}

	for _, c := range input.Charges {
		if !c.Type.Valid() {
			return nil, domain.ErrChargeTypeInvalid
		}
	}

	var result *TopUpResult
	err := s.store.WithTransaction(ctx, func(tx any) error {
		old, err := s.loans.GetForUpdateTx(ctx, tx, input.LoanID)
		if err != nil {
			return err
		}
		if old.Status != domain.LoanActive {
			return domain.ErrLoanNotActive
		}

		for _, kind := range []domain.ChargeRecordKind{domain.ChargeRecordLateFee, domain.ChargeRecordPenalty} {
			unpaid, err := s.chargeRecords.UnpaidByLoanTx(ctx, tx, old.ID, kind)
			if err != nil {
				return err
			}
			if len(unpaid) > 0 {
				return domain.ErrHasOutstandingDues
			}
		}

		terms := calculator.TermsFromLoan(old)
		if input.NewTenure != nil {
			terms.Tenure = *input.NewTenure
		}
		if input.NewInterestRate != nil {
			terms.AnnualRate = money.RoundRate(*input.NewInterestRate)
		}
		chargeAmounts := make([]decimal.Decimal, 0, len(input.Charges))
		for _, c := range input.Charges {
			chargeAmounts = append(chargeAmounts, c.Amount)
		}

		details, err := calculator.TopUp(calculator.TopUpInput{
			ExistingOutstanding: old.OutstandingPrincipal,
			TopUpAmount:         input.TopUpAmount,
			NewTerms:            terms,
			Charges:             chargeAmounts,
			PreviousInstallment: old.InstallmentAmount,
		})
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		oldBefore := *old
		old.Status = domain.LoanPreclosed
		old.ClosedAt = &now
		if err := s.loans.UpdateStatusTx(ctx, tx, old); err != nil {
			return err
		}

		number, err := s.loans.NextNumber(ctx, tx)
		if err != nil {
			return err
		}
		terms.Principal = details.NewPrincipal
		totalInterest := calculator.TotalInterest(terms, details.NewInstallment)
		newLoan := &domain.Loan{
			Number:               number,
			Principal:            details.NewPrincipal,
			InterestRate:         terms.AnnualRate,
			TenureInstallments:   terms.Tenure,
			Frequency:            old.Frequency,
			CustomPeriodDays:     old.CustomPeriodDays,
			RepaymentType:        old.RepaymentType,
			GracePeriodDays:      old.GracePeriodDays,
			LateFeeDailyRate:     old.LateFeeDailyRate,
			PenaltyRate:          old.PenaltyRate,
			InstallmentAmount:    details.NewInstallment,
			TotalInterest:        totalInterest,
			TotalAmount:          details.NewPrincipal.Add(totalInterest),
			DisbursedAmount:      details.DisbursedToCustomer,
			DisbursedAt:          &now,
			StartDate:            now,
			OutstandingPrincipal: details.NewPrincipal,
			OutstandingInterest:  totalInterest,
			Status:               domain.LoanActive,
			IsTopUp:              true,
			OriginalLoanID:       &old.ID,
			TopUpAmount:          money.Round(input.TopUpAmount),
			CustomerID:           old.CustomerID,
			CreatedBy:            actor.ID,
			Remarks:              input.Remarks,
		}
		if end, err := s.finalDueDate(newLoan); err == nil {
			newLoan.EndDate = &end
		}

		created, err := s.loans.CreateTx(ctx, tx, newLoan)
		if err != nil {
			return err
		}
		for _, c := range input.Charges {
			charge := &domain.LoanCharge{
				LoanID: created.ID,
				Type:   c.Type,
				Amount: money.Round(c.Amount),
			}
			if _, err := s.charges.CreateTx(ctx, tx, charge); err != nil {
				return err
			}
		}

		entry := Entry(actor.ID, domain.AuditLoanToppedUp, "loan", created.ID, &oldBefore, created)
		if input.Remarks != nil {
			entry.Remarks = *input.Remarks
		}
		s.audit.RecordTx(ctx, tx, entry)
		result = &TopUpResult{OldLoan: old, NewLoan: created, Details: details}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.submitScheduleJob(ctx, result.NewLoan.ID)
	s.invalidate(ctx, result.OldLoan.ID, result.OldLoan.CustomerID)
	s.invalidate(ctx, result.NewLoan.ID, result.NewLoan.CustomerID)
	s.events.Publish(EventLoanStatusChanged, result.OldLoan.CustomerID, result.OldLoan)
	s.events.Publish(EventLoanCreated, result.NewLoan.CustomerID, result.NewLoan)
	return result, nil
}

// DeletePending removes a loan that never left pending. Admin and manager.
func (s *LoanService) DeletePending(ctx context.Context, actor *domain.User, loanID uuid.UUID) error {
	if err := RequireBackOffice(actor); err != nil {
		return err
	}

	var deleted *domain.Loan
	err := s.store.WithTransaction(ctx, func(tx any) error {
		loan, err := s.loans.GetForUpdateTx(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != domain.LoanPending {
			return domain.ErrLoanNotPending
		}
		if err := s.loans.DeleteTx(ctx, tx, loanID); err != nil {
			return err
		}
		s.audit.RecordTx(ctx, tx, Entry(actor.ID, domain.AuditLoanDeleted, "loan", loanID, loan, nil))
		deleted = loan
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, loanID, deleted.CustomerID)
	return nil
}

// LoanDetail is the full read model of one loan.
type LoanDetail struct {
	Loan          *domain.Loan           `json:"loan"`
	Customer      *domain.Customer       `json:"customer"`
	Schedule      []*domain.ScheduleRow  `json:"schedule"`
	Collections   []*domain.Collection   `json:"collections"`
	Charges       []*domain.LoanCharge   `json:"charges"`
	ChargeRecords []*domain.ChargeRecord `json:"chargeRecords"`
}

// Get assembles the loan detail, read through the cache.
func (s *LoanService) Get(ctx context.Context, actor *domain.User, loanID uuid.UUID) (*LoanDetail, error) {
	loan, err := s.loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanAccessLoan(ctx, actor, loan); err != nil {
		return nil, err
	}

	key := "loan:" + loanID.String()
	var detail LoanDetail
	if err := s.cache.Get(ctx, key, &detail); err == nil {
		return &detail, nil
	}

	customer, err := s.customers.GetByID(ctx, loan.CustomerID)
	if err != nil {
		return nil, err
	}
	schedule, err := s.schedules.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	collections, err := s.collections.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	charges, err := s.charges.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	records, err := s.chargeRecords.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	detail = LoanDetail{
		Loan:          loan,
		Customer:      customer,
		Schedule:      schedule,
		Collections:   collections,
		Charges:       charges,
		ChargeRecords: records,
	}
	if err := s.cache.Set(ctx, key, &detail); err != nil {
		log.Warn().Err(err).Str("loan_id", loanID.String()).Msg("loan detail cache set failed")
	}
	return &detail, nil
}

// List pages through loans with role-based scoping applied to the filter.
func (s *LoanService) List(ctx context.Context, actor *domain.User, filter domain.LoanFilter) ([]*domain.Loan, int64, error) {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
	case domain.RoleAgent:
		filter.AgentID = actor.ID
	case domain.RoleCustomer:
		customer, err := s.customers.GetByUserID(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, domain.ErrCustomerNotFound) {
				return nil, 0, domain.ErrForbidden
			}
			return nil, 0, err
		}
		filter.CustomerID = customer.ID
		filter.AgentID = uuid.Nil
	default:
		return nil, 0, domain.ErrForbidden
	}
	return s.loans.List(ctx, filter)
}

// finalDueDate is the due date of the last installment.
func (s *LoanService) finalDueDate(loan *domain.Loan) (time.Time, error) {
	rows, err := calculator.Schedule(calculator.TermsFromLoan(loan), loan.StartDate)
	if err != nil {
		return time.Time{}, err
	}
	return rows[len(rows)-1].DueDate, nil
}

func (s *LoanService) submitScheduleJob(ctx context.Context, loanID uuid.UUID) {
	if _, err := s.queue.Enqueue(ctx, JobGenerateSchedule, SchedulePayload{LoanID: loanID}); err != nil {
		// Schedule rows are a projection; the generator can be re-run.
		log.Warn().Err(err).Str("loan_id", loanID.String()).Msg("schedule job enqueue failed")
	}
}

func (s *LoanService) invalidate(ctx context.Context, loanID, customerID uuid.UUID) {
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

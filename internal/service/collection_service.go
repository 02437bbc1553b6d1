package service

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/silambarasu-a/namma-finance-sub000/internal/calculator"
	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
	"github.com/silambarasu-a/namma-finance-sub000/internal/money"
)

// CollectionService records repayments: the hottest path in the system.
// Every recording locks the loan row, allocates in priority order, updates
// the ledger and the schedule projection, and writes the collection and its
// audit entry in one transaction.
type CollectionService struct {
	store         domain.TxManager
	loans         domain.LoanRepository
	collections   domain.CollectionRepository
	chargeRecords domain.ChargeRecordRepository
	schedules     domain.ScheduleRepository
	access        *AccessService
	audit         *AuditService
	cache         Cache
	events        EventPublisher
}

func NewCollectionService(
	store domain.TxManager,
	loans domain.LoanRepository,
	collections domain.CollectionRepository,
	chargeRecords domain.ChargeRecordRepository,
	schedules domain.ScheduleRepository,
	access *AccessService,
	audit *AuditService,
	cache Cache,
	events EventPublisher,
) *CollectionService {
	return &CollectionService{
		store:         store,
		loans:         loans,
		collections:   collections,
		chargeRecords: chargeRecords,
		schedules:     schedules,
		access:        access,
		audit:         audit,
		cache:         cache,
		events:        events,
	}
}

// RecordInput contains input for recording a repayment.
type RecordInput struct {
	LoanID         uuid.UUID
	Amount         decimal.Decimal
	CollectionDate *time.Time
	PaymentMethod  string
	Remarks        *string
}

// RecordResult is the response shape of a recorded repayment.
type RecordResult struct {
	Collection *domain.Collection    `json:"collection"`
	Loan       *domain.Loan          `json:"loan"`
	Allocation calculator.Allocation `json:"allocation"`
}

// Record applies a repayment. A transient storage conflict retries the
// whole transaction once with a short jittered backoff.
func (s *CollectionService) Record(ctx context.Context, actor *domain.User, input RecordInput) (*RecordResult, error) {
	if err := RequireStaff(actor); err != nil {
		return nil, err
	}

	result, err := s.record(ctx, actor, input)
	if err != nil && s.store.IsRetryable(err) {
		time.Sleep(time.Duration(10+rand.Intn(40)) * time.Millisecond)
		result, err = s.record(ctx, actor, input)
		if err != nil && s.store.IsRetryable(err) {
			log.Error().Err(err).Str("loan_id", input.LoanID.String()).Msg("collection retry exhausted")
			return nil, domain.ErrTransientFailure
		}
	}
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, result.Loan.ID, result.Loan.CustomerID)
	s.events.Publish(EventCollectionRecorded, result.Loan.CustomerID, result)
	if result.Loan.Status == domain.LoanClosed {
		s.events.Publish(EventLoanStatusChanged, result.Loan.CustomerID, result.Loan)
	}
	return result, nil
}

func (s *CollectionService) record(ctx context.Context, actor *domain.User, input RecordInput) (*RecordResult, error) {
	var result *RecordResult
	err := s.store.WithTransaction(ctx, func(tx any) error {
		loan, err := s.loans.GetForUpdateTx(ctx, tx, input.LoanID)
		if err != nil {
			return err
		}
		if err := s.access.CanAccessLoan(ctx, actor, loan); err != nil {
			return err
		}
		if loan.Status != domain.LoanActive {
			return domain.ErrStatusNotCollectable
		}
		before := *loan

		fees, err := s.chargeRecords.UnpaidByLoanTx(ctx, tx, loan.ID, domain.ChargeRecordLateFee)
		if err != nil {
			return err
		}
		penalties, err := s.chargeRecords.UnpaidByLoanTx(ctx, tx, loan.ID, domain.ChargeRecordPenalty)
		if err != nil {
			return err
		}

		alloc, err := calculator.Allocate(calculator.AllocationInput{
			Amount:               input.Amount,
			LateFees:             dueRecords(fees),
			Penalties:            dueRecords(penalties),
			OutstandingInterest:  loan.OutstandingInterest,
			OutstandingPrincipal: loan.OutstandingPrincipal,
		})
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		collectionDate := now
		if input.CollectionDate != nil {
			collectionDate = input.CollectionDate.UTC()
		}

		loan.OutstandingInterest = money.Round(loan.OutstandingInterest.Sub(alloc.InterestPaid))
		loan.OutstandingPrincipal = money.Round(loan.OutstandingPrincipal.Sub(alloc.PrincipalPaid))
		loan.TotalCollected = money.Round(loan.TotalCollected.Add(input.Amount))
		loan.TotalLateFeesPaid = money.Round(loan.TotalLateFeesPaid.Add(alloc.LateFeePaid))
		loan.TotalPenaltiesPaid = money.Round(loan.TotalPenaltiesPaid.Add(alloc.PenaltyPaid))
		if err := s.loans.UpdateLedgerTx(ctx, tx, loan); err != nil {
			return err
		}

		if loan.Settled() {
			loan.Status = domain.LoanClosed
			loan.ClosedAt = &now
			if err := s.loans.UpdateStatusTx(ctx, tx, loan); err != nil {
				return err
			}
		}

		for _, payment := range append(alloc.FeePayments, alloc.PenaltyPayments...) {
			if err := s.chargeRecords.ApplyPaymentTx(ctx, tx, payment.ID, payment.Amount, now); err != nil {
				return err
			}
		}

		if err := s.projectOntoSchedule(ctx, tx, loan.ID, input.Amount, now); err != nil {
			return err
		}

		collection := &domain.Collection{
			LoanID:         loan.ID,
			AgentID:        actor.ID,
			Amount:         money.Round(input.Amount),
			PrincipalPaid:  alloc.PrincipalPaid,
			InterestPaid:   alloc.InterestPaid,
			LateFeePaid:    alloc.LateFeePaid,
			PenaltyPaid:    alloc.PenaltyPaid,
			CollectionDate: collectionDate,
			PaymentMethod:  input.PaymentMethod,
			ReceiptNumber:  GenerateReceiptNumber(),
			Remarks:        input.Remarks,
		}
		created, err := s.collections.CreateTx(ctx, tx, collection)
		if err != nil {
			return err
		}

		s.audit.RecordTx(ctx, tx, Entry(actor.ID, domain.AuditCollectionRecorded, "loan", loan.ID, &before, loan))
		result = &RecordResult{Collection: created, Loan: loan, Allocation: alloc}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// projectOntoSchedule consumes the repayment against unpaid rows in
// installment order. The rows are an informational projection; the ledger
// stays the source of truth, so the amount is applied to each row's
// remaining total without re-splitting principal and interest.
func (s *CollectionService) projectOntoSchedule(ctx context.Context, tx any, loanID uuid.UUID, amount decimal.Decimal, paidAt time.Time) error {
	rows, err := s.schedules.UnpaidByLoanTx(ctx, tx, loanID)
	if err != nil {
		return err
	}
	remaining := amount
	for _, row := range rows {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(remaining, row.Remaining())
		if !take.IsPositive() {
			continue
		}
		row.TotalPaid = row.TotalPaid.Add(take)
		if row.TotalPaid.GreaterThanOrEqual(row.TotalDue) {
			row.Paid = true
			row.PaidAt = &paidAt
		}
		if err := s.schedules.UpdatePaymentTx(ctx, tx, row); err != nil {
			return err
		}
		remaining = remaining.Sub(take)
	}
	return nil
}

// Get returns one collection, access-checked through its loan.
func (s *CollectionService) Get(ctx context.Context, actor *domain.User, id uuid.UUID) (*domain.Collection, error) {
	collection, err := s.collections.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	loan, err := s.loans.GetByID(ctx, collection.LoanID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanAccessLoan(ctx, actor, loan); err != nil {
		return nil, err
	}
	return collection, nil
}

// List pages through collections with role-based scoping. Agents see their
// own recordings, customers the repayments on their own loans.
func (s *CollectionService) List(ctx context.Context, actor *domain.User, filter domain.CollectionFilter) ([]*domain.Collection, int64, error) {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
	case domain.RoleAgent:
		filter.AgentID = actor.ID
	case domain.RoleCustomer:
		customer, err := s.access.CustomerForUser(ctx, actor.ID)
		if err != nil {
			return nil, 0, err
		}
		filter.CustomerID = customer.ID
		filter.AgentID = uuid.Nil
	default:
		return nil, 0, domain.ErrForbidden
	}
	return s.collections.List(ctx, filter)
}

// Delete reverses a collection: ledger amounts are restored, the charge
// records and schedule rows its allocation consumed reopen, and a closed
// loan reopens. Admin, or a manager holding the delete-collections flag.
func (s *CollectionService) Delete(ctx context.Context, actor *domain.User, id uuid.UUID) error {
	allowed := actor.Role == domain.RoleAdmin ||
		(actor.Role == domain.RoleManager && actor.CanDeleteCollections)
	if !allowed {
		return domain.ErrForbidden
	}

	var loanID, customerID uuid.UUID
	err := s.store.WithTransaction(ctx, func(tx any) error {
		collection, err := s.collections.GetByID(ctx, id)
		if err != nil {
			return err
		}
		loan, err := s.loans.GetForUpdateTx(ctx, tx, collection.LoanID)
		if err != nil {
			return err
		}
		before := *loan

		loan.OutstandingInterest = money.Round(loan.OutstandingInterest.Add(collection.InterestPaid))
		loan.OutstandingPrincipal = money.Round(loan.OutstandingPrincipal.Add(collection.PrincipalPaid))
		loan.TotalCollected = money.Round(loan.TotalCollected.Sub(collection.Amount))
		loan.TotalLateFeesPaid = money.Round(loan.TotalLateFeesPaid.Sub(collection.LateFeePaid))
		loan.TotalPenaltiesPaid = money.Round(loan.TotalPenaltiesPaid.Sub(collection.PenaltyPaid))
		if err := s.loans.UpdateLedgerTx(ctx, tx, loan); err != nil {
			return err
		}
		if loan.Status == domain.LoanClosed && !loan.Settled() {
			loan.Status = domain.LoanActive
			loan.ClosedAt = nil
			if err := s.loans.UpdateStatusTx(ctx, tx, loan); err != nil {
				return err
			}
		}

		if collection.LateFeePaid.IsPositive() {
			if err := s.reverseChargePayments(ctx, tx, loan.ID, domain.ChargeRecordLateFee, collection.LateFeePaid); err != nil {
				return err
			}
		}
		if collection.PenaltyPaid.IsPositive() {
			if err := s.reverseChargePayments(ctx, tx, loan.ID, domain.ChargeRecordPenalty, collection.PenaltyPaid); err != nil {
				return err
			}
		}
		if err := s.reverseScheduleProjection(ctx, tx, loan.ID, collection.Amount); err != nil {
			return err
		}

		if err := s.collections.DeleteTx(ctx, tx, id); err != nil {
			return err
		}
		s.audit.RecordTx(ctx, tx, Entry(actor.ID, domain.AuditCollectionDeleted, "loan", loan.ID, &before, loan))
		loanID, customerID = loan.ID, loan.CustomerID
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, loanID, customerID)
	return nil
}

// reverseChargePayments hands amount back to the records that consumed it,
// newest applied first. Payments apply oldest-first, so reversing newest
// first unwinds the most recent collection cleanly.
func (s *CollectionService) reverseChargePayments(ctx context.Context, tx any, loanID uuid.UUID, kind domain.ChargeRecordKind, amount decimal.Decimal) error {
	records, err := s.chargeRecords.WithPaymentsByLoanTx(ctx, tx, loanID, kind)
	if err != nil {
		return err
	}
	remaining := amount
	for _, record := range records {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(remaining, record.PaidAmount)
		if !take.IsPositive() {
			continue
		}
		if err := s.chargeRecords.ReversePaymentTx(ctx, tx, record.ID, take); err != nil {
			return err
		}
		remaining = remaining.Sub(take)
	}
	return nil
}

// reverseScheduleProjection un-applies the collection amount from the rows
// it was projected onto, newest installment first.
func (s *CollectionService) reverseScheduleProjection(ctx context.Context, tx any, loanID uuid.UUID, amount decimal.Decimal) error {
	rows, err := s.schedules.WithPaymentsByLoanTx(ctx, tx, loanID)
	if err != nil {
		return err
	}
	remaining := amount
	for _, row := range rows {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(remaining, row.TotalPaid)
		if !take.IsPositive() {
			continue
		}
		row.TotalPaid = row.TotalPaid.Sub(take)
		if row.TotalPaid.LessThan(row.TotalDue) {
			row.Paid = false
			row.PaidAt = nil
		}
		if err := s.schedules.UpdatePaymentTx(ctx, tx, row); err != nil {
			return err
		}
		remaining = remaining.Sub(take)
	}
	return nil
}

func dueRecords(records []*domain.ChargeRecord) []calculator.DueRecord {
	dues := make([]calculator.DueRecord, 0, len(records))
	for _, r := range records {
		dues = append(dues, calculator.DueRecord{ID: r.ID, Remaining: r.Remaining()})
	}
	return dues
}

func (s *CollectionService) invalidate(ctx context.Context, loanID, customerID uuid.UUID) {
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

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
	"github.com/silambarasu-a/namma-finance-sub000/internal/testutil"
)

type accrualFixture struct {
	service   *AccrualService
	loans     *testutil.MockLoanRepository
	records   *testutil.MockChargeRecordRepository
	schedules *testutil.MockScheduleRepository
	audit     *testutil.MockAuditRepository
	cache     *testutil.MockCache
	asOf      time.Time
}

func newAccrualFixture() *accrualFixture {
	f := &accrualFixture{
		loans:     testutil.NewMockLoanRepository(),
		records:   testutil.NewMockChargeRecordRepository(),
		schedules: testutil.NewMockScheduleRepository(),
		audit:     testutil.NewMockAuditRepository(),
		cache:     testutil.NewMockCache(),
		// Fixed reference time so overdue day counts come out exact.
		asOf: time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC),
	}
	f.service = NewAccrualService(
		testutil.NewMockStore(), f.loans, f.records, f.schedules,
		NewAuditService(f.audit), f.cache,
	)
	return f
}

// addOverdueLoan seeds an active loan with a single unpaid installment due
// daysAgo days before the fixture's reference time.
func (f *accrualFixture) addOverdueLoan(installment string, graceDays, daysAgo int) *domain.Loan {
	now := f.asOf
	loan := &domain.Loan{
		Principal:            dec("100000"),
		InterestRate:         dec("12.000"),
		TenureInstallments:   12,
		Frequency:            domain.FrequencyMonthly,
		RepaymentType:        domain.RepaymentEMI,
		GracePeriodDays:      graceDays,
		LateFeeDailyRate:     dec("0.500"),
		InstallmentAmount:    dec(installment),
		OutstandingPrincipal: dec("100000"),
		OutstandingInterest:  dec("1000.00"),
		StartDate:            now.AddDate(0, -2, 0),
		DisbursedAt:          &now,
		Status:               domain.LoanActive,
		CustomerID:           uuid.New(),
	}
	f.loans.AddLoan(loan)
	f.schedules.Rows[loan.ID] = append(f.schedules.Rows[loan.ID], &domain.ScheduleRow{
		ID:            uuid.New(),
		LoanID:        loan.ID,
		InstallmentNo: 1,
		DueDate:       now.AddDate(0, 0, -daysAgo),
		PrincipalDue:  dec("7884.88"),
		InterestDue:   dec("1000.00"),
		TotalDue:      dec(installment),
	})
	return loan
}

func TestAccrueLateFees_CreatesRecordPastGrace(t *testing.T) {
	f := newAccrualFixture()
	loan := f.addOverdueLoan("1000.00", 3, 10)

	accrued, err := f.service.AccrueLateFees(context.Background(), f.asOf)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if accrued != 1 {
		t.Fatalf("Expected 1 loan accrued, got %d", accrued)
	}

	records, _ := f.records.ListByLoan(context.Background(), loan.ID)
	if len(records) != 1 {
		t.Fatalf("Expected one late fee record, got %d", len(records))
	}
	record := records[0]
	if record.Kind != domain.ChargeRecordLateFee {
		t.Errorf("Expected a late fee, got %s", record.Kind)
	}
	// 1000 · 0.5% · 7 late days past the 3-day grace.
	if record.Amount.StringFixed(2) != "35.00" {
		t.Errorf("Expected fee 35.00, got %s", record.Amount)
	}
	if record.DaysOverdue != 7 {
		t.Errorf("Expected 7 days overdue, got %d", record.DaysOverdue)
	}
	if len(f.audit.Entries) != 1 || f.audit.Entries[0].Action != domain.AuditLateFeeAccrued {
		t.Error("Expected an accrual audit entry")
	}
}

func TestAccrueLateFees_SkipsWithinGrace(t *testing.T) {
	f := newAccrualFixture()
	loan := f.addOverdueLoan("1000.00", 5, 4)

	accrued, err := f.service.AccrueLateFees(context.Background(), f.asOf)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if accrued != 0 {
		t.Errorf("Expected nothing accrued inside grace, got %d", accrued)
	}
	records, _ := f.records.ListByLoan(context.Background(), loan.ID)
	if len(records) != 0 {
		t.Errorf("Expected no records, got %d", len(records))
	}
}

func TestAccrueLateFees_ReplayConverges(t *testing.T) {
	f := newAccrualFixture()
	loan := f.addOverdueLoan("1000.00", 0, 10)
	asOf := f.asOf

	for i := 0; i < 2; i++ {
		if _, err := f.service.AccrueLateFees(context.Background(), asOf); err != nil {
			t.Fatalf("Expected no error on pass %d, got %v", i+1, err)
		}
	}

	records, _ := f.records.ListByLoan(context.Background(), loan.ID)
	if len(records) != 1 {
		t.Fatalf("Expected one record after replay, got %d", len(records))
	}
	if records[0].Amount.StringFixed(2) != "50.00" {
		t.Errorf("Expected fee unchanged at 50.00, got %s", records[0].Amount)
	}
}

func TestAccrueLateFees_GrowsRecordAsDaysPass(t *testing.T) {
	f := newAccrualFixture()
	loan := f.addOverdueLoan("1000.00", 0, 10)
	asOf := f.asOf

	if _, err := f.service.AccrueLateFees(context.Background(), asOf); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := f.service.AccrueLateFees(context.Background(), asOf.AddDate(0, 0, 2)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	records, _ := f.records.ListByLoan(context.Background(), loan.ID)
	if len(records) != 1 {
		t.Fatalf("Expected the record to grow, not duplicate, got %d", len(records))
	}
	if records[0].Amount.StringFixed(2) != "60.00" {
		t.Errorf("Expected fee 60.00 after 12 late days, got %s", records[0].Amount)
	}
	if records[0].DaysOverdue != 12 {
		t.Errorf("Expected 12 days overdue, got %d", records[0].DaysOverdue)
	}
}

func TestAccrueLateFees_SkipsTerminalAndZeroRateLoans(t *testing.T) {
	f := newAccrualFixture()
	closed := f.addOverdueLoan("1000.00", 0, 10)
	closed.Status = domain.LoanClosed
	zeroRate := f.addOverdueLoan("1000.00", 0, 10)
	zeroRate.LateFeeDailyRate = dec("0")

	accrued, err := f.service.AccrueLateFees(context.Background(), f.asOf)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if accrued != 0 {
		t.Errorf("Expected nothing accrued, got %d", accrued)
	}
}

func TestAccruedFeeIsConsumedByCollection(t *testing.T) {
	f := newAccrualFixture()
	loan := f.addOverdueLoan("1000.00", 0, 10)

	if _, err := f.service.AccrueLateFees(context.Background(), f.asOf); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	customer := &domain.Customer{ID: loan.CustomerID, UserID: uuid.New(), KYCStatus: domain.KYCVerified, Active: true}
	customers := testutil.NewMockCustomerRepository()
	customers.AddCustomer(customer)
	collections := collectionsOver(f, customers)

	result, err := collections.Record(context.Background(), adminUser(), RecordInput{
		LoanID: loan.ID,
		Amount: dec("100"),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Allocation.LateFeePaid.StringFixed(2) != "50.00" {
		t.Errorf("Expected the accrued fee paid first, got %s", result.Allocation.LateFeePaid)
	}
	if result.Allocation.InterestPaid.StringFixed(2) != "50.00" {
		t.Errorf("Expected the remainder on interest, got %s", result.Allocation.InterestPaid)
	}
}

// collectionsOver builds a collection service sharing the accrual fixture's
// loan, charge record, and schedule stores.
func collectionsOver(f *accrualFixture, customers *testutil.MockCustomerRepository) *CollectionService {
	access := NewAccessService(customers, testutil.NewMockAssignmentRepository())
	return NewCollectionService(
		testutil.NewMockStore(), f.loans, testutil.NewMockCollectionRepository(),
		f.records, f.schedules, access, NewAuditService(f.audit),
		f.cache, testutil.NewMockPublisher(),
	)
}

func TestApplyPenalty_DefaultsToRateOnOutstanding(t *testing.T) {
	f := newAccrualFixture()
	loan := f.addOverdueLoan("1000.00", 0, 10)
	loan.PenaltyRate = dec("2.000")

	record, err := f.service.ApplyPenalty(context.Background(), adminUser(), loan.ID, PenaltyInput{Reason: "repeated default"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if record.Kind != domain.ChargeRecordPenalty {
		t.Errorf("Expected a penalty record, got %s", record.Kind)
	}
	// 2% of the 100000 outstanding principal.
	if record.Amount.StringFixed(2) != "2000.00" {
		t.Errorf("Expected penalty 2000.00, got %s", record.Amount)
	}
	if len(f.audit.Entries) != 1 || f.audit.Entries[0].Action != domain.AuditPenaltyApplied {
		t.Error("Expected a penalty audit entry")
	}
}

func TestApplyPenalty_ExplicitAmount(t *testing.T) {
	f := newAccrualFixture()
	loan := f.addOverdueLoan("1000.00", 0, 10)
	amount := dec("150.00")

	record, err := f.service.ApplyPenalty(context.Background(), adminUser(), loan.ID, PenaltyInput{Amount: &amount})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if record.Amount.StringFixed(2) != "150.00" {
		t.Errorf("Expected penalty 150.00, got %s", record.Amount)
	}
}

func TestApplyPenalty_RejectsNonActiveLoan(t *testing.T) {
	f := newAccrualFixture()
	loan := f.addOverdueLoan("1000.00", 0, 10)
	loan.Status = domain.LoanClosed
	amount := dec("150.00")

	_, err := f.service.ApplyPenalty(context.Background(), adminUser(), loan.ID, PenaltyInput{Amount: &amount})
	if !errors.Is(err, domain.ErrLoanNotActive) {
		t.Errorf("Expected ErrLoanNotActive, got %v", err)
	}
}

func TestApplyPenalty_AgentForbidden(t *testing.T) {
	f := newAccrualFixture()
	loan := f.addOverdueLoan("1000.00", 0, 10)
	amount := dec("150.00")

	_, err := f.service.ApplyPenalty(context.Background(), agentUser(), loan.ID, PenaltyInput{Amount: &amount})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}
}

func TestApplyPenalty_RejectsZeroAmount(t *testing.T) {
	f := newAccrualFixture()
	loan := f.addOverdueLoan("1000.00", 0, 10)
	loan.PenaltyRate = dec("0")

	_, err := f.service.ApplyPenalty(context.Background(), adminUser(), loan.ID, PenaltyInput{})
	if !errors.Is(err, domain.ErrAmountInvalid) {
		t.Errorf("Expected ErrAmountInvalid, got %v", err)
	}
}

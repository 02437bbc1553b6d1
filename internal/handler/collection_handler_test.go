package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
	"github.com/silambarasu-a/namma-finance-sub000/internal/service"
	"github.com/silambarasu-a/namma-finance-sub000/internal/testutil"
)

type collectionHandlerFixture struct {
	handler   *CollectionHandler
	loans     *testutil.MockLoanRepository
	customers *testutil.MockCustomerRepository
}

func newCollectionHandlerFixture() *collectionHandlerFixture {
	f := &collectionHandlerFixture{
		loans:     testutil.NewMockLoanRepository(),
		customers: testutil.NewMockCustomerRepository(),
	}
	access := service.NewAccessService(f.customers, testutil.NewMockAssignmentRepository())
	collectionService := service.NewCollectionService(
		testutil.NewMockStore(), f.loans, testutil.NewMockCollectionRepository(),
		testutil.NewMockChargeRecordRepository(), testutil.NewMockScheduleRepository(),
		access, service.NewAuditService(testutil.NewMockAuditRepository()),
		testutil.NewMockCache(), testutil.NewMockPublisher(),
	)
	f.handler = NewCollectionHandler(collectionService)
	return f
}

func (f *collectionHandlerFixture) addActiveLoan(principal, interest string) *domain.Loan {
	customer := &domain.Customer{UserID: uuid.New(), KYCStatus: domain.KYCVerified, Active: true}
	f.customers.AddCustomer(customer)

	mustDec := func(s string) decimal.Decimal {
		d, err := decimal.NewFromString(s)
		if err != nil {
			panic(err)
		}
		return d
	}
	now := time.Now().UTC()
	loan := &domain.Loan{
		CustomerID:           customer.ID,
		Principal:            mustDec(principal),
		InterestRate:         mustDec("12.000"),
		TenureInstallments:   12,
		Frequency:            domain.FrequencyMonthly,
		RepaymentType:        domain.RepaymentEMI,
		OutstandingPrincipal: mustDec(principal),
		OutstandingInterest:  mustDec(interest),
		StartDate:            now,
		DisbursedAt:          &now,
		Status:               domain.LoanActive,
	}
	f.loans.AddLoan(loan)
	return loan
}

func TestRecordCollectionEndpoint_Returns201(t *testing.T) {
	f := newCollectionHandlerFixture()
	loan := f.addActiveLoan("50000", "3000")

	body := `{"loanId": "` + loan.ID.String() + `", "amount": "6000", "paymentMethod": "cash"}`
	c, rec := request(http.MethodPost, "/api/v1/collections", body, admin())
	if err := f.handler.RecordCollection(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var result service.RecordResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Expected allocation JSON, got %v", err)
	}
	if result.Collection.ReceiptNumber == "" {
		t.Error("Expected a receipt number")
	}
	if result.Allocation.InterestPaid.StringFixed(2) != "3000.00" {
		t.Errorf("Expected interest allocation 3000.00, got %s", result.Allocation.InterestPaid)
	}
	if result.Loan.OutstandingPrincipal.StringFixed(2) != "47000.00" {
		t.Errorf("Expected outstanding principal 47000.00, got %s", result.Loan.OutstandingPrincipal)
	}
}

func TestRecordCollectionEndpoint_OverpaymentDetail(t *testing.T) {
	f := newCollectionHandlerFixture()
	loan := f.addActiveLoan("800", "200")

	body := `{"loanId": "` + loan.ID.String() + `", "amount": "1000.01"}`
	c, rec := request(http.MethodPost, "/api/v1/collections", body, admin())
	if err := f.handler.RecordCollection(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d", rec.Code)
	}

	var resp struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Expected error envelope, got %v", err)
	}
	if resp.Error != "amount exceeds outstanding total" {
		t.Errorf("Expected overpayment error, got %q", resp.Error)
	}
	if resp.Details["outstanding"] != "1000.00" {
		t.Errorf("Expected outstanding 1000.00 in details, got %q", resp.Details["outstanding"])
	}
}

func TestRecordCollectionEndpoint_BadAmount(t *testing.T) {
	f := newCollectionHandlerFixture()

	body := `{"loanId": "` + uuid.NewString() + `", "amount": "lots"}`
	c, rec := request(http.MethodPost, "/api/v1/collections", body, admin())
	if err := f.handler.RecordCollection(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestGetCollectionsEndpoint_BadDateFilter(t *testing.T) {
	f := newCollectionHandlerFixture()

	c, rec := request(http.MethodGet, "/api/v1/collections?startDate=last-tuesday", "", admin())
	if err := f.handler.GetCollections(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

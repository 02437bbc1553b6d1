package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
	"github.com/silambarasu-a/namma-finance-sub000/internal/middleware"
	"github.com/silambarasu-a/namma-finance-sub000/internal/service"
	"github.com/silambarasu-a/namma-finance-sub000/internal/testutil"
)

type loanHandlerFixture struct {
	handler   *LoanHandler
	loans     *testutil.MockLoanRepository
	customers *testutil.MockCustomerRepository
	queue     *testutil.MockQueue
}

func newLoanHandlerFixture() *loanHandlerFixture {
	f := &loanHandlerFixture{
		loans:     testutil.NewMockLoanRepository(),
		customers: testutil.NewMockCustomerRepository(),
		queue:     testutil.NewMockQueue(),
	}
	assignments := testutil.NewMockAssignmentRepository()
	access := service.NewAccessService(f.customers, assignments)
	records := testutil.NewMockChargeRecordRepository()
	schedules := testutil.NewMockScheduleRepository()
	store := testutil.NewMockStore()
	audit := service.NewAuditService(testutil.NewMockAuditRepository())
	cache := testutil.NewMockCache()
	loanService := service.NewLoanService(
		store, f.loans, testutil.NewMockLoanChargeRepository(),
		records, schedules,
		testutil.NewMockCollectionRepository(), f.customers, access,
		audit, f.queue, cache, testutil.NewMockPublisher(),
	)
	accrualService := service.NewAccrualService(store, f.loans, records, schedules, audit, cache)
	f.handler = NewLoanHandler(loanService, accrualService)
	return f
}

func admin() *domain.User {
	return &domain.User{ID: uuid.New(), Email: "admin@test.local", Name: "Admin", Role: domain.RoleAdmin, Active: true}
}

// request builds an authenticated echo context with the actor loaded the
// way the auth middleware would.
func request(method, path, body string, actor *domain.User) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if actor != nil {
		ctx := context.WithValue(req.Context(), middleware.UserKey, actor)
		c.SetRequest(req.WithContext(ctx))
	}
	return c, rec
}

func TestCreateLoanEndpoint_Returns201(t *testing.T) {
	f := newLoanHandlerFixture()
	customer := &domain.Customer{UserID: uuid.New(), KYCStatus: domain.KYCVerified, Active: true}
	f.customers.AddCustomer(customer)

	body := `{
		"customerId": "` + customer.ID.String() + `",
		"principal": "100000",
		"interestRate": "12",
		"tenureInstallments": 12,
		"frequency": "monthly",
		"charges": [{"type": "processing-fee", "amount": "1500"}]
	}`
	c, rec := request(http.MethodPost, "/api/v1/loans", body, admin())
	if err := f.handler.CreateLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var loan domain.Loan
	if err := json.Unmarshal(rec.Body.Bytes(), &loan); err != nil {
		t.Fatalf("Expected loan JSON, got %v", err)
	}
	if loan.Number == "" {
		t.Error("Expected a loan number")
	}
	if loan.InstallmentAmount.StringFixed(2) != "8884.88" {
		t.Errorf("Expected installment 8884.88, got %s", loan.InstallmentAmount)
	}
	if len(f.queue.Jobs) != 1 {
		t.Errorf("Expected a deferred schedule job, got %d", len(f.queue.Jobs))
	}
}

func TestCreateLoanEndpoint_BadPrincipal(t *testing.T) {
	f := newLoanHandlerFixture()

	body := `{"customerId": "` + uuid.NewString() + `", "principal": "not-a-number", "interestRate": "12", "tenureInstallments": 12, "frequency": "monthly"}`
	c, rec := request(http.MethodPost, "/api/v1/loans", body, admin())
	if err := f.handler.CreateLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Expected error envelope, got %v", err)
	}
	if resp.Error != "validation failed" {
		t.Errorf("Expected validation failed, got %q", resp.Error)
	}
}

func TestCreateLoanEndpoint_UnknownCustomer(t *testing.T) {
	f := newLoanHandlerFixture()

	body := `{"customerId": "` + uuid.NewString() + `", "principal": "50000", "interestRate": "12", "tenureInstallments": 10, "frequency": "monthly"}`
	c, rec := request(http.MethodPost, "/api/v1/loans", body, admin())
	if err := f.handler.CreateLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestUpdateLoanEndpoint_UnknownAction(t *testing.T) {
	f := newLoanHandlerFixture()

	c, rec := request(http.MethodPatch, "/api/v1/loans/"+uuid.NewString(), `{"action":"vaporize"}`, admin())
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())
	if err := f.handler.UpdateLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestGetLoanEndpoint_InvalidID(t *testing.T) {
	f := newLoanHandlerFixture()

	c, rec := request(http.MethodGet, "/api/v1/loans/nope", "", admin())
	c.SetParamNames("id")
	c.SetParamValues("nope")
	if err := f.handler.GetLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestGetLoansEndpoint_BadStatusFilter(t *testing.T) {
	f := newLoanHandlerFixture()

	c, rec := request(http.MethodGet, "/api/v1/loans?status=vaporized", "", admin())
	if err := f.handler.GetLoans(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestGetLoansEndpoint_StatusFilter(t *testing.T) {
	f := newLoanHandlerFixture()

	for _, status := range []domain.LoanStatus{
		domain.LoanPending, domain.LoanActive, domain.LoanClosed,
		domain.LoanPreclosed, domain.LoanDefaulted,
	} {
		c, rec := request(http.MethodGet, "/api/v1/loans?status="+string(status), "", admin())
		if err := f.handler.GetLoans(c); err != nil {
			t.Fatalf("Expected no error for status %s, got %v", status, err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200 for status %s, got %d", status, rec.Code)
		}
	}
}

func TestApplyPenaltyEndpoint_Returns201(t *testing.T) {
	f := newLoanHandlerFixture()
	customer := &domain.Customer{UserID: uuid.New(), KYCStatus: domain.KYCVerified, Active: true}
	f.customers.AddCustomer(customer)
	loan := &domain.Loan{
		CustomerID:           customer.ID,
		Status:               domain.LoanActive,
		OutstandingPrincipal: mustParseDecimal(t, "10000"),
	}
	f.loans.AddLoan(loan)

	c, rec := request(http.MethodPost, "/api/v1/loans/"+loan.ID.String()+"/penalty",
		`{"amount": "250.00", "reason": "bounced cheque"}`, admin())
	c.SetParamNames("id")
	c.SetParamValues(loan.ID.String())
	if err := f.handler.ApplyPenalty(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var record domain.ChargeRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &record); err != nil {
		t.Fatalf("Expected charge record JSON, got %v", err)
	}
	if record.Kind != domain.ChargeRecordPenalty {
		t.Errorf("Expected penalty record, got %s", record.Kind)
	}
	if record.Amount.StringFixed(2) != "250.00" {
		t.Errorf("Expected amount 250.00, got %s", record.Amount)
	}
}

func TestApplyPenaltyEndpoint_BadAmount(t *testing.T) {
	f := newLoanHandlerFixture()

	c, rec := request(http.MethodPost, "/api/v1/loans/"+uuid.NewString()+"/penalty",
		`{"amount": "lots"}`, admin())
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())
	if err := f.handler.ApplyPenalty(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func mustParseDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

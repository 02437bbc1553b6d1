// Package testutil provides hand-rolled in-memory mocks of the domain
// repositories and service ports for unit tests.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
)

// MockStore is a mock implementation of domain.TxManager. Transactions are
// a pass-through; rollback is not simulated.
type MockStore struct {
	BeginErr    error
	RetryableFn func(err error) bool
}

func NewMockStore() *MockStore {
	return &MockStore{}
}

func (m *MockStore) WithTransaction(ctx context.Context, fn func(tx any) error) error {
	if m.BeginErr != nil {
		return m.BeginErr
	}
	return fn(struct{}{})
}

func (m *MockStore) IsRetryable(err error) bool {
	if m.RetryableFn != nil {
		return m.RetryableFn(err)
	}
	return false
}

// MockUserRepository is a mock implementation of domain.UserRepository.
type MockUserRepository struct {
	Users   map[uuid.UUID]*domain.User
	ByEmail map[string]*domain.User
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:   make(map[uuid.UUID]*domain.User),
		ByEmail: make(map[string]*domain.User),
	}
}

// AddUser adds a user to the mock repository (helper for tests).
func (m *MockUserRepository) AddUser(user *domain.User) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	m.Users[user.ID] = user
	m.ByEmail[user.Email] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if _, ok := m.ByEmail[user.Email]; ok {
		return nil, domain.ErrEmailTaken
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	m.AddUser(user)
	return user, nil
}

func (m *MockUserRepository) CreateTx(ctx context.Context, tx any, user *domain.User) (*domain.User, error) {
	return m.Create(ctx, user)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if user, ok := m.Users[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if user, ok := m.ByEmail[email]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) List(ctx context.Context, page, limit int) ([]*domain.User, int64, error) {
	users := make([]*domain.User, 0, len(m.Users))
	for _, u := range m.Users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, int64(len(users)), nil
}

func (m *MockUserRepository) UpdateFlags(ctx context.Context, id uuid.UUID, canDeleteCollections, canDeleteCustomers, canDeleteUsers bool) (*domain.User, error) {
	user, ok := m.Users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user.CanDeleteCollections = canDeleteCollections
	user.CanDeleteCustomers = canDeleteCustomers
	user.CanDeleteUsers = canDeleteUsers
	return user, nil
}

func (m *MockUserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	user, ok := m.Users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.Active = active
	return nil
}

// MockCustomerRepository is a mock implementation of domain.CustomerRepository.
type MockCustomerRepository struct {
	Customers map[uuid.UUID]*domain.Customer
	ByUserID  map[uuid.UUID]*domain.Customer
}

func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{
		Customers: make(map[uuid.UUID]*domain.Customer),
		ByUserID:  make(map[uuid.UUID]*domain.Customer),
	}
}

// AddCustomer adds a customer to the mock repository (helper for tests).
func (m *MockCustomerRepository) AddCustomer(customer *domain.Customer) {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	m.Customers[customer.ID] = customer
	m.ByUserID[customer.UserID] = customer
}

func (m *MockCustomerRepository) CreateTx(ctx context.Context, tx any, customer *domain.Customer) (*domain.Customer, error) {
	customer.ID = uuid.New()
	customer.CreatedAt = time.Now()
	m.AddCustomer(customer)
	return customer, nil
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	if customer, ok := m.Customers[id]; ok {
		return customer, nil
	}
	return nil, domain.ErrCustomerNotFound
}

func (m *MockCustomerRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Customer, error) {
	if customer, ok := m.ByUserID[userID]; ok {
		return customer, nil
	}
	return nil, domain.ErrCustomerNotFound
}

func (m *MockCustomerRepository) List(ctx context.Context, page, limit int) ([]*domain.Customer, int64, error) {
	customers := make([]*domain.Customer, 0, len(m.Customers))
	for _, c := range m.Customers {
		customers = append(customers, c)
	}
	return customers, int64(len(customers)), nil
}

func (m *MockCustomerRepository) ListByAgent(ctx context.Context, agentID uuid.UUID, page, limit int) ([]*domain.Customer, int64, error) {
	return nil, 0, nil
}

func (m *MockCustomerRepository) UpdateKYC(ctx context.Context, id uuid.UUID, status domain.KYCStatus) error {
	customer, ok := m.Customers[id]
	if !ok {
		return domain.ErrCustomerNotFound
	}
	customer.KYCStatus = status
	return nil
}

func (m *MockCustomerRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	customer, ok := m.Customers[id]
	if !ok {
		return domain.ErrCustomerNotFound
	}
	customer.Active = false
	return nil
}

// MockAssignmentRepository is a mock implementation of domain.AssignmentRepository.
type MockAssignmentRepository struct {
	Assignments []*domain.AgentAssignment
}

func NewMockAssignmentRepository() *MockAssignmentRepository {
	return &MockAssignmentRepository{}
}

func (m *MockAssignmentRepository) Create(ctx context.Context, assignment *domain.AgentAssignment) (*domain.AgentAssignment, error) {
	assignment.ID = uuid.New()
	assignment.Active = true
	assignment.CreatedAt = time.Now()
	m.Assignments = append(m.Assignments, assignment)
	return assignment, nil
}

func (m *MockAssignmentRepository) ActiveAgentFor(ctx context.Context, customerID uuid.UUID) (*domain.AgentAssignment, error) {
	for _, a := range m.Assignments {
		if a.CustomerID == customerID && a.Active {
			return a, nil
		}
	}
	return nil, domain.ErrAssignmentNotFound
}

func (m *MockAssignmentRepository) HasActiveAssignment(ctx context.Context, agentID, customerID uuid.UUID) (bool, error) {
	for _, a := range m.Assignments {
		if a.AgentID == agentID && a.CustomerID == customerID && a.Active {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockAssignmentRepository) DeactivateForCustomer(ctx context.Context, customerID uuid.UUID) error {
	for _, a := range m.Assignments {
		if a.CustomerID == customerID {
			a.Active = false
		}
	}
	return nil
}

func (m *MockAssignmentRepository) ListByAgent(ctx context.Context, agentID uuid.UUID) ([]*domain.AgentAssignment, error) {
	var result []*domain.AgentAssignment
	for _, a := range m.Assignments {
		if a.AgentID == agentID && a.Active {
			result = append(result, a)
		}
	}
	return result, nil
}

// MockLoanRepository is a mock implementation of domain.LoanRepository.
type MockLoanRepository struct {
	Loans      map[uuid.UUID]*domain.Loan
	NextNum    int
	ForUpdates int // number of GetForUpdateTx calls, for lock assertions
}

func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{Loans: make(map[uuid.UUID]*domain.Loan), NextNum: 1}
}

// AddLoan adds a loan to the mock repository (helper for tests).
func (m *MockLoanRepository) AddLoan(loan *domain.Loan) {
	if loan.ID == uuid.Nil {
		loan.ID = uuid.New()
	}
	m.Loans[loan.ID] = loan
}

func (m *MockLoanRepository) CreateTx(ctx context.Context, tx any, loan *domain.Loan) (*domain.Loan, error) {
	loan.ID = uuid.New()
	loan.CreatedAt = time.Now()
	m.Loans[loan.ID] = loan
	return loan, nil
}

func (m *MockLoanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	if loan, ok := m.Loans[id]; ok {
		return loan, nil
	}
	return nil, domain.ErrLoanNotFound
}

func (m *MockLoanRepository) GetForUpdateTx(ctx context.Context, tx any, id uuid.UUID) (*domain.Loan, error) {
	m.ForUpdates++
	return m.GetByID(ctx, id)
}

func (m *MockLoanRepository) UpdateLedgerTx(ctx context.Context, tx any, loan *domain.Loan) error {
	if _, ok := m.Loans[loan.ID]; !ok {
		return domain.ErrLoanNotFound
	}
	m.Loans[loan.ID] = loan
	return nil
}

func (m *MockLoanRepository) UpdateStatusTx(ctx context.Context, tx any, loan *domain.Loan) error {
	if _, ok := m.Loans[loan.ID]; !ok {
		return domain.ErrLoanNotFound
	}
	m.Loans[loan.ID] = loan
	return nil
}

func (m *MockLoanRepository) DeleteTx(ctx context.Context, tx any, id uuid.UUID) error {
	if _, ok := m.Loans[id]; !ok {
		return domain.ErrLoanNotFound
	}
	delete(m.Loans, id)
	return nil
}

func (m *MockLoanRepository) List(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, int64, error) {
	var result []*domain.Loan
	for _, l := range m.Loans {
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if filter.CustomerID != uuid.Nil && l.CustomerID != filter.CustomerID {
			continue
		}
		result = append(result, l)
	}
	return result, int64(len(result)), nil
}

func (m *MockLoanRepository) NextNumber(ctx context.Context, tx any) (string, error) {
	n := m.NextNum
	m.NextNum++
	return fmt.Sprintf("LN-%06d", n), nil
}

// MockLoanChargeRepository is a mock implementation of domain.LoanChargeRepository.
type MockLoanChargeRepository struct {
	Charges map[uuid.UUID][]*domain.LoanCharge
}

func NewMockLoanChargeRepository() *MockLoanChargeRepository {
	return &MockLoanChargeRepository{Charges: make(map[uuid.UUID][]*domain.LoanCharge)}
}

func (m *MockLoanChargeRepository) CreateTx(ctx context.Context, tx any, charge *domain.LoanCharge) (*domain.LoanCharge, error) {
	charge.ID = uuid.New()
	charge.CreatedAt = time.Now()
	m.Charges[charge.LoanID] = append(m.Charges[charge.LoanID], charge)
	return charge, nil
}

func (m *MockLoanChargeRepository) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.LoanCharge, error) {
	return m.Charges[loanID], nil
}

// MockScheduleRepository is a mock implementation of domain.ScheduleRepository.
type MockScheduleRepository struct {
	Rows map[uuid.UUID][]*domain.ScheduleRow
}

func NewMockScheduleRepository() *MockScheduleRepository {
	return &MockScheduleRepository{Rows: make(map[uuid.UUID][]*domain.ScheduleRow)}
}

func (m *MockScheduleRepository) BatchInsertTx(ctx context.Context, tx any, rows []*domain.ScheduleRow) (int, error) {
	inserted := 0
	for _, row := range rows {
		exists := false
		for _, have := range m.Rows[row.LoanID] {
			if have.InstallmentNo == row.InstallmentNo {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		row.ID = uuid.New()
		m.Rows[row.LoanID] = append(m.Rows[row.LoanID], row)
		inserted++
	}
	return inserted, nil
}

func (m *MockScheduleRepository) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.ScheduleRow, error) {
	rows := m.Rows[loanID]
	sort.Slice(rows, func(i, j int) bool { return rows[i].InstallmentNo < rows[j].InstallmentNo })
	return rows, nil
}

func (m *MockScheduleRepository) UnpaidByLoanTx(ctx context.Context, tx any, loanID uuid.UUID) ([]*domain.ScheduleRow, error) {
	all, _ := m.ListByLoan(ctx, loanID)
	var unpaid []*domain.ScheduleRow
	for _, row := range all {
		if !row.Paid {
			unpaid = append(unpaid, row)
		}
	}
	return unpaid, nil
}

func (m *MockScheduleRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]*domain.ScheduleRow, error) {
	var result []*domain.ScheduleRow
	for _, rows := range m.Rows {
		for _, row := range rows {
			if !row.Paid && row.DueDate.Before(asOf) {
				result = append(result, row)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].LoanID != result[j].LoanID {
			return result[i].LoanID.String() < result[j].LoanID.String()
		}
		return result[i].InstallmentNo < result[j].InstallmentNo
	})
	return result, nil
}

func (m *MockScheduleRepository) WithPaymentsByLoanTx(ctx context.Context, tx any, loanID uuid.UUID) ([]*domain.ScheduleRow, error) {
	all, _ := m.ListByLoan(ctx, loanID)
	var result []*domain.ScheduleRow
	for _, row := range all {
		if row.TotalPaid.IsPositive() {
			result = append(result, row)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].InstallmentNo > result[j].InstallmentNo })
	return result, nil
}

func (m *MockScheduleRepository) UpdatePaymentTx(ctx context.Context, tx any, row *domain.ScheduleRow) error {
	for _, have := range m.Rows[row.LoanID] {
		if have.ID == row.ID {
			*have = *row
			return nil
		}
	}
	return domain.ErrNotFound
}

// MockCollectionRepository is a mock implementation of domain.CollectionRepository.
// Loans, when set, resolves the customer scoping filter in List.
type MockCollectionRepository struct {
	Collections map[uuid.UUID]*domain.Collection
	Receipts    map[string]bool
	Loans       *MockLoanRepository
}

func NewMockCollectionRepository() *MockCollectionRepository {
	return &MockCollectionRepository{
		Collections: make(map[uuid.UUID]*domain.Collection),
		Receipts:    make(map[string]bool),
	}
}

func (m *MockCollectionRepository) CreateTx(ctx context.Context, tx any, collection *domain.Collection) (*domain.Collection, error) {
	if m.Receipts[collection.ReceiptNumber] {
		return nil, domain.ErrReceiptConflict
	}
	collection.ID = uuid.New()
	collection.CreatedAt = time.Now()
	m.Collections[collection.ID] = collection
	m.Receipts[collection.ReceiptNumber] = true
	return collection, nil
}

func (m *MockCollectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Collection, error) {
	if collection, ok := m.Collections[id]; ok {
		return collection, nil
	}
	return nil, domain.ErrCollectionNotFound
}

func (m *MockCollectionRepository) List(ctx context.Context, filter domain.CollectionFilter) ([]*domain.Collection, int64, error) {
	var result []*domain.Collection
	for _, c := range m.Collections {
		if filter.LoanID != uuid.Nil && c.LoanID != filter.LoanID {
			continue
		}
		if filter.AgentID != uuid.Nil && c.AgentID != filter.AgentID {
			continue
		}
		if filter.CustomerID != uuid.Nil {
			if m.Loans == nil {
				continue
			}
			loan, ok := m.Loans.Loans[c.LoanID]
			if !ok || loan.CustomerID != filter.CustomerID {
				continue
			}
		}
		result = append(result, c)
	}
	return result, int64(len(result)), nil
}

func (m *MockCollectionRepository) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.Collection, error) {
	var result []*domain.Collection
	for _, c := range m.Collections {
		if c.LoanID == loanID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *MockCollectionRepository) DeleteTx(ctx context.Context, tx any, id uuid.UUID) error {
	if _, ok := m.Collections[id]; !ok {
		return domain.ErrCollectionNotFound
	}
	delete(m.Collections, id)
	return nil
}

// MockChargeRecordRepository is a mock implementation of domain.ChargeRecordRepository.
type MockChargeRecordRepository struct {
	Records []*domain.ChargeRecord
}

func NewMockChargeRecordRepository() *MockChargeRecordRepository {
	return &MockChargeRecordRepository{}
}

// AddRecord adds a charge record (helper for tests).
func (m *MockChargeRecordRepository) AddRecord(record *domain.ChargeRecord) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	m.Records = append(m.Records, record)
}

func (m *MockChargeRecordRepository) CreateTx(ctx context.Context, tx any, record *domain.ChargeRecord) (*domain.ChargeRecord, error) {
	record.ID = uuid.New()
	m.Records = append(m.Records, record)
	return record, nil
}

func (m *MockChargeRecordRepository) ByReasonTx(ctx context.Context, tx any, loanID uuid.UUID, kind domain.ChargeRecordKind, reason string) ([]*domain.ChargeRecord, error) {
	var result []*domain.ChargeRecord
	for _, r := range m.Records {
		if r.LoanID == loanID && r.Kind == kind && r.Reason == reason {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AppliedAt.Before(result[j].AppliedAt) })
	return result, nil
}

func (m *MockChargeRecordRepository) IncreaseAmountTx(ctx context.Context, tx any, id uuid.UUID, delta decimal.Decimal, daysOverdue int) error {
	for _, r := range m.Records {
		if r.ID == id && !r.Paid {
			r.Amount = r.Amount.Add(delta)
			r.DaysOverdue = daysOverdue
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *MockChargeRecordRepository) WithPaymentsByLoanTx(ctx context.Context, tx any, loanID uuid.UUID, kind domain.ChargeRecordKind) ([]*domain.ChargeRecord, error) {
	var result []*domain.ChargeRecord
	for _, r := range m.Records {
		if r.LoanID == loanID && r.Kind == kind && r.PaidAmount.IsPositive() {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[j].AppliedAt.Before(result[i].AppliedAt) })
	return result, nil
}

func (m *MockChargeRecordRepository) UnpaidByLoanTx(ctx context.Context, tx any, loanID uuid.UUID, kind domain.ChargeRecordKind) ([]*domain.ChargeRecord, error) {
	var result []*domain.ChargeRecord
	for _, r := range m.Records {
		if r.LoanID == loanID && r.Kind == kind && !r.Paid {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AppliedAt.Before(result[j].AppliedAt) })
	return result, nil
}

func (m *MockChargeRecordRepository) HasUnpaid(ctx context.Context, loanID uuid.UUID) (bool, error) {
	for _, r := range m.Records {
		if r.LoanID == loanID && !r.Paid {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockChargeRecordRepository) ApplyPaymentTx(ctx context.Context, tx any, id uuid.UUID, amount decimal.Decimal, paidAt time.Time) error {
	for _, r := range m.Records {
		if r.ID == id && !r.Paid {
			r.PaidAmount = r.PaidAmount.Add(amount)
			if r.PaidAmount.GreaterThanOrEqual(r.Amount) {
				r.Paid = true
				r.PaidAt = &paidAt
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *MockChargeRecordRepository) ReversePaymentTx(ctx context.Context, tx any, id uuid.UUID, amount decimal.Decimal) error {
	for _, r := range m.Records {
		if r.ID == id && r.PaidAmount.GreaterThanOrEqual(amount) {
			r.PaidAmount = r.PaidAmount.Sub(amount)
			r.Paid = false
			r.PaidAt = nil
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *MockChargeRecordRepository) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.ChargeRecord, error) {
	var result []*domain.ChargeRecord
	for _, r := range m.Records {
		if r.LoanID == loanID {
			result = append(result, r)
		}
	}
	return result, nil
}

// MockAuditRepository is a mock implementation of domain.AuditRepository.
type MockAuditRepository struct {
	Entries []*domain.AuditEntry
	Err     error
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	if m.Err != nil {
		return m.Err
	}
	m.Entries = append(m.Entries, entry)
	return nil
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx any, entry *domain.AuditEntry) error {
	return m.Create(ctx, entry)
}

func (m *MockAuditRepository) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, page, limit int) ([]*domain.AuditEntry, int64, error) {
	var result []*domain.AuditEntry
	for _, e := range m.Entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			result = append(result, e)
		}
	}
	return result, int64(len(result)), nil
}

// MockCapitalRepository is a mock implementation of domain.CapitalRepository.
type MockCapitalRepository struct {
	Investments []*domain.Investment
	Borrowings  []*domain.Borrowing
}

func NewMockCapitalRepository() *MockCapitalRepository {
	return &MockCapitalRepository{}
}

func (m *MockCapitalRepository) CreateInvestment(ctx context.Context, inv *domain.Investment) (*domain.Investment, error) {
	inv.ID = uuid.New()
	m.Investments = append(m.Investments, inv)
	return inv, nil
}

func (m *MockCapitalRepository) ListInvestments(ctx context.Context, page, limit int) ([]*domain.Investment, int64, error) {
	return m.Investments, int64(len(m.Investments)), nil
}

func (m *MockCapitalRepository) CreateBorrowing(ctx context.Context, b *domain.Borrowing) (*domain.Borrowing, error) {
	b.ID = uuid.New()
	m.Borrowings = append(m.Borrowings, b)
	return b, nil
}

func (m *MockCapitalRepository) ListBorrowings(ctx context.Context, page, limit int) ([]*domain.Borrowing, int64, error) {
	return m.Borrowings, int64(len(m.Borrowings)), nil
}

// MockAnalyticsRepository is a mock implementation of domain.AnalyticsRepository.
type MockAnalyticsRepository struct {
	Result *domain.AnalyticsSummary
	Calls  int
}

func NewMockAnalyticsRepository() *MockAnalyticsRepository {
	return &MockAnalyticsRepository{Result: &domain.AnalyticsSummary{}}
}

func (m *MockAnalyticsRepository) Summary(ctx context.Context, start, end *time.Time) (*domain.AnalyticsSummary, error) {
	m.Calls++
	return m.Result, nil
}

// MockQueue records enqueued jobs.
type MockQueue struct {
	Jobs []MockJob
	Err  error
}

// MockJob is one recorded enqueue call.
type MockJob struct {
	Type    string
	Payload any
}

func NewMockQueue() *MockQueue {
	return &MockQueue{}
}

func (m *MockQueue) Enqueue(ctx context.Context, jobType string, payload any) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.Jobs = append(m.Jobs, MockJob{Type: jobType, Payload: payload})
	return uuid.NewString(), nil
}

// MockCache is an in-memory stand-in for the Redis cache adapter.
type MockCache struct {
	Data     map[string][]byte
	Deleted  []string
	Patterns []string
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(ctx context.Context, key string, dest any) error {
	data, ok := m.Data[key]
	if !ok {
		return domain.ErrNotFound
	}
	return json.Unmarshal(data, dest)
}

func (m *MockCache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.Data[key] = data
	return nil
}

func (m *MockCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.Data, k)
		m.Deleted = append(m.Deleted, k)
	}
	return nil
}

func (m *MockCache) DeletePattern(ctx context.Context, pattern string) error {
	m.Patterns = append(m.Patterns, pattern)
	return nil
}

// MockPublisher records published events.
type MockPublisher struct {
	Events []MockEvent
}

// MockEvent is one recorded publish call.
type MockEvent struct {
	Type       string
	CustomerID uuid.UUID
	Payload    any
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(eventType string, customerID uuid.UUID, payload any) {
	m.Events = append(m.Events, MockEvent{Type: eventType, CustomerID: customerID, Payload: payload})
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
)

// CustomerService handles customer onboarding and KYC.
type CustomerService struct {
	store     domain.TxManager
	users     domain.UserRepository
	customers domain.CustomerRepository
	access    *AccessService
	audit     *AuditService
}

func NewCustomerService(store domain.TxManager, users domain.UserRepository, customers domain.CustomerRepository, access *AccessService, audit *AuditService) *CustomerService {
	return &CustomerService{
		store:     store,
		users:     users,
		customers: customers,
		access:    access,
		audit:     audit,
	}
}

// CreateCustomerInput contains input for onboarding a customer.
type CreateCustomerInput struct {
	Email       string
	Name        string
	Password    string
	DateOfBirth time.Time
	IDProof     string
}

// CreateCustomer creates the user row and the customer row in one
// transaction so a half-onboarded customer can never exist.
func (s *CustomerService) CreateCustomer(ctx context.Context, actor *domain.User, input CreateCustomerInput) (*domain.Customer, error) {
	if err := RequireBackOffice(actor); err != nil {
		return nil, err
	}
	if len(input.Password) < 8 {
		return nil, domain.ErrInvalidInput
	}
	if input.DateOfBirth.IsZero() || input.DateOfBirth.After(time.Now()) {
		return nil, domain.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Email:        input.Email,
		Name:         input.Name,
		Role:         domain.RoleCustomer,
		Active:       true,
		PasswordHash: string(hash),
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	var customer *domain.Customer
	err = s.store.WithTransaction(ctx, func(tx any) error {
		created, err := s.users.CreateTx(ctx, tx, user)
		if err != nil {
			return err
		}
		customer = &domain.Customer{
			UserID:      created.ID,
			DateOfBirth: input.DateOfBirth,
			IDProof:     input.IDProof,
			KYCStatus:   domain.KYCPending,
		}
		if _, err := s.customers.CreateTx(ctx, tx, customer); err != nil {
			return err
		}
		customer.Name = created.Name
		customer.Email = created.Email
		customer.Active = created.Active
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, Entry(actor.ID, domain.AuditCustomerCreated, "customer", customer.ID, nil, customer))
	return customer, nil
}

// Get returns one customer, subject to the ownership check.
func (s *CustomerService) Get(ctx context.Context, actor *domain.User, id uuid.UUID) (*domain.Customer, error) {
	if err := s.access.CanAccessCustomer(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.customers.GetByID(ctx, id)
}

// List pages through customers: admin/manager see all, agents only their
// assigned book, customers only themselves.
func (s *CustomerService) List(ctx context.Context, actor *domain.User, page, limit int) ([]*domain.Customer, int64, error) {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return s.customers.List(ctx, page, limit)
	case domain.RoleAgent:
		return s.customers.ListByAgent(ctx, actor.ID, page, limit)
	case domain.RoleCustomer:
		customer, err := s.customers.GetByUserID(ctx, actor.ID)
		if err != nil {
			return nil, 0, err
		}
		return []*domain.Customer{customer}, 1, nil
	}
	return nil, 0, domain.ErrForbidden
}

// UpdateKYC sets the verification status. Admin and manager.
func (s *CustomerService) UpdateKYC(ctx context.Context, actor *domain.User, id uuid.UUID, status domain.KYCStatus) error {
	if err := RequireBackOffice(actor); err != nil {
		return err
	}
	if !status.Valid() {
		return domain.ErrKYCStatusInvalid
	}
	return s.customers.UpdateKYC(ctx, id, status)
}

// Deactivate disables a customer's user account. Admin, or a manager
// holding the delete-customers flag. Loans and history remain.
func (s *CustomerService) Deactivate(ctx context.Context, actor *domain.User, id uuid.UUID) error {
	allowed := actor.Role == domain.RoleAdmin ||
		(actor.Role == domain.RoleManager && actor.CanDeleteCustomers)
	if !allowed {
		return domain.ErrForbidden
	}

	before, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.customers.Deactivate(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, Entry(actor.ID, domain.AuditCustomerDeleted, "customer", id, before, nil))
	return nil
}

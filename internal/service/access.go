package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
)

// AccessService implements the two primitive ownership checks every
// operation gates through: admin and manager see everything, agents see
// actively assigned customers, customers see themselves.
type AccessService struct {
	customers   domain.CustomerRepository
	assignments domain.AssignmentRepository
}

func NewAccessService(customers domain.CustomerRepository, assignments domain.AssignmentRepository) *AccessService {
	return &AccessService{customers: customers, assignments: assignments}
}

// CanAccessCustomer returns nil when user may read or act on the customer,
// domain.ErrForbidden otherwise.
func (s *AccessService) CanAccessCustomer(ctx context.Context, user *domain.User, customerID uuid.UUID) error {
	switch user.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return nil
	case domain.RoleAgent:
		ok, err := s.assignments.HasActiveAssignment(ctx, user.ID, customerID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrForbidden
		}
		return nil
	case domain.RoleCustomer:
		customer, err := s.customers.GetByUserID(ctx, user.ID)
		if err != nil {
			if errors.Is(err, domain.ErrCustomerNotFound) {
				return domain.ErrForbidden
			}
			return err
		}
		if customer.ID != customerID {
			return domain.ErrForbidden
		}
		return nil
	}
	return domain.ErrForbidden
}

// CustomerForUser resolves the customer profile behind a customer
// principal. A user without a profile gets ErrForbidden so list scoping
// never falls open.
func (s *AccessService) CustomerForUser(ctx context.Context, userID uuid.UUID) (*domain.Customer, error) {
	customer, err := s.customers.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return nil, domain.ErrForbidden
		}
		return nil, err
	}
	return customer, nil
}

// CanAccessLoan reduces to the customer check: a loan is visible exactly to
// those who may access its customer.
func (s *AccessService) CanAccessLoan(ctx context.Context, user *domain.User, loan *domain.Loan) error {
	return s.CanAccessCustomer(ctx, user, loan.CustomerID)
}

// RequireStaff rejects customer principals for mutating operations.
func RequireStaff(user *domain.User) error {
	if !user.Role.IsStaff() {
		return domain.ErrForbidden
	}
	return nil
}

// RequireBackOffice restricts an operation to admin and manager.
func RequireBackOffice(user *domain.User) error {
	if user.Role != domain.RoleAdmin && user.Role != domain.RoleManager {
		return domain.ErrForbidden
	}
	return nil
}

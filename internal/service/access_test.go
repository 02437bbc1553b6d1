package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
	"github.com/silambarasu-a/namma-finance-sub000/internal/testutil"
)

func newAccessFixture() (*AccessService, *testutil.MockCustomerRepository, *testutil.MockAssignmentRepository) {
	customers := testutil.NewMockCustomerRepository()
	assignments := testutil.NewMockAssignmentRepository()
	return NewAccessService(customers, assignments), customers, assignments
}

func TestCanAccessCustomer_BackOfficeSeesAll(t *testing.T) {
	access, _, _ := newAccessFixture()

	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleManager} {
		user := &domain.User{ID: uuid.New(), Role: role}
		if err := access.CanAccessCustomer(context.Background(), user, uuid.New()); err != nil {
			t.Errorf("Expected %s to access any customer, got %v", role, err)
		}
	}
}

func TestCanAccessCustomer_AgentNeedsActiveAssignment(t *testing.T) {
	access, customers, assignments := newAccessFixture()
	customer := &domain.Customer{UserID: uuid.New()}
	customers.AddCustomer(customer)
	agent := &domain.User{ID: uuid.New(), Role: domain.RoleAgent}

	if err := access.CanAccessCustomer(context.Background(), agent, customer.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Expected ErrForbidden before assignment, got %v", err)
	}

	if _, err := assignments.Create(context.Background(), &domain.AgentAssignment{
		AgentID: agent.ID, CustomerID: customer.ID,
	}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := access.CanAccessCustomer(context.Background(), agent, customer.ID); err != nil {
		t.Errorf("Expected access after assignment, got %v", err)
	}

	if err := assignments.DeactivateForCustomer(context.Background(), customer.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := access.CanAccessCustomer(context.Background(), agent, customer.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Expected ErrForbidden after deactivation, got %v", err)
	}
}

func TestCanAccessCustomer_CustomerOnlySelf(t *testing.T) {
	access, customers, _ := newAccessFixture()
	own := &domain.Customer{UserID: uuid.New()}
	customers.AddCustomer(own)
	other := &domain.Customer{UserID: uuid.New()}
	customers.AddCustomer(other)

	user := &domain.User{ID: own.UserID, Role: domain.RoleCustomer}
	if err := access.CanAccessCustomer(context.Background(), user, own.ID); err != nil {
		t.Errorf("Expected self access, got %v", err)
	}
	if err := access.CanAccessCustomer(context.Background(), user, other.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Expected ErrForbidden for other customer, got %v", err)
	}
}

func TestCanAccessCustomer_CustomerWithoutRecord(t *testing.T) {
	access, _, _ := newAccessFixture()
	user := &domain.User{ID: uuid.New(), Role: domain.RoleCustomer}

	if err := access.CanAccessCustomer(context.Background(), user, uuid.New()); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}
}

func TestRequireStaff(t *testing.T) {
	if err := RequireStaff(&domain.User{Role: domain.RoleAgent}); err != nil {
		t.Errorf("Expected agents to pass, got %v", err)
	}
	if err := RequireStaff(&domain.User{Role: domain.RoleCustomer}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Expected ErrForbidden for customers, got %v", err)
	}
}

func TestRequireBackOffice(t *testing.T) {
	if err := RequireBackOffice(&domain.User{Role: domain.RoleManager}); err != nil {
		t.Errorf("Expected managers to pass, got %v", err)
	}
	if err := RequireBackOffice(&domain.User{Role: domain.RoleAgent}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Expected ErrForbidden for agents, got %v", err)
	}
}

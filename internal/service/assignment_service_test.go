package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
	"github.com/silambarasu-a/namma-finance-sub000/internal/testutil"
)

func newAssignmentFixture() (*AssignmentService, *testutil.MockUserRepository, *testutil.MockCustomerRepository, *testutil.MockAssignmentRepository) {
	users := testutil.NewMockUserRepository()
	customers := testutil.NewMockCustomerRepository()
	assignments := testutil.NewMockAssignmentRepository()
	service := NewAssignmentService(users, customers, assignments, NewAuditService(testutil.NewMockAuditRepository()))
	return service, users, customers, assignments
}

func TestAssign_ReplacesActiveAssignment(t *testing.T) {
	service, users, customers, assignments := newAssignmentFixture()
	first := agentUser()
	users.AddUser(first)
	second := agentUser()
	users.AddUser(second)
	customer := &domain.Customer{UserID: uuid.New()}
	customers.AddCustomer(customer)

	if _, err := service.Assign(context.Background(), adminUser(), first.ID, customer.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := service.Assign(context.Background(), adminUser(), second.ID, customer.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	active, err := assignments.ActiveAgentFor(context.Background(), customer.ID)
	if err != nil {
		t.Fatalf("Expected an active assignment, got %v", err)
	}
	if active.AgentID != second.ID {
		t.Errorf("Expected the second agent active, got %s", active.AgentID)
	}

	var activeCount int
	for _, a := range assignments.Assignments {
		if a.Active {
			activeCount++
		}
	}
	if activeCount != 1 {
		t.Errorf("Expected exactly one active assignment, got %d", activeCount)
	}
}

func TestAssign_RejectsNonAgent(t *testing.T) {
	service, users, customers, _ := newAssignmentFixture()
	manager := &domain.User{Email: "m@test.local", Name: "M", Role: domain.RoleManager, Active: true}
	users.AddUser(manager)
	customer := &domain.Customer{UserID: uuid.New()}
	customers.AddCustomer(customer)

	if _, err := service.Assign(context.Background(), adminUser(), manager.ID, customer.ID); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestAssign_RejectsInactiveAgent(t *testing.T) {
	service, users, customers, _ := newAssignmentFixture()
	agent := agentUser()
	agent.Active = false
	users.AddUser(agent)
	customer := &domain.Customer{UserID: uuid.New()}
	customers.AddCustomer(customer)

	if _, err := service.Assign(context.Background(), adminUser(), agent.ID, customer.ID); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestUnassign_NoActiveAssignment(t *testing.T) {
	service, _, customers, _ := newAssignmentFixture()
	customer := &domain.Customer{UserID: uuid.New()}
	customers.AddCustomer(customer)

	if err := service.Unassign(context.Background(), adminUser(), customer.ID); !errors.Is(err, domain.ErrAssignmentNotFound) {
		t.Errorf("Expected ErrAssignmentNotFound, got %v", err)
	}
}

func TestListByAgent_AgentOnlyOwn(t *testing.T) {
	service, _, _, _ := newAssignmentFixture()
	agent := agentUser()

	if _, err := service.ListByAgent(context.Background(), agent, agent.ID); err != nil {
		t.Errorf("Expected no error for own list, got %v", err)
	}
	if _, err := service.ListByAgent(context.Background(), agent, uuid.New()); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Expected ErrForbidden for another agent's list, got %v", err)
	}
}

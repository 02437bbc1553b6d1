package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
)

// AssignmentService manages the agent-to-customer book.
type AssignmentService struct {
	users       domain.UserRepository
	customers   domain.CustomerRepository
	assignments domain.AssignmentRepository
	audit       *AuditService
}

func NewAssignmentService(users domain.UserRepository, customers domain.CustomerRepository, assignments domain.AssignmentRepository, audit *AuditService) *AssignmentService {
	return &AssignmentService{
		users:       users,
		customers:   customers,
		assignments: assignments,
		audit:       audit,
	}
}

// Assign gives a customer to an agent, replacing any currently active
// assignment. Admin and manager.
func (s *AssignmentService) Assign(ctx context.Context, actor *domain.User, agentID, customerID uuid.UUID) (*domain.AgentAssignment, error) {
	if err := RequireBackOffice(actor); err != nil {
		return nil, err
	}

	agent, err := s.users.GetByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if agent.Role != domain.RoleAgent || !agent.Active {
		return nil, domain.ErrInvalidInput
	}
	if _, err := s.customers.GetByID(ctx, customerID); err != nil {
		return nil, err
	}

	if err := s.assignments.DeactivateForCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	assignment, err := s.assignments.Create(ctx, &domain.AgentAssignment{
		AgentID:    agentID,
		CustomerID: customerID,
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, Entry(actor.ID, domain.AuditAgentAssigned, "customer", customerID, nil, assignment))
	return assignment, nil
}

// Unassign removes the customer's active assignment. Admin and manager.
func (s *AssignmentService) Unassign(ctx context.Context, actor *domain.User, customerID uuid.UUID) error {
	if err := RequireBackOffice(actor); err != nil {
		return err
	}
	current, err := s.assignments.ActiveAgentFor(ctx, customerID)
	if err != nil {
		return err
	}
	if err := s.assignments.DeactivateForCustomer(ctx, customerID); err != nil {
		return err
	}
	s.audit.Record(ctx, Entry(actor.ID, domain.AuditAgentUnassigned, "customer", customerID, current, nil))
	return nil
}

// ListByAgent returns an agent's active assignments. Staff only; agents may
// list only their own.
func (s *AssignmentService) ListByAgent(ctx context.Context, actor *domain.User, agentID uuid.UUID) ([]*domain.AgentAssignment, error) {
	if err := RequireStaff(actor); err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleAgent && actor.ID != agentID {
		return nil, domain.ErrForbidden
	}
	return s.assignments.ListByAgent(ctx, agentID)
}

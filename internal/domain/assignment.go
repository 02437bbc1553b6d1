package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrAssignmentNotFound = errors.New("agent assignment not found")

// AgentAssignment links a field agent to a customer. History is kept as
// rows; at most one assignment per customer is active at a time.
type AgentAssignment struct {
	ID         uuid.UUID `json:"id"`
	AgentID    uuid.UUID `json:"agentId"`
	CustomerID uuid.UUID `json:"customerId"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// AssignmentRepository is the storage contract for agent assignments.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *AgentAssignment) (*AgentAssignment, error)
	// ActiveAgentFor returns the active assignment for a customer, or
	// ErrAssignmentNotFound when the customer has no active agent.
	ActiveAgentFor(ctx context.Context, customerID uuid.UUID) (*AgentAssignment, error)
	HasActiveAssignment(ctx context.Context, agentID, customerID uuid.UUID) (bool, error)
	DeactivateForCustomer(ctx context.Context, customerID uuid.UUID) error
	ListByAgent(ctx context.Context, agentID uuid.UUID) ([]*AgentAssignment, error)
}

package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
)

const assignmentColumns = `id, agent_id, customer_id, active, created_at, updated_at`

// AssignmentRepo implements domain.AssignmentRepository. A partial unique
// index on (customer_id) WHERE active enforces one active agent per customer.
type AssignmentRepo struct {
	pool *pgxpool.Pool
}

func NewAssignmentRepo(pool *pgxpool.Pool) *AssignmentRepo {
	return &AssignmentRepo{pool: pool}
}

func (r *AssignmentRepo) Create(ctx context.Context, assignment *domain.AgentAssignment) (*domain.AgentAssignment, error) {
	query := `
		INSERT INTO agent_assignments (agent_id, customer_id, active)
		VALUES ($1, $2, true)
		RETURNING ` + assignmentColumns
	row := r.pool.QueryRow(ctx, query, assignment.AgentID, assignment.CustomerID)
	created, err := scanAssignment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("insert assignment: %w", err)
	}
	return created, nil
}

func (r *AssignmentRepo) ActiveAgentFor(ctx context.Context, customerID uuid.UUID) (*domain.AgentAssignment, error) {
	query := `SELECT ` + assignmentColumns + `
		FROM agent_assignments WHERE customer_id = $1 AND active`
	assignment, err := scanAssignment(r.pool.QueryRow(ctx, query, customerID))
	if err != nil {
		return nil, notFound(err, domain.ErrAssignmentNotFound)
	}
	return assignment, nil
}

func (r *AssignmentRepo) HasActiveAssignment(ctx context.Context, agentID, customerID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM agent_assignments
			WHERE agent_id = $1 AND customer_id = $2 AND active)`,
		agentID, customerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check assignment: %w", err)
	}
	return exists, nil
}

func (r *AssignmentRepo) DeactivateForCustomer(ctx context.Context, customerID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE agent_assignments SET active = false, updated_at = now()
		WHERE customer_id = $1 AND active`, customerID)
	if err != nil {
		return fmt.Errorf("deactivate assignments: %w", err)
	}
	return nil
}

func (r *AssignmentRepo) ListByAgent(ctx context.Context, agentID uuid.UUID) ([]*domain.AgentAssignment, error) {
	query := `SELECT ` + assignmentColumns + `
		FROM agent_assignments WHERE agent_id = $1 AND active
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, agentID)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*domain.AgentAssignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, assignment)
	}
	return assignments, rows.Err()
}

func scanAssignment(s scannable) (*domain.AgentAssignment, error) {
	var a domain.AgentAssignment
	err := s.Scan(&a.ID, &a.AgentID, &a.CustomerID, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

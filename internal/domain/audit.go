package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction enumerates mutating actions recorded in the audit log.
type AuditAction string

const (
	AuditLoanCreated        AuditAction = "loan.created"
	AuditLoanApproved       AuditAction = "loan.approved"
	AuditLoanDisbursed      AuditAction = "loan.disbursed"
	AuditLoanClosed         AuditAction = "loan.closed"
	AuditLoanPreclosed      AuditAction = "loan.preclosed"
	AuditLoanDefaulted      AuditAction = "loan.defaulted"
	AuditLoanDeleted        AuditAction = "loan.deleted"
	AuditLoanToppedUp       AuditAction = "loan.topped_up"
	AuditCollectionRecorded AuditAction = "collection.recorded"
	AuditCollectionDeleted  AuditAction = "collection.deleted"
	AuditLateFeeAccrued     AuditAction = "charge.late_fee_accrued"
	AuditPenaltyApplied     AuditAction = "charge.penalty_applied"
	AuditCustomerCreated    AuditAction = "customer.created"
	AuditCustomerDeleted    AuditAction = "customer.deleted"
	AuditUserCreated        AuditAction = "user.created"
	AuditUserUpdated        AuditAction = "user.updated"
	AuditAgentAssigned      AuditAction = "agent.assigned"
	AuditAgentUnassigned    AuditAction = "agent.unassigned"
)

// AuditEntry is one append-only record of a mutating action with the entity
// state before and after. Failure to write an entry never aborts the
// underlying operation.
type AuditEntry struct {
	ID         uuid.UUID       `json:"id"`
	ActorID    uuid.UUID       `json:"actorId"`
	Action     AuditAction     `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   uuid.UUID       `json:"entityId"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	IP         string          `json:"ip,omitempty"`
	UserAgent  string          `json:"userAgent,omitempty"`
	Remarks    string          `json:"remarks,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// AuditRepository is the storage contract for the audit log.
type AuditRepository interface {
	Create(ctx context.Context, entry *AuditEntry) error
	CreateTx(ctx context.Context, tx any, entry *AuditEntry) error
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, page, limit int) ([]*AuditEntry, int64, error)
}

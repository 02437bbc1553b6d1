package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
)

// AuditService appends audit entries. Money mutations write in-transaction
// so a committed ledger change always carries its entry; a failed write is
// logged at warn and never aborts the caller.
type AuditService struct {
	repo domain.AuditRepository
}

func NewAuditService(repo domain.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// RecordTx writes the entry inside the caller's transaction.
func (s *AuditService) RecordTx(ctx context.Context, tx any, entry *domain.AuditEntry) {
	if err := s.repo.CreateTx(ctx, tx, entry); err != nil {
		log.Warn().Err(err).
			Str("action", string(entry.Action)).
			Str("entity_id", entry.EntityID.String()).
			Msg("audit write failed")
	}
}

// Record writes the entry outside any transaction.
func (s *AuditService) Record(ctx context.Context, entry *domain.AuditEntry) {
	if err := s.repo.Create(ctx, entry); err != nil {
		log.Warn().Err(err).
			Str("action", string(entry.Action)).
			Str("entity_id", entry.EntityID.String()).
			Msg("audit write failed")
	}
}

// ListByEntity pages through the audit trail of one entity.
func (s *AuditService) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, page, limit int) ([]*domain.AuditEntry, int64, error) {
	return s.repo.ListByEntity(ctx, entityType, entityID, page, limit)
}

// Entry builds an audit entry with before/after snapshots marshalled to
// JSON. Marshal failures leave the snapshot empty rather than failing.
func Entry(actor uuid.UUID, action domain.AuditAction, entityType string, entityID uuid.UUID, before, after any) *domain.AuditEntry {
	entry := &domain.AuditEntry{
		ActorID:    actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if before != nil {
		if data, err := json.Marshal(before); err == nil {
			entry.Before = data
		}
	}
	if after != nil {
		if data, err := json.Marshal(after); err == nil {
			entry.After = data
		}
	}
	return entry
}

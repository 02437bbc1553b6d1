package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
)

const auditColumns = `id, actor_id, action, entity_type, entity_id,
	before_state, after_state, ip, user_agent, remarks, created_at`

// AuditRepo implements domain.AuditRepository. Entries are append-only.
type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Create(ctx context.Context, entry *domain.AuditEntry) error {
	return r.create(ctx, r.pool, entry)
}

func (r *AuditRepo) CreateTx(ctx context.Context, tx any, entry *domain.AuditEntry) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}
	return r.create(ctx, t, entry)
}

func (r *AuditRepo) create(ctx context.Context, q querier, entry *domain.AuditEntry) error {
	_, err := q.Exec(ctx, `
		INSERT INTO audit_log (actor_id, action, entity_type, entity_id,
			before_state, after_state, ip, user_agent, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ActorID, entry.Action, entry.EntityType, entry.EntityID,
		entry.Before, entry.After, entry.IP, entry.UserAgent, entry.Remarks,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepo) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, page, limit int) ([]*domain.AuditEntry, int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM audit_log WHERE entity_type = $1 AND entity_id = $2`,
		entityType, entityID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	lim, offset := pageBounds(page, limit)
	rows, err := r.pool.Query(ctx, `
		SELECT `+auditColumns+`
		FROM audit_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		entityType, entityID, lim, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		err := rows.Scan(
			&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID,
			&e.Before, &e.After, &e.IP, &e.UserAgent, &e.Remarks, &e.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, total, rows.Err()
}

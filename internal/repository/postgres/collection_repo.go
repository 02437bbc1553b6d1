package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
)

const collectionColumns = `id, loan_id, agent_id, amount,
	principal_paid, interest_paid, late_fee_paid, penalty_paid,
	collection_date, payment_method, receipt_number, remarks, created_at`

// CollectionRepo implements domain.CollectionRepository.
type CollectionRepo struct {
	pool *pgxpool.Pool
}

func NewCollectionRepo(pool *pgxpool.Pool) *CollectionRepo {
	return &CollectionRepo{pool: pool}
}

func (r *CollectionRepo) CreateTx(ctx context.Context, tx any, collection *domain.Collection) (*domain.Collection, error) {
	t, err := txFrom(tx)
	if err != nil {
		return nil, err
	}
	query := `
		INSERT INTO collections (loan_id, agent_id, amount,
			principal_paid, interest_paid, late_fee_paid, penalty_paid,
			collection_date, payment_method, receipt_number, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + collectionColumns
	row := t.QueryRow(ctx, query,
		collection.LoanID, collection.AgentID, collection.Amount,
		collection.PrincipalPaid, collection.InterestPaid, collection.LateFeePaid, collection.PenaltyPaid,
		collection.CollectionDate, collection.PaymentMethod, collection.ReceiptNumber, collection.Remarks,
	)
	created, err := scanCollection(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrReceiptConflict
		}
		return nil, fmt.Errorf("insert collection: %w", err)
	}
	return created, nil
}

func (r *CollectionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections WHERE id = $1`
	collection, err := scanCollection(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, domain.ErrCollectionNotFound)
	}
	return collection, nil
}

func (r *CollectionRepo) List(ctx context.Context, filter domain.CollectionFilter) ([]*domain.Collection, int64, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.LoanID != uuid.Nil {
		where = append(where, "loan_id = "+arg(filter.LoanID))
	}
	if filter.AgentID != uuid.Nil {
		where = append(where, "agent_id = "+arg(filter.AgentID))
	}
	if filter.CustomerID != uuid.Nil {
		where = append(where, `loan_id IN (
			SELECT id FROM loans WHERE customer_id = `+arg(filter.CustomerID)+`)`)
	}
	if filter.StartDate != nil {
		where = append(where, "collection_date >= "+arg(*filter.StartDate))
	}
	if filter.EndDate != nil {
		where = append(where, "collection_date <= "+arg(*filter.EndDate))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM collections`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count collections: %w", err)
	}

	lim, offset := pageBounds(filter.Page, filter.Limit)
	query := `SELECT ` + collectionColumns + ` FROM collections` + clause +
		` ORDER BY collection_date DESC, created_at DESC LIMIT ` + arg(lim) + ` OFFSET ` + arg(offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()

	var collections []*domain.Collection
	for rows.Next() {
		collection, err := scanCollection(rows)
		if err != nil {
			return nil, 0, err
		}
		collections = append(collections, collection)
	}
	return collections, total, rows.Err()
}

func (r *CollectionRepo) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.Collection, error) {
	query := `SELECT ` + collectionColumns + `
		FROM collections WHERE loan_id = $1
		ORDER BY collection_date DESC, created_at DESC`
	rows, err := r.pool.Query(ctx, query, loanID)
	if err != nil {
		return nil, fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()

	var collections []*domain.Collection
	for rows.Next() {
		collection, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, collection)
	}
	return collections, rows.Err()
}

func (r *CollectionRepo) DeleteTx(ctx context.Context, tx any, id uuid.UUID) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}
	tag, err := t.Exec(ctx, `DELETE FROM collections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCollectionNotFound
	}
	return nil
}

func scanCollection(s scannable) (*domain.Collection, error) {
	var c domain.Collection
	err := s.Scan(
		&c.ID, &c.LoanID, &c.AgentID, &c.Amount,
		&c.PrincipalPaid, &c.InterestPaid, &c.LateFeePaid, &c.PenaltyPaid,
		&c.CollectionDate, &c.PaymentMethod, &c.ReceiptNumber, &c.Remarks, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
